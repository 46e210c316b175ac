package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "TechNova CRM backend",
	Long: `crm serves the TechNova CRM API: clients and pipeline, agenda, users,
ledger, fixed costs, monthly goals and the seller ranking.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
