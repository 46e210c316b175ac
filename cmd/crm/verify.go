package main

import (
	"errors"
	"fmt"

	"github.com/boddenberg/technova-crm-go/internal/config"
	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/observability"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the persisted state can be loaded",
	Long: `verify loads the persisted state with the configured backend and
prints the size of every collection. It exits non-zero when the state is
malformed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := observability.NewLogger(cfg.LogLevel)
		defer logger.Sync()

		repo, closeRepo, err := openRepository(cfg, logger)
		if err != nil {
			return err
		}
		defer closeRepo()

		st, err := repo.Load(cmd.Context())
		var corrupt *domain.ErrCorruptState
		switch {
		case errors.Is(err, port.ErrNoState):
			fmt.Fprintf(cmd.OutOrStdout(), "%s: no state persisted yet\n", repo.Backend())
			return nil
		case errors.As(err, &corrupt):
			logger.Error("persisted state is corrupt", zap.String("source", corrupt.Source), zap.Error(err))
			return err
		case err != nil:
			return fmt.Errorf("load state: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: state ok\n", repo.Backend())
		fmt.Fprintf(out, "  users:             %d\n", len(st.Users))
		fmt.Fprintf(out, "  clients:           %d\n", len(st.Clients))
		fmt.Fprintf(out, "  meetings:          %d\n", len(st.Meetings))
		fmt.Fprintf(out, "  goals:             %d\n", len(st.Goals))
		fmt.Fprintf(out, "  financial entries: %d\n", len(st.FinancialEntries))
		fmt.Fprintf(out, "  fixed costs:       %d\n", len(st.FixedCosts))
		return nil
	},
}
