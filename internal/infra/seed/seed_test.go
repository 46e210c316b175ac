package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boddenberg/technova-crm-go/internal/domain"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadUsers(t *testing.T) {
	path := writeSeed(t, `
users:
  - id: u-admin
    login: admin
    name: Admin
    role: ADMIN
    password: admin
  - login: ana
    role: SELLER
    password: ana
`)

	users, err := LoadUsers(path)
	if err != nil {
		t.Fatalf("LoadUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != "u-admin" || users[0].Role != domain.RoleAdmin {
		t.Errorf("unexpected first user: %+v", users[0])
	}
	if users[1].ID == "" {
		t.Error("expected generated id")
	}
	if users[1].Name != "ana" {
		t.Errorf("expected name to default to login, got %q", users[1].Name)
	}
}

func TestLoadUsers_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":          "users: []\n",
		"unknown role":   "users:\n  - login: x\n    role: ROOT\n    password: x\n",
		"no password":    "users:\n  - login: x\n    role: ADMIN\n",
		"duplicate":      "users:\n  - login: x\n    role: ADMIN\n    password: x\n  - login: X\n    role: HR\n    password: y\n",
		"malformed yaml": "users: [\n",
	}
	for name, body := range cases {
		if _, err := LoadUsers(writeSeed(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := LoadUsers(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAdmin(t *testing.T) {
	users := Admin("root", "pw")
	if len(users) != 1 || users[0].Role != domain.RoleAdmin || users[0].Login != "root" || users[0].ID == "" {
		t.Fatalf("unexpected admin seed: %+v", users)
	}
}
