// Package seed provides the users created when no state has been persisted yet.
package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// File is the layout of the seed users file:
//
//	users:
//	  - login: admin
//	    name: Administrator
//	    role: ADMIN
//	    password: change-me
type File struct {
	Users []domain.User `yaml:"users"`
}

// LoadUsers reads the seed users from a YAML file. Users without an id get
// a random one; logins must be unique and roles known.
func LoadUsers(path string) ([]domain.User, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("seed file %s has no users", path)
	}

	seen := make(map[string]bool, len(f.Users))
	for i := range f.Users {
		u := &f.Users[i]
		if u.Login == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: login and password are required", i)
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("seed user %s: unknown role %q", u.Login, u.Role)
		}
		key := strings.ToLower(u.Login)
		if seen[key] {
			return nil, fmt.Errorf("seed user %s: duplicate login", u.Login)
		}
		seen[key] = true
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if u.Name == "" {
			u.Name = u.Login
		}
	}
	return f.Users, nil
}

// Admin returns the single administrator used when no seed file is configured.
func Admin(login, password string) []domain.User {
	return []domain.User{{
		ID:       uuid.NewString(),
		Login:    login,
		Name:     "Administrator",
		Role:     domain.RoleAdmin,
		Password: password,
	}}
}
