package domain

// ============================================================
// Users & Roles
// ============================================================

// Role is the fixed set of roles gating access and visible data.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleSeller  Role = "SELLER"
	RoleHR      Role = "HR"
	RoleFinance Role = "FINANCE"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleHR, RoleFinance:
		return true
	}
	return false
}

// User is an account able to log in.
// Password is an opaque compared value, it is not hashed.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Login    string `json:"login" yaml:"login"`
	Name     string `json:"name" yaml:"name"`
	Role     Role   `json:"role" yaml:"role"`
	Password string `json:"password,omitempty" yaml:"password"`
}

// Public returns a copy of the user without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}

// NewUserInput is the payload accepted by CRM.AddUser.
type NewUserInput struct {
	Login    string `json:"login" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     Role   `json:"role" validate:"required,oneof=ADMIN SELLER HR FINANCE"`
	Password string `json:"password" validate:"required"`
}
