package domain

import "time"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleFrontDesk    Role = "front_desk"
	RoleHousekeeping Role = "housekeeping"
	RoleFnB          Role = "fnb"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleFrontDesk, RoleHousekeeping, RoleFnB:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}
