package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// Role is the closed set of roles a user can hold. The string values are
// what is stored in the database and carried in token claims.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole accepts the stored form ("ROLE_ADMIN") as well as the short
// form ("admin", "ADMIN").
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleUser), "USER", "user":
		return RoleUser, nil
	case string(RoleAdmin), "ADMIN", "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidRole, s)
}

type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Role  Role   `json:"role"`
}

func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID, Login: u.Login, Role: u.Role}
}
