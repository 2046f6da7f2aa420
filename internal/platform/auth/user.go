package auth

import (
	"fmt"
	"strings"
)

// Role is the caller's clinic role.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a role claim.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is the caller identity established by the identity provider. For
// doctors, ID is the doctor record id.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsDoctor() bool  { return u.Role == RoleDoctor }
func (u User) IsPatient() bool { return u.Role == RolePatient }
