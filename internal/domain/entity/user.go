package entity

import "fmt"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleDispatcher Role = "dispatcher"
	RoleTechnician Role = "technician"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleManager, RoleDispatcher, RoleTechnician:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is the acting identity behind a status change. The role here is
// always re-resolved from storage, never taken from the request.
type User struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Role Role   `json:"role" bson:"role"`
}
