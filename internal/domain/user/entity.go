// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
)

// Role is the closed set of principal roles. Branching on a Role goes through
// exhaustive switches so adding a role is a compile-time-checked change.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a request-supplied role string onto the closed set. An empty
// string defaults to buyer; anything else is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return RoleBuyer, nil
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleFarmer:
		return RoleFarmer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", apperr.ErrNotFound
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleFarmer, RoleAdmin:
		return true
	}
	return false
}

// User represents an authenticated principal. The role is immutable after
// signup; no endpoint updates it.
type User struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Username string  `gorm:"uniqueIndex;not null;size:100" json:"username"`
	Email    *string `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Password string  `gorm:"not null;size:255" json:"-"`
	FullName string  `gorm:"not null;size:255" json:"full_name"`

	Phone    *string `gorm:"uniqueIndex;size:20" json:"phone,omitempty"`
	Address  string  `gorm:"size:500" json:"address,omitempty"`  // buyer delivery address
	Location string  `gorm:"size:255" json:"location,omitempty"` // farmer village/city

	Role     Role `gorm:"not null;default:'buyer';size:20" json:"user_type"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the principal holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
