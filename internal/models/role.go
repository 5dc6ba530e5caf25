package models

import "gorm.io/gorm"

// UserRole grants a role to a user. A user holds each role at most once.
type UserRole struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_roles_user_role" json:"user_id"`
	Role   string `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_roles_user_role" json:"role"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (UserRole) TableName() string { return "user_roles" }

func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// Role names used across the application.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// ValidRole reports whether name is an assignable role.
func ValidRole(name string) bool {
	return name == RoleAdmin || name == RoleViewer
}
