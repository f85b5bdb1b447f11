package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles. Admins are not bound to a tenant; operators and viewers are.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User represents a portal user
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"`
	Email     string         `gorm:"size:255" json:"email"`
	Nickname  string         `gorm:"size:100" json:"nickname"`
	Role      string         `gorm:"size:50;default:viewer" json:"role"` // admin, operator, viewer
	TenantID  *uint          `gorm:"index" json:"tenant_id"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// TenantIDValue is the tenant the user is bound to, 0 when none.
func (u *User) TenantIDValue() uint {
	if u.TenantID == nil {
		return 0
	}
	return *u.TenantID
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOperator || role == RoleViewer
}
