// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/fcrm/utils"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	RoleID       *uuid.UUID `gorm:"type:uuid;index" json:"role_id,omitempty"`
	RoleModel    *Role      `gorm:"foreignKey:RoleID" json:"-"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// RoleName returns the name of the loaded role, or "" when none is loaded.
func (u *User) RoleName() string {
	if u.RoleModel == nil {
		return ""
	}
	return u.RoleModel.Name
}

// IsSuperAdmin reports whether the user bypasses permission checks.
func (u *User) IsSuperAdmin() bool {
	return u.RoleName() == RoleSuperAdmin
}

// HasPermission checks the loaded role's permissions, honouring wildcards.
// RoleModel.Permissions must be preloaded.
func (u *User) HasPermission(permissionName string) bool {
	if u.IsSuperAdmin() {
		return true
	}
	if u.RoleModel == nil || !u.RoleModel.IsActive {
		return false
	}
	return utils.HasPermission(u.RoleModel.PermissionNames(), permissionName)
}

// HasAnyPermission is true when at least one of the given permissions is held.
func (u *User) HasAnyPermission(names ...string) bool {
	for _, n := range names {
		if u.HasPermission(n) {
			return true
		}
	}
	return false
}

// PermissionNames lists the permission names granted through the user's role.
func (u *User) PermissionNames() []string {
	if u.RoleModel == nil {
		return []string{}
	}
	return u.RoleModel.PermissionNames()
}
