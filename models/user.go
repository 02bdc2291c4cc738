package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User role constants
const (
	RoleAdmin     = "admin"
	RoleAssociate = "associate"
	RoleClient    = "client"
)

// Permission level constants (firm-internal privilege flag, distinct from role)
const (
	PermissionFull    = "full access"
	PermissionLimited = "limited access"
	PermissionNone    = "no access"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string  `gorm:"not null" json:"full_name"`
	Email       string  `gorm:"uniqueIndex;not null" json:"email"`
	Password    string  `gorm:"not null" json:"-"`
	Phone       string  `json:"phone"`
	FirmID      *string `gorm:"type:uuid;index" json:"law_firm_id"` // Nullable - platform admins have no firm
	Role        string  `gorm:"not null;default:associate" json:"role"`
	Permissions string  `gorm:"not null;default:'limited access'" json:"permissions"`
	IsActive    bool    `gorm:"not null;default:true" json:"is_active"`

	LastLoginAt         *time.Time `json:"last_login_at"`
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockoutUntil        *time.Time `json:"-"`

	// Relationships
	Firm *Firm `gorm:"foreignKey:FirmID" json:"firm,omitempty"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// HasFirm checks if the user has a firm assigned
func (u *User) HasFirm() bool {
	return u.FirmID != nil && *u.FirmID != ""
}

// IsClient checks if the user is an external client
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// HasFullAccess checks if the user may manage team membership and settings
func (u *User) HasFullAccess() bool {
	return u.Permissions == PermissionFull
}

// IsValidUserRole checks if the role is valid
func IsValidUserRole(role string) bool {
	return role == RoleAdmin || role == RoleAssociate || role == RoleClient
}

// IsValidPermission checks if the permission level is valid
func IsValidPermission(permission string) bool {
	return permission == PermissionFull || permission == PermissionLimited || permission == PermissionNone
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
