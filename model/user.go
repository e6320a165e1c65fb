package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles. New accounts start as "pending" until verification promotes
// them to a real role.
const (
	RolePending = "pending"
	RoleChild   = "child"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)

// User account statuses.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// DefaultDailyMessages is the chat quota applied to new accounts.
const DefaultDailyMessages = 50

// User represents a registered family member
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'pending'" json:"role"`   // pending, child, parent, admin
	Status       string         `gorm:"type:varchar(20);default:'pending'" json:"status"` // pending, active

	// Per-day chat quota. Consumption is tracked in message_quotas keyed by
	// (user, day) so the counter resets at the UTC day boundary.
	DailyMessages int `gorm:"default:50" json:"daily_messages"`

	// Free-form persona text prepended to the AI system prompt.
	AgentPersonality string `gorm:"type:text" json:"agent_personality"`

	Settings    datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"settings,omitempty"`
	AvatarURL   string         `gorm:"type:varchar(512)" json:"avatar_url,omitempty"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`

	// Relationships
	Sessions []Session `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Threads  []Thread  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// IsAdmin returns true for admin accounts
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanChat returns true if the account is allowed to use the chat endpoint
func (u *User) CanChat() bool {
	return u.Status == StatusActive
}
