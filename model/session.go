package model

import "time"

// SessionTTL is the fixed lifetime of a login session. Expiry is absolute
// from issuance; sessions are never renewed.
const SessionTTL = 24 * time.Hour

// Session represents an opaque bearer token bound to a user and device
type Session struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Token      string    `gorm:"uniqueIndex;not null;type:varchar(128)" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DeviceID   string    `gorm:"type:varchar(100)" json:"device_id"`
	DeviceName string    `gorm:"type:varchar(100)" json:"device_name"`
	IPAddress  string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its absolute expiry
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
