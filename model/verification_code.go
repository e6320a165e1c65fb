package model

import "time"

// VerificationCodeTTL is how long an emailed registration code stays valid.
const VerificationCodeTTL = 15 * time.Minute

// VerificationCode is a one-time code emailed at registration to activate
// an account
type VerificationCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Code      string     `gorm:"type:varchar(10);not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for VerificationCode
func (VerificationCode) TableName() string {
	return "verification_codes"
}

// Usable reports whether the code can still activate an account
func (v *VerificationCode) Usable(now time.Time) bool {
	return v.UsedAt == nil && now.Before(v.ExpiresAt)
}
