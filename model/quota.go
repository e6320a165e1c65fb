package model

import "time"

// QuotaDayFormat is the layout for the quota day key, always UTC. Using a
// (user, day) compound key makes the daily reset implicit at UTC midnight
// instead of relying on a mutable counter being cleared.
const QuotaDayFormat = "2006-01-02"

// MessageQuota tracks chat turns consumed by a user on a given UTC day
type MessageQuota struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	Day       string    `gorm:"primaryKey;type:varchar(10)" json:"day"`
	Used      int       `gorm:"not null;default:0" json:"used"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for MessageQuota
func (MessageQuota) TableName() string {
	return "message_quotas"
}

// QuotaDay returns the quota day key for a point in time
func QuotaDay(t time.Time) string {
	return t.UTC().Format(QuotaDayFormat)
}
