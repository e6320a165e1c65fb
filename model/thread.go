package model

import (
	"time"

	"gorm.io/gorm"
)

// ThreadTitleLength is the number of leading characters of the opening
// message used as the thread title.
const ThreadTitleLength = 50

// Thread represents a single conversation's ordered message container,
// scoped to one user
type Thread struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Title         string         `gorm:"type:varchar(255)" json:"title"`
	MessageCount  int            `gorm:"default:0" json:"message_count"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for Thread
func (Thread) TableName() string {
	return "threads"
}

// TitleFromMessage derives a thread title from the opening message text
func TitleFromMessage(text string) string {
	runes := []rune(text)
	if len(runes) > ThreadTitleLength {
		return string(runes[:ThreadTitleLength])
	}
	return text
}
