package model

import "time"

// MessageRole represents the role of the message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message represents a single turn in a thread. Content is immutable once
// written; Seq is a per-thread monotonic sequence assigned at write time so
// read-back order is stable under concurrent appends.
type Message struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ThreadID  uint        `gorm:"not null;index:idx_messages_thread_seq" json:"thread_id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	Role      MessageRole `gorm:"type:varchar(20);not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Seq       int         `gorm:"not null;index:idx_messages_thread_seq" json:"seq"`
	CreatedAt time.Time   `json:"created_at"`

	// Relationships
	Thread Thread `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}
