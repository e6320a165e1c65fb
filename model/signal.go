package model

import "time"

// Mood labels produced by the keyword scorer.
const (
	MoodPositive = "positive"
	MoodNeutral  = "neutral"
	MoodNegative = "negative"
)

// MoodSignal is a best-effort mood annotation for a user message. Pure
// telemetry: never required for the chat transaction's correctness.
type MoodSignal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"message_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Score     float64   `gorm:"not null" json:"score"` // in [-1, 1]
	Label     string    `gorm:"type:varchar(20);not null" json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for MoodSignal
func (MoodSignal) TableName() string {
	return "mood_signals"
}

// TopicSignal is a best-effort topic tag for a user message. A message can
// carry zero or more topics.
type TopicSignal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"message_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Topic     string    `gorm:"type:varchar(50);not null" json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for TopicSignal
func (TopicSignal) TableName() string {
	return "topic_signals"
}
