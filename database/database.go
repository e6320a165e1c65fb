package database

import (
	"context"
	"errors"
	"time"

	"github.com/hearthchat/api/model"
)

// ErrNotFound is returned by lookups when no row matches. Both store
// implementations normalize their driver errors to this value.
var ErrNotFound = errors.New("record not found")

// Storage defines the capability surface the application needs from its
// backing store. Handlers and services depend on this interface so the
// GORM-backed store and the in-memory store are interchangeable.
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns the underlying *gorm.DB for the GORM store; admin
	// aggregation queries use it directly.
	GetDB() interface{}

	// Users
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error

	// Sessions
	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Verification codes
	CreateVerificationCode(ctx context.Context, code *model.VerificationCode) error
	GetUsableVerificationCode(ctx context.Context, userID uint, code string, now time.Time) (*model.VerificationCode, error)
	MarkVerificationCodeUsed(ctx context.Context, id uint, now time.Time) error
	DeleteStaleVerificationCodes(ctx context.Context, now time.Time) (int64, error)

	// Threads
	GetThreadForUser(ctx context.Context, threadID, userID uint) (*model.Thread, error)
	CreateThread(ctx context.Context, thread *model.Thread) error
	DeleteThreadForUser(ctx context.Context, threadID, userID uint) error
	ListThreads(ctx context.Context, userID uint, limit, offset int) ([]model.Thread, int64, error)

	// Messages. AppendMessage assigns the per-thread sequence number and
	// bumps the thread's message count and last-activity marker.
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, threadID uint, limit, offset int) ([]model.Message, int64, error)

	// Daily message quotas, keyed by (user, UTC day)
	QuotaUsed(ctx context.Context, userID uint, day string) (int, error)
	IncrementQuota(ctx context.Context, userID uint, day string) error
	DeleteQuotaRowsBefore(ctx context.Context, day string) (int64, error)

	// Side signals
	CreateMoodSignal(ctx context.Context, signal *model.MoodSignal) error
	CreateTopicSignal(ctx context.Context, signal *model.TopicSignal) error

	// Application settings. GetSetting returns ErrNotFound for absent keys.
	GetSetting(ctx context.Context, key string) (string, error)
}
