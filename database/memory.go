package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hearthchat/api/model"
)

// MemoryStore is an in-memory Storage implementation used by tests and
// local development without a database.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID    uint
	nextSessionID uint
	nextThreadID  uint
	nextMessageID uint
	nextCodeID    uint
	nextSignalID  uint

	users    map[uint]*model.User
	sessions map[string]*model.Session
	codes    map[uint]*model.VerificationCode
	threads  map[uint]*model.Thread
	messages map[uint][]model.Message // keyed by thread id
	quotas   map[uint]map[string]int  // user id -> day -> used
	moods    []model.MoodSignal
	topics   []model.TopicSignal
	settings map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*model.User),
		sessions: make(map[string]*model.Session),
		codes:    make(map[uint]*model.VerificationCode),
		threads:  make(map[uint]*model.Thread),
		messages: make(map[uint][]model.Message),
		quotas:   make(map[uint]map[string]int),
		settings: make(map[string]string),
	}
}

func (s *MemoryStore) Init() error        { return nil }
func (s *MemoryStore) Close() error       { return nil }
func (s *MemoryStore) HealthCheck() error { return nil }

// GetDB returns nil; the memory store has no SQL handle
func (s *MemoryStore) GetDB() interface{} { return nil }

// ==================== Users ====================

func (s *MemoryStore) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, exists := s.users[id]; exists {
		copied := *user
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	user.ID = s.nextUserID
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// ==================== Sessions ====================

func (s *MemoryStore) CreateSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSessionID++
	session.ID = s.nextSessionID
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	copied := *session
	s.sessions[session.Token] = &copied
	return nil
}

func (s *MemoryStore) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[token]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *session
	if user, ok := s.users[session.UserID]; ok {
		copied.User = *user
	}
	return &copied, nil
}

func (s *MemoryStore) DeleteSessionByToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// ==================== Verification codes ====================

func (s *MemoryStore) CreateVerificationCode(ctx context.Context, code *model.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCodeID++
	code.ID = s.nextCodeID
	code.CreatedAt = time.Now().UTC()
	copied := *code
	s.codes[code.ID] = &copied
	return nil
}

func (s *MemoryStore) GetUsableVerificationCode(ctx context.Context, userID uint, code string, now time.Time) (*model.VerificationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vc := range s.codes {
		if vc.UserID == userID && vc.Code == code && vc.Usable(now) {
			copied := *vc
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) MarkVerificationCodeUsed(ctx context.Context, id uint, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vc, exists := s.codes[id]
	if !exists {
		return ErrNotFound
	}
	used := now
	vc.UsedAt = &used
	return nil
}

func (s *MemoryStore) DeleteStaleVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, vc := range s.codes {
		if vc.UsedAt != nil || now.After(vc.ExpiresAt) {
			delete(s.codes, id)
			removed++
		}
	}
	return removed, nil
}

// ==================== Threads ====================

func (s *MemoryStore) GetThreadForUser(ctx context.Context, threadID, userID uint) (*model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, exists := s.threads[threadID]
	if !exists || thread.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *thread
	return &copied, nil
}

func (s *MemoryStore) CreateThread(ctx context.Context, thread *model.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextThreadID++
	thread.ID = s.nextThreadID
	now := time.Now().UTC()
	thread.CreatedAt = now
	thread.UpdatedAt = now
	copied := *thread
	s.threads[thread.ID] = &copied
	return nil
}

func (s *MemoryStore) DeleteThreadForUser(ctx context.Context, threadID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, exists := s.threads[threadID]
	if !exists || thread.UserID != userID {
		return ErrNotFound
	}
	delete(s.threads, threadID)
	delete(s.messages, threadID)
	return nil
}

func (s *MemoryStore) ListThreads(ctx context.Context, userID uint, limit, offset int) ([]model.Thread, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var threads []model.Thread
	for _, thread := range s.threads {
		if thread.UserID == userID {
			threads = append(threads, *thread)
		}
	}

	// Newest activity first, matching the SQL ordering on last_message_at.
	sort.Slice(threads, func(i, j int) bool {
		return threadActivity(&threads[i]).After(threadActivity(&threads[j]))
	})

	total := int64(len(threads))
	if offset >= len(threads) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(threads) {
		end = len(threads)
	}
	return threads[offset:end], total, nil
}

// threadActivity is the timestamp a thread sorts by: the last message when
// one exists, creation time otherwise.
func threadActivity(t *model.Thread) time.Time {
	if t.LastMessageAt != nil {
		return *t.LastMessageAt
	}
	return t.CreatedAt
}

// ==================== Messages ====================

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, exists := s.threads[msg.ThreadID]
	if !exists {
		return ErrNotFound
	}

	s.nextMessageID++
	msg.ID = s.nextMessageID
	msg.Seq = len(s.messages[msg.ThreadID]) + 1
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages[msg.ThreadID] = append(s.messages[msg.ThreadID], *msg)

	now := time.Now().UTC()
	thread.MessageCount++
	thread.LastMessageAt = &now
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, threadID uint, limit, offset int) ([]model.Message, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[threadID]
	total := int64(len(msgs))
	if offset >= len(msgs) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(msgs) {
		end = len(msgs)
	}

	out := make([]model.Message, end-offset)
	copy(out, msgs[offset:end])
	return out, total, nil
}

// ==================== Quotas ====================

func (s *MemoryStore) QuotaUsed(ctx context.Context, userID uint, day string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.quotas[userID][day], nil
}

func (s *MemoryStore) IncrementQuota(ctx context.Context, userID uint, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quotas[userID] == nil {
		s.quotas[userID] = make(map[string]int)
	}
	s.quotas[userID][day]++
	return nil
}

func (s *MemoryStore) DeleteQuotaRowsBefore(ctx context.Context, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, days := range s.quotas {
		for d := range days {
			if d < day {
				delete(days, d)
				removed++
			}
		}
	}
	return removed, nil
}

// ==================== Signals ====================

func (s *MemoryStore) CreateMoodSignal(ctx context.Context, signal *model.MoodSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSignalID++
	signal.ID = s.nextSignalID
	signal.CreatedAt = time.Now().UTC()
	s.moods = append(s.moods, *signal)
	return nil
}

func (s *MemoryStore) CreateTopicSignal(ctx context.Context, signal *model.TopicSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSignalID++
	signal.ID = s.nextSignalID
	signal.CreatedAt = time.Now().UTC()
	s.topics = append(s.topics, *signal)
	return nil
}

// MoodSignals returns a snapshot of recorded mood signals (test helper)
func (s *MemoryStore) MoodSignals() []model.MoodSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MoodSignal, len(s.moods))
	copy(out, s.moods)
	return out
}

// TopicSignals returns a snapshot of recorded topic signals (test helper)
func (s *MemoryStore) TopicSignals() []model.TopicSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TopicSignal, len(s.topics))
	copy(out, s.topics)
	return out
}

// LatestVerificationCode returns the newest unused code for a user, or ""
// (test helper)
func (s *MemoryStore) LatestVerificationCode(userID uint) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.VerificationCode
	for _, code := range s.codes {
		if code.UserID != userID || code.UsedAt != nil {
			continue
		}
		if latest == nil || code.ID > latest.ID {
			latest = code
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Code
}

// ExpireVerificationCodes rewinds the expiry of a user's codes (test helper)
func (s *MemoryStore) ExpireVerificationCodes(userID uint, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range s.codes {
		if code.UserID == userID {
			code.ExpiresAt = expiresAt
		}
	}
}

// ==================== Settings ====================

func (s *MemoryStore) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.settings[key]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

// SetSetting stores a setting value (test helper)
func (s *MemoryStore) SetSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
}
