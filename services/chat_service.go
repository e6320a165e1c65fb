package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/services/ai"
	"github.com/hearthchat/api/services/signals"
	"go.uber.org/zap"
)

// HistoryLimit caps how many prior messages are replayed to the AI provider
// per turn.
const HistoryLimit = 20

// ChatService runs the message pipeline: quota gate, moderation, thread
// resolution, persistence, side signals, AI call, reply persistence, quota
// increment.
type ChatService struct {
	store     database.Storage
	provider  ai.Provider
	moderator *Moderator
	extractor *signals.Extractor
	logger    *zap.Logger

	// threadLocks serializes appends per thread so seq assignment and the
	// user/assistant ordering stay strict even under concurrent requests.
	threadLocks sync.Map
}

// NewChatService wires the chat pipeline
func NewChatService(store database.Storage, provider ai.Provider, moderator *Moderator, extractor *signals.Extractor, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		store:     store,
		provider:  provider,
		moderator: moderator,
		extractor: extractor,
		logger:    logger,
	}
}

// ChatResult is the outcome of a completed chat turn
type ChatResult struct {
	ThreadID  uint
	Response  string
	UserSeq   int
	ReplySeq  int
	CreatedAt time.Time
}

func (s *ChatService) lockThread(threadID uint) *sync.Mutex {
	lock, _ := s.threadLocks.LoadOrStore(threadID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// SendMessage executes one chat turn for the given user. A zero threadID
// starts a new thread titled from the message text.
func (s *ChatService) SendMessage(ctx context.Context, user *model.User, threadID uint, text string) (*ChatResult, error) {
	// Quota gate before any writes. Soft limit: the check and the increment
	// are not one atomic step, so concurrent turns can briefly overshoot.
	day := model.QuotaDay(time.Now())
	used, err := s.store.QuotaUsed(ctx, user.ID, day)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	if used >= user.DailyMessages {
		return nil, ErrRateLimited
	}

	if !s.moderator.Allowed(ctx, text) {
		return nil, ErrContentRejected
	}

	thread, err := s.resolveThread(ctx, user, threadID, text)
	if err != nil {
		return nil, err
	}

	lock := s.lockThread(thread.ID)
	lock.Lock()
	defer lock.Unlock()

	userMsg := &model.Message{
		ThreadID: thread.ID,
		UserID:   user.ID,
		Role:     model.MessageRoleUser,
		Content:  text,
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	// Side signals are best-effort and never fail the turn.
	s.extract(ctx, userMsg)

	history, err := s.recentHistory(ctx, thread.ID)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	reply, err := s.provider.Complete(ctx, user.AgentPersonality, history)
	if err != nil {
		s.logger.Warn("ai completion failed",
			zap.Uint("user_id", user.ID),
			zap.Uint("thread_id", thread.ID),
			zap.Error(err))
		return nil, errors.Join(ErrUpstreamUnavailable, err)
	}

	assistantMsg := &model.Message{
		ThreadID: thread.ID,
		UserID:   user.ID,
		Role:     model.MessageRoleAssistant,
		Content:  reply,
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	// Count the turn only after the full round trip landed. A failed turn
	// never burns quota. If the increment itself fails the reply is already
	// persisted, so the turn still succeeds and the counter under-counts by
	// one rather than surfacing a 500 for a delivered reply.
	if err := s.store.IncrementQuota(ctx, user.ID, day); err != nil {
		s.logger.Error("quota increment failed after successful turn",
			zap.Uint("user_id", user.ID),
			zap.Error(err))
	}

	return &ChatResult{
		ThreadID:  thread.ID,
		Response:  reply,
		UserSeq:   userMsg.Seq,
		ReplySeq:  assistantMsg.Seq,
		CreatedAt: assistantMsg.CreatedAt,
	}, nil
}

// resolveThread loads the requested thread scoped to the user. A missing or
// foreign id falls through to creating a fresh thread; the chat path never
// 404s on thread resolution.
func (s *ChatService) resolveThread(ctx context.Context, user *model.User, threadID uint, text string) (*model.Thread, error) {
	if threadID != 0 {
		thread, err := s.store.GetThreadForUser(ctx, threadID, user.ID)
		if err == nil {
			return thread, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, errors.Join(ErrStorageFailure, err)
		}
	}

	thread := &model.Thread{
		UserID: user.ID,
		Title:  model.TitleFromMessage(text),
	}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return thread, nil
}

func (s *ChatService) extract(ctx context.Context, msg *model.Message) {
	if s.extractor == nil {
		return
	}
	s.extractor.Record(ctx, msg)
}

// recentHistory loads the last HistoryLimit messages of the thread in
// chronological order, formatted for the provider.
func (s *ChatService) recentHistory(ctx context.Context, threadID uint) ([]ai.Turn, error) {
	messages, total, err := s.store.ListMessages(ctx, threadID, HistoryLimit, 0)
	if err != nil {
		return nil, err
	}
	if total > int64(HistoryLimit) {
		offset := int(total) - HistoryLimit
		messages, _, err = s.store.ListMessages(ctx, threadID, HistoryLimit, offset)
		if err != nil {
			return nil, err
		}
	}

	turns := make([]ai.Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, ai.Turn{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return turns, nil
}

// ListThreads returns the user's threads, newest activity first
func (s *ChatService) ListThreads(ctx context.Context, userID uint, limit, offset int) ([]model.Thread, int64, error) {
	threads, total, err := s.store.ListThreads(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.Join(ErrStorageFailure, err)
	}
	return threads, total, nil
}

// ListMessages returns a thread's messages in seq order, after verifying the
// thread belongs to the user
func (s *ChatService) ListMessages(ctx context.Context, userID, threadID uint, limit, offset int) ([]model.Message, int64, error) {
	if _, err := s.store.GetThreadForUser(ctx, threadID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, errors.Join(ErrStorageFailure, err)
	}

	messages, total, err := s.store.ListMessages(ctx, threadID, limit, offset)
	if err != nil {
		return nil, 0, errors.Join(ErrStorageFailure, err)
	}
	return messages, total, nil
}

// DeleteThread soft-deletes a thread the user owns
func (s *ChatService) DeleteThread(ctx context.Context, userID, threadID uint) error {
	if err := s.store.DeleteThreadForUser(ctx, threadID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}
