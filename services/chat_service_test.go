package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/services/ai"
	"github.com/hearthchat/api/services/signals"
)

// fakeProvider is a scriptable AI provider for pipeline tests
type fakeProvider struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastTurns  []ai.Turn
}

func (f *fakeProvider) Complete(ctx context.Context, system string, turns []ai.Turn) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastTurns = turns
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestUser(t *testing.T, store *database.MemoryStore, daily int) *model.User {
	t.Helper()
	user := &model.User{
		Email:         "kid@example.com",
		PasswordHash:  "x",
		Name:          "Kid",
		Role:          model.RoleChild,
		Status:        model.StatusActive,
		DailyMessages: daily,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func newTestService(store *database.MemoryStore, provider ai.Provider) *ChatService {
	moderator := NewModerator(store)
	extractor := signals.NewExtractor(store, nil)
	return NewChatService(store, provider, moderator, extractor, nil)
}

func TestSendMessageRoundTrip(t *testing.T) {
	store := database.NewMemoryStore()
	provider := &fakeProvider{reply: "Hi there!"}
	svc := newTestService(store, provider)
	user := newTestUser(t, store, 2)
	user.AgentPersonality = "You are a friendly bear."
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, user, 0, "Hello bear")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if result.Response != "Hi there!" {
		t.Errorf("response = %q, want %q", result.Response, "Hi there!")
	}
	if result.ThreadID == 0 {
		t.Fatal("expected a new thread to be created")
	}
	if provider.lastSystem != "You are a friendly bear." {
		t.Errorf("system prompt = %q", provider.lastSystem)
	}

	messages, total, err := store.ListMessages(ctx, result.ThreadID, 10, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 2 {
		t.Fatalf("message count = %d, want 2", total)
	}
	if messages[0].Role != model.MessageRoleUser || messages[0].Seq != 1 {
		t.Errorf("first message = %s seq %d, want user seq 1", messages[0].Role, messages[0].Seq)
	}
	if messages[1].Role != model.MessageRoleAssistant || messages[1].Seq != 2 {
		t.Errorf("second message = %s seq %d, want assistant seq 2", messages[1].Role, messages[1].Seq)
	}

	used, err := store.QuotaUsed(ctx, user.ID, model.QuotaDay(time.Now()))
	if err != nil {
		t.Fatalf("QuotaUsed: %v", err)
	}
	if used != 1 {
		t.Errorf("quota used = %d, want 1", used)
	}
}

func TestSendMessageQuotaExhausted(t *testing.T) {
	store := database.NewMemoryStore()
	provider := &fakeProvider{reply: "ok"}
	svc := newTestService(store, provider)
	user := newTestUser(t, store, 2)
	ctx := context.Background()
	day := model.QuotaDay(time.Now())

	// One of two daily messages already spent: the next turn still passes.
	if err := store.IncrementQuota(ctx, user.ID, day); err != nil {
		t.Fatalf("IncrementQuota: %v", err)
	}

	result, err := svc.SendMessage(ctx, user, 0, "still allowed")
	if err != nil {
		t.Fatalf("SendMessage under quota: %v", err)
	}

	// Quota is now 2/2; the next turn is rejected before any writes.
	_, err = svc.SendMessage(ctx, user, 0, "over the line")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	_, total, _ := store.ListMessages(ctx, result.ThreadID, 10, 0)
	if total != 2 {
		t.Errorf("message count = %d, want 2 (rejected turn persisted nothing)", total)
	}
	threads, threadTotal, _ := store.ListThreads(ctx, user.ID, 10, 0)
	if threadTotal != 1 {
		t.Errorf("thread count = %d, want 1, got %v", threadTotal, threads)
	}
}

func TestSendMessageContentRejected(t *testing.T) {
	store := database.NewMemoryStore()
	provider := &fakeProvider{reply: "ok"}
	svc := newTestService(store, provider)
	user := newTestUser(t, store, 5)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, user, 0, "this is SPAM really")
	if !errors.Is(err, ErrContentRejected) {
		t.Fatalf("err = %v, want ErrContentRejected", err)
	}

	if provider.calls != 0 {
		t.Errorf("provider called %d times on rejected content", provider.calls)
	}
	_, total, _ := store.ListThreads(ctx, user.ID, 10, 0)
	if total != 0 {
		t.Errorf("thread count = %d, want 0", total)
	}
	used, _ := store.QuotaUsed(ctx, user.ID, model.QuotaDay(time.Now()))
	if used != 0 {
		t.Errorf("quota used = %d, want 0", used)
	}
}

func TestSendMessageUpstreamFailure(t *testing.T) {
	store := database.NewMemoryStore()
	provider := &fakeProvider{err: errors.New("connection refused")}
	svc := newTestService(store, provider)
	user := newTestUser(t, store, 5)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, user, 0, "hello?")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (no retry)", provider.calls)
	}

	// The user turn is persisted, no assistant turn, and the failed round
	// trip burns no quota.
	threads, _, _ := store.ListThreads(ctx, user.ID, 10, 0)
	if len(threads) != 1 {
		t.Fatalf("thread count = %d, want 1", len(threads))
	}
	messages, _, _ := store.ListMessages(ctx, threads[0].ID, 10, 0)
	if len(messages) != 1 || messages[0].Role != model.MessageRoleUser {
		t.Errorf("messages = %+v, want single user turn", messages)
	}
	used, _ := store.QuotaUsed(ctx, user.ID, model.QuotaDay(time.Now()))
	if used != 0 {
		t.Errorf("quota used = %d, want 0", used)
	}
}

func TestSendMessageNewThreadPerCall(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestService(store, &fakeProvider{reply: "ok"})
	user := newTestUser(t, store, 10)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, user, 0, "first")
	if err != nil {
		t.Fatalf("first SendMessage: %v", err)
	}
	second, err := svc.SendMessage(ctx, user, 0, "second")
	if err != nil {
		t.Fatalf("second SendMessage: %v", err)
	}

	if first.ThreadID == second.ThreadID {
		t.Errorf("both turns landed in thread %d, want distinct threads", first.ThreadID)
	}
}

func TestSendMessageForeignThreadFallsThrough(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestService(store, &fakeProvider{reply: "ok"})
	owner := newTestUser(t, store, 10)
	ctx := context.Background()

	other := &model.User{
		Email: "other@example.com", PasswordHash: "x", Name: "Other",
		Role: model.RoleChild, Status: model.StatusActive, DailyMessages: 10,
	}
	if err := store.CreateUser(ctx, other); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	theirs, err := svc.SendMessage(ctx, owner, 0, "mine")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// Someone else referencing the owner's thread gets a fresh thread of
	// their own, never a peek into the original.
	result, err := svc.SendMessage(ctx, other, theirs.ThreadID, "sneaky")
	if err != nil {
		t.Fatalf("SendMessage with foreign thread id: %v", err)
	}
	if result.ThreadID == theirs.ThreadID {
		t.Error("foreign thread id was reused across users")
	}
}

func TestSendMessageContinuesThread(t *testing.T) {
	store := database.NewMemoryStore()
	provider := &fakeProvider{reply: "ok"}
	svc := newTestService(store, provider)
	user := newTestUser(t, store, 10)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, user, 0, "opening line")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	second, err := svc.SendMessage(ctx, user, first.ThreadID, "follow up")
	if err != nil {
		t.Fatalf("SendMessage continuation: %v", err)
	}

	if second.ThreadID != first.ThreadID {
		t.Fatalf("continuation created thread %d, want %d", second.ThreadID, first.ThreadID)
	}
	// History passed to the provider includes the earlier turns.
	if len(provider.lastTurns) != 3 {
		t.Errorf("history length = %d, want 3", len(provider.lastTurns))
	}

	_, total, _ := store.ListMessages(ctx, first.ThreadID, 10, 0)
	if total != 4 {
		t.Errorf("message count = %d, want 4", total)
	}
}

func TestSendMessageRecordsSignals(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestService(store, &fakeProvider{reply: "ok"})
	user := newTestUser(t, store, 10)

	_, err := svc.SendMessage(context.Background(), user, 0, "I am so happy about school today")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	moods := store.MoodSignals()
	if len(moods) != 1 {
		t.Fatalf("mood signals = %d, want 1", len(moods))
	}
	if moods[0].Label != model.MoodPositive {
		t.Errorf("mood label = %q, want positive", moods[0].Label)
	}

	topics := store.TopicSignals()
	found := false
	for _, topic := range topics {
		if topic.Topic == "school" {
			found = true
		}
	}
	if !found {
		t.Errorf("topic signals = %+v, want school", topics)
	}
}

func TestListMessagesScopedToOwner(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestService(store, &fakeProvider{reply: "ok"})
	user := newTestUser(t, store, 10)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, user, 0, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	_, _, err = svc.ListMessages(ctx, user.ID+99, result.ThreadID, 10, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign ListMessages err = %v, want ErrNotFound", err)
	}

	messages, _, err := svc.ListMessages(ctx, user.ID, result.ThreadID, 10, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("message count = %d, want 2", len(messages))
	}
}

func TestDeleteThreadScopedToOwner(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestService(store, &fakeProvider{reply: "ok"})
	user := newTestUser(t, store, 10)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, user, 0, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if err := svc.DeleteThread(ctx, user.ID+99, result.ThreadID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign DeleteThread err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteThread(ctx, user.ID, result.ThreadID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	_, total, _ := store.ListThreads(ctx, user.ID, 10, 0)
	if total != 0 {
		t.Errorf("thread count after delete = %d, want 0", total)
	}
}

// steadyProvider returns a fixed reply and is safe for concurrent turns,
// unlike fakeProvider which records call state.
type steadyProvider struct{}

func (steadyProvider) Complete(ctx context.Context, system string, turns []ai.Turn) (string, error) {
	return "Steady reply", nil
}

func TestSendMessageConcurrentTurnsStaySerialized(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestService(store, steadyProvider{})
	user := newTestUser(t, store, 100)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, user, 0, "opening message")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	const turns = 8
	var wg sync.WaitGroup
	errs := make(chan error, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SendMessage(ctx, user, first.ThreadID, "concurrent message"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent SendMessage: %v", err)
	}

	want := 2 * (turns + 1)
	messages, total, err := store.ListMessages(ctx, first.ThreadID, want, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != int64(want) {
		t.Fatalf("message count = %d, want %d", total, want)
	}

	// Seqs must be gapless and unique, and every user turn must be
	// immediately followed by its assistant reply.
	for i, msg := range messages {
		if msg.Seq != i+1 {
			t.Fatalf("messages[%d].Seq = %d, want %d", i, msg.Seq, i+1)
		}
		wantRole := model.MessageRoleUser
		if msg.Seq%2 == 0 {
			wantRole = model.MessageRoleAssistant
		}
		if msg.Role != wantRole {
			t.Errorf("seq %d role = %s, want %s", msg.Seq, msg.Role, wantRole)
		}
	}
}

// failingQuotaStore wraps a working store with a quota counter that always
// errors on write.
type failingQuotaStore struct {
	database.Storage
}

func (s *failingQuotaStore) IncrementQuota(ctx context.Context, userID uint, day string) error {
	return errors.New("connection reset by peer")
}

func TestSendMessageSucceedsWhenQuotaWriteFails(t *testing.T) {
	mem := database.NewMemoryStore()
	store := &failingQuotaStore{Storage: mem}
	moderator := NewModerator(mem)
	extractor := signals.NewExtractor(mem, nil)
	svc := NewChatService(store, &fakeProvider{reply: "All good"}, moderator, extractor, nil)
	user := newTestUser(t, mem, 5)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, user, 0, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if result.Response != "All good" {
		t.Errorf("response = %q", result.Response)
	}

	// The reply is already persisted when the counter write fails, so the
	// turn succeeds and only the counter lags.
	_, total, err := mem.ListMessages(ctx, result.ThreadID, 10, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 2 {
		t.Errorf("message count = %d, want 2", total)
	}
	if used, _ := mem.QuotaUsed(ctx, user.ID, model.QuotaDay(time.Now())); used != 0 {
		t.Errorf("quota used = %d, want 0 after failed increment", used)
	}
}
