package cron

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
)

func TestPurgeExpiredSessions(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	live := &model.Session{Token: "live", UserID: 1, ExpiresAt: now.Add(time.Hour)}
	dead := &model.Session{Token: "dead", UserID: 1, ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*model.Session{live, dead} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	m := NewCronManager(store, nil)
	msg, err := m.PurgeExpiredSessions()
	if err != nil {
		t.Fatalf("PurgeExpiredSessions: %v", err)
	}
	if !strings.Contains(msg, "1") {
		t.Errorf("message = %q, want one deletion", msg)
	}

	if _, err := store.GetSessionByToken(ctx, "live"); err != nil {
		t.Errorf("live session was purged: %v", err)
	}
	if _, err := store.GetSessionByToken(ctx, "dead"); err != database.ErrNotFound {
		t.Errorf("dead session survived: %v", err)
	}
}

func TestPurgeQuotaRowsKeepsRecentDays(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()

	today := model.QuotaDay(time.Now())
	old := model.QuotaDay(time.Now().Add(-10 * 24 * time.Hour))
	recent := model.QuotaDay(time.Now().Add(-2 * 24 * time.Hour))

	for _, day := range []string{today, old, recent} {
		if err := store.IncrementQuota(ctx, 1, day); err != nil {
			t.Fatalf("IncrementQuota: %v", err)
		}
	}

	m := NewCronManager(store, nil)
	if _, err := m.PurgeQuotaRows(); err != nil {
		t.Fatalf("PurgeQuotaRows: %v", err)
	}

	if used, _ := store.QuotaUsed(ctx, 1, today); used != 1 {
		t.Errorf("today's counter = %d, want 1", used)
	}
	if used, _ := store.QuotaUsed(ctx, 1, recent); used != 1 {
		t.Errorf("recent counter = %d, want 1 (inside retention)", used)
	}
	if used, _ := store.QuotaUsed(ctx, 1, old); used != 0 {
		t.Errorf("old counter = %d, want 0 (purged)", used)
	}
}

func TestPurgeVerificationCodes(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	fresh := &model.VerificationCode{UserID: 1, Code: "111111", ExpiresAt: now.Add(10 * time.Minute)}
	stale := &model.VerificationCode{UserID: 1, Code: "222222", ExpiresAt: now.Add(-10 * time.Minute)}
	for _, code := range []*model.VerificationCode{fresh, stale} {
		if err := store.CreateVerificationCode(ctx, code); err != nil {
			t.Fatalf("CreateVerificationCode: %v", err)
		}
	}

	m := NewCronManager(store, nil)
	if _, err := m.PurgeVerificationCodes(); err != nil {
		t.Fatalf("PurgeVerificationCodes: %v", err)
	}

	if _, err := store.GetUsableVerificationCode(ctx, 1, "111111", now); err != nil {
		t.Errorf("fresh code was purged: %v", err)
	}
	if store.LatestVerificationCode(1) != "111111" {
		t.Errorf("stale code survived the purge")
	}
}
