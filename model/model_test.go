package model

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTitleFromMessage(t *testing.T) {
	if got := TitleFromMessage("short message"); got != "short message" {
		t.Errorf("title = %q", got)
	}

	long := strings.Repeat("a", 80)
	got := TitleFromMessage(long)
	if utf8.RuneCountInString(got) != ThreadTitleLength {
		t.Errorf("title length = %d runes, want %d", utf8.RuneCountInString(got), ThreadTitleLength)
	}

	// Truncation must not split a multi-byte rune.
	emoji := strings.Repeat("héllo ", 20)
	got = TitleFromMessage(emoji)
	if !utf8.ValidString(got) {
		t.Errorf("title %q is not valid UTF-8", got)
	}
	if utf8.RuneCountInString(got) > ThreadTitleLength {
		t.Errorf("title length = %d runes, want <= %d", utf8.RuneCountInString(got), ThreadTitleLength)
	}
}

func TestQuotaDayUsesUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2026, 3, 9, 23, 30, 0, 0, loc)

	if got := QuotaDay(local); got != "2026-03-10" {
		t.Errorf("QuotaDay = %q, want 2026-03-10", got)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("session with future expiry reported expired")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Error("session past expiry reported valid")
	}
}

func TestVerificationCodeUsable(t *testing.T) {
	now := time.Now()
	code := VerificationCode{ExpiresAt: now.Add(10 * time.Minute)}
	if !code.Usable(now) {
		t.Error("fresh code reported unusable")
	}

	used := now
	code.UsedAt = &used
	if code.Usable(now) {
		t.Error("consumed code reported usable")
	}

	expired := VerificationCode{ExpiresAt: now.Add(-time.Minute)}
	if expired.Usable(now) {
		t.Error("expired code reported usable")
	}
}

func TestUserRoleHelpers(t *testing.T) {
	admin := User{Role: RoleAdmin, Status: StatusActive}
	if !admin.IsAdmin() {
		t.Error("admin not recognized")
	}

	pending := User{Role: RoleChild, Status: StatusPending}
	if pending.CanChat() {
		t.Error("pending account allowed to chat")
	}
	active := User{Role: RoleChild, Status: StatusActive}
	if !active.CanChat() {
		t.Error("active account blocked from chat")
	}
}
