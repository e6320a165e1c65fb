package services

import (
	"context"
	"testing"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
)

func TestModeratorDefaultBlocklist(t *testing.T) {
	m := NewModerator(nil)
	ctx := context.Background()

	cases := []struct {
		text    string
		allowed bool
	}{
		{"hello how are you", true},
		{"buy spam now", false},
		{"SPAM", false},
		{"SpAm in mixed case", false},
		{"this scam is bad", false},
		{"", true},
		{"spa m with a space slips through", true},
	}

	for _, tc := range cases {
		if got := m.Allowed(ctx, tc.text); got != tc.allowed {
			t.Errorf("Allowed(%q) = %v, want %v", tc.text, got, tc.allowed)
		}
	}
}

func TestModeratorSettingOverride(t *testing.T) {
	store := database.NewMemoryStore()
	store.SetSetting(model.SettingModerationBlocklist, "banana, rocket ")
	m := NewModerator(store)
	ctx := context.Background()

	if m.Allowed(ctx, "I like banana bread") {
		t.Error("override term banana should be blocked")
	}
	if !m.Allowed(ctx, "buy spam now") {
		t.Error("default term spam should be allowed once overridden")
	}
	if m.Allowed(ctx, "ROCKET launch") {
		t.Error("override matching should stay case-insensitive")
	}
}

func TestModeratorEmptyOverrideFallsBack(t *testing.T) {
	store := database.NewMemoryStore()
	store.SetSetting(model.SettingModerationBlocklist, " , ,")
	m := NewModerator(store)

	if m.Allowed(context.Background(), "spam") {
		t.Error("blank override should fall back to the default list")
	}
}

func TestModeratorCustomBlocklist(t *testing.T) {
	m := NewModeratorWithBlocklist(nil, []string{"dragon"})

	if m.Allowed(context.Background(), "here be Dragons") {
		t.Error("custom term should be blocked")
	}
	if !m.Allowed(context.Background(), "spam") {
		t.Error("default terms should not apply to a custom list")
	}
}
