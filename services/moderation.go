package services

import (
	"context"
	"strings"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
)

// DefaultBlocklist is the built-in moderation list. Matching is
// case-insensitive substring, no stemming or normalization. The list can be
// overridden at runtime through the moderation.blocklist app setting
// (comma-separated).
var DefaultBlocklist = []string{
	"spam",
	"scam",
	"gambling",
	"porn",
}

// Moderator rejects messages containing blocked terms
type Moderator struct {
	store     database.Storage
	blocklist []string
}

// NewModerator creates a moderator with the built-in blocklist
func NewModerator(store database.Storage) *Moderator {
	return &Moderator{
		store:     store,
		blocklist: DefaultBlocklist,
	}
}

// NewModeratorWithBlocklist creates a moderator with a custom list
func NewModeratorWithBlocklist(store database.Storage, blocklist []string) *Moderator {
	return &Moderator{
		store:     store,
		blocklist: blocklist,
	}
}

// activeBlocklist returns the configured override when present, otherwise
// the built-in list
func (m *Moderator) activeBlocklist(ctx context.Context) []string {
	if m.store == nil {
		return m.blocklist
	}

	value, err := m.store.GetSetting(ctx, model.SettingModerationBlocklist)
	if err != nil || strings.TrimSpace(value) == "" {
		return m.blocklist
	}

	var list []string
	for _, term := range strings.Split(value, ",") {
		term = strings.TrimSpace(term)
		if term != "" {
			list = append(list, term)
		}
	}
	if len(list) == 0 {
		return m.blocklist
	}
	return list
}

// Allowed reports whether the message text passes moderation
func (m *Moderator) Allowed(ctx context.Context, text string) bool {
	lowered := strings.ToLower(text)
	for _, term := range m.activeBlocklist(ctx) {
		if strings.Contains(lowered, strings.ToLower(term)) {
			return false
		}
	}
	return true
}
