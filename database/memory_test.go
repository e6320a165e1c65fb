package database

import (
	"context"
	"testing"

	"github.com/hearthchat/api/model"
)

func TestListThreadsNewestActivityFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older := &model.Thread{UserID: 1, Title: "older"}
	newer := &model.Thread{UserID: 1, Title: "newer"}
	for _, thread := range []*model.Thread{older, newer} {
		if err := store.CreateThread(ctx, thread); err != nil {
			t.Fatalf("CreateThread: %v", err)
		}
	}

	// A message in the older thread makes it the most recently active.
	msg := &model.Message{ThreadID: older.ID, UserID: 1, Role: model.MessageRoleUser, Content: "hi"}
	if err := store.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	threads, total, err := store.ListThreads(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if threads[0].ID != older.ID || threads[1].ID != newer.ID {
		t.Errorf("order = [%s, %s], want the active thread first", threads[0].Title, threads[1].Title)
	}
}
