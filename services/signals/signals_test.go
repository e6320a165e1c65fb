package signals

import (
	"context"
	"testing"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
)

func TestScoreMood(t *testing.T) {
	cases := []struct {
		text  string
		label string
	}{
		{"I am so happy and excited!", model.MoodPositive},
		{"this is terrible and I am sad", model.MoodNegative},
		{"the meeting is at noon", model.MoodNeutral},
		{"", model.MoodNeutral},
		{"happy but also sad", model.MoodNeutral},
	}

	for _, tc := range cases {
		score, label := ScoreMood(tc.text)
		if label != tc.label {
			t.Errorf("ScoreMood(%q) label = %q, want %q", tc.text, label, tc.label)
		}
		if score < -1 || score > 1 {
			t.Errorf("ScoreMood(%q) score = %f out of range", tc.text, score)
		}
	}
}

func TestScoreMoodStripsPunctuation(t *testing.T) {
	score, label := ScoreMood("Happy! Happy. happy?")
	if label != model.MoodPositive {
		t.Errorf("label = %q, want positive", label)
	}
	if score != 1 {
		t.Errorf("score = %f, want 1", score)
	}
}

func TestTagTopics(t *testing.T) {
	topics := TagTopics("My homework about dogs made mom laugh")
	want := []string{"animals", "family", "school"}
	if len(topics) != len(want) {
		t.Fatalf("topics = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestTagTopicsNoMatch(t *testing.T) {
	if topics := TagTopics("zzz qqq"); len(topics) != 0 {
		t.Errorf("topics = %v, want none", topics)
	}
}

func TestExtractorRecordsBoth(t *testing.T) {
	store := database.NewMemoryStore()
	e := NewExtractor(store, nil)

	e.Record(context.Background(), &model.Message{
		ID:      7,
		UserID:  3,
		Content: "I love my dog so much",
	})

	moods := store.MoodSignals()
	if len(moods) != 1 {
		t.Fatalf("mood signals = %d, want 1", len(moods))
	}
	if moods[0].MessageID != 7 || moods[0].UserID != 3 {
		t.Errorf("mood signal = %+v, want message 7 user 3", moods[0])
	}
	if moods[0].Label != model.MoodPositive {
		t.Errorf("mood label = %q, want positive", moods[0].Label)
	}

	topics := store.TopicSignals()
	if len(topics) == 0 {
		t.Fatal("expected at least one topic signal")
	}
	if topics[0].Topic != "animals" {
		t.Errorf("topic = %q, want animals", topics[0].Topic)
	}
}
