package signals

import (
	"context"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"go.uber.org/zap"
)

// Extractor records best-effort mood and topic annotations for user
// messages. Failures are logged and swallowed; they must never abort the
// chat turn that triggered them.
type Extractor struct {
	store  database.Storage
	logger *zap.Logger
}

// NewExtractor creates a signal extractor
func NewExtractor(store database.Storage, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		store:  store,
		logger: logger,
	}
}

// Record derives and persists mood and topic signals for a message
func (e *Extractor) Record(ctx context.Context, msg *model.Message) {
	score, label := ScoreMood(msg.Content)
	mood := &model.MoodSignal{
		MessageID: msg.ID,
		UserID:    msg.UserID,
		Score:     score,
		Label:     label,
	}
	if err := e.store.CreateMoodSignal(ctx, mood); err != nil {
		e.logger.Warn("failed to record mood signal",
			zap.Uint("message_id", msg.ID),
			zap.Error(err))
	}

	for _, topic := range TagTopics(msg.Content) {
		signal := &model.TopicSignal{
			MessageID: msg.ID,
			UserID:    msg.UserID,
			Topic:     topic,
		}
		if err := e.store.CreateTopicSignal(ctx, signal); err != nil {
			e.logger.Warn("failed to record topic signal",
				zap.Uint("message_id", msg.ID),
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
}
