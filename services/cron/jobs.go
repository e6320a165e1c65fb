package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthchat/api/model"
)

// jobTimeout bounds each maintenance job run
const jobTimeout = 5 * time.Minute

// PurgeExpiredSessions deletes sessions past their absolute expiry
func (m *CronManager) PurgeExpiredSessions() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := m.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d expired sessions", deleted), nil
}

// quotaRetention is how many days of quota counters are kept for reporting.
// The daily reset itself is implicit in the (user, day) key.
const quotaRetention = 7 * 24 * time.Hour

// PurgeQuotaRows drops quota counters older than the retention window.
// Today's rows stay untouched so running counts survive the purge.
func (m *CronManager) PurgeQuotaRows() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := model.QuotaDay(time.Now().Add(-quotaRetention))
	deleted, err := m.store.DeleteQuotaRowsBefore(ctx, cutoff)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d quota rows before %s", deleted, cutoff), nil
}

// PurgeVerificationCodes drops expired and consumed verification codes
func (m *CronManager) PurgeVerificationCodes() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := m.store.DeleteStaleVerificationCodes(ctx, time.Now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d stale verification codes", deleted), nil
}
