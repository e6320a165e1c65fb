package cron

import (
	"time"

	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CronManager schedules the maintenance jobs: expired session purge, quota
// row purge, and stale verification code purge.
type CronManager struct {
	cron   *cron.Cron
	store  database.Storage
	logger *zap.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(store database.Storage, logger *zap.Logger) *CronManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CronManager{
		cron:   cron.New(cron.WithSeconds()),
		store:  store,
		logger: logger,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	m.logger.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	m.logger.Info("cron jobs started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (m *CronManager) Stop() {
	m.logger.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Hourly: purge expired sessions
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.runJob("purge_expired_sessions", m.PurgeExpiredSessions)
	})
	if err != nil {
		return err
	}

	// Daily at 00:05 UTC: drop quota rows from previous days
	_, err = m.cron.AddFunc("0 5 0 * * *", func() {
		m.runJob("purge_quota_rows", m.PurgeQuotaRows)
	})
	if err != nil {
		return err
	}

	// Daily at 03:00: drop expired and used verification codes
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.runJob("purge_verification_codes", m.PurgeVerificationCodes)
	})
	if err != nil {
		return err
	}

	return nil
}

// runJob executes a job with database-backed execution logging
func (m *CronManager) runJob(jobName string, job func() (string, error)) {
	started := time.Now()
	logID := m.logJobStart(jobName, started)

	message, err := job()
	completed := time.Now()
	duration := int(completed.Sub(started).Milliseconds())

	if err != nil {
		m.logger.Error("cron job failed",
			zap.String("job", jobName),
			zap.Error(err))
		m.finishJobLog(logID, "failed", completed, duration, message, err.Error())
		return
	}

	m.logger.Info("cron job completed",
		zap.String("job", jobName),
		zap.String("result", message),
		zap.Duration("took", completed.Sub(started)))
	m.finishJobLog(logID, "completed", completed, duration, message, "")
}

// db returns the underlying gorm handle when the store is database-backed.
// Job logs are skipped for stores without one (tests).
func (m *CronManager) db() *gorm.DB {
	db, ok := m.store.GetDB().(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

func (m *CronManager) logJobStart(jobName string, started time.Time) uint {
	db := m.db()
	if db == nil {
		return 0
	}

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "started",
		StartedAt: started,
	}
	if err := db.Create(&cronLog).Error; err != nil {
		m.logger.Warn("failed to write cron job log", zap.Error(err))
		return 0
	}
	return cronLog.ID
}

func (m *CronManager) finishJobLog(logID uint, status string, completed time.Time, duration int, message, errMsg string) {
	db := m.db()
	if db == nil || logID == 0 {
		return
	}

	err := db.Model(&model.CronJobLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completed,
			"duration":     duration,
			"message":      message,
			"error_msg":    errMsg,
		}).Error
	if err != nil {
		m.logger.Warn("failed to update cron job log", zap.Error(err))
	}
}
