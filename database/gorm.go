package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hearthchat/api/config"
	"github.com/hearthchat/api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Identity models
		&model.User{},
		&model.Session{},
		&model.VerificationCode{},

		// Chat models
		&model.Thread{},
		&model.Message{},
		&model.MessageQuota{},

		// Side-signal telemetry
		&model.MoodSignal{},
		&model.TopicSignal{},

		// Application settings
		&model.AppSetting{},

		// Audit & logging models
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	)

	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func normalizeErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ==================== Users ====================

func (s *GORMStore) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, normalizeErr(err)
	}
	return &user, nil
}

func (s *GORMStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, normalizeErr(err)
	}
	return &user, nil
}

func (s *GORMStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GORMStore) UpdateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// ==================== Sessions ====================

func (s *GORMStore) CreateSession(ctx context.Context, session *model.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GORMStore) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	if err := s.db.WithContext(ctx).Preload("User").
		Where("token = ?", token).
		First(&session).Error; err != nil {
		return nil, normalizeErr(err)
	}
	return &session, nil
}

func (s *GORMStore) DeleteSessionByToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error
}

func (s *GORMStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.Session{})
	return result.RowsAffected, result.Error
}

// ==================== Verification codes ====================

func (s *GORMStore) CreateVerificationCode(ctx context.Context, code *model.VerificationCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

func (s *GORMStore) GetUsableVerificationCode(ctx context.Context, userID uint, code string, now time.Time) (*model.VerificationCode, error) {
	var vc model.VerificationCode
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used_at IS NULL AND expires_at > ?", userID, code, now).
		First(&vc).Error; err != nil {
		return nil, normalizeErr(err)
	}
	return &vc, nil
}

func (s *GORMStore) MarkVerificationCodeUsed(ctx context.Context, id uint, now time.Time) error {
	return s.db.WithContext(ctx).Model(&model.VerificationCode{}).
		Where("id = ?", id).
		Update("used_at", now).Error
}

func (s *GORMStore) DeleteStaleVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("used_at IS NOT NULL OR expires_at < ?", now).
		Delete(&model.VerificationCode{})
	return result.RowsAffected, result.Error
}

// ==================== Threads ====================

func (s *GORMStore) GetThreadForUser(ctx context.Context, threadID, userID uint) (*model.Thread, error) {
	var thread model.Thread
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", threadID, userID).
		First(&thread).Error; err != nil {
		return nil, normalizeErr(err)
	}
	return &thread, nil
}

func (s *GORMStore) CreateThread(ctx context.Context, thread *model.Thread) error {
	return s.db.WithContext(ctx).Create(thread).Error
}

func (s *GORMStore) DeleteThreadForUser(ctx context.Context, threadID, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", threadID, userID).
		Delete(&model.Thread{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) ListThreads(ctx context.Context, userID uint, limit, offset int) ([]model.Thread, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Thread{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var threads []model.Thread
	if err := query.
		Order("last_message_at DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error; err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

// ==================== Messages ====================

// AppendMessage writes a message row, assigning the next per-thread sequence
// number and bumping the thread counters in the same transaction. Callers
// serialize appends per thread; the transaction keeps the row and its
// counters consistent even if that discipline slips.
func (s *GORMStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&model.Message{}).
			Where("thread_id = ?", msg.ThreadID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		msg.Seq = maxSeq + 1

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Model(&model.Thread{}).
			Where("id = ?", msg.ThreadID).
			Updates(map[string]interface{}{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_message_at": now,
			}).Error
	})
}

func (s *GORMStore) ListMessages(ctx context.Context, threadID uint, limit, offset int) ([]model.Message, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Message{}).Where("thread_id = ?", threadID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []model.Message
	if err := query.
		Order("seq ASC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// ==================== Quotas ====================

func (s *GORMStore) QuotaUsed(ctx context.Context, userID uint, day string) (int, error) {
	var quota model.MessageQuota
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&quota).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return quota.Used, nil
}

// IncrementQuota bumps the (user, day) counter with an atomic upsert so
// concurrent chat turns never lose an increment.
func (s *GORMStore) IncrementQuota(ctx context.Context, userID uint, day string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"used":       gorm.Expr("message_quotas.used + 1"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&model.MessageQuota{
		UserID: userID,
		Day:    day,
		Used:   1,
	}).Error
}

func (s *GORMStore) DeleteQuotaRowsBefore(ctx context.Context, day string) (int64, error) {
	result := s.db.WithContext(ctx).Where("day < ?", day).Delete(&model.MessageQuota{})
	return result.RowsAffected, result.Error
}

// ==================== Signals ====================

func (s *GORMStore) CreateMoodSignal(ctx context.Context, signal *model.MoodSignal) error {
	return s.db.WithContext(ctx).Create(signal).Error
}

func (s *GORMStore) CreateTopicSignal(ctx context.Context, signal *model.TopicSignal) error {
	return s.db.WithContext(ctx).Create(signal).Error
}

// ==================== Settings ====================

func (s *GORMStore) GetSetting(ctx context.Context, key string) (string, error) {
	var setting model.AppSetting
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		return "", normalizeErr(err)
	}
	return setting.Value, nil
}
