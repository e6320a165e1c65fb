package database

import (
	"fmt"
	"os"

	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/utils/auth"
	"gorm.io/gorm"
)

// RunSeeds populates baseline data: the default moderation blocklist setting
// and, when ADMIN_EMAIL / ADMIN_PASSWORD are set, an active admin account.
func RunSeeds(db *gorm.DB) error {
	if err := seedSettings(db); err != nil {
		return err
	}
	return seedAdminUser(db)
}

func seedSettings(db *gorm.DB) error {
	var count int64
	db.Model(&model.AppSetting{}).
		Where("key = ?", model.SettingModerationBlocklist).
		Count(&count)
	if count > 0 {
		return nil
	}

	setting := model.AppSetting{
		Key:         model.SettingModerationBlocklist,
		Value:       "spam,scam,gambling,porn",
		Type:        "string",
		Description: "Comma-separated terms rejected by the content moderator",
	}
	if err := db.Create(&setting).Error; err != nil {
		return fmt.Errorf("failed to seed moderation blocklist: %w", err)
	}
	return nil
}

func seedAdminUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	db.Model(&model.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := model.User{
		Email:         email,
		PasswordHash:  hash,
		Name:          "Admin",
		Role:          model.RoleAdmin,
		Status:        model.StatusActive,
		DailyMessages: model.DefaultDailyMessages,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}
