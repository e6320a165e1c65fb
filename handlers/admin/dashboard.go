package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/utils/response"
	"gorm.io/gorm"
)

// GetDashboard retrieves system-wide overview statistics
// GET /admin/dashboard
func GetDashboard(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var stats struct {
		TotalUsers    int64 `json:"total_users"`
		TotalThreads  int64 `json:"total_threads"`
		TotalMessages int64 `json:"total_messages"`
		UsersByRole   []struct {
			Role  string `json:"role"`
			Count int64  `json:"count"`
		} `json:"users_by_role"`
		UsersByStatus []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"users_by_status"`
		MessagesLast7Days []struct {
			Date  string `json:"date"`
			Count int64  `json:"count"`
		} `json:"messages_last_7_days"`
		MoodAverage float64 `json:"mood_average"`
		TopTopics   []struct {
			Topic string `json:"topic"`
			Count int64  `json:"count"`
		} `json:"top_topics"`
	}

	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.Thread{}).Count(&stats.TotalThreads)
	db.Model(&model.Message{}).Count(&stats.TotalMessages)

	db.Model(&model.User{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Scan(&stats.UsersByRole)

	db.Model(&model.User{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&stats.UsersByStatus)

	db.Raw(`
		SELECT DATE(created_at) as date, COUNT(*) as count
		FROM messages
		WHERE created_at >= NOW() - INTERVAL '7 days'
		GROUP BY DATE(created_at)
		ORDER BY date ASC
	`).Scan(&stats.MessagesLast7Days)

	db.Model(&model.MoodSignal{}).
		Where("created_at >= ?", time.Now().Add(-7*24*time.Hour)).
		Select("COALESCE(AVG(score), 0)").
		Scan(&stats.MoodAverage)

	db.Raw(`
		SELECT topic, COUNT(*) as count
		FROM topic_signals
		WHERE created_at >= NOW() - INTERVAL '7 days'
		GROUP BY topic
		ORDER BY count DESC
		LIMIT 10
	`).Scan(&stats.TopTopics)

	return response.Success(c, stats)
}
