package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/utils/response"
	"gorm.io/gorm"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Status  string `query:"status"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// UpdateUserRequest represents the request body for updating a user. All
// fields are optional.
type UpdateUserRequest struct {
	Name             *string `json:"name"`
	Role             *string `json:"role"`
	Status           *string `json:"status"`
	DailyMessages    *int    `json:"daily_messages"`
	AgentPersonality *string `json:"agent_personality"`
}

// sortColumns whitelists user-supplied sort fields
var sortColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"email":         true,
	"last_login_at": true,
}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if !sortColumns[req.Sort] {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		req.SortDir = "desc"
	}

	query := db.Model(&model.User{})

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	orderBy := req.Sort + " " + req.SortDir

	if err := query.Offset(offset).Limit(req.Limit).Order(orderBy).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, response.CalculatePagination(req.Page, req.Limit, total))
}

// GetUser retrieves a specific user with usage statistics
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var stats struct {
		TotalThreads  int64 `json:"total_threads"`
		TotalMessages int64 `json:"total_messages"`
		UsedToday     int64 `json:"used_today"`
	}

	db.Model(&model.Thread{}).Where("user_id = ?", userID).Count(&stats.TotalThreads)
	db.Model(&model.Message{}).Where("user_id = ? AND role = ?", userID, model.MessageRoleUser).Count(&stats.TotalMessages)
	db.Model(&model.MessageQuota{}).
		Where("user_id = ? AND day = ?", userID, model.QuotaDay(time.Now())).
		Select("COALESCE(SUM(used), 0)").
		Scan(&stats.UsedToday)

	return response.Success(c, fiber.Map{
		"user":  user,
		"stats": stats,
	})
}

// UpdateUser changes a user's role, status, quota or profile fields
// PUT /admin/users/:id
func UpdateUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if req.Role != nil {
		switch *req.Role {
		case model.RolePending, model.RoleChild, model.RoleParent, model.RoleAdmin:
			user.Role = *req.Role
		default:
			return response.BadRequest(c, "Invalid role")
		}
	}
	if req.Status != nil {
		switch *req.Status {
		case model.StatusPending, model.StatusActive:
			user.Status = *req.Status
		default:
			return response.BadRequest(c, "Invalid status")
		}
	}
	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.DailyMessages != nil {
		if *req.DailyMessages < 0 {
			return response.BadRequest(c, "daily_messages must not be negative")
		}
		user.DailyMessages = *req.DailyMessages
	}
	if req.AgentPersonality != nil {
		user.AgentPersonality = *req.AgentPersonality
	}

	if err := db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, fiber.Map{"user": user})
}

// DeleteUser permanently removes a user and their data
// DELETE /admin/users/:id
func DeleteUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	adminID, _ := c.Locals("user_id").(uint)
	if adminID == uint(userID) {
		return response.BadRequest(c, "Admins cannot delete their own account")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	// Hard delete; cascades remove sessions, threads and messages.
	if err := db.Unscoped().Delete(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.Success(c, fiber.Map{"message": "User deleted"})
}
