package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/handlers"
	admin_handlers "github.com/hearthchat/api/handlers/admin"
	auth_handlers "github.com/hearthchat/api/handlers/auth"
	chat_handlers "github.com/hearthchat/api/handlers/chat"
	"github.com/hearthchat/api/services"
	"github.com/hearthchat/api/services/ai"
	"github.com/hearthchat/api/services/signals"
	"github.com/hearthchat/api/services/storage"
	"github.com/hearthchat/api/utils/cache"
	"github.com/hearthchat/api/utils/middleware"
	"go.uber.org/zap"
)

// Dependencies carries the shared infrastructure the routes need. Cache and
// Spaces may be nil; the features backed by them degrade gracefully.
type Dependencies struct {
	Store  database.Storage
	Cache  *cache.RedisCache
	Spaces *storage.SpacesClient
	AI     ai.Provider
	Logger *zap.Logger
}

// route is one row of the declarative route table
type route struct {
	method   string
	path     string
	handlers []fiber.Handler
}

// SetupRoutes wires every endpoint from a single route table
func SetupRoutes(app *fiber.App, deps Dependencies) {
	store := deps.Store
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var bruteForce *middleware.BruteForceProtection
	if deps.Cache != nil {
		bruteForce = middleware.NewBruteForceProtection(deps.Cache)
	}

	authMiddleware := middleware.NewAuthMiddleware(store)

	moderator := services.NewModerator(store)
	extractor := signals.NewExtractor(store, logger)
	chatService := services.NewChatService(store, deps.AI, moderator, extractor, logger)
	emailService := services.NewEmailService(logger)

	authHandler := auth_handlers.NewAuthHandler(store, emailService, bruteForce, logger)
	chatHandler := chat_handlers.NewChatHandler(chatService)

	authed := authMiddleware.Required()
	admin := authMiddleware.RequireAdmin()

	loginGuard := func(c *fiber.Ctx) error { return c.Next() }
	if bruteForce != nil {
		loginGuard = bruteForce.CheckAndRecordAttempt()
	}

	adminStore := func(h func(*fiber.Ctx, database.Storage) error) fiber.Handler {
		return func(c *fiber.Ctx) error { return h(c, store) }
	}

	routes := []route{
		// Public
		{fiber.MethodGet, "/ping", []fiber.Handler{handlers.Ping(store)}},
		{fiber.MethodPost, "/api/v1/auth/register", []fiber.Handler{authHandler.Register}},
		{fiber.MethodPost, "/api/v1/auth/verify", []fiber.Handler{authHandler.Verify}},
		{fiber.MethodPost, "/api/v1/auth/login", []fiber.Handler{loginGuard, authHandler.Login}},

		// Authenticated
		{fiber.MethodPost, "/api/v1/auth/logout", []fiber.Handler{authed, authHandler.Logout}},
		{fiber.MethodGet, "/api/v1/profile", []fiber.Handler{authed, authHandler.GetProfile}},
		{fiber.MethodPut, "/api/v1/profile", []fiber.Handler{authed, authHandler.UpdateProfile}},
		{fiber.MethodPost, "/api/v1/profile/avatar", []fiber.Handler{authed, authHandler.UploadAvatar(deps.Spaces)}},
		{fiber.MethodPost, "/api/v1/chat", []fiber.Handler{authed, chatHandler.SendMessage}},
		{fiber.MethodGet, "/api/v1/chat/threads", []fiber.Handler{authed, chatHandler.ListThreads}},
		{fiber.MethodGet, "/api/v1/chat/threads/:id/messages", []fiber.Handler{authed, chatHandler.ListMessages}},
		{fiber.MethodDelete, "/api/v1/chat/threads/:id", []fiber.Handler{authed, chatHandler.DeleteThread}},

		// Admin
		{fiber.MethodGet, "/api/v1/admin/dashboard", []fiber.Handler{authed, admin,
			adminStore(admin_handlers.GetDashboard)}},
		{fiber.MethodGet, "/api/v1/admin/users", []fiber.Handler{authed, admin,
			adminStore(admin_handlers.ListUsers)}},
		{fiber.MethodGet, "/api/v1/admin/users/:id", []fiber.Handler{authed, admin,
			adminStore(admin_handlers.GetUser)}},
		{fiber.MethodPut, "/api/v1/admin/users/:id", []fiber.Handler{authed, admin,
			middleware.AdminAuditLog(store, "user_update", "users"),
			adminStore(admin_handlers.UpdateUser)}},
		{fiber.MethodDelete, "/api/v1/admin/users/:id", []fiber.Handler{authed, admin,
			middleware.AdminAuditLog(store, "user_delete", "users"),
			adminStore(admin_handlers.DeleteUser)}},
	}

	for _, r := range routes {
		app.Add(r.method, r.path, r.handlers...)
	}
}
