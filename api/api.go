package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"go.uber.org/zap"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	store         database.Storage
	logger        *zap.Logger
}

func NewAPIServer(listenAddress string, store database.Storage, logger *zap.Logger) *APIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIServer{
		app:           fiber.New(),
		listenAddress: listenAddress,
		store:         store,
		logger:        logger,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", zap.String("addr", s.listenAddress))

	return s.app.Listen(s.listenAddress)
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
