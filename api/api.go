package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/conversation"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/robot"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/speech"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
)

// Server is the gateway API server for the sweeper assistant.
type Server struct {
	config     Config
	storer     storage.Driver
	robot      *robot.Store
	session    *conversation.Session
	recognizer speech.Recognizer
	logger     *zap.Logger
	app        *fiber.App
}

// NewServer creates a new API server.
// The storer, robot store, session, and recognizer are injected so they
// can be shared with the conversation orchestrator running in the same
// process. Any of them may be nil; the matching endpoints then report
// unavailability.
func NewServer(config Config, storer storage.Driver, robotStore *robot.Store, session *conversation.Session, recognizer speech.Recognizer, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		storer:     storer,
		robot:      robotStore,
		session:    session,
		recognizer: recognizer,
		logger:     logger,
		app:        app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/robot/status", s.handleRobotStatus)
	app.Get("/robot/devices", s.handleRobotDevices)
	app.Get("/robot/tasks", s.handleRobotTasks)
	app.Get("/conversations", s.handleListConversations)
	app.Get("/conversations/:id/history", s.handleGetHistory)
	app.Get("/session", s.handleSession)
	app.Post("/chat", s.handleChat)
	app.Post("/recognize", s.handleRecognize)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
