package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"hpchess/config"
	"hpchess/game"
	"hpchess/oracle"
	"hpchess/service"
)

// Server exposes the game manager over REST and websockets.
type Server struct {
	app   *fiber.App
	games *service.Manager
	cfg   config.Config
	log   *zap.Logger
}

func New(games *service.Manager, cfg config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		app:   fiber.New(fiber.Config{DisableStartupMessage: true}),
		games: games,
		cfg:   cfg,
		log:   log,
	}

	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	s.app.Use(s.requestLogger)

	s.app.Get("/ws/game/:gameId", s.upgrade, websocket.New(s.handleSocket, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         cfg.AllowedOrigins,
	}))

	api := s.app.Group("/api")
	routes := api.Group("/game")
	routes.Post("/", s.createGame)
	routes.Get("/:gameId", s.getGame)
	routes.Delete("/:gameId", s.deleteGame)
	routes.Post("/:gameId/move", s.submitMove)
	routes.Post("/:gameId/engine", s.engineMove)
	routes.Post("/:gameId/undo", s.undo)
	routes.Post("/:gameId/new", s.newGame)
	routes.Put("/:gameId/difficulty", s.setDifficulty)
	routes.Get("/:gameId/hp/:square", s.hp)

	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen() error {
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))
	return s.app.Listen(s.cfg.Addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, game.ErrEngineBusy):
		return fiber.StatusConflict
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNoLegalMoves):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, game.ErrInvalidDifficulty),
		errors.Is(err, oracle.ErrBadFEN),
		errors.Is(err, oracle.ErrBadMoveText),
		errors.Is(err, errBadRequest):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	body := fiber.Map{"error": err.Error()}
	if errors.Is(err, game.ErrIllegalMove) {
		body["revert"] = true
	}
	return c.Status(code).JSON(body)
}
