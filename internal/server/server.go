package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jherforth/HomeGlow-sub000/internal/board"
	"github.com/jherforth/HomeGlow-sub000/internal/handler"
	"github.com/jherforth/HomeGlow-sub000/internal/middleware"
	"github.com/jherforth/HomeGlow-sub000/internal/store"
	ws "github.com/jherforth/HomeGlow-sub000/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	choreH      *handler.ChoreHandler
	scheduleH   *handler.ScheduleHandler
	boardH      *handler.BoardHandler
	historyH    *handler.HistoryHandler
	userH       *handler.UserHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, loc *time.Location, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	choreStore := store.NewChoreStore(db)
	scheduleStore := store.NewScheduleStore(db)
	historyStore := store.NewHistoryStore(db)
	userStore := store.NewUserStore(db)

	boardSvc := board.NewService(choreStore, scheduleStore, historyStore, userStore, loc, logger.With("component", "board"))

	return &Server{
		db:          db,
		hub:         hub,
		choreH:      handler.NewChoreHandler(choreStore, hub, logger.With("component", "chore")),
		scheduleH:   handler.NewScheduleHandler(scheduleStore, choreStore, hub, logger.With("component", "schedule")),
		boardH:      handler.NewBoardHandler(boardSvc, hub, logger.With("component", "board_handler")),
		historyH:    handler.NewHistoryHandler(historyStore, hub, logger.With("component", "history")),
		userH:       handler.NewUserHandler(userStore, hub, logger.With("component", "user")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Hub returns the WebSocket hub, for shutdown accounting.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Board
	mux.HandleFunc("GET /api/board", s.boardH.Board)
	mux.HandleFunc("POST /api/completions", s.rateLimitedHandler(s.boardH.Complete))
	mux.HandleFunc("POST /api/schedules/{id}/claim", s.rateLimitedHandler(s.boardH.Claim))

	// Chores
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)

	// Schedules
	mux.HandleFunc("POST /api/schedules", s.scheduleH.Create)
	mux.HandleFunc("GET /api/schedules", s.scheduleH.List)
	mux.HandleFunc("GET /api/schedules/{id}", s.scheduleH.Get)
	mux.HandleFunc("PUT /api/schedules/{id}", s.scheduleH.Update)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleH.Delete)
	mux.HandleFunc("POST /api/schedules/{id}/duplicate", s.scheduleH.Duplicate)
	mux.HandleFunc("PUT /api/schedules/{id}/visibility", s.scheduleH.SetVisibility)

	// History
	mux.HandleFunc("GET /api/history", s.historyH.List)
	mux.HandleFunc("DELETE /api/history/{id}", s.historyH.Delete)

	// Users
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	mux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)
	mux.HandleFunc("GET /api/users/{id}/clams", s.userH.Clams)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "ws_handler")))

	h := middleware.RequestLogger(s.logger.With("component", "http"))(mux)
	return middleware.RequestID(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimitedHandler wraps mutation endpoints that kids can hammer from
// shared tablets.
func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
