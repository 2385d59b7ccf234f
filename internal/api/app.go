package api

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/polyglot-chat/internal/config"
	"github.com/npezzotti/polyglot-chat/internal/registry"
	"github.com/npezzotti/polyglot-chat/internal/server"
	"github.com/npezzotti/polyglot-chat/internal/stats"
)

type ChatApp struct {
	log            *log.Logger
	rooms          *registry.Registry
	cs             *server.ChatServer
	stats          stats.StatsProvider
	srv            *http.Server
	signingKey     []byte
	allowedOrigins []string
	templates      map[string]*template.Template
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, rooms *registry.Registry, su stats.StatsProvider, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		rooms:          rooms,
		cs:             cs,
		stats:          su,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		templates:      pageTemplates,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("POST /{$}", s.enterRoom)
	mux.HandleFunc("GET /room", s.room)
	mux.Handle("GET /api/room", s.sessionMiddleware(s.getRoom))
	mux.Handle("GET /ws", s.sessionMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	if logger != nil {
		h = handlers.CombinedLoggingHandler(logger.Writer(), h)
	}

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
