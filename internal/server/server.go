package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/handlers"
	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// New builds the router with its middleware chain and routes
func New(cfg *config.Config, deps *handlers.Deps) *Server {
	if cfg.Server.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(deps.Log),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Log),
		middleware.CORS(&cfg.Security),
		middleware.SecurityHeaders(),
	)
	if cfg.Security.RateLimitEnabled {
		router.Use(middleware.RateLimit(&cfg.Security, deps.Log))
	}

	handlers.RegisterRoutes(router, deps)

	return &Server{
		config: cfg,
		logger: deps.Log,
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.GetServerAddr(),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the server is stopped
func (s *Server) Start() error {
	s.logger.WithFields(logger.Fields{"addr": s.httpServer.Addr}).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests for at most the configured grace period
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Server.GracefulStop)*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
