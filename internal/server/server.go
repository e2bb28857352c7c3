package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apihttp "github.com/hearthdesk/hearth/backend/internal/api/http"
	"github.com/hearthdesk/hearth/backend/internal/api/middleware"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/config"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/monitoring"
	"github.com/hearthdesk/hearth/backend/internal/lifecycle"
	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/state"
	"github.com/hearthdesk/hearth/backend/internal/surface/headless"
	"github.com/hearthdesk/hearth/backend/internal/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wires the backend together: profile registry, surface
// allocator, lifecycle service, shared state, event stream, and the
// HTTP command surface.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics
	views   *lifecycle.Service
	hub     *ws.Hub
	router  *gin.Engine
	httpSrv *http.Server
}

// NewServer builds a fully wired server from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	metrics := monitoring.NewMetrics()

	profiles := profile.NewRegistry(log)
	if cfg.Profiles.SeedBuiltins {
		if err := profile.SeedBuiltins(profiles, log); err != nil {
			return nil, fmt.Errorf("seed profiles: %w", err)
		}
	}
	if cfg.Profiles.Dir != "" {
		loader := profile.NewLoader(cfg.Profiles.Dir, log)
		if _, err := loader.LoadDir(profiles); err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}

	prober := headless.NewProber(cfg.Surface.ProbeTimeout, cfg.Surface.UserAgent)
	alloc := headless.NewAllocator(prober, cfg.Surface.ScriptTimeout, log)

	hub := ws.NewHub(log)
	views := lifecycle.NewService(profiles, alloc, lifecycle.SystemOpener{}, hub, log, metrics)

	store := state.NewStore()
	streamHandler := ws.NewHandler(hub, store, log, metrics)
	handlers := apihttp.NewHandlers(views, profiles, log)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"stats":  views.Stats(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/views", handlers.CreateView)
	router.GET("/views", handlers.ListViews)
	router.POST("/views/hide-all", handlers.HideAll)
	router.GET("/views/:id", handlers.GetView)
	router.POST("/views/:id/show", handlers.ShowView)
	router.POST("/views/:id/hide", handlers.HideView)
	router.DELETE("/views/:id", handlers.DestroyView)
	router.POST("/views/:id/reload", handlers.ReloadView)
	router.GET("/views/:id/url", handlers.GetURL)
	router.GET("/views/:id/content-id", handlers.GetContentID)
	router.POST("/views/:id/link-policy", handlers.SetLinkPolicy)

	router.POST("/layout/bounds", handlers.ComputeBounds)

	router.GET("/profiles", handlers.ListProfiles)
	router.GET("/profiles/:id", handlers.GetProfile)

	router.GET("/stream", streamHandler.HandleConnection)

	return &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		views:   views,
		hub:     hub,
		router:  router,
	}, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until the listener fails or Close is called.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("Backend listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close drains the HTTP server and destroys every view.
func (s *Server) Close() error {
	s.log.Info("Shutting down")
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.log.Warn("HTTP shutdown", zap.Error(err))
		}
	}
	s.views.Shutdown()
	s.log.Sync()
	return nil
}
