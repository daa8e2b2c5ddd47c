package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/webcontainer/internal/api/http"
	"github.com/GriffinCanCode/webcontainer/internal/api/middleware"
	"github.com/GriffinCanCode/webcontainer/internal/api/ws"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/config"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcontainer/internal/providers"
	"github.com/GriffinCanCode/webcontainer/internal/providers/media"
	"github.com/GriffinCanCode/webcontainer/internal/providers/relaunch"
	"github.com/GriffinCanCode/webcontainer/internal/providers/transfer"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
	"github.com/GriffinCanCode/webcontainer/internal/sysinfo"
	"github.com/GriffinCanCode/webcontainer/internal/webview"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	host    *providers.Host
	info    sysinfo.SystemInfo
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing bridge host",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("sandbox", cfg.Sandbox.Root),
		zap.String("bundle", cfg.Sandbox.BundleDir),
	)

	metrics := monitoring.NewMetrics()

	root, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		return nil, err
	}

	info, err := DeviceInfo(cfg.Device)
	if err != nil {
		return nil, err
	}

	transferer := transfer.NewClient(transfer.Config{
		Timeout:           cfg.Transfer.Timeout,
		Retries:           cfg.Transfer.Retries,
		RequestsPerSecond: cfg.Transfer.RequestsPerSecond,
		UserAgent:         transfer.DefaultConfig().UserAgent,
	}, logger.Component("transfer"))

	host := &providers.Host{
		Root:       root,
		Bundle:     cfg.Sandbox.BundleDir,
		Transferer: transferer,
		Logger:     logger.Component("providers"),
	}
	if dir := cfg.Sandbox.LibraryDir; dir != "" {
		library := media.NewLibrary(dir)
		host.Capturer = library
		host.Picker = library
		logger.Info("Media library enabled", zap.String("dir", dir))
	}

	// Every session registers the same channels; build one set up front to
	// validate the host and list them.
	registry, err := host.Registry(providers.Session{})
	if err != nil {
		return nil, fmt.Errorf("failed to register plugins: %w", err)
	}
	logger.Info("Registered capabilities", zap.Strings("channels", registry.Names()))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers, err := apihttp.NewHandlers(
		relaunch.NewLocator(root.Dir(), cfg.Sandbox.BundleDir),
		info,
		registry.Names(),
		metrics,
		transferer.Breakers(),
		logger.Component("http"),
	)
	if err != nil {
		return nil, err
	}
	wsHandler := ws.NewHandler(host, info, metrics, logger)

	router.GET("/health", handlers.Health)
	router.GET("/capabilities", handlers.Capabilities)
	router.GET("/metrics", handlers.Metrics())
	router.GET("/native.js", handlers.BridgeScript)
	router.GET("/bridge", wsHandler.HandleConnection)
	router.NoRoute(handlers.Page)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		http:    &http.Server{Addr: cfg.Server.Addr(), Handler: router},
		host:    host,
		info:    info,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// DeviceInfo builds the injected system info from the device section,
// applying the profile file when one is configured
func DeviceInfo(cfg config.DeviceConfig) (sysinfo.SystemInfo, error) {
	info := sysinfo.Default()
	if cfg.SDKVersion != "" {
		info.SDKVersion = cfg.SDKVersion
	}
	if cfg.ScreenWidth > 0 {
		info.ScreenWidth = cfg.ScreenWidth
	}
	if cfg.ScreenHeight > 0 {
		info.ScreenHeight = cfg.ScreenHeight
	}
	if cfg.Theme != "" {
		info.Theme = cfg.Theme
	}
	if cfg.Profile == "" {
		return info, nil
	}
	info, err := sysinfo.LoadProfile(cfg.Profile, info)
	if err != nil {
		return sysinfo.SystemInfo{}, fmt.Errorf("failed to load device profile: %w", err)
	}
	return info, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Logger returns the server logger
func (s *Server) Logger() *logging.Logger {
	return s.logger
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Headless opens url in a headless view and drives it until ctx is done
func (s *Server) Headless(ctx context.Context, url string) error {
	view, err := webview.New(s.host, webview.Config{
		Info:     s.info,
		Timeout:  webview.DefaultConfig().Timeout,
		Logger:   s.logger.Component("webview"),
		Observer: s.metrics,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- view.Run(ctx) }()

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	if err := view.Open(ctx, url); err != nil {
		view.Close()
		<-errCh
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	s.logger.Info("Headless view running", zap.String("url", url))
	return <-errCh
}

// Shutdown stops accepting connections and waits for active requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.http.Shutdown(ctx)
}

// Close flushes the logger
func (s *Server) Close() error {
	_ = s.logger.Sync()
	return nil
}
