package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"boqscope/internal/config"
	apierrors "boqscope/internal/errors"
	"boqscope/internal/infrastructure"
	customMiddleware "boqscope/internal/middleware"
	"boqscope/internal/services"
	handlers "boqscope/internal/transport/http"
	ws "boqscope/internal/websocket"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application is the server-mode container: configuration, services, router
// and the HTTP server, wired together once at startup.
type Application struct {
	Config            *config.Config
	Paths             *config.Paths
	Router            *chi.Mux
	Server            *http.Server
	WebSocketHub      *ws.Hub
	ExtractionService *services.ExtractionService
	HealthService     *services.HealthService
	Logger            *slog.Logger
	OTelProviders     *infrastructure.OTelProviders
	BusinessMetrics   *infrastructure.BusinessMetrics
	SystemMetrics     *infrastructure.SystemMetricsCollector
	FrontendFS        fs.FS

	openBrowser bool
}

// NewApplication creates a new application instance with dependency injection.
// frontendFS holds the embedded upload page; nil disables the web UI.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	logger.Info("Ensuring required directories exist")
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if err := ws.InitOTelMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize WebSocket OpenTelemetry metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		FrontendFS:    frontendFS,
		openBrowser:   true,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// SetOpenBrowser controls whether Start launches the default browser once
// the server answers health checks.
func (a *Application) SetOpenBrowser(open bool) {
	a.openBrowser = open
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	// WebSocket hub first so the extraction service can broadcast into it
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	if a.OTelProviders.Meter != nil {
		businessMetrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
		if err != nil {
			a.Logger.Warn("Business metrics unavailable", slog.String("error", err.Error()))
		}
		a.BusinessMetrics = businessMetrics
	}

	extractionService, err := services.NewExtractionService(
		a.Config.Extraction, a.Paths, hub, a.BusinessMetrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction service: %w", err)
	}
	a.ExtractionService = extractionService

	a.HealthService = services.NewHealthServiceWithBuildInfo(
		config.AppVersion,
		BuildTime,
		BuildID,
		a.Paths,
		extractionService,
		hub,
		a.Logger,
	)

	if a.OTelProviders.Meter != nil {
		systemMetrics, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, 30*time.Second)
		if err != nil {
			a.Logger.Warn("System metrics collector unavailable", slog.String("error", err.Error()))
		}
		a.SystemMetrics = systemMetrics
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that is safe for WebSocket upgrades; nothing here
	// wraps the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route stays outside the full middleware group so the
	// upgrader gets the raw ResponseWriter
	wsHandler := handlers.NewWebSocketHandler(
		a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get("/ws", wsHandler.ServeWS)

	// Upload page and static assets skip the API middleware chain
	if a.FrontendFS != nil {
		a.setupFrontend(r)
	}

	// Everything else gets the full middleware chain
	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.BusinessMetricsMiddleware(a.BusinessMetrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrape endpoint, outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

		// JSON bodies must parse before any handler sees them; multipart
		// uploads pass through and are size-checked at intake
		r.Use(customMiddleware.NewValidationMiddleware(a.Logger, errorHandler).ValidateRequest)

		// Unmatched API paths and wrong verbs get problem responses
		// instead of chi's plain-text defaults
		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		// Read-only endpoints share the server read timeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)

			metricsHandler := handlers.NewMetricsHandler(a.WebSocketHub, a.ExtractionService)
			r.Mount("/metrics", metricsHandler.Routes())

			r.Post("/client-logs", handlers.NewClientLogHandler(a.Logger).Handle)
		})

		// Extraction routes carry their own per-route timeouts; uploads and
		// downloads outlive the read timeout. Intake is audit logged and
		// uploads must arrive as multipart form data.
		extractionHandler := handlers.NewExtractionHandler(
			a.ExtractionService,
			a.Config.Extraction.MaxArchiveBytes,
			a.Logger,
			errorHandler,
		)
		r.With(
			customMiddleware.AuditLog(a.Logger),
			customMiddleware.ContentTypeValidator("multipart/form-data"),
		).Mount("/extractions", extractionHandler.Routes())
	})
}

// setupFrontend serves the embedded upload page and its static assets.
func (a *Application) setupFrontend(r chi.Router) {
	r.Get("/", handlers.ServeUploadApp(a.FrontendFS))

	r.Route("/static", func(r chi.Router) {
		r.Use(customMiddleware.Compress(5))
		r.Handle("/*", handlers.StaticAssets(a.FrontendFS))
	})
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	port := a.Config.Server.Port
	cfg.AllowedOrigins = []string{
		fmt.Sprintf("http://localhost:%d", port),
		fmt.Sprintf("http://127.0.0.1:%d", port),
	}
	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, a.Config.Security.AllowedOrigins...)
	}

	a.Logger.Info("CORS configured",
		slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("executable_dir", a.Paths.ExecutableDir),
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("staging_dir", a.Paths.StagingDir),
		slog.String("exports_dir", a.Paths.ExportsDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	// Background maintenance: job expiry plus workspace sweeping, and a
	// one-off sweep for anything an earlier run left behind
	a.ExtractionService.StartCleanup(ctx, 0)
	if removed := a.ExtractionService.SweepStaleWorkspace(); removed > 0 {
		a.Logger.InfoContext(ctx, "Reclaimed stale job directories", slog.Int("count", removed))
	}

	if a.SystemMetrics != nil {
		go a.SystemMetrics.Start(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	url := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", url))

	if a.openBrowser {
		go a.openBrowserWhenReady(ctx, url)
	}

	return nil
}

// openBrowserWhenReady polls the health endpoint until the server answers,
// then launches the default browser at the upload page.
func (a *Application) openBrowserWhenReady(ctx context.Context, url string) {
	healthURL := url + "/api/health"

	const maxRetries = 10
	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			a.Logger.InfoContext(ctx, "Browser opening cancelled - application shutting down")
			return
		default:
		}

		resp, err := http.Get(healthURL)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			a.Logger.Info("Server is ready, opening browser",
				slog.String("url", url),
				slog.Int("attempts", i+1))

			if err := openBrowser(url); err != nil {
				a.Logger.Error("Failed to open browser",
					slog.String("error", err.Error()),
					slog.String("url", url))
				fmt.Printf("\n")
				fmt.Printf("========================================\n")
				fmt.Printf("%s is running!\n", config.AppName)
				fmt.Printf("Please open your browser and navigate to:\n")
				fmt.Printf("  %s\n", url)
				fmt.Printf("========================================\n")
				fmt.Printf("\n")
			}
			return
		}
		if resp != nil {
			resp.Body.Close()
		}

		time.Sleep(500 * time.Millisecond)
	}

	a.Logger.Error("Server did not become ready for browser opening",
		slog.String("url", url),
		slog.Int("max_retries", maxRetries))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Running jobs observe cancellation at their next phase boundary
	a.ExtractionService.CancelAll()
	a.WebSocketHub.Stop()

	if a.SystemMetrics != nil {
		a.SystemMetrics.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	// Wait for interrupt or server failure
	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies critical paths are usable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Staging": a.Paths.StagingDir,
		"Exports": a.Paths.ExportsDir,
		"Logs":    a.Paths.LogsDir,
	}

	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if a.FrontendFS == nil {
		warnings = append(warnings, "frontend assets not embedded; upload UI disabled")
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}

// openBrowser opens the default browser to the specified URL with retry logic
func openBrowser(url string) error {
	var lastErr error

	methods := getBrowserOpenMethods(url)

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
			slog.Info("Retrying browser open",
				slog.Int("attempt", attempt+1),
				slog.String("url", url))
		}

		for _, method := range methods {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			cmd := exec.CommandContext(ctx, method.cmd, method.args...)

			if err := cmd.Start(); err != nil {
				cancel()
				lastErr = err
				slog.Warn("Browser open method failed",
					slog.String("method", method.name),
					slog.String("error", err.Error()))
				continue
			}

			// Give the browser a moment to start
			time.Sleep(500 * time.Millisecond)
			cancel()

			slog.Info("Browser opened successfully",
				slog.String("method", method.name),
				slog.String("url", url))
			return nil
		}
	}

	return fmt.Errorf("failed to open browser after all attempts: %w", lastErr)
}

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}

// getBrowserOpenMethods returns platform-specific browser opening methods
func getBrowserOpenMethods(url string) []browserMethod {
	switch runtime.GOOS {
	case "windows":
		return []browserMethod{
			{
				name: "start_command",
				cmd:  "cmd",
				args: []string{"/c", "start", "", url},
			},
			{
				name: "rundll32",
				cmd:  "rundll32",
				args: []string{"url.dll,FileProtocolHandler", url},
			},
		}
	case "darwin":
		return []browserMethod{
			{
				name: "open",
				cmd:  "open",
				args: []string{url},
			},
		}
	default: // Linux and others
		return []browserMethod{
			{
				name: "xdg-open",
				cmd:  "xdg-open",
				args: []string{url},
			},
			{
				name: "sensible-browser",
				cmd:  "sensible-browser",
				args: []string{url},
			},
		}
	}
}
