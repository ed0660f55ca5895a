package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"equity-signal-bot/internal/auth"
	"equity-signal-bot/internal/database"
	"equity-signal-bot/internal/events"
	"equity-signal-bot/internal/scanner"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	// Filter out old requests
	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
	ProductionMode bool
	RateLimit      int           // max requests per endpoint per window
	RateWindow     time.Duration // rate limit window
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// WatchlistEntry describes one monitored ticker and its RSI thresholds.
type WatchlistEntry struct {
	Ticker        string  `json:"ticker"`
	Group         string  `json:"group,omitempty"`
	OversoldRSI   float64 `json:"oversold_rsi"`
	OverboughtRSI float64 `json:"overbought_rsi"`
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      ServerConfig
	repo        *database.Repository // nil when persistence is disabled
	scanner     *scanner.Scanner
	eventBus    *events.EventBus
	authService *auth.Service
	authEnabled bool
	watchlist   []WatchlistEntry
	rateLimiter *RateLimiter
	logger      zerolog.Logger
	startedAt   time.Time
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	repo *database.Repository, // Can be nil if persistence is disabled
	sc *scanner.Scanner,
	eventBus *events.EventBus,
	authService *auth.Service, // Can be nil if auth is disabled
	watchlist []WatchlistEntry,
	logger zerolog.Logger,
) *Server {
	// Set Gin mode
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}
	rateWindow := config.RateWindow
	if rateWindow <= 0 {
		rateWindow = time.Minute
	}

	server := &Server{
		router:      router,
		config:      config,
		repo:        repo,
		scanner:     sc,
		eventBus:    eventBus,
		authService: authService,
		authEnabled: authService != nil,
		watchlist:   watchlist,
		rateLimiter: NewRateLimiter(rateLimit, rateWindow),
		logger:      logger.With().Str("component", "api").Logger(),
		startedAt:   time.Now(),
	}

	server.setupRoutes()

	// Initialize the WebSocket hub for real-time event broadcasting
	InitWebSocket(eventBus, server.logger)

	return server
}

// rateLimitMiddleware creates a middleware that rate limits requests by endpoint
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	// Endpoints serving in-memory state only - no rate limiting needed
	noRateLimitPaths := map[string]bool{
		"/api/scanner/status": true,
		"/api/watchlist":      true,
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if noRateLimitPaths[path] {
			c.Next()
			return
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests to this endpoint. Please slow down.",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Prometheus metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes (public, no authentication required)
	if s.authEnabled {
		authHandlers := auth.NewHandlers(s.authService)
		authGroup := s.router.Group("/api/auth")
		authHandlers.RegisterRoutes(authGroup, s.authService.GetJWTManager())
	}

	// Auth status endpoint (always available, returns whether auth is enabled)
	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth_enabled": s.authEnabled,
		})
	})

	// API routes (protected when auth is enabled)
	api := s.router.Group("/api")

	// Apply auth middleware if enabled
	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.GetJWTManager()))
	}
	api.Use(s.rateLimitMiddleware())

	{
		// Signal endpoints
		api.GET("/signals", s.handleGetSignals)
		api.GET("/signals/:ticker", s.handleGetTickerSignals)

		// Scanner endpoints
		api.GET("/scanner/status", s.handleScannerStatus)
		api.POST("/scanner/scan", s.handleTriggerScan)
		api.POST("/scanner/cooldowns/:ticker/reset", s.handleResetCooldown)

		// Run history and digest endpoints
		api.GET("/runs", s.handleGetRuns)
		api.GET("/stats", s.handleGetStats)

		// Watchlist endpoint
		api.GET("/watchlist", s.handleGetWatchlist)
	}

	// WebSocket endpoint for live scan events
	s.router.GET("/ws", s.handleWebSocket)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	readTimeout := s.config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := s.config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "disabled"
	if s.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.repo.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}
		dbStatus = "healthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"database":        dbStatus,
		"scanner_running": s.scanner.Status().Running,
		"ws_clients":      wsHub.GetClientCount(),
		"uptime":          time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
