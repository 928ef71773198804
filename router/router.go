package router

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	apikeysAPI "gatewarden-api/api/v1/apikeys"
	sessionAPI "gatewarden-api/api/v1/session"
	internalAPIKey "gatewarden-api/internal/apikey"
	"gatewarden-api/internal/identity"
	"gatewarden-api/internal/keycache"
	log "gatewarden-api/internal/logger"
	"gatewarden-api/internal/middleware"
	"gatewarden-api/internal/refresh"
	"gatewarden-api/internal/token"
	"gatewarden-api/pkg/config"
	"gatewarden-api/pkg/redis"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Package-level services to avoid recreation
var (
	deployIdentity identity.Identity
	keyCache       *keycache.Cache
	tokenVerifier  token.Verifier
	refresher      *refresh.Coordinator
	apiKeyService  *internalAPIKey.Service
	logger         *logrus.Logger
	customLogger   *log.Logger
)

// InitServices initializes all required services
func InitServices(appConfig *config.AppConfig, database *gorm.DB, redisClient *redis.Client) error {
	// Initialize logger with Sentry hook
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Setup Sentry hook for logrus if DSN is provided
	sentryDSN := os.Getenv("SENTRY_DSN")
	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         sentryDSN,
			Environment: appConfig.Environment,
			Release:     os.Getenv("APP_VERSION"),
		})
		if err != nil {
			return errors.New("failed to initialize Sentry: " + err.Error())
		}

		// Add Sentry hook to logrus
		levels := []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
		hook, err := sentrylogrus.New(levels, sentry.ClientOptions{
			Dsn: sentryDSN,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize Sentry hook")
		} else {
			logger.AddHook(hook)
			logger.Info("Sentry integration initialized successfully")
		}
	}

	// Initialize custom logger wrapper
	customLogger = log.New(logger)

	// Deployment identity: domain for audience checks and URL building
	deployIdentity = identity.New(
		appConfig.AppDomain,
		appConfig.AuthProvider.BaseURL,
		appConfig.IsDevelopment(),
	)

	providerHTTPClient := &http.Client{Timeout: appConfig.AuthProvider.RequestTimeout}

	// Key cache over the provider's published key set
	keyCache = keycache.NewCache(
		appConfig.AuthProvider.BaseURL+appConfig.AuthProvider.JWKSPath,
		providerHTTPClient,
		customLogger,
	)

	// Token verification strategy is fixed at startup. The symmetric test
	// path exists only when this deployment is explicitly marked as a
	// development environment; its constructor refuses anything else.
	if appConfig.AuthProvider.TestSecret != "" && !appConfig.IsProduction() {
		verifier, err := token.NewHS256Verifier(
			appConfig.AuthProvider.TestSecret,
			deployIdentity,
			appConfig.Environment,
			customLogger,
		)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize symmetric token verifier")
			return err
		}
		tokenVerifier = verifier
		logger.Warn("Symmetric token verification enabled; development use only")
	} else {
		tokenVerifier = token.NewRS256Verifier(keyCache, deployIdentity, customLogger)
	}

	// Refresh coordinator against the identity provider
	refresher = refresh.NewCoordinator(appConfig.AuthProvider.BaseURL, providerHTTPClient, customLogger)

	// API key repository and service
	apiKeyRepo := internalAPIKey.NewRepository(database)
	apiKeyService = internalAPIKey.NewService(apiKeyRepo, redisClient, customLogger)

	logger.Info("All services initialized successfully")
	return nil
}

// CSRFMiddleware creates a middleware for CSRF protection on the
// browser-cookie surface
func CSRFMiddleware(secret string, secure bool) gin.HandlerFunc {
	csrfMiddleware := csrf.Protect(
		[]byte(secret),
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.CookieName("csrfToken"),
		csrf.MaxAge(3600), // 1 hour
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, _ := gin.CreateTestContext(w)
			c.Request = r

			// Log CSRF error for monitoring
			logger.WithFields(logrus.Fields{
				"remoteIP":  c.ClientIP(),
				"path":      r.URL.Path,
				"method":    r.Method,
				"userAgent": r.UserAgent(),
			}).Error("CSRF token mismatch")

			c.IndentedJSON(http.StatusForbidden, gin.H{"error": "CSRF token mismatch"})
			c.Abort()
		})),
	)

	return func(c *gin.Context) {
		csrfMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		c.Abort()
	}
}

// SetupEngine creates a new Gin engine with default middleware
func SetupEngine() *gin.Engine {
	return gin.Default()
}

// AuthMiddleware builds the multi-auth resolver from the initialized
// services
func AuthMiddleware() gin.HandlerFunc {
	return middleware.RequireAuth(&middleware.AuthDeps{
		APIKeys:   apiKeyService,
		Verifier:  tokenVerifier,
		Refresher: refresher,
		Identity:  deployIdentity,
		Logger:    customLogger,
	})
}

// SetupSessionRoutes configures session-related routes
func SetupSessionRoutes(r *gin.Engine) {
	// Create API v1 group
	v1 := r.Group("/api/v1")

	// Create session handler using the global services
	sessionHandler := sessionAPI.NewHandler(refresher, customLogger)

	// Cookie-driven routes need no resolved identity
	sessionAPI.RegisterPublicRoutes(v1, sessionHandler)

	// Identity routes sit behind the auth resolver
	authGroup := v1.Group("")
	authGroup.Use(AuthMiddleware())
	sessionAPI.RegisterProtectedRoutes(authGroup, sessionHandler)
}

// SetupAPIKeyRoutes configures API key management routes
func SetupAPIKeyRoutes(r *gin.Engine) {
	// Create API v1 group
	v1 := r.Group("/api/v1")

	// Create API key handler using the global service
	keyHandler := apikeysAPI.NewHandler(apiKeyService, customLogger)

	// Create key route group with auth middleware
	keyGroup := v1.Group("")
	keyGroup.Use(AuthMiddleware())
	apikeysAPI.RegisterProtectedRoutes(keyGroup, keyHandler)
}

// SetupCSRFProtection configures CSRF protection when a secret is set
func SetupCSRFProtection(r *gin.Engine) error {
	csrfSecret := os.Getenv("CSRF_SECRET")
	if csrfSecret == "" {
		logger.Warn("CSRF_SECRET not set; CSRF protection disabled")
		return nil
	}

	csrfSecureStr := os.Getenv("CSRF_SECURE")
	csrfSecure, _ := strconv.ParseBool(csrfSecureStr)

	r.Use(CSRFMiddleware(csrfSecret, csrfSecure))

	return nil
}

// SetupCORS configures CORS settings
func SetupCORS(r *gin.Engine, appConfig *config.AppConfig) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{deployIdentity.Origin(), appConfig.AuthProvider.BaseURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-CSRF-TOKEN"}
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
}

// SetupRouter creates and configures the main router with all routes
func SetupRouter(appConfig *config.AppConfig, database *gorm.DB) (*gin.Engine, error) {
	// Get Redis client
	redisClient := redis.GetDefault()

	// Initialize all services
	if err := InitServices(appConfig, database, redisClient); err != nil {
		// This error is already logged in InitServices
		return nil, err
	}

	// Create and configure Gin router
	r := SetupEngine()

	// Setup CORS
	SetupCORS(r, appConfig)

	// Setup CSRF protection
	if err := SetupCSRFProtection(r); err != nil {
		logger.WithError(err).Error("Failed to setup CSRF protection")
		return nil, err
	}

	// Liveness probe
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Configure routes
	SetupSessionRoutes(r)
	SetupAPIKeyRoutes(r)

	logger.Info("Router setup completed successfully")
	return r, nil
}
