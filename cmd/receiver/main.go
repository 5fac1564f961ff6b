package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mdawahq/mdawa-transfer/internal/api"
	"github.com/mdawahq/mdawa-transfer/internal/audit"
	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/config"
	"github.com/mdawahq/mdawa-transfer/internal/database"
	"github.com/mdawahq/mdawa-transfer/internal/encryption"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("No configuration file found, using defaults: %v", err)
		cfg = config.Default()
	}

	// Make tunables (server timeouts) available alongside the yaml config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	_ = viper.ReadInConfig()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Open the local store
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close(ctx)

	// Initialize audit trail
	auditService := audit.NewService(openAuditLog(cfg, logger))

	// Initialize auth service
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = cfg.Auth.JWTSecret
	}
	if jwtSecret == "" {
		logger.Fatal("JWT secret is required (JWT_SECRET env or auth.jwt_secret config)")
	}
	authService := auth.NewService(st, auditService, auth.Config{
		JWTSecret:   jwtSecret,
		TokenExpiry: time.Duration(cfg.Auth.TokenExpiryHours) * time.Hour,
	})

	// Hydrate the verifier from persisted sessions
	verifier := otp.NewVerifier()
	sessions, err := st.LoadSessions(ctx)
	if err != nil {
		logger.Fatal("Failed to load OTP sessions", zap.Error(err))
	}
	verifier.Restore(sessions)
	if pruned := verifier.PruneExpired(); pruned > 0 {
		logger.Info("Pruned dead OTP sessions", zap.Int("count", pruned))
	}

	// Set up the router
	gin.SetMode(cfg.Server.Mode)
	handler := api.NewHandler(st, verifier, authService, auditService, logger)
	router := api.NewRouter(handler, authService).SetupRouter(logger)

	timeout := viper.GetDuration("server.timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go func() {
		logger.Info("Receiver listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "mongo":
		client, err := database.NewMongoClient(ctx, database.MongoConfig{
			URI:      cfg.Storage.Mongo.URI,
			Database: cfg.Storage.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		return store.NewMongoStore(client, cfg.Storage.Mongo.Database), nil
	case "file", "":
		var enc encryption.Service
		key := os.Getenv("STORE_KEY")
		if key == "" {
			key = cfg.Storage.Key
		}
		if key != "" {
			var err error
			enc, err = encryption.NewService(key)
			if err != nil {
				return nil, err
			}
		}
		return store.NewFileStore(cfg.Storage.Path, enc)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openAuditLog(cfg *config.Config, logger *zap.Logger) io.Writer {
	if cfg.Audit.LogFile == "" {
		return nil
	}
	f, err := os.OpenFile(cfg.Audit.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger.Warn("Failed to open audit log, falling back to stderr", zap.Error(err))
		return nil
	}
	return f
}
