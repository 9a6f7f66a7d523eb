package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/multilink-backend/internal/config"
	"github.com/AnshRaj112/multilink-backend/internal/database"
	"github.com/AnshRaj112/multilink-backend/internal/handlers"
	"github.com/AnshRaj112/multilink-backend/internal/logger"
	"github.com/AnshRaj112/multilink-backend/internal/middleware"
	"github.com/AnshRaj112/multilink-backend/internal/repository"
	"github.com/AnshRaj112/multilink-backend/internal/routes"
	"github.com/AnshRaj112/multilink-backend/internal/services"
	"github.com/AnshRaj112/multilink-backend/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.DisconnectMongo(client); err != nil {
			zl.Warn("disconnect mongo", zap.Error(err))
		}
	}()

	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	zl.Info("MongoDB indexes ensured")

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, zl)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var cipher *utils.Cipher
	if cfg.EncryptionKey != nil {
		if cipher, err = utils.NewCipher(cfg.EncryptionKey); err != nil {
			return err
		}
		zl.Info("MFA secrets are encrypted at rest")
	} else {
		zl.Warn("ENCRYPTION_KEY not set, MFA secrets are stored in plaintext. Generate one with: openssl rand -base64 32")
	}

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otp := services.NewTOTP(cfg.MFAIssuer, cfg.MFASkew)
	v := services.NewValidator()

	users := repository.NewUserRepository(db)
	links := repository.NewLinkRepository(db)
	products := repository.NewProductRepository(db)
	cache := services.NewProfileCache(rdb, cfg.PublicCacheTTL, zl)

	authSvc := services.NewAuthService(users, tokens, otp, cipher, v, zl)
	userSvc := services.NewUserService(users, v, zl)
	linkSvc := services.NewLinkService(links, users, cache, v, zl)
	productSvc := services.NewProductService(products, users, cache, v, zl)

	// A typed nil would defeat the handler's nil check.
	var uploader handlers.Uploader
	if cfg.CloudinaryConfigured() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			zl.Warn("cloudinary init failed, file uploads will not be available", zap.Error(err))
		} else {
			uploader = cld
			zl.Info("Cloudinary service initialized")
		}
	} else {
		zl.Warn("Cloudinary credentials not found, file uploads will not be available")
	}

	loginLimiter := middleware.NewLoginLimiter(cfg.TrustProxy, middleware.DefaultLoginPaths...)
	go loginLimiter.Run(ctx)

	r := routes.NewRouter(routes.Handlers{
		Auth:     handlers.NewAuthHandler(authSvc, zl),
		Users:    handlers.NewUserHandler(userSvc, zl),
		Links:    handlers.NewLinkHandler(linkSvc, zl),
		Products: handlers.NewProductHandler(productSvc, zl),
		Upload:   handlers.NewUploadHandler(uploader, zl),
	}, routes.Options{
		Log:            zl,
		Tokens:         tokens,
		RateLimiter:    middleware.NewRateLimiter(rdb, cfg.RateLimitWindow, cfg.RateLimitMax, cfg.TrustProxy, zl),
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHost:    cfg.AllowedHost,
		TrustProxy:     cfg.TrustProxy,
		Started:        time.Now(),
	})
	routes.Walk(r, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("multilink backend running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
