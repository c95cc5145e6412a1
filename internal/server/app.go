// Package server initializes and runs the contact book server.
// It wires storage, cache, mail and avatar backends, serves the HTTP API and
// the gRPC health endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/cryptox"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/auth"
	"github.com/dmitrijs2005/contactbook/internal/server/avatar"
	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/httpapi"
	"github.com/dmitrijs2005/contactbook/internal/server/mailer"
	"github.com/dmitrijs2005/contactbook/internal/server/ratelimit"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
	"github.com/dmitrijs2005/contactbook/internal/telemetry"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/contactbook/internal/server/grpc"
)

const (
	serviceName     = "contactbook"
	shutdownTimeout = 10 * time.Second
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	redis         *redis.Client
	authService   *services.AuthService
	handler       http.Handler
	shutdownTrace func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	shutdownTrace, err := telemetry.Setup(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	rdb, err := ratelimit.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		// the limiter fails open, so the API stays usable without Redis
		logger.Warn(ctx, "redis unavailable, rate limiting disabled until it recovers", "error", err)
	}
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb), c.RateLimitRequests, c.RateLimitWindow, logger.With("module", "ratelimit"))

	var gravatar avatar.Provider
	if c.GravatarEnabled {
		gravatar = avatar.NewGravatar(c.GravatarVerify)
	}

	store, err := avatar.NewS3Store(ctx, avatar.S3Options{
		User:     c.S3RootUser,
		Password: c.S3RootPassword,
		Bucket:   c.S3Bucket,
		Region:   c.S3Region,
		Endpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("avatar store init error: %w", err)
	}

	sender := mailer.NewSMTPSender(mailer.SMTPOptions{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		FromName: c.SMTPFromName,
		SSL:      c.SMTPSSL,
	})

	users := services.NewUserDirectory(db, rm, gravatar, logger.With("module", "users"))

	tokens, err := auth.NewTokenService(auth.Options{
		Secret:     c.SecretKey,
		Algorithm:  c.SigningAlgorithm,
		AccessTTL:  c.AccessTokenValidityDuration,
		RefreshTTL: c.RefreshTokenValidityDuration,
	}, users)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	as := services.NewAuthService(users, tokens, cryptox.NewPasswordHasher(c.Argon2Params()),
		sender, store, logger.With("module", "auth"))
	cs := services.NewContactService(db, rm, logger.With("module", "contacts"))

	handler := httpapi.NewRouter(as, cs, limiter, db, logger.With("module", "http"), httpapi.Options{
		BaseURL:           c.PublicBaseURL,
		TrustProxyHeaders: c.TrustProxyHeaders,
		CORSOrigins:       c.CORSOrigins,
	})

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		redis:         rdb,
		authService:   as,
		handler:       handler,
		shutdownTrace: shutdownTrace,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.db, app.config.HealthCheckInterval, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or a listener fails, then
// drains in-flight work and releases every backend.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	// pending confirmation mails
	app.authService.Wait()
	app.close(context.WithoutCancel(ctx))

	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if err := app.redis.Close(); err != nil {
		app.logger.Warn(ctx, "redis close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := app.shutdownTrace(ctx); err != nil {
		app.logger.Warn(ctx, "trace flush failed", "error", err)
	}
}
