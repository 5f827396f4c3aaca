// Package server wires configuration, storage and services together and runs
// the gRPC auth endpoint until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       redis.UniversalClient
	repomanager repomanager.RepositoryManager
	userService *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, rdb, err := newRevocationStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		redis:       rdb,
		repomanager: repomanager.NewPostgresRepositoryManager(),
	}
	if err := app.initServices(store); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// newRevocationStore returns the configured revocation backend. The redis
// client is returned as well so it can be closed on shutdown.
func newRevocationStore(ctx context.Context, c *config.Config) (revocations.Repository, redis.UniversalClient, error) {
	if c.RevocationBackend == config.RevocationBackendMemory {
		return revocations.NewMemoryRepository(nil), nil, nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, c.StoreTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis init error: %w", err)
	}
	return revocations.NewRedisRepository(rdb), rdb, nil
}

func (app *App) initServices(store revocations.Repository) error {
	hasher, err := auth.NewPasswordHasher(app.config.PasswordHashAlgorithm, app.config.BcryptCost)
	if err != nil {
		return err
	}
	codec, err := auth.NewTokenCodec([]byte(app.config.SecretKey), app.config.JWTAlgorithm, nil)
	if err != nil {
		return err
	}
	tokens := services.NewTokenService(codec, store, app.config, app.logger)
	app.userService = services.NewUserService(app.db, app.repomanager, hasher, tokens, app.logger)
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// seedSuperAdmin makes sure the superadmin account exists. A generated
// password is logged here and nowhere else.
func (app *App) seedSuperAdmin(ctx context.Context) error {
	generated, err := app.userService.EnsureSuperAdmin(ctx, app.config.SuperAdminName, app.config.SuperAdminPassword)
	if err != nil {
		return err
	}
	if generated != "" {
		app.logger.Warn(ctx, "Generated superadmin password, change it after first login",
			"username", app.config.SuperAdminName, "password", generated)
	}
	return nil
}

// Run migrates the schema, seeds the superadmin and serves gRPC until ctx is
// cancelled or SIGINT/SIGTERM/SIGQUIT arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"address", app.config.EndpointAddrGRPC,
		"revocation_backend", app.config.RevocationBackend,
		"jwt_algorithm", app.config.JWTAlgorithm,
		"password_hash", app.config.PasswordHashAlgorithm,
		"access_token_ttl", app.config.AccessTokenValidityDuration.String(),
		"refresh_token_ttl", app.config.RefreshTokenValidityDuration.String())
	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := app.seedSuperAdmin(ctx); err != nil {
		return err
	}

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the database and redis connections.
func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
