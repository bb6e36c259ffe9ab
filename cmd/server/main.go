// @title         accounts API
// @version       1.0
// @description   Account registration, login and a capped audit log of account activity.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token: "Bearer <JWT>" or "<JWT>".
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/artem13815/accounts/docs"

	// internal imports
	apihttp "github.com/artem13815/accounts/api/http"
	"github.com/artem13815/accounts/api/http/handlers"
	"github.com/artem13815/accounts/pkg/audit"
	"github.com/artem13815/accounts/pkg/auth"
	"github.com/artem13815/accounts/pkg/config"
	"github.com/artem13815/accounts/pkg/health"
	healthpg "github.com/artem13815/accounts/pkg/health/checkers"
	"github.com/artem13815/accounts/pkg/logger"
	"github.com/artem13815/accounts/pkg/metrics"
	"github.com/artem13815/accounts/pkg/repository/memory"
	pgrepo "github.com/artem13815/accounts/pkg/repository/postgres"
	"github.com/artem13815/accounts/pkg/security/jwt"
	"github.com/artem13815/accounts/pkg/security/password"
	"github.com/artem13815/accounts/pkg/storage/postgres"
	"github.com/artem13815/accounts/pkg/users"
)

func main() {
	// Load configuration from env/.env
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

type userStore interface {
	auth.UserRepository
	users.Repository
}

type stores struct {
	users    userStore
	audit    audit.Repository
	checkers []health.Checker
	close    func()
}

func openStores(ctx context.Context, cfg config.Config, m *metrics.Metrics, log *slog.Logger) (stores, error) {
	policy := audit.RetentionPolicy{MaxBytes: cfg.AuditLogMaxBytes}
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return stores{
			users: memory.NewUserRepository(),
			audit: memory.NewAuditRepository(policy, memory.WithAuditMetrics(m)),
			close: func() {},
		}, nil
	}

	// Connect to PostgreSQL
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("postgres connect: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, err
	}
	log.Info("postgres ready", slog.String("driver", cfg.StorageDriver))
	return stores{
		users:    pgrepo.NewUserRepository(pool),
		audit:    pgrepo.NewAuditRepository(pool, policy, m),
		checkers: []health.Checker{healthpg.NewPostgresChecker(pool)},
		close:    pool.Close,
	}, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := openStores(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer st.close()

	if used, err := st.audit.Size(ctx); err == nil {
		m.SetAuditStoreBytes(used)
	}

	// Wire dependencies (Clean Architecture)
	tokens := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenExpiry)
	authUC := auth.NewAuthService(
		st.users,
		password.NewBcrypt(cfg.BcryptCost),
		tokens,
		st.audit,
		auth.Config{MaxStorageBytes: cfg.CredentialStoreMaxBytes},
		auth.WithLogger(log),
		auth.WithMetrics(m),
	)

	app := fiber.New(fiber.Config{
		AppName:               "accounts",
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(), requestid.New(), fiberlogger.New())

	apihttp.Register(app, apihttp.Handlers{
		Auth:        handlers.NewAuthHandler(authUC),
		Users:       handlers.NewUsersHandler(users.NewService(st.users)),
		Audit:       handlers.NewAuditHandler(audit.NewService(st.audit)),
		Health:      handlers.NewHealthHandler(health.NewService(st.checkers...)),
		RequireAuth: jwt.NewAuthMiddleware(tokens),
		Metrics:     reg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", slog.String("port", cfg.Port))
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
