package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/workdeck/workdeck/internal/storage"
	"github.com/workdeck/workdeck/modules/auth"
	"github.com/workdeck/workdeck/modules/projects"
	"github.com/workdeck/workdeck/modules/tenantcontext"
	"github.com/workdeck/workdeck/modules/workspace"
	"github.com/workdeck/workdeck/pkg/access"
	"github.com/workdeck/workdeck/pkg/authevent"
	"github.com/workdeck/workdeck/pkg/config"
	"github.com/workdeck/workdeck/pkg/email"
	"github.com/workdeck/workdeck/pkg/httpserver"
	"github.com/workdeck/workdeck/pkg/logger"
	"github.com/workdeck/workdeck/pkg/pg"
	"github.com/workdeck/workdeck/pkg/redis"
	"github.com/workdeck/workdeck/pkg/session"
	"github.com/workdeck/workdeck/pkg/tenant"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"workdeck"`

	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	Pg      pg.Config
	Redis   redis.Config
	HTTP    httpserver.Config
	Session session.Config
	Email   email.Config
	Auth    auth.Config
	URLs    tenant.URLConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, cfg.ServiceName),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Pg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Pg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.ErrorContext(ctx, "redis close failed", slog.Any("error", err))
		}
	}()

	tenants := storage.NewTenantStore(pool)
	members := storage.NewMembershipStore(pool)
	users := storage.NewUserStore(pool)
	projectStore := storage.NewProjectStore(pool)

	directory := tenant.NewCachedDirectory(
		tenants,
		tenant.NewRedisCache(redisClient, "tenant"),
		cfg.TenantCacheTTL,
	)
	evaluator := access.NewEvaluator(directory, members)

	sessionStore := storage.NewSessionStore(pool)
	sessions := session.NewManager(sessionStore, cfg.Session)
	go purgeExpiredSessions(ctx, sessionStore, cfg.Session.CleanupInterval, log)
	bus := authevent.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			log.ErrorContext(ctx, "event bus close failed", slog.Any("error", err))
		}
	}()

	mailer, err := newMailer(cfg.Email)
	if err != nil {
		return err
	}

	authHandler := auth.NewHandler(log, users, sessions, bus, cfg.Auth)
	workspaceHandler := workspace.NewHandler(log, tenants, members, users, mailer, cfg.URLs, sessions)
	projectsHandler := projects.NewHandler(log, projectStore)
	contextHandler := tenantcontext.NewHandler(log, evaluator, bus, users, sessions)

	interceptor := access.Middleware(evaluator, sessions.Principal(),
		access.WithPublicExact("/", "/healthz"),
		access.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(interceptor)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	r.Mount("/auth", authHandler.Router())
	r.Route("/api", func(r chi.Router) {
		r.Mount("/public/workspaces", workspaceHandler.Router())
		r.Mount("/members", workspaceHandler.MembersRouter())
		r.Mount("/projects", projectsHandler.Router())
		r.Mount("/context", contextHandler.Router())
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.InfoContext(ctx, "server started",
				slog.String("addr", cfg.HTTP.Addr),
				slog.String("environment", cfg.Environment))
		}),
	)
	return srv.Run(ctx, r)
}

func purgeExpiredSessions(ctx context.Context, store session.Store, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.DeleteExpired(ctx); err != nil {
				log.ErrorContext(ctx, "session cleanup failed", slog.Any("error", err))
			}
		}
	}
}

// newMailer picks Postmark when tokens are configured, the filesystem
// sender otherwise.
func newMailer(cfg email.Config) (email.Sender, error) {
	if cfg.PostmarkServerToken != "" && cfg.PostmarkAccountToken != "" {
		return email.NewPostmarkSender(cfg)
	}
	return email.NewDevSender(cfg.DevOutputDir), nil
}
