package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/config"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/area"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/bootstrap"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/metrics"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/portal"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/request"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/staff"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/db"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/identity"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/middleware"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/websocket"
	"github.com/TomasArancibia/TallerIntegracion-Back/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "facility-server",
		Short: "Hospital facility request API server",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationSource(dirOrDefault(dir, cfg.MigrationsDir)))
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationSource(dirOrDefault(dir, cfg.MigrationsDir)))
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func dirOrDefault(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

// migrationSource reads migrations from dir when it exists, otherwise from
// the copy embedded in the binary.
func migrationSource(dir string) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}
	return migrations.Files
}

// newLimiter shares rate limit counters through Redis when a client is
// available and falls back to per-process token buckets.
func newLimiter(cfg *config.Config, client *redis.Client) middleware.Limiter {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 || rl.BurstSize <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	if client == nil {
		return middleware.NewMemoryLimiter(rl)
	}
	return middleware.NewRedisLimiter(client, int(rl.RequestsPerSecond*60), time.Minute)
}

// unconfiguredIdentity stands in for the identity provider when
// IDENTITY_URL is unset. Staff management calls fail, everything else works.
type unconfiguredIdentity struct{}

var errIdentityUnconfigured = errors.New("identity provider is not configured")

func (unconfiguredIdentity) CreateUser(context.Context, string, string) (*identity.User, error) {
	return nil, apperr.Wrap(apperr.KindInternal, errIdentityUnconfigured, "identity provider is not configured")
}

func (unconfiguredIdentity) UpdatePassword(context.Context, string, string) error {
	return apperr.Wrap(apperr.KindInternal, errIdentityUnconfigured, "identity provider is not configured")
}

func (unconfiguredIdentity) DeleteUser(context.Context, string) error {
	return apperr.Wrap(apperr.KindInternal, errIdentityUnconfigured, "identity provider is not configured")
}

func newIdentityProvider(cfg *config.Config, logger zerolog.Logger) staff.IdentityProvider {
	if cfg.IdentityURL == "" {
		logger.Warn().Msg("IDENTITY_URL not set, staff account management is disabled")
		return unconfiguredIdentity{}
	}
	return identity.NewClient(cfg.IdentityURL, cfg.IdentityServiceKey, logger)
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	// Logger
	logger := newLogger(os.Getenv("ENV") == "development")

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, _ := cfg.Location()

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	checks := map[string]db.Checker{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	// Redis (optional)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info().Msg("rate limiting through redis")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID", auth.DevUserHeader},
		ExposeHeaders: []string{"X-Request-ID", request.HeaderTotalCount, request.HeaderNextOffset},
	}))
	e.Use(middleware.SecurityHeaders())

	// Services
	hub := websocket.NewHub(logger)

	locationSvc := location.NewService(location.NewRepo(pool), logger)
	areaSvc := area.NewService(area.NewRepo(pool))
	requestSvc := request.NewService(request.NewRepo(pool), db.NewTxRunner(pool), locationSvc, areaSvc, hub, logger)
	metricsSvc := metrics.NewService(metrics.NewRepo(db.SQLDB(pool)), loc, logger)
	staffSvc := staff.NewService(staff.NewRepo(pool), newIdentityProvider(cfg, logger), areaSvc, logger)
	portalSvc := portal.NewService(portal.NewRepo(pool), locationSvc, logger)
	bootstrapSvc := bootstrap.NewService(locationSvc, areaSvc, requestSvc, staffSvc)

	// Public group: QR flow and request submission
	public := e.Group("")
	public.Use(middleware.RateLimit(newLimiter(cfg, rdb), logger))
	public.Use(middleware.BodyLimit("1M"))

	// Staff group
	admin := e.Group("/admin")
	if cfg.DevAuth() {
		logger.Warn().Msg("staff routes use development authentication")
		admin.Use(auth.DevAuthMiddleware(staffSvc))
	} else {
		admin.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthJWTSecret),
		}, staffSvc))
	}
	admin.Use(middleware.BodyLimit("1M"))

	location.NewHandler(locationSvc, cfg.FrontendBaseURL).RegisterRoutes(public, admin)
	area.NewHandler(areaSvc).RegisterRoutes(public)
	request.NewHandler(requestSvc).RegisterRoutes(public, admin)
	metrics.NewHandler(metricsSvc).RegisterRoutes(admin)
	staff.NewHandler(staffSvc).RegisterRoutes(admin)
	portal.NewHandler(portalSvc).RegisterRoutes(public)
	bootstrap.NewHandler(bootstrapSvc).RegisterRoutes(admin)
	websocket.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(admin)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, checks))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
