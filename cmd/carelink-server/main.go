package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/booking"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/invitation"
	"github.com/carelink/carelink/internal/domain/membership"
	"github.com/carelink/carelink/internal/domain/tenant"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/payments"
)

// SchemaProvisionerAdapter adapts the db schema helpers to the
// tenant.SchemaProvisioner interface, avoiding a db -> tenant import cycle.
type SchemaProvisionerAdapter struct {
	pool          *pgxpool.Pool
	migrationsDir string
}

func (a *SchemaProvisionerAdapter) CreateTenantSchema(ctx context.Context, tenantID string) error {
	return db.CreateTenantSchema(ctx, a.pool, tenantID, a.migrationsDir)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelink-server",
		Short: "CareLink marketplace API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
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
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
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
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenant schemas",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant schema and run its migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			dir, _ := cmd.Flags().GetString("dir")
			if id == "" {
				return fmt.Errorf("--id is required")
			}

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

			fmt.Printf("Creating tenant schema for: %s\n", id)
			if err := db.CreateTenantSchema(ctx, pool, id, dir); err != nil {
				return err
			}
			fmt.Println("Tenant schema created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("id", "", "Tenant identifier")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		logger.Info().Msg("rate limiting backed by redis")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	metrics := middleware.NewMetrics()
	e.Use(metrics.Middleware())
	e.GET("/metrics", metrics.Handler())
	e.GET("/health", db.HealthHandler(pool))

	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: []byte(cfg.SessionSecret),
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		Redis:             redisClient,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
		rateLimitCfg.Redis = redisClient
	}

	// Route groups. public carries no auth (registration, login, gateway
	// webhooks); invite accepts but does not require a bearer token, so
	// invitees without an account can reach the accept endpoints; api is
	// fully authenticated and tenant-scoped.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))
	public.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))

	// The invite group stays on optional JWT even in development: accept
	// semantics depend on whether the caller is anonymous, and DevAuth's
	// synthetic identity would mask that.
	invite := e.Group("/api/v1")
	invite.Use(middleware.RateLimit(rateLimitCfg))
	invite.Use(auth.OptionalJWTMiddleware(jwtCfg))

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(jwtCfg))
	}
	api.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))
	api.Use(middleware.Audit(logger))

	sessions := auth.NewIssuer([]byte(cfg.SessionSecret), cfg.AuthIssuer, cfg.SessionTTL)
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.RunInTx(ctx, pool, fn)
	}
	notifier := notification.NewService(&notification.LogSender{Logger: logger}, logger)

	// Identity
	userRepo := identity.NewUserRepo(pool)
	profileRepo := identity.NewProfileRepo(pool)
	identitySvc := identity.NewService(userRepo, profileRepo, sessions)
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)

	// Tenants
	provisioner := &SchemaProvisionerAdapter{pool: pool, migrationsDir: "./migrations"}
	tenantRepo := tenant.NewRepo(pool)
	tenantSvc := tenant.NewService(tenantRepo, provisioner, logger)
	tenant.NewHandler(tenantSvc).RegisterRoutes(api)

	// Memberships
	memberRepo := membership.NewRepo(pool)
	memberSvc := membership.NewService(memberRepo)
	membership.NewHandler(memberSvc).RegisterRoutes(api)

	// Invitations
	invRepo := invitation.NewRepo(pool)
	invSvc := invitation.NewService(invitation.ServiceConfig{
		Invitations: invRepo,
		Users:       userRepo,
		Profiles:    profileRepo,
		Memberships: memberRepo,
		Tenants:     tenantRepo,
		Sessions:    sessions,
		Notifier:    notifier,
		TxRunner:    runTx,
		BaseURL:     cfg.InviteBaseURL,
		TTL:         cfg.InviteTTL,
		Logger:      logger,
	})
	invitation.NewHandler(invSvc).RegisterRoutes(api, invite)

	// Bookings and payments
	gateway := payments.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayStoreID, cfg.GatewayTimeout, logger)
	bookingSvc := booking.NewService(booking.ServiceConfig{
		Bookings:  booking.NewBookingRepo(pool),
		Payments:  booking.NewPaymentRepo(pool),
		Gateway:   gateway,
		TxRunner:  runTx,
		ReturnURL: cfg.GatewayReturnURL,
		Logger:    logger,
	})
	booking.NewHandler(bookingSvc, logger).RegisterRoutes(api, public)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
