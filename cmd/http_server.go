package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/announcement"
	announcementPostgres "github.com/frahmantamala/report-hub/internal/announcement/postgres"
	"github.com/frahmantamala/report-hub/internal/auth"
	authPostgres "github.com/frahmantamala/report-hub/internal/auth/postgres"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	"github.com/frahmantamala/report-hub/internal/core/events"
	"github.com/frahmantamala/report-hub/internal/notification"
	notificationPostgres "github.com/frahmantamala/report-hub/internal/notification/postgres"
	"github.com/frahmantamala/report-hub/internal/report"
	reportPostgres "github.com/frahmantamala/report-hub/internal/report/postgres"
	"github.com/frahmantamala/report-hub/internal/transport/rest"
	"github.com/frahmantamala/report-hub/internal/transport/swagger"
	"github.com/frahmantamala/report-hub/internal/user"
	userPostgres "github.com/frahmantamala/report-hub/internal/user/postgres"
	"github.com/frahmantamala/report-hub/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const openAPIPath = "./api/openapi.yml"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	EventBus *events.EventBus
	Router   http.Handler
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	docsPath := ""
	if _, err := swagger.Load(openAPIPath); err != nil {
		lg.Warn("openapi document unavailable; docs routes disabled", "error", err)
	} else {
		docsPath = openAPIPath
	}

	bus := events.NewEventBus(lg)
	handlers := buildHandlers(config, db, gdb, bus, lg)

	router := rest.NewRouter(rest.RouterConfig{
		AllowedOrigins: config.Server.Origins(),
		RateLimit:      config.RateLimit,
		Tracing:        config.Observability.Tracing,
		OpenAPIPath:    docsPath,
	}, db, handlers, lg)

	return &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gdb,
		EventBus: bus,
		Router:   router,
		Logger:   lg,
	}, nil
}

func buildHandlers(config *internal.Config, db *sqlx.DB, gdb *gorm.DB, bus *events.EventBus, lg *slog.Logger) rest.Handlers {
	clk := clock.New()

	notificationService := notification.NewService(notificationPostgres.NewNotificationRepository(gdb), clk, lg)
	notificationService.Subscribe(bus)

	tokens := auth.NewJWTTokenGenerator(config.Security, clk)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, clk, config.Security.BCryptCost, lg)
	userService := user.NewService(userPostgres.NewUserRepository(gdb), clk, config.Security.BCryptCost, lg)
	reportService := report.NewService(
		reportPostgres.NewReportRepository(gdb),
		reportPostgres.NewStatsRepository(db),
		bus, clk, lg)
	announcementService := announcement.NewService(announcementPostgres.NewAnnouncementRepository(gdb), clk, lg)

	return rest.Handlers{
		Auth:         auth.NewHandler(authService, config.Security.CookieSecure),
		RBAC:         auth.NewRBACAuthorization(auth.NewRoleChecker(), lg),
		User:         user.NewHandler(userService),
		Report:       report.NewHandler(reportService),
		Announcement: announcement.NewHandler(announcementService),
		Notification: notification.NewHandler(notificationService),
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see one set of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
}
