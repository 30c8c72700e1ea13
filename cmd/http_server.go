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

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/auth"
	authpg "github.com/frahmantamala/travel-request/internal/auth/postgres"
	"github.com/frahmantamala/travel-request/internal/directory"
	directorypg "github.com/frahmantamala/travel-request/internal/directory/postgres"
	"github.com/frahmantamala/travel-request/internal/events"
	"github.com/frahmantamala/travel-request/internal/notifier"
	"github.com/frahmantamala/travel-request/internal/request"
	requestpg "github.com/frahmantamala/travel-request/internal/request/postgres"
	"github.com/frahmantamala/travel-request/internal/transport/rest"
	"github.com/frahmantamala/travel-request/internal/transport/swagger"
	"github.com/frahmantamala/travel-request/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
	Mailer *notifier.Mailer

	AuthHandler      *auth.Handler
	RequestHandler   *request.Handler
	DirectoryHandler *directory.Handler
	DirectoryService *directory.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := ensureDefaultAdmin(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap default admin: %v\n", err)
		os.Exit(1)
	}

	// fail fast on a broken OpenAPI document
	if _, err := swagger.LoadSpec(context.Background(), "./api/openapi.yml"); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid OpenAPI document: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.AuthHandler, deps.RequestHandler, deps.DirectoryHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Mailer.Shutdown()
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithOptions(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// reuse the pgx pool under gorm so both layers share one connection budget
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	authService := auth.NewService(authpg.NewRepository(gormDB), tokenGen, lg)
	authHandler := auth.NewHandler(authService)

	bus := events.NewEventBus(lg)

	mailer := notifier.NewMailer(notifier.Config{
		APIURL:       config.Mailer.APIURL,
		APIKey:       config.Mailer.APIKey,
		FromAddress:  config.Mailer.FromAddress,
		SendTimeout:  config.Mailer.SendTimeout,
		MaxWorkers:   config.Mailer.MaxWorkers,
		JobQueueSize: config.Mailer.JobQueueSize,
	}, lg)
	mailer.Subscribe(bus)

	directoryService := directory.NewService(directorypg.NewDirectoryRepository(gormDB), config.Security.BCryptCost, lg)
	directoryHandler := directory.NewHandler(directoryService)

	requestService := request.NewService(requestpg.NewRequestRepository(gormDB), directoryService, bus, lg)
	requestHandler := request.NewHandler(requestService)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Mailer: mailer,

		AuthHandler:      authHandler,
		RequestHandler:   requestHandler,
		DirectoryHandler: directoryHandler,
		DirectoryService: directoryService,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// ensureDefaultAdmin creates the first admin account when the admins table is
// empty. Runs on every boot and is a no-op once any admin exists, so a fresh
// deployment is never locked out of the directory endpoints.
func ensureDefaultAdmin(deps *Dependencies) error {
	var count int64
	if err := deps.GormDB.Table("admins").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("BOOTSTRAP_ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	email := os.Getenv("BOOTSTRAP_ADMIN_EMAIL")
	if email == "" {
		email = "admin@localhost"
	}
	password := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("no admin exists and BOOTSTRAP_ADMIN_PASSWORD is not set")
	}

	admin, err := deps.DirectoryService.CreateAdmin(&directory.CreateAdminDTO{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	deps.Logger.Info("bootstrapped default admin", "admin_id", admin.ID, "username", username)
	return nil
}
