package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/audit"
	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/config"
	"github.com/mrlokans/periodicals/internal/database"
	auditrepo "github.com/mrlokans/periodicals/internal/database/audit"
	"github.com/mrlokans/periodicals/internal/database/holdings"
	"github.com/mrlokans/periodicals/internal/database/journals"
	http_controllers "github.com/mrlokans/periodicals/internal/http"
	"github.com/mrlokans/periodicals/internal/scheduler"
	"github.com/mrlokans/periodicals/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// taskRunner is shared by the cron scheduler and the admin task endpoints.
type taskRunner interface {
	scheduler.Runner
	http_controllers.TaskTrigger
}

// App holds the wired components shared by the server and the CLI commands.
type App struct {
	DB       *database.Database
	Auth     *auth.Service
	Journals *journals.Repository
	Ledger   *holdings.Ledger
	Audit    *audit.Service
}

// Open connects to the database and wires the directories over it.
func Open(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	authService := auth.NewService(db.DB, cfg.Auth)
	authService.SetAuditLogger(auditService)

	ledger := holdings.NewLedger(db.DB, holdings.Options{
		DefaultLoanPeriod:       cfg.Circulation.DefaultLoanPeriod,
		EnforceSingleActiveLoan: cfg.Circulation.EnforceSingleActiveLoan,
	})
	ledger.SetAuditLogger(auditService)

	return &App{
		DB:       db,
		Auth:     authService,
		Journals: journals.NewRepository(db.DB),
		Ledger:   ledger,
		Audit:    auditService,
	}, nil
}

// Close waits for pending audit writes and closes the database.
func (a *App) Close() error {
	a.Audit.Flush()
	return a.DB.Close()
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before tearing down what they depend on.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Periodicals v%s", version)

	app, err := Open(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	hasUsers, err := app.Auth.HasUsers(context.Background())
	if err != nil {
		log.Printf("WARNING: could not count users: %v", err)
	} else if !hasUsers {
		log.Printf("No users found. Run 'periodicals create-admin' to create an administrator account.")
	}

	// Scheduled work goes through the task queue when it is enabled and runs
	// inline otherwise.
	var runner taskRunner = tasks.InlineRunner{
		Source:             app.Ledger,
		Cleaner:            app.Audit,
		AuditRetentionDays: cfg.Audit.RetentionDays,
	}
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.RegisterDefaults(app.Ledger, app.Audit)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		runner = taskClient
	}

	var circulationScheduler *scheduler.CirculationScheduler
	if cfg.Circulation.OverdueScanEnabled {
		circulationScheduler = scheduler.NewCirculationScheduler(
			runner,
			cfg.Circulation.OverdueScanSchedule,
			scheduler.AuditCleanupSchedule,
		)
		if err := circulationScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: circulation scheduler disabled: %v", err)
			circulationScheduler = nil
		} else {
			log.Printf("Overdue scan scheduled: %s", scheduler.GetCronDescription(cfg.Circulation.OverdueScanSchedule))
		}
	}

	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})
	defer rateLimiter.Stop()

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       app.DB,
		Journals:       app.Journals,
		Ledger:         app.Ledger,
		AuthService:    app.Auth,
		AuthMiddleware: auth.NewMiddleware(app.Auth),
		RateLimiter:    rateLimiter,
		Audit:          app.Audit,
		Tasks:          runner,
		HSTSMaxAge:     cfg.HTTP.HSTSMaxAge,
		Version:        version,
	})

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if circulationScheduler != nil {
			circulationScheduler.Stop()
			circulationScheduler.Wait()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
