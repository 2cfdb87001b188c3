package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/stanstork/leadwatch-api/internal/activity"
	"github.com/stanstork/leadwatch-api/internal/config"
	"github.com/stanstork/leadwatch-api/internal/handlers"
	"github.com/stanstork/leadwatch-api/internal/middleware"
	"github.com/stanstork/leadwatch-api/internal/migration"
	"github.com/stanstork/leadwatch-api/internal/notification"
	"github.com/stanstork/leadwatch-api/internal/repository"
	"github.com/stanstork/leadwatch-api/internal/routes"
	"github.com/stanstork/leadwatch-api/internal/scheduler"
	"github.com/stanstork/leadwatch-api/internal/staleness"
	"github.com/stanstork/leadwatch-api/internal/temporal"
	"github.com/stanstork/leadwatch-api/internal/temporal/activities"
	"github.com/stanstork/leadwatch-api/internal/temporal/dispatch"
	"github.com/stanstork/leadwatch-api/internal/temporal/workflows"
	"github.com/stanstork/leadwatch-api/internal/tracing"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	redis          *redis.Client
	temporalClient tc.Client
	logger         zerolog.Logger

	leads         repository.LeadRepository
	users         repository.UserRepository
	activityLog   repository.ActivityRepository
	notifications notification.Service
	regenerator   notification.Regenerator
	monitor       *activity.Monitor
	closers       []func()
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up tracing")
	}

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	if err := migration.RunMigrations(db, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	app := &application{
		config:      cfg,
		db:          db,
		logger:      logger,
		leads:       repository.NewLeadRepository(db),
		users:       repository.NewUserRepository(db),
		activityLog: repository.NewActivityRepository(db),
	}
	defer app.close()

	app.initNotifications()

	var temporalWorker worker.Worker
	if cfg.Temporal.Enabled {
		temporalWorker = app.startTemporal()
	}

	app.initMonitor()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = app.startScheduler()
	}

	// Initialize the HTTP router and middleware.
	var jobs handlers.JobTrigger
	if sched != nil {
		jobs = sched
	}
	router := app.initRouter(jobs)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.CORSOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Client-Info", "Apikey"}),
		h.OptionStatusCode(http.StatusOK),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, sched, temporalWorker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn().Err(err).Msg("Tracing shutdown error")
	}

	logger.Info().Msg("Application terminated.")
}

func (app *application) initNotifications() {
	cfg := app.config
	var notifiers []notification.Notifier

	if cfg.Email.SMTPHost != "" {
		emailNotifier, err := notification.NewEmailNotifier(cfg.Email, app.logger)
		if err != nil {
			app.logger.Fatal().Err(err).Msg("Failed to configure email notifier")
		}
		notifiers = append(notifiers, emailNotifier)
	}
	if cfg.AMQP.URL != "" {
		amqpNotifier, err := notification.NewAMQPNotifier(cfg.AMQP, app.logger)
		if err != nil {
			app.logger.Fatal().Err(err).Msg("Failed to configure AMQP notifier")
		}
		notifiers = append(notifiers, amqpNotifier)
		app.closers = append(app.closers, func() { _ = amqpNotifier.Close() })
	}

	app.notifications = notification.NewService(
		repository.NewNotificationRepository(app.db),
		app.leads,
		app.users,
		app.logger,
		notification.Options{
			Thresholds: staleness.Thresholds{
				OverdueAfter:  cfg.Staleness.OverdueAfter,
				StaleAfter:    cfg.Staleness.StaleAfter,
				UncalledAfter: cfg.Staleness.UncalledAfter,
			},
			Retention: repository.RetentionPolicy{Window: cfg.Notifications.RetentionWindow},
			Notifiers: notifiers,
		},
	)
	app.regenerator = app.notifications
}

// startTemporal connects to Temporal, runs a worker hosting the regeneration
// workflow and routes every regeneration trigger through it.
func (app *application) startTemporal() worker.Worker {
	cfg := app.config.Temporal
	temporalClient, err := tc.Dial(tc.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    temporal.NewZerologAdapter(app.logger),
	})
	if err != nil {
		app.logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}
	app.temporalClient = temporalClient
	app.closers = append(app.closers, temporalClient.Close)

	taskQueue := cfg.TaskQueue
	if taskQueue == "" {
		taskQueue = temporal.DefaultTaskQueue
	}

	w := worker.New(temporalClient, taskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.RegenerationWorkflow)
	w.RegisterActivity(&activities.Activities{Regenerator: app.notifications})

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		app.logger.Info().Str("task_queue", taskQueue).Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			app.logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	app.regenerator = dispatch.NewDispatcher(temporalClient, taskQueue, "leadwatch-api", app.logger)
	return w
}

func (app *application) initMonitor() {
	cfg := app.config
	var limiter activity.Limiter = activity.NewMemoryLimiter()

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisotel.InstrumentTracing(client); err != nil {
			app.logger.Warn().Err(err).Msg("Failed to instrument redis tracing")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			app.logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, AFK alert cooldowns stay in memory")
			_ = client.Close()
		} else {
			app.redis = client
			app.closers = append(app.closers, func() { _ = client.Close() })
			limiter = activity.NewRedisLimiter(client)
		}
	}

	app.monitor = activity.NewMonitor(
		app.activityLog,
		app.users,
		app.notifications,
		activity.NewAlertPolicy(limiter, cfg.Activity.AlertCooldown),
		app.logger,
		activity.MonitorOptions{
			Thresholds: activity.Thresholds{
				OnlineWithin: cfg.Activity.OnlineWithin,
				IdleWithin:   cfg.Activity.IdleWithin,
				AFKWithin:    cfg.Activity.AFKWithin,
			},
		},
	)
}

func (app *application) startScheduler() *scheduler.Scheduler {
	cfg := app.config.Scheduler
	s := scheduler.New(app.logger)

	jobs := []scheduler.Job{
		scheduler.RegenerateJob(app.regenerator, cfg.RegenerateInterval),
		scheduler.AFKCheckJob(app.monitor, cfg.AFKCheckInterval),
		scheduler.PurgeJob(app.notifications, cfg.PurgeInterval),
	}
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			app.logger.Fatal().Err(err).Str("job", job.Name).Msg("Failed to schedule job")
		}
	}
	s.Start()
	return s
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(jobs handlers.JobTrigger) http.Handler {
	return routes.NewRouter(routes.Handlers{
		Auth:         handlers.NewAuthHandler(app.config.JWTSecret, app.config.ServiceKey, app.logger),
		Health:       handlers.NewHealthHandler(app.db),
		Function:     handlers.NewFunctionHandler(app.regenerator, app.logger),
		Notification: handlers.NewNotificationHandler(app.notifications, app.regenerator, app.logger),
		Lead:         handlers.NewLeadHandler(app.leads, app.activityLog, app.logger),
		Activity:     handlers.NewActivityHandler(app.activityLog, app.users, app.monitor, app.logger),
		Job:          handlers.NewJobHandler(jobs, app.logger),
	})
}

func (app *application) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, sched *scheduler.Scheduler, temporalWorker worker.Worker) {
	logger := app.logger
	server := &http.Server{
		Addr:              ":" + app.config.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	if sched != nil {
		logger.Info().Msg("Stopping scheduler...")
		sched.Stop()
	}

	if temporalWorker != nil {
		logger.Info().Msg("Stopping Temporal worker...")
		temporalWorker.Stop()
		logger.Info().Msg("Temporal worker stopped.")
	}
}
