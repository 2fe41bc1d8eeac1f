package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/appstore"
	"github.com/volunqueer/volunqueer/internal/attendance"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/config"
	"github.com/volunqueer/volunqueer/internal/db"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/docstore/firestore"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
	"github.com/volunqueer/volunqueer/internal/docstore/mongo"
	"github.com/volunqueer/volunqueer/internal/docstore/postgres"
	"github.com/volunqueer/volunqueer/internal/email"
	"github.com/volunqueer/volunqueer/internal/messaging"
	"github.com/volunqueer/volunqueer/internal/notifications"
	"github.com/volunqueer/volunqueer/internal/orgs"
	"github.com/volunqueer/volunqueer/internal/rsvps"
	"github.com/volunqueer/volunqueer/internal/seed"
	"github.com/volunqueer/volunqueer/internal/slack"
)

// Services is the wired service graph shared by the router and the jobs.
type Services struct {
	Store       *appstore.Store
	RSVPs       rsvps.Service
	Orgs        *orgs.Service
	Credentials *auth.Credentials
	Auditor     *audit.Writer
	Audit       *audit.Reader
	Attendance  *attendance.Service
	Messaging   *messaging.Service
	Inbox       *notifications.Service
	Notifier    rsvps.Notifier
	Reminders   *notifications.ReminderJob

	// Ping checks the backing database, nil in mock mode.
	Ping func(ctx context.Context) error
}

// App holds the application state
type App struct {
	Config   *config.Config
	Services *Services
	Router   http.Handler

	server  *http.Server
	closers []func(ctx context.Context) error
}

// New creates and initializes a new application instance
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	setupLogger(cfg)

	log.Info().Msg("Initializing VolunQueer application")
	log.Info().Interface("config", cfg.RedactedValues()).Msg("Configuration loaded")

	app := &App{Config: cfg}

	docs, ping, err := app.openDocuments(ctx)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	services, err := NewServices(ctx, cfg, docs)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	services.Ping = ping
	app.Services = services

	// A failed load is reported through the load state; the server still
	// starts so the reload endpoint can recover.
	if docs != nil && cfg.Seed {
		log.Info().Msg("Seeding empty database with mock data")
		if err := services.Store.SeedMockData(ctx, seed.Build(time.Now().UTC())); err != nil {
			log.Error().Err(err).Msg("Failed to seed database")
		}
	} else if err := services.Store.Load(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to load application store")
	}

	app.Router = NewRouter(cfg, services)

	log.Info().Str("data_source", string(cfg.DataSource)).Msg("Application initialized successfully")
	return app, nil
}

// OpenStore connects the configured document store for one-off commands.
// The returned func releases every connection.
func OpenStore(ctx context.Context, cfg *config.Config) (docstore.Store, func(context.Context), error) {
	a := &App{Config: cfg}
	docs, _, err := a.openDocuments(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, nil, err
	}
	return docs, a.Close, nil
}

// openDocuments connects the configured document store. Mock mode has none.
func (a *App) openDocuments(ctx context.Context) (docstore.Store, func(context.Context) error, error) {
	cfg := a.Config

	switch cfg.DataSource {
	case config.DataSourcePostgres:
		log.Info().Msg("Connecting to database...")
		pool, err := db.Connect(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		log.Info().Msg("Database connection established")

		if cfg.IsDev() {
			log.Info().Msg("Development mode: running migrations automatically")
			if _, err := db.RunMigrations(ctx, pool); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		} else if pending, err := db.PendingMigrations(ctx, pool); err != nil {
			log.Warn().Err(err).Msg("Could not check pending migrations")
		} else if len(pending) > 0 {
			log.Warn().Strs("pending", pending).Msg("Production mode: migrations must be run manually")
		}
		docs := postgres.NewFromPool(pool)
		a.closers = append(a.closers, func(context.Context) error { return docs.Close() })
		return docs, pool.Ping, nil

	case config.DataSourceMongo:
		log.Info().Str("database", cfg.MongoDatabase).Msg("Connecting to MongoDB...")
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, store.Ping, nil

	case config.DataSourceFirestore:
		log.Info().Str("project", cfg.FirestoreProject).Msg("Connecting to Firestore...")
		store, err := firestore.Connect(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return store, nil, nil

	default:
		log.Info().Msg("Using in-memory mock data")
		return nil, nil, nil
	}
}

// NewServices wires every service over docs. A nil docs selects mock mode:
// the cache serves the mock bundle, RSVPs stay in memory and the
// supporting collections live in a seeded in-memory document store.
func NewServices(ctx context.Context, cfg *config.Config, docs docstore.Store) (*Services, error) {
	var (
		store      *appstore.Store
		rsvpSvc    rsvps.Service
		supporting docstore.Store
	)

	if docs == nil {
		now := time.Now().UTC()
		bundle := seed.Build(now)
		store = appstore.NewMock(func() seed.Bundle { return seed.Build(now) }, false)
		rsvpSvc = rsvps.NewMemoryService(bundle.AllRSVPs())

		mem := memory.New()
		if err := seed.Write(ctx, mem, bundle); err != nil {
			return nil, fmt.Errorf("failed to seed mock documents: %w", err)
		}
		supporting = mem
	} else {
		store = appstore.New(docs)
		rsvpSvc = rsvps.NewStoreService(docs)
		supporting = docs
	}

	mailer, err := email.NewMailer(cfg.Mailer())
	if err != nil {
		return nil, fmt.Errorf("failed to configure mailer: %w", err)
	}

	inbox := notifications.NewService(supporting)
	notifier := notifications.NewNotifier(notifications.NotifierConfig{
		Inbox:        inbox,
		RSVPs:        rsvpSvc,
		Directory:    store,
		Slack:        slack.NewClient(cfg.SlackTimeoutMS),
		SlackWebhook: cfg.SlackWebhookURL,
		Mailer:       mailer,
		BaseURL:      cfg.BaseURL,
	})

	return &Services{
		Store:       store,
		RSVPs:       rsvpSvc,
		Orgs:        orgs.NewService(supporting),
		Credentials: auth.NewCredentials(supporting),
		Auditor:     audit.NewWriter(supporting),
		Audit:       audit.NewReader(supporting),
		Attendance:  attendance.NewService(supporting),
		Messaging:   messaging.NewService(supporting),
		Inbox:       inbox,
		Notifier:    notifier,
		Reminders:   notifications.NewReminderJob(inbox, rsvpSvc, store, cfg.ReminderWindow),
	}, nil
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := a.Config.HTTPAddr
	log.Info().Str("addr", addr).Msg("Starting HTTP server")

	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Close gracefully shuts down the application
func (a *App) Close(ctx context.Context) {
	log.Info().Msg("Shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to close data source")
		}
	}
	a.closers = nil
}

// setupLogger configures the global logger
func setupLogger(cfg *config.Config) {
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().Str("level", cfg.LogLevel).Msg("Logger configured")
}
