package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/gatehouse/internal/broker"
	"github.com/myrjola/gatehouse/internal/db"
	"github.com/myrjola/gatehouse/internal/envstruct"
	"github.com/myrjola/gatehouse/internal/errors"
	"github.com/myrjola/gatehouse/internal/eventlog"
	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/myrjola/gatehouse/internal/logging"
	"github.com/myrjola/gatehouse/internal/pprofserver"
	"github.com/myrjola/gatehouse/internal/session"
)

type configuration struct {
	// Addr is the address the HTTP server listens on.
	Addr string `env:"GATEHOUSE_ADDR" envDefault:"localhost:4000"`
	// PprofPort is where pprof listens on localhost.
	PprofPort string `env:"GATEHOUSE_PPROF_PORT" envDefault:":6060"`
	// SqliteURL locates the database, ":memory:" for ephemeral runs.
	SqliteURL string `env:"GATEHOUSE_SQLITE_URL" envDefault:"./gatehouse.sqlite"`
	// LogEndpoint is an optional external collector that receives training
	// events as JSON posts. Empty disables the remote sink.
	LogEndpoint string `env:"GATEHOUSE_LOG_ENDPOINT" envDefault:""`
	// PhrasebankPath optionally points at a JSON file with extra intent
	// rules merged into the built-in set.
	PhrasebankPath string `env:"GATEHOUSE_PHRASEBANK_PATH" envDefault:""`
}

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	registry       *intent.Registry
	sink           eventlog.Sink
	broker         *broker.ChannelBroker[string, session.Event]

	mu   sync.Mutex
	runs map[string]*runHandle
}

type runHandle struct {
	runID   string
	session *session.Session
	events  chan session.Event
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	if err := run(context.Background(), logger); err != nil {
		logger.LogAttrs(context.Background(), slog.LevelError, "server failed", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "load dotenv")
	}

	var config configuration
	if err := envstruct.Populate(&config, os.LookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	// pprof listens on localhost only so that it's not open to the world.
	pprofserver.Launch(config.PprofPort, logger)

	dbs, err := db.NewDB(ctx, config.SqliteURL)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", config.SqliteURL))
	}
	defer func() { _ = dbs.Close() }()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	registry := intent.NewRegistry(logger)
	if config.PhrasebankPath != "" {
		extra, err := intent.LoadPhrasebank(config.PhrasebankPath)
		if err != nil {
			return errors.Wrap(err, "load phrasebank", slog.String("path", config.PhrasebankPath))
		}
		registry.Merge(extra)
	}

	store := eventlog.NewStore(dbs, logger)
	defer store.Close()
	sink := eventlog.MultiSink{store}
	if config.LogEndpoint != "" {
		sink = append(sink, eventlog.NewRemoteSink(config.LogEndpoint, logger))
	}

	eventBroker := broker.NewChannelBroker[string, session.Event]()
	go eventBroker.Start()
	defer eventBroker.Stop()

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		registry:       registry,
		sink:           sink,
		broker:         eventBroker,
		runs:           make(map[string]*runHandle),
	}

	return app.configureAndStartServer(ctx, config.Addr)
}
