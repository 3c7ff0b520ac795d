package bootstrap

import (
	"fmt"
	"time"

	"go-logbot/internal/auth"
	"go-logbot/internal/bot"
	"go-logbot/internal/commands"
	"go-logbot/internal/config"
	"go-logbot/internal/database"
	"go-logbot/internal/dispatcher"
	"go-logbot/internal/logging"
	"go-logbot/internal/metrics"
	"go-logbot/internal/moderation"
	"go-logbot/internal/notifier"
	"go-logbot/internal/routing"
	"go-logbot/internal/watchdog"

	"github.com/bwmarrin/discordgo"
)

const (
	watchdogInterval = 30 * time.Second
	gatewayStaleness = 2 * time.Minute
)

type Components struct {
	// Discord
	Session  *bot.Session
	Notifier *notifier.Discord
	Commands *commands.Handler

	// Logging pipeline
	Store      *routing.Store
	Dispatcher *dispatcher.Dispatcher
	Counters   *metrics.DispatchCounters
	HTTPPool   *dispatcher.HTTPPool

	// Moderation
	Gate       *auth.Gate
	Moderation *moderation.Service
	DB         *database.Database

	// Monitoring
	Watchdog *watchdog.Watchdog
}

// Wire builds every component without touching the network. An unreadable
// routing table stops startup; a missing one is an empty table.
func Wire(b *Bootstrap) error {
	logging.Info("Wiring components...")
	cfg := b.Config

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	if !db.IsConnected() {
		db.Close()
		return fmt.Errorf("database connection not available")
	}
	logging.Info("Database connection verified")

	store := routing.NewStore(persisterFor(cfg, db))
	if err := store.Load(); err != nil {
		db.Close()
		return fmt.Errorf("failed to load logging configuration: %w", err)
	}
	logging.Info("Loaded %d logging routes (%s backend)", store.Len(), cfg.Routing.Backend)

	session, err := bot.New(b.Security, cfg.State)
	if err != nil {
		db.Close()
		return err
	}

	watchdogInst := watchdog.NewWatchdog(watchdogInterval)
	watchdogInst.RegisterProbe("gateway", gatewayStaleness, session.LastHeartbeatAck)

	counters := metrics.NewDispatchCounters()
	discord := notifier.NewDiscord(session.GetDiscord())

	b.Components = &Components{
		Session:    session,
		Notifier:   discord,
		Store:      store,
		Dispatcher: dispatcher.NewDispatcher(store, discord, counters),
		Counters:   counters,
		HTTPPool:   dispatcher.NewHTTPPool(cfg.Network.HTTPPoolSize),
		Gate:       auth.NewGate(b.Security.OwnerID(), session),
		Moderation: moderation.NewService(session, db),
		DB:         db,
		Watchdog:   watchdogInst,
	}

	logging.Info("Component wiring complete")
	return nil
}

func persisterFor(cfg *config.Config, db *database.Database) routing.Persister {
	if cfg.Routing.Backend == config.RoutingBackendSQLite {
		return db.Routes()
	}
	return routing.NewFilePersister(cfg.Routing.Path)
}

// StartAll installs the event handlers, connects and registers commands.
func StartAll(b *Bootstrap) error {
	logging.Info("Starting components...")
	c := b.Components

	c.Session.SetupEventHandlers(c.Dispatcher, c.Counters, func(r *discordgo.Ready) {
		logging.Info("Logged in as %s#%s in %d servers", r.User.Username, r.User.Discriminator, len(r.Guilds))
		commands.ApplyDefaultPresence(c.Session, b.Config, b.Security)
	})

	if err := c.Session.Connect(); err != nil {
		return err
	}
	logging.Info("Discord gateway connected")

	c.Watchdog.Start()
	logging.Info("Watchdog started")

	handler, err := commands.Initialize(commands.Deps{
		Config:     b.Config,
		Security:   b.Security,
		Session:    c.Session,
		Store:      c.Store,
		Gate:       c.Gate,
		Moderation: c.Moderation,
		Notifier:   c.Notifier,
		Dispatcher: c.Dispatcher,
		HTTP:       c.HTTPPool,
		DB:         c.DB,
		Health:     c.Watchdog,
		Lifecycle:  b,
	})
	if err != nil {
		return err
	}
	c.Commands = handler

	logging.Info("All components started")
	return nil
}
