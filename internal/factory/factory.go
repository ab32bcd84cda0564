// Package factory wires the application: stores, services, session
// registry, relay, extension libraries and the command dispatcher.
package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/command/handlers"
	"github.com/tavisham/lobbygate/internal/config"
	"github.com/tavisham/lobbygate/internal/dependencies/clock"
	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/relay"
	"github.com/tavisham/lobbygate/internal/services/account"
	"github.com/tavisham/lobbygate/internal/services/auth"
	"github.com/tavisham/lobbygate/internal/services/ledger"
	"github.com/tavisham/lobbygate/internal/services/promo"
	"github.com/tavisham/lobbygate/internal/session"
	"github.com/tavisham/lobbygate/internal/storage"
	"github.com/tavisham/lobbygate/internal/storage/memory"
	redisstorage "github.com/tavisham/lobbygate/internal/storage/redis"
)

// App contains all wired application components.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Storage
	Lobby storage.Store
	Peers map[string]storage.Store

	// Core components
	Registry   *session.Registry
	Relay      *relay.Relay
	Dispatcher *command.Dispatcher

	// Services
	AuthService    *auth.Service
	AccountService *account.Service
	LedgerService  *ledger.Service
	PromoService   *promo.Service

	// Extension libraries
	WebApps  *extension.Library
	WebGames *extension.Library

	redisClient *redis.Client
}

// New creates a fully wired application from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rng := random.New()

	app := &App{
		Config: cfg,
		Logger: logger,
		Clock:  clk,
		Random: rng,
		Peers:  make(map[string]storage.Store, len(cfg.Peers)),
	}

	var publisher relay.Publisher
	switch cfg.StorageDriver {
	case config.DriverMemory:
		app.Lobby = memory.New()
		for _, peerID := range cfg.Peers {
			app.Peers[peerID] = memory.New()
		}
		publisher = relay.DiscardPublisher{}
	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		app.redisClient = redis.NewClient(opts)

		storeCfg := redisstorage.DefaultConfig()
		storeCfg.URL = cfg.RedisURL
		storeCfg.KeyPrefix = cfg.RedisKeyPrefix
		app.Lobby = redisstorage.NewWithClient(app.redisClient, storeCfg)
		for _, peerID := range cfg.Peers {
			peerCfg := storeCfg
			peerCfg.KeyPrefix = peerID
			app.Peers[peerID] = redisstorage.NewWithClient(app.redisClient, peerCfg)
		}
		publisher = app.redisClient
	default:
		return nil, errors.New("invalid storage driver: must be 'memory' or 'redis'")
	}

	webApps, err := extension.LoadDir(cfg.WebAppDir)
	if err != nil {
		return nil, fmt.Errorf("loading web apps: %w", err)
	}
	webGames, err := extension.LoadDir(cfg.WebGameDir)
	if err != nil {
		return nil, fmt.Errorf("loading web games: %w", err)
	}
	app.WebApps = webApps
	app.WebGames = webGames

	app.wire(publisher)
	return app, nil
}

// wire builds the services and the dispatcher on top of the stores.
func (a *App) wire(publisher relay.Publisher) {
	a.Registry = session.NewRegistry(a.Clock)
	a.Relay = relay.New(publisher, a.Lobby, a.Logger)

	a.AuthService = auth.New(a.Lobby, a.Random)
	a.AccountService = account.New(a.Lobby, a.Registry, a.Random, a.Clock, a.Logger, account.Config{
		RegistrationCP:          a.Config.RegistrationCP,
		RegistrationTicketCount: a.Config.RegistrationTickets,
		RegistrationUserLevel:   a.Config.RegistrationLevel,
		RegistrationEnabled:     a.Config.RegistrationEnabled,
	})
	a.LedgerService = ledger.New(a.Lobby, a.Peers, a.Relay, a.Random, a.Clock, a.Logger)
	a.PromoService = promo.New(a.Lobby, a.Random, a.Logger)

	a.Dispatcher = command.NewDispatcher(a.Registry, a.AuthService, a.Lobby, a.Logger)
	handlers.RegisterAll(a.Dispatcher, handlers.Deps{
		Auth:     a.AuthService,
		Accounts: a.AccountService,
		Ledger:   a.LedgerService,
		Promos:   a.PromoService,
		Relay:    a.Relay,
		Lobby:    a.Lobby,
		Peers:    a.Peers,
		WebApps:  a.WebApps,
		WebGames: a.WebGames,
		Clock:    a.Clock,
		Logger:   a.Logger,
		Levels:   a.adminLevels(),
	})
}

// adminLevels applies the configured minimum to every admin command.
// Individual commands can be tuned here if deployments ever need
// split tiers.
func (a *App) adminLevels() handlers.Levels {
	level := a.Config.AdminLevel
	return handlers.Levels{
		GetAccounts:   level,
		GetAccount:    level,
		UpdateAccount: level,
		DeleteAccount: level,
		KickPlayer:    level,
		MessageWorld:  level,
		Online:        level,
		PostItems:     level,
		GetPromos:     level,
		CreatePromo:   level,
		DeletePromo:   level,
	}
}

// Close releases the stores and the shared broker connection. The
// redis-backed stores all share one client, so it is closed exactly
// once.
func (a *App) Close() error {
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	var errs []error
	if a.Lobby != nil {
		errs = append(errs, a.Lobby.Close())
	}
	for _, store := range a.Peers {
		errs = append(errs, store.Close())
	}
	return errors.Join(errs...)
}
