// Package handlers wires every gateway command into the dispatcher.
package handlers

import (
	"log/slog"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/dependencies/clock"
	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/relay"
	"github.com/tavisham/lobbygate/internal/services/account"
	"github.com/tavisham/lobbygate/internal/services/auth"
	"github.com/tavisham/lobbygate/internal/services/ledger"
	"github.com/tavisham/lobbygate/internal/services/promo"
	"github.com/tavisham/lobbygate/internal/storage"
)

// Levels carries the minimum authorization level per admin command.
// Each is independently configurable; the default is superuser-only.
type Levels struct {
	GetAccounts   int
	GetAccount    int
	UpdateAccount int
	DeleteAccount int
	KickPlayer    int
	MessageWorld  int
	Online        int
	PostItems     int
	GetPromos     int
	CreatePromo   int
	DeletePromo   int
}

// DefaultLevels requires the superuser level for every admin command.
func DefaultLevels() Levels {
	return Levels{
		GetAccounts:   1000,
		GetAccount:    1000,
		UpdateAccount: 1000,
		DeleteAccount: 1000,
		KickPlayer:    1000,
		MessageWorld:  1000,
		Online:        1000,
		PostItems:     1000,
		GetPromos:     1000,
		CreatePromo:   1000,
		DeletePromo:   1000,
	}
}

// Deps bundles everything the handlers need.
type Deps struct {
	Auth     *auth.Service
	Accounts *account.Service
	Ledger   *ledger.Service
	Promos   *promo.Service
	Relay    *relay.Relay
	Lobby    storage.Store
	Peers    map[string]storage.Store
	WebApps  *extension.Library
	WebGames *extension.Library
	Clock    clock.Clock
	Logger   *slog.Logger
	Levels   Levels
}

type handlers struct {
	deps Deps
}

// RegisterAll installs the full command table: the auth bootstrap,
// account self-service, the admin surface, one command per loaded web
// app, and the web game commands.
func RegisterAll(d *command.Dispatcher, deps Deps) {
	h := &handlers{deps: deps}

	d.Register("auth/get_challenge", command.Registration{
		Handler: command.HandlerFunc(h.getChallenge),
		Auth:    command.AuthBootstrap,
	})

	d.Register("account/register", command.Registration{
		Handler: command.HandlerFunc(h.register),
		Auth:    command.AuthNone,
	})
	d.Register("account/get_cp", command.Registration{
		Handler: command.HandlerFunc(h.getCP),
		Auth:    command.AuthChallenge,
	})
	d.Register("account/get_details", command.Registration{
		Handler: command.HandlerFunc(h.getDetails),
		Auth:    command.AuthChallenge,
	})
	d.Register("account/change_password", command.Registration{
		Handler: command.HandlerFunc(h.changePassword),
		Auth:    command.AuthChallenge,
	})

	levels := deps.Levels
	d.Register("admin/get_accounts", command.Registration{
		Handler: command.HandlerFunc(h.adminGetAccounts),
		Auth:    command.AuthChallenge, MinLevel: levels.GetAccounts,
	})
	d.Register("admin/get_account", command.Registration{
		Handler: command.HandlerFunc(h.adminGetAccount),
		Auth:    command.AuthChallenge, MinLevel: levels.GetAccount,
	})
	d.Register("admin/update_account", command.Registration{
		Handler: command.HandlerFunc(h.adminUpdateAccount),
		Auth:    command.AuthChallenge, MinLevel: levels.UpdateAccount,
	})
	d.Register("admin/delete_account", command.Registration{
		Handler: command.HandlerFunc(h.adminDeleteAccount),
		Auth:    command.AuthChallenge, MinLevel: levels.DeleteAccount,
	})
	d.Register("admin/kick_player", command.Registration{
		Handler: command.HandlerFunc(h.adminKickPlayer),
		Auth:    command.AuthChallenge, MinLevel: levels.KickPlayer,
	})
	d.Register("admin/message_world", command.Registration{
		Handler: command.HandlerFunc(h.adminMessageWorld),
		Auth:    command.AuthChallenge, MinLevel: levels.MessageWorld,
	})
	d.Register("admin/online", command.Registration{
		Handler: command.HandlerFunc(h.adminOnline),
		Auth:    command.AuthChallenge, MinLevel: levels.Online,
	})
	d.Register("admin/post_items", command.Registration{
		Handler: command.HandlerFunc(h.adminPostItems),
		Auth:    command.AuthChallenge, MinLevel: levels.PostItems,
	})
	d.Register("admin/get_promos", command.Registration{
		Handler: command.HandlerFunc(h.adminGetPromos),
		Auth:    command.AuthChallenge, MinLevel: levels.GetPromos,
	})
	d.Register("admin/create_promo", command.Registration{
		Handler: command.HandlerFunc(h.adminCreatePromo),
		Auth:    command.AuthChallenge, MinLevel: levels.CreatePromo,
	})
	d.Register("admin/delete_promo", command.Registration{
		Handler: command.HandlerFunc(h.adminDeletePromo),
		Auth:    command.AuthChallenge, MinLevel: levels.DeletePromo,
	})

	if deps.WebApps != nil {
		for _, app := range deps.WebApps.Names() {
			d.Register("webapp/"+app, command.Registration{
				Handler: &webAppHandler{deps: &h.deps, app: app},
				Auth:    command.AuthChallenge,
			})
		}
	}

	d.Register("webgame/start", command.Registration{
		Handler: command.HandlerFunc(h.gameStart),
		Auth:    command.AuthGame,
	})
	d.Register("webgame/update", command.Registration{
		Handler: command.HandlerFunc(h.gameUpdate),
		Auth:    command.AuthGame,
	})
	d.Register("webgame/get_coins", command.Registration{
		Handler: command.HandlerFunc(h.gameGetCoins),
		Auth:    command.AuthGame,
	})
}

// resolveStore maps an extension store name to a store: "lobby" or a
// peer ID.
func resolveStore(deps *Deps, name string) extension.StoreReader {
	if name == "lobby" {
		return deps.Lobby
	}
	if store, ok := deps.Peers[name]; ok {
		return store
	}
	return nil
}
