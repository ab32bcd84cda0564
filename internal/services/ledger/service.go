// Package ledger mutates economic state: account CP, grant items and
// per-character game coins. Every mutation is a guarded changeset so
// concurrent writers cannot lose updates.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/dependencies/clock"
	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/relay"
	"github.com/tavisham/lobbygate/internal/storage"
)

var (
	// ErrNotEnough rejects a purchase that would take CP below zero.
	ErrNotEnough = errors.New("not enough CP")

	// ErrNoItems rejects an empty or oversized grant batch.
	ErrNoItems = errors.New("between 1 and 100 items required")

	// ErrPostBoxFull rejects a batch that would push an account past
	// its unclaimed grant limit.
	ErrPostBoxFull = errors.New("too many unclaimed items")
)

const (
	grantIDLength   = 16
	grantIDAlphabet = "0123456789abcdef"
)

// Notifier is the relay surface the ledger needs: best-effort balance
// pushes to live sessions.
type Notifier interface {
	NotifyIfLive(ctx context.Context, username string, payload relay.Payload) (bool, error)
}

// Service applies ledger changesets against the lobby store and the
// per-peer profile stores.
type Service struct {
	lobby    storage.Store
	peers    map[string]storage.Store
	notifier Notifier
	random   random.Random
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates the ledger service. peers maps peer IDs to their stores.
func New(lobby storage.Store, peers map[string]storage.Store, notifier Notifier, rng random.Random, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		lobby:    lobby,
		peers:    peers,
		notifier: notifier,
		random:   rng,
		clock:    clk,
		logger:   logger,
	}
}

// PeerStore resolves a peer's profile store.
func (s *Service) PeerStore(peerID string) (storage.Store, error) {
	store, ok := s.peers[peerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrPeerNotFound, peerID)
	}
	return store, nil
}

// PostItems charges an account cpCost and inserts one grant item per
// item type, atomically. The CP subtraction carries the read balance as
// its guard, so a concurrent spend fails the whole batch instead of
// silently overdrawing. The new balance is relayed to the account's
// live session after commit. An account holds at most MaxGrantItems
// unclaimed grants, counting the new batch.
func (s *Service) PostItems(ctx context.Context, username string, items []uint32, cpCost int64) (int64, error) {
	if len(items) == 0 || len(items) > model.MaxGrantItems {
		return 0, ErrNoItems
	}

	account, err := s.lobby.GetAccount(ctx, username)
	if err != nil {
		return 0, err
	}

	pending, err := s.Grants(ctx, account.Username)
	if err != nil {
		return 0, err
	}
	if len(pending)+len(items) > model.MaxGrantItems {
		return account.CP, ErrPostBoxFull
	}

	balance := account.CP - cpCost
	if balance < 0 {
		return account.CP, ErrNotEnough
	}

	cs := changeset.New()
	cs.Update(changeset.KindAccount, account.Username, "cp", balance, account.CP)
	now := s.clock.Now().Unix()
	for _, itemType := range items {
		grant := &model.GrantItem{
			ID:        s.random.String(grantIDLength, grantIDAlphabet),
			Type:      itemType,
			Timestamp: now,
			Account:   account.Username,
		}
		cs.Insert(changeset.KindGrant, grant.ID, grant)
	}

	if err := s.lobby.Apply(ctx, cs); err != nil {
		return account.CP, err
	}

	s.relayBalance(ctx, account.Username, balance)
	s.logger.Info("items posted",
		"username", account.Username,
		"items", len(items),
		"cp_cost", cpCost,
		"balance", balance)
	return balance, nil
}

// Grants lists an account's pending grant items.
func (s *Service) Grants(ctx context.Context, username string) ([]*model.GrantItem, error) {
	return s.lobby.ListGrants(ctx, username)
}

// GetCoins reads a character's coin balance from its peer's store.
func (s *Service) GetCoins(ctx context.Context, peerID, characterID string) (int64, error) {
	store, err := s.PeerStore(peerID)
	if err != nil {
		return 0, err
	}
	profile, err := store.GetProfile(ctx, characterID)
	if err != nil {
		return 0, err
	}
	return profile.Coins, nil
}

// UpdateCoins sets (adjust=false) or offsets (adjust=true) a
// character's coin balance, clamping the result at zero. The write is
// guarded on the read balance; the committed balance is relayed to the
// owning account's live session.
func (s *Service) UpdateCoins(ctx context.Context, peerID, characterID string, value int64, adjust bool) (int64, error) {
	store, err := s.PeerStore(peerID)
	if err != nil {
		return 0, err
	}
	profile, err := store.GetProfile(ctx, characterID)
	if err != nil {
		return 0, err
	}

	balance := value
	if adjust {
		balance = profile.Coins + value
	}
	if balance < 0 {
		balance = 0
	}

	cs := changeset.New()
	cs.Update(changeset.KindProfile, characterID, "coins", balance, profile.Coins)
	if err := store.Apply(ctx, cs); err != nil {
		return profile.Coins, err
	}

	s.relayBalance(ctx, profile.Account, balance)
	return balance, nil
}

// relayBalance pushes a committed balance to the live session, if any.
// Delivery failure is logged and swallowed; the store already holds
// the truth.
func (s *Service) relayBalance(ctx context.Context, username string, balance int64) {
	delivered, err := s.notifier.NotifyIfLive(ctx, username, relay.BalancePayload(balance))
	if err != nil {
		s.logger.Warn("balance relay failed", "username", username, "error", err)
		return
	}
	if !delivered {
		s.logger.Debug("no live session for balance relay", "username", username)
	}
}
