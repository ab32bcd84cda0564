package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/storage"
)

// DefaultTimeout bounds a single delivery attempt. Relay is best
// effort; a slow broker must not stall command execution.
const DefaultTimeout = 2 * time.Second

// Publisher is the broker surface the relay publishes through. A
// *redis.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// DiscardPublisher drops every frame. Used when the gateway runs on
// in-memory storage with no broker; peers cannot be reached anyway.
type DiscardPublisher struct{}

// Publish implements Publisher.
func (DiscardPublisher) Publish(_ context.Context, _ string, _ interface{}) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

// Relay publishes frames on per-peer channels and resolves live
// sessions through the lobby store's directory records.
type Relay struct {
	client  Publisher
	store   storage.Store
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a relay publishing through the given client.
func New(client Publisher, store storage.Store, logger *slog.Logger) *Relay {
	return &Relay{
		client:  client,
		store:   store,
		logger:  logger,
		timeout: DefaultTimeout,
	}
}

// Channel returns the pub/sub channel name for a peer.
func Channel(peerID string) string {
	return "relay:" + peerID
}

// Broadcast sends a payload to every client on a peer.
func (r *Relay) Broadcast(ctx context.Context, peerID string, payload Payload) error {
	return r.publish(ctx, peerID, Frame{Mode: ModeAll, Payload: payload})
}

// Send sends a payload to an explicit set of clients on a peer.
func (r *Relay) Send(ctx context.Context, peerID string, targets []int32, payload Payload) error {
	return r.publish(ctx, peerID, Frame{Mode: ModeIDs, Targets: targets, Payload: payload})
}

// NotifyIfLive delivers a payload to the account's live gameplay
// session, if one exists. A missing directory entry is a normal
// outcome, reported as (false, nil). Delivery failures surface as
// errors but callers must never roll stores back over them.
func (r *Relay) NotifyIfLive(ctx context.Context, username string, payload Payload) (bool, error) {
	live, err := r.store.GetLiveSession(ctx, username)
	if errors.Is(err, model.ErrNotLive) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("live session lookup for %s: %w", username, err)
	}

	if err := r.Send(ctx, live.PeerID, []int32{live.ClientID}, payload); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Relay) publish(ctx context.Context, peerID string, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encoding relay frame: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	receivers, err := r.client.Publish(ctx, Channel(peerID), data).Result()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", Channel(peerID), err)
	}

	r.logger.Debug("relay frame published",
		"peer_id", peerID,
		"kind", frame.Payload.Kind,
		"mode", frame.Mode,
		"receivers", receivers)
	return nil
}
