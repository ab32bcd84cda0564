package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tavisham/lobbygate/internal/services/auth"
	"github.com/tavisham/lobbygate/internal/session"
	"github.com/tavisham/lobbygate/internal/storage"
)

// AuthMode says how the dispatcher authenticates a command before its
// handler runs.
type AuthMode int

const (
	// AuthNone runs without a session (registration).
	AuthNone AuthMode = iota

	// AuthBootstrap binds and locks the username's session but checks
	// no credential; the handler starts the handshake itself.
	AuthBootstrap

	// AuthChallenge requires a correct answer to the session's
	// outstanding challenge and rotates it into the response.
	AuthChallenge

	// AuthGame requires the username plus the session ID the hosting
	// peer minted, checked against the live-session directory.
	AuthGame
)

// Registration binds a handler to its authentication requirements.
// MinLevel applies to AuthChallenge commands only; zero means any
// authenticated account.
type Registration struct {
	Handler  Handler
	Auth     AuthMode
	MinLevel int
}

// Dispatcher owns the command table. It is built once at startup and
// never mutated afterwards, so lookups need no locking.
type Dispatcher struct {
	registry *session.Registry
	auth     *auth.Service
	lobby    storage.Store
	logger   *slog.Logger
	handlers map[string]Registration
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(registry *session.Registry, authService *auth.Service, lobby storage.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		auth:     authService,
		lobby:    lobby,
		logger:   logger,
		handlers: make(map[string]Registration),
	}
}

// Register adds a command. Panics on duplicates: the table is wired by
// hand at startup and a collision is a programming error.
func (d *Dispatcher) Register(name string, reg Registration) {
	if _, exists := d.handlers[name]; exists {
		panic(fmt.Sprintf("command %q registered twice", name))
	}
	d.handlers[name] = reg
}

// Commands lists the registered command names.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch runs one command end to end: resolve the handler, bind and
// lock the session, authenticate, gate on level, execute. The second
// return value is false when the command name is unknown.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (Response, bool) {
	reg, known := d.handlers[req.Command]
	if !known {
		return nil, false
	}

	var resp Response
	switch reg.Auth {
	case AuthNone:
		resp = reg.Handler.Execute(ctx, req, nil)
	case AuthBootstrap:
		resp = d.dispatchBootstrap(ctx, req, reg)
	case AuthChallenge:
		resp = d.dispatchChallenge(ctx, req, reg)
	case AuthGame:
		resp = d.dispatchGame(ctx, req, reg)
	default:
		resp = Fail("Unknown authentication mode")
	}

	d.logger.Info("command dispatched",
		"command", req.Command,
		"username", strings.ToLower(req.String("username")),
		"origin", req.Origin,
		"status", resp.Status())
	return resp, true
}

// lockSession resolves and locks the session named by the request.
// Callers must Unlock.
func (d *Dispatcher) lockSession(req *Request, field string) (*session.Session, Response) {
	username := strings.ToLower(req.String(field))
	if username == "" {
		return nil, Fail("Missing username")
	}
	sess := d.registry.GetOrCreate(username, req.Origin)
	sess.Lock()
	return sess, nil
}

func (d *Dispatcher) dispatchBootstrap(ctx context.Context, req *Request, reg Registration) Response {
	sess, failure := d.lockSession(req, "username")
	if failure != nil {
		return failure
	}
	defer sess.Unlock()
	return reg.Handler.Execute(ctx, req, sess)
}

func (d *Dispatcher) dispatchChallenge(ctx context.Context, req *Request, reg Registration) Response {
	sess, failure := d.lockSession(req, "username")
	if failure != nil {
		return failure
	}
	defer sess.Unlock()

	next, err := d.auth.Verify(ctx, sess, req.String("challenge"))
	if err != nil {
		return Fail("Authentication failed")
	}

	if reg.MinLevel > 0 && sess.Account.UserLevel < reg.MinLevel {
		resp := Fail(fmt.Sprintf("Requires user level %d, your level is %d", reg.MinLevel, sess.Account.UserLevel))
		resp.Set("challenge", next)
		return resp
	}

	resp := reg.Handler.Execute(ctx, req, sess)
	// The rotated challenge rides on every authenticated response,
	// success or not, unless the handler tore the session down.
	if sess.Challenge == next {
		resp.Set("challenge", next)
	}
	return resp
}

func (d *Dispatcher) dispatchGame(ctx context.Context, req *Request, reg Registration) Response {
	sess, failure := d.lockSession(req, "username")
	if failure != nil {
		return failure
	}
	defer sess.Unlock()

	username := strings.ToLower(req.String("username"))
	sessionID := req.String("sessionid")
	if sessionID == "" {
		return Fail("Missing session ID")
	}

	live, err := d.lobby.GetLiveSession(ctx, username)
	if err != nil || live.SessionID != sessionID {
		return Fail("Invalid game session")
	}

	return reg.Handler.Execute(ctx, req, sess)
}
