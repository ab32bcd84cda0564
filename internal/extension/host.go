// Package extension runs account- and game-linked Lua programs with a
// fixed, narrow host binding surface. Programs never touch stores or
// peers directly; everything goes through the bound api table.
package extension

import (
	"context"
	"fmt"

	lua "github.com/Shopify/go-lua"

	"github.com/tavisham/lobbygate/internal/changeset"
)

// StoreReader is the read-only store surface exposed to programs.
type StoreReader interface {
	GetDoc(ctx context.Context, kind changeset.Kind, key string) (changeset.Doc, error)
}

// Env supplies the host callbacks a program may invoke. The coin
// callbacks are nil for plain (account-linked) programs; only a
// game-linked host may touch the ledger.
type Env struct {
	// Now returns the current wall-clock unix timestamp.
	Now func() int64

	// Store resolves "lobby" or a peer ID to a store handle. Unknown
	// names resolve to nil.
	Store func(name string) StoreReader

	// GetResponse and SetResponse read and write fields of the
	// current call's response container.
	GetResponse func(key string) string
	SetResponse func(key, value string)

	// GetCoins returns the linked character's coin balance.
	GetCoins func(ctx context.Context) (int64, bool)

	// UpdateCoins sets or adjusts the balance (clamped at zero) and
	// reports whether the guarded write committed.
	UpdateCoins func(ctx context.Context, value int64, adjust bool) bool
}

// Host is one Lua VM bound to an Env. Account-linked programs get a
// fresh host per call; a game-linked host lives as long as the game.
type Host struct {
	state *lua.State
	env   Env
	ctx   context.Context
}

// NewHost creates a host with the standard libraries opened and the
// api binding table registered.
func NewHost(env Env) *Host {
	h := &Host{
		state: lua.NewState(),
		env:   env,
		ctx:   context.Background(),
	}
	lua.OpenLibraries(h.state)
	h.register()
	return h
}

// Eval loads and runs a program's source, defining its functions.
func (h *Host) Eval(source, name string) error {
	if err := lua.DoString(h.state, source); err != nil {
		return fmt.Errorf("eval %s: %w", name, err)
	}
	return nil
}

// CallPrepare invokes the program's prepare function with the method
// name being dispatched.
func (h *Host) CallPrepare(ctx context.Context, method string) error {
	return h.call(ctx, "prepare", func(l *lua.State) int {
		l.PushString(method)
		return 1
	})
}

// CallStart invokes a game program's start function with the character
// name and current coin balance.
func (h *Host) CallStart(ctx context.Context, name string, coins int64) error {
	return h.call(ctx, "start", func(l *lua.State) int {
		l.PushString(name)
		l.PushInteger(int(coins))
		return 2
	})
}

// CallMethod invokes a named program function with the request's
// generic parameter table.
func (h *Host) CallMethod(ctx context.Context, name string, params map[string]string) error {
	return h.call(ctx, name, func(l *lua.State) int {
		l.NewTable()
		for key, value := range params {
			l.PushString(value)
			l.SetField(-2, key)
		}
		return 1
	})
}

// HasFunction reports whether the program defines a global function.
func (h *Host) HasFunction(name string) bool {
	h.state.Global(name)
	defined := h.state.TypeOf(-1) == lua.TypeFunction
	h.state.Pop(1)
	return defined
}

// call invokes a global function. The function must exist and return
// the integer zero; anything else is a program failure.
func (h *Host) call(ctx context.Context, name string, push func(*lua.State) int) error {
	h.ctx = ctx
	defer func() { h.ctx = context.Background() }()

	h.state.Global(name)
	if h.state.TypeOf(-1) != lua.TypeFunction {
		h.state.Pop(1)
		return fmt.Errorf("program has no function %q", name)
	}

	args := push(h.state)
	if err := h.state.ProtectedCall(args, 1, 0); err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}

	rc, ok := h.state.ToInteger(-1)
	h.state.Pop(1)
	if !ok || rc != 0 {
		return fmt.Errorf("call %s: program signalled failure", name)
	}
	return nil
}
