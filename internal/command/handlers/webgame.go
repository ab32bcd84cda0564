package handlers

import (
	"context"
	"strings"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/extension"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/session"
)

// liveEntry resolves the directory entry the dispatcher already
// validated against the request's session ID.
func (h *handlers) liveEntry(ctx context.Context, req *command.Request) (*model.LiveSession, command.Response) {
	username := strings.ToLower(req.String("username"))
	live, err := h.deps.Lobby.GetLiveSession(ctx, username)
	if err != nil {
		return nil, command.Fail("Invalid game session")
	}
	return live, nil
}

// gameStart evaluates a web game program once and binds its state to
// the session. The program's start function receives the character
// name and opening coin balance.
func (h *handlers) gameStart(ctx context.Context, req *command.Request, sess *session.Session) command.Response {
	live, failure := h.liveEntry(ctx, req)
	if failure != nil {
		return failure
	}

	name := req.String("name")
	source, ok := h.deps.WebGames.Source(name)
	if !ok {
		return command.Fail("Unknown web game")
	}

	peerStore, ok := h.deps.Peers[live.PeerID]
	if !ok {
		return command.Fail("Peer unavailable")
	}
	profile, err := peerStore.GetProfile(ctx, live.CharacterID)
	if err != nil {
		return command.Fail("Character not found")
	}

	buffer := extension.NewResponseBuffer()
	host := extension.NewHost(extension.Env{
		Now: func() int64 { return h.deps.Clock.Now().Unix() },
		Store: func(storeName string) extension.StoreReader {
			return resolveStore(&h.deps, storeName)
		},
		GetResponse: buffer.Get,
		SetResponse: buffer.Set,
		GetCoins: func(ctx context.Context) (int64, bool) {
			coins, err := h.deps.Ledger.GetCoins(ctx, live.PeerID, live.CharacterID)
			if err != nil {
				return 0, false
			}
			return coins, true
		},
		UpdateCoins: func(ctx context.Context, value int64, adjust bool) bool {
			_, err := h.deps.Ledger.UpdateCoins(ctx, live.PeerID, live.CharacterID, value, adjust)
			return err == nil
		},
	})

	if err := host.Eval(source, name); err != nil {
		h.deps.Logger.Error("web game load failed", "game", name, "error", err)
		return command.Fail("Web game failed")
	}
	if err := host.CallStart(ctx, profile.Name, profile.Coins); err != nil {
		h.deps.Logger.Error("web game start failed", "game", name, "error", err)
		return command.Fail("Web game failed")
	}

	sess.Game = &session.GameLink{
		PeerID:      live.PeerID,
		CharacterID: live.CharacterID,
		ClientID:    live.ClientID,
		SessionID:   live.SessionID,
		Host:        host,
		Buffer:      buffer,
	}

	resp := command.NewResponse().Set("coins", profile.Coins)
	for key, value := range buffer.Drain() {
		resp.Set(key, value)
	}
	return resp
}

// gameUpdate dispatches one action into the session's running game.
func (h *handlers) gameUpdate(ctx context.Context, req *command.Request, sess *session.Session) command.Response {
	if sess.Game == nil {
		return command.Fail("No game in progress")
	}
	if sess.Game.SessionID != req.String("sessionid") {
		return command.Fail("Invalid game session")
	}

	action := req.String("action")
	if action == "" {
		return command.Fail("Missing action")
	}

	params := req.Params("action", "sessionid", "username", "session_username", "challenge")
	if err := sess.Game.Host.CallMethod(ctx, action, params); err != nil {
		h.deps.Logger.Error("web game action failed", "action", action, "error", err)
		return command.Fail("Web game failed")
	}

	resp := command.NewResponse()
	for key, value := range sess.Game.Buffer.Drain() {
		resp.Set(key, value)
	}
	return resp
}

func (h *handlers) gameGetCoins(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	live, failure := h.liveEntry(ctx, req)
	if failure != nil {
		return failure
	}
	coins, err := h.deps.Ledger.GetCoins(ctx, live.PeerID, live.CharacterID)
	if err != nil {
		return command.Fail("Character not found")
	}
	return command.NewResponse().Set("coins", coins)
}
