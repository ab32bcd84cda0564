package handlers

import (
	"context"
	"errors"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/relay"
	"github.com/tavisham/lobbygate/internal/services/account"
	"github.com/tavisham/lobbygate/internal/services/ledger"
	"github.com/tavisham/lobbygate/internal/services/promo"
	"github.com/tavisham/lobbygate/internal/session"
)

// accountPayload renders an account for admin responses. Credentials
// never leave the store.
func accountPayload(a *model.Account) map[string]any {
	return map[string]any{
		"username":        a.Username,
		"display_name":    a.DisplayName,
		"email":           a.Email,
		"cp":              a.CP,
		"ticket_count":    a.TicketCount,
		"user_level":      a.UserLevel,
		"enabled":         a.Enabled,
		"last_login":      a.LastLogin,
		"ban_reason":      a.BanReason,
		"ban_initiator":   a.BanInitiator,
		"character_count": a.CharacterCount(),
	}
}

func (h *handlers) adminGetAccounts(ctx context.Context, _ *command.Request, _ *session.Session) command.Response {
	accounts, err := h.deps.Accounts.List(ctx)
	if err != nil {
		return command.Fail("Could not list accounts")
	}
	payloads := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		payloads = append(payloads, accountPayload(a))
	}
	return command.NewResponse().Set("accounts", payloads)
}

func (h *handlers) adminGetAccount(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	target, err := h.deps.Accounts.Get(ctx, req.String("target_username"))
	if errors.Is(err, model.ErrAccountNotFound) {
		return command.Fail("Account not found")
	}
	if err != nil {
		return command.Fail("Could not load account")
	}
	return command.NewResponse().Set("account", accountPayload(target))
}

func (h *handlers) adminUpdateAccount(ctx context.Context, req *command.Request, sess *session.Session) command.Response {
	var update account.Update
	if req.Has("display_name") {
		value := req.String("display_name")
		update.DisplayName = &value
	}
	if req.Has("password") {
		value := req.String("password")
		update.Password = &value
	}
	if cp, ok := req.Int64("cp"); ok {
		update.CP = &cp
	}
	if tickets, ok := req.Int("ticket_count"); ok {
		update.TicketCount = &tickets
	}
	if level, ok := req.Int("user_level"); ok {
		update.UserLevel = &level
	}
	if enabled, ok := req.Bool("enabled"); ok {
		update.Enabled = &enabled
		if !enabled {
			reason := req.String("ban_reason")
			initiator := sess.Username
			update.BanReason = &reason
			update.BanInitiator = &initiator
		}
	}

	updated, err := h.deps.Accounts.AdminUpdate(ctx, req.String("target_username"), update)
	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		return command.Fail("Account not found")
	case errors.Is(err, account.ErrInvalidPassword):
		return command.Fail("Invalid password")
	case errors.Is(err, account.ErrLevelOutOfRange):
		return command.Fail("User level out of range")
	case errors.Is(err, model.ErrConflict):
		return command.Fail("Balance changed, try again")
	case err != nil:
		return command.Fail("Update failed")
	}

	// A self-targeted update tears down the invoker's own session. The
	// next command runs a fresh handshake against the updated record.
	if updated.Username == sess.Username {
		sess.Invalidate()
	}

	return command.NewResponse().Set("account", accountPayload(updated))
}

func (h *handlers) adminDeleteAccount(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	err := h.deps.Accounts.Delete(ctx, req.String("target_username"))
	if errors.Is(err, model.ErrAccountNotFound) {
		return command.Fail("Account not found")
	}
	if err != nil {
		return command.Fail("Delete failed")
	}
	return command.NewResponse()
}

func (h *handlers) adminKickPlayer(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	target := req.String("target_username")
	severity, ok := req.Int("kicklevel")
	if !ok {
		severity = relay.MinKickSeverity
	}

	delivered, err := h.deps.Relay.NotifyIfLive(ctx, target, relay.KickPayload(target, severity))
	if err != nil {
		return command.Fail("Kick could not be delivered")
	}
	if !delivered {
		return command.Fail("Player is not logged in")
	}
	return command.NewResponse()
}

func (h *handlers) adminMessageWorld(ctx context.Context, req *command.Request, sess *session.Session) command.Response {
	peerID := req.String("peer")
	if peerID == "" {
		return command.Fail("Missing peer")
	}
	message := req.String("message")
	if message == "" {
		return command.Fail("Missing message")
	}
	channel := relay.ChannelConsole
	if req.String("channel") == string(relay.ChannelTicker) {
		channel = relay.ChannelTicker
	}

	err := h.deps.Relay.Broadcast(ctx, peerID, relay.MessagePayload(channel, sess.Account.DisplayName, message))
	if err != nil {
		return command.Fail("Broadcast failed")
	}
	return command.NewResponse()
}

func (h *handlers) adminOnline(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	// With a target, report that one account's live status instead of
	// the full directory.
	if target := req.String("target_username"); target != "" {
		delivered, err := h.deps.Lobby.GetLiveSession(ctx, target)
		if errors.Is(err, model.ErrNotLive) {
			return command.NewResponse().Set("online", false)
		}
		if err != nil {
			return command.Fail("Could not check session")
		}
		return command.NewResponse().
			Set("online", true).
			Set("peer_id", delivered.PeerID).
			Set("character_id", delivered.CharacterID)
	}

	online, err := h.deps.Accounts.Online(ctx)
	if err != nil {
		return command.Fail("Could not list sessions")
	}
	payloads := make([]map[string]any, 0, len(online))
	for _, live := range online {
		payloads = append(payloads, map[string]any{
			"username":     live.Username,
			"peer_id":      live.PeerID,
			"character_id": live.CharacterID,
		})
	}
	return command.NewResponse().
		Set("count", len(online)).
		Set("sessions", payloads)
}

func (h *handlers) adminPostItems(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	items, ok := req.Uint32s("items")
	if !ok {
		return command.Fail("Missing items")
	}
	cost, _ := req.Int64("cp")

	balance, err := h.deps.Ledger.PostItems(ctx, req.String("target_username"), items, cost)
	switch {
	case errors.Is(err, ledger.ErrNotEnough):
		return command.Fail("Not enough CP").Set("cp", balance)
	case errors.Is(err, ledger.ErrNoItems):
		return command.Fail("Between 1 and 100 items required")
	case errors.Is(err, ledger.ErrPostBoxFull):
		return command.Fail("Too many unclaimed items")
	case errors.Is(err, model.ErrAccountNotFound):
		return command.Fail("Account not found")
	case errors.Is(err, model.ErrConflict):
		return command.Fail("Balance changed, try again")
	case err != nil:
		return command.Fail("Posting items failed")
	}
	return command.NewResponse().Set("cp", balance)
}

func promoPayload(p *model.Promo) map[string]any {
	return map[string]any{
		"code":       p.Code,
		"start_time": p.StartTime,
		"end_time":   p.EndTime,
		"use_limit":  p.UseLimit,
		"limit_type": string(p.LimitType),
		"items":      p.Items,
	}
}

func (h *handlers) adminGetPromos(ctx context.Context, _ *command.Request, _ *session.Session) command.Response {
	promos, err := h.deps.Promos.List(ctx)
	if err != nil {
		return command.Fail("Could not list promos")
	}
	payloads := make([]map[string]any, 0, len(promos))
	for _, p := range promos {
		payloads = append(payloads, promoPayload(p))
	}
	return command.NewResponse().Set("promos", payloads)
}

func (h *handlers) adminCreatePromo(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	start, _ := req.Int64("start_time")
	end, _ := req.Int64("end_time")
	useLimit, _ := req.Int("use_limit")
	items, _ := req.Uint32s("items")

	candidate := &model.Promo{
		Code:      req.String("code"),
		StartTime: start,
		EndTime:   end,
		UseLimit:  useLimit,
		LimitType: model.PromoLimitType(req.String("limit_type")),
		Items:     items,
	}

	duplicate, err := h.deps.Promos.Create(ctx, candidate)
	switch {
	case errors.Is(err, promo.ErrEmptyCode):
		return command.Fail("Promo code required")
	case errors.Is(err, promo.ErrBadWindow):
		return command.Fail("Promo window end must be after start")
	case errors.Is(err, promo.ErrBadUseLimit):
		return command.Fail("Promo use limit must be positive")
	case errors.Is(err, promo.ErrBadLimitType):
		return command.Fail("Unknown promo limit type")
	case errors.Is(err, promo.ErrNoPromoItems):
		return command.Fail("Promo needs at least one item")
	case err != nil:
		return command.Fail("Promo creation failed")
	}

	resp := command.NewResponse()
	if duplicate {
		resp.Set("notice", "A promo with this code already exists")
	}
	return resp
}

func (h *handlers) adminDeletePromo(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	removed, err := h.deps.Promos.DeleteByCode(ctx, req.String("code"))
	if errors.Is(err, promo.ErrPromoNotFound) {
		return command.Fail("No promos with that code")
	}
	if err != nil {
		return command.Fail("Promo deletion failed")
	}
	return command.NewResponse().Set("deleted", removed)
}
