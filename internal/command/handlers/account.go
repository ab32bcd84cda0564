package handlers

import (
	"context"
	"errors"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/services/account"
	"github.com/tavisham/lobbygate/internal/session"
)

// getChallenge starts the handshake. The failure message is identical
// for unknown and disabled accounts.
func (h *handlers) getChallenge(ctx context.Context, req *command.Request, sess *session.Session) command.Response {
	challenge, salt, err := h.deps.Auth.Challenge(ctx, sess, req.String("username"))
	if err != nil {
		return command.Fail("Invalid username or password")
	}
	return command.NewResponse().
		Set("challenge", challenge).
		Set("salt", salt)
}

func (h *handlers) register(ctx context.Context, req *command.Request, _ *session.Session) command.Response {
	created, err := h.deps.Accounts.Register(ctx,
		req.String("username"),
		req.String("email"),
		req.String("password"))
	switch {
	case errors.Is(err, account.ErrInvalidUsername):
		return command.Fail("Invalid username")
	case errors.Is(err, account.ErrInvalidEmail):
		return command.Fail("Invalid email address")
	case errors.Is(err, account.ErrInvalidPassword):
		return command.Fail("Invalid password")
	case errors.Is(err, model.ErrAccountExists):
		return command.Fail("Account already exists")
	case err != nil:
		return command.Fail("Registration failed")
	}
	return command.NewResponse().Set("username", created.Username)
}

func (h *handlers) getCP(_ context.Context, _ *command.Request, sess *session.Session) command.Response {
	return command.NewResponse().Set("cp", sess.Account.CP)
}

func (h *handlers) getDetails(_ context.Context, _ *command.Request, sess *session.Session) command.Response {
	return command.NewResponse().
		Set("username", sess.Account.Username).
		Set("display_name", sess.Account.DisplayName).
		Set("email", sess.Account.Email).
		Set("cp", sess.Account.CP).
		Set("ticket_count", sess.Account.TicketCount).
		Set("user_level", sess.Account.UserLevel).
		Set("enabled", sess.Account.Enabled).
		Set("last_login", sess.Account.LastLogin).
		Set("character_count", sess.Account.CharacterCount()).
		Set("character_slots", model.MaxCharacterSlots)
}

// changePassword rehashes the credential and tears the session down;
// the caller must run the handshake again, so no rotated challenge is
// attached to the response.
func (h *handlers) changePassword(ctx context.Context, req *command.Request, sess *session.Session) command.Response {
	err := h.deps.Accounts.ChangePassword(ctx, sess, req.String("password"))
	switch {
	case errors.Is(err, account.ErrInvalidPassword):
		return command.Fail("Invalid password")
	case err != nil:
		return command.Fail("Password change failed")
	}
	return command.NewResponse()
}
