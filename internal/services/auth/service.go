// Package auth implements the challenge-response handshake gating all
// non-anonymous commands.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/session"
	"github.com/tavisham/lobbygate/internal/storage"
)

var (
	// ErrInvalidCredentials covers unknown accounts, disabled accounts
	// and wrong challenge answers alike, so callers cannot probe which
	// of the three happened.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotChallenged means the session holds no outstanding
	// challenge; the caller must restart the handshake.
	ErrNotChallenged = errors.New("no outstanding challenge")
)

const (
	// ChallengeLength is the fixed length of issued challenges.
	ChallengeLength = 10

	challengeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Service issues challenges and verifies their answers. All methods
// expect the caller to hold the session's execution lock.
type Service struct {
	store  storage.Store
	random random.Random
}

// New creates the auth service.
func New(store storage.Store, rng random.Random) *Service {
	return &Service{store: store, random: rng}
}

// Challenge starts (or restarts) the handshake for a username. It binds
// the lowercased username and a fresh challenge to the session and
// returns the challenge together with the account's password salt. The
// stored password hash is never returned.
func (s *Service) Challenge(ctx context.Context, sess *session.Session, username string) (challenge, salt string, err error) {
	username = strings.ToLower(username)

	account, err := s.store.GetAccount(ctx, username)
	if errors.Is(err, model.ErrAccountNotFound) {
		sess.Reset()
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("loading account: %w", err)
	}
	if !account.Enabled {
		sess.Reset()
		return "", "", ErrInvalidCredentials
	}

	challenge = s.random.String(ChallengeLength, challengeAlphabet)
	sess.Username = username
	sess.Account = account
	sess.Challenge = challenge
	return challenge, account.Salt, nil
}

// Verify checks the answer to the session's outstanding challenge,
// refreshes the loaded account, and rotates to a new challenge. The
// returned challenge must be carried forward by the caller's next
// request. A wrong answer invalidates the session.
func (s *Service) Verify(ctx context.Context, sess *session.Session, answer string) (next string, err error) {
	if sess.Username == "" || sess.Challenge == "" {
		return "", ErrNotChallenged
	}

	account, err := s.store.GetAccount(ctx, sess.Username)
	if errors.Is(err, model.ErrAccountNotFound) {
		sess.Reset()
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("loading account: %w", err)
	}
	if !account.Enabled {
		sess.Reset()
		return "", ErrInvalidCredentials
	}

	if !VerifyAnswer(account.Password, sess.Challenge, answer) {
		sess.Invalidate()
		return "", ErrInvalidCredentials
	}

	next = s.random.String(ChallengeLength, challengeAlphabet)
	sess.Account = account
	sess.Challenge = next
	return next, nil
}
