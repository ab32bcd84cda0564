// Package account implements registration, self-service account
// commands and the admin account surface.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/dependencies/clock"
	"github.com/tavisham/lobbygate/internal/dependencies/random"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/services/auth"
	"github.com/tavisham/lobbygate/internal/session"
	"github.com/tavisham/lobbygate/internal/storage"
)

// ErrLevelOutOfRange rejects admin level updates outside [0, MaxUserLevel].
var ErrLevelOutOfRange = errors.New("user level out of range")

// Config carries the defaults stamped onto newly registered accounts.
type Config struct {
	RegistrationCP          int64
	RegistrationTicketCount int
	RegistrationUserLevel   int
	RegistrationEnabled     bool
}

// DefaultConfig returns the registration defaults.
func DefaultConfig() Config {
	return Config{RegistrationEnabled: true}
}

// Service owns account lifecycle operations against the lobby store.
type Service struct {
	store    storage.Store
	registry *session.Registry
	random   random.Random
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// New creates the account service.
func New(store storage.Store, registry *session.Registry, rng random.Random, clk clock.Clock, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		store:    store,
		registry: registry,
		random:   rng,
		clock:    clk,
		logger:   logger,
		cfg:      cfg,
	}
}

// Register validates and creates a new account. The username is
// canonicalized to lowercase; username and email must both be unused.
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.Account, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return nil, model.ErrAccountExists
	} else if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	salt := auth.NewSalt(s.random)
	account := &model.Account{
		Username:    username,
		DisplayName: username,
		Email:       email,
		Password:    auth.HashPassword(password, salt),
		Salt:        salt,
		CP:          s.cfg.RegistrationCP,
		TicketCount: s.cfg.RegistrationTicketCount,
		UserLevel:   s.cfg.RegistrationUserLevel,
		Enabled:     s.cfg.RegistrationEnabled,
	}

	if err := s.store.InsertAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "username", username)
	return account, nil
}

// Get returns one account by username.
func (s *Service) Get(ctx context.Context, username string) (*model.Account, error) {
	return s.store.GetAccount(ctx, username)
}

// List returns all accounts ordered by username.
func (s *Service) List(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Username < accounts[j].Username
	})
	return accounts, nil
}

// ChangePassword rehashes the session's account password with a fresh
// salt and invalidates the session, forcing a new handshake against
// the new credential.
func (s *Service) ChangePassword(ctx context.Context, sess *session.Session, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	account, err := s.store.GetAccount(ctx, sess.Username)
	if err != nil {
		return err
	}

	account.Salt = auth.NewSalt(s.random)
	account.Password = auth.HashPassword(password, account.Salt)
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return err
	}

	s.registry.Invalidate(sess)
	s.logger.Info("password changed", "username", account.Username)
	return nil
}

// Update describes an admin account mutation; nil fields are left
// untouched.
type Update struct {
	DisplayName  *string
	Password     *string
	CP           *int64
	TicketCount  *int
	UserLevel    *int
	Enabled      *bool
	BanReason    *string
	BanInitiator *string
}

// AdminUpdate applies an admin mutation to an account. Disabling an
// account drops its command session; a password reset invalidates it.
func (s *Service) AdminUpdate(ctx context.Context, username string, update Update) (*model.Account, error) {
	// Reject the whole update before touching any field, so a bad
	// password or level leaves no partial writes behind.
	if update.Password != nil {
		if err := ValidatePassword(*update.Password); err != nil {
			return nil, err
		}
	}
	if update.UserLevel != nil {
		if *update.UserLevel < 0 || *update.UserLevel > model.MaxUserLevel {
			return nil, ErrLevelOutOfRange
		}
	}

	account, err := s.store.GetAccount(ctx, username)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		account.DisplayName = *update.DisplayName
	}
	if update.Password != nil {
		account.Salt = auth.NewSalt(s.random)
		account.Password = auth.HashPassword(*update.Password, account.Salt)
	}
	if update.TicketCount != nil {
		account.TicketCount = *update.TicketCount
	}
	if update.UserLevel != nil {
		account.UserLevel = *update.UserLevel
	}
	if update.Enabled != nil {
		account.Enabled = *update.Enabled
	}
	if update.BanReason != nil {
		account.BanReason = *update.BanReason
	}
	if update.BanInitiator != nil {
		account.BanInitiator = *update.BanInitiator
	}

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}

	// CP goes through a guarded changeset, not the whole-record write,
	// so a concurrent purchase surfaces as a conflict instead of being
	// silently overwritten.
	if update.CP != nil {
		cs := changeset.New().
			Update(changeset.KindAccount, account.Username, "cp", *update.CP, account.CP)
		if err := s.store.Apply(ctx, cs); err != nil {
			return nil, err
		}
		account.CP = *update.CP
	}

	switch {
	case update.Enabled != nil && !*update.Enabled:
		s.registry.Drop(account.Username)
	case update.Password != nil:
		s.registry.Drop(account.Username)
	}

	s.logger.Info("account updated", "username", account.Username)
	return account, nil
}

// Delete removes an account and drops its session.
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.store.DeleteAccount(ctx, username); err != nil {
		return err
	}
	s.registry.Drop(username)
	s.logger.Info("account deleted", "username", username)
	return nil
}

// Online lists the live gameplay sessions peers have registered,
// ordered by username.
func (s *Service) Online(ctx context.Context) ([]*model.LiveSession, error) {
	sessions, err := s.store.ListLiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Username < sessions[j].Username
	})
	return sessions, nil
}
