package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tavisham/lobbygate/internal/dependencies/mocks"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/services/account"
	"github.com/tavisham/lobbygate/internal/services/auth"
	"github.com/tavisham/lobbygate/internal/session"
	"github.com/tavisham/lobbygate/internal/storage/memory"
	"github.com/tavisham/lobbygate/internal/testutil"
)

type AccountServiceTestSuite struct {
	suite.Suite

	ctx      context.Context
	store    *memory.Storage
	registry *session.Registry
	random   *mocks.MockRandom
	clock    *mocks.MockClock
	service  *account.Service
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.random = mocks.NewMockRandom()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.registry = session.NewRegistry(s.clock)
	s.service = account.New(s.store, s.registry, s.random, s.clock, testutil.NopLogger(), account.Config{
		RegistrationCP:      100,
		RegistrationEnabled: true,
	})
}

func (s *AccountServiceTestSuite) register(username string) *model.Account {
	s.random.QueueString("salt" + username)
	created, err := s.service.Register(s.ctx, username, username+"@x.com", "Passw0rd!")
	s.Require().NoError(err)
	return created
}

func (s *AccountServiceTestSuite) TestRegister() {
	s.random.QueueString("salt000001")
	created, err := s.service.Register(s.ctx, "Alice", "alice@x.com", "Passw0rd!")
	s.Require().NoError(err)

	s.Equal("alice", created.Username)
	s.Equal("alice", created.DisplayName)
	s.Equal("salt000001", created.Salt)
	s.Equal(auth.HashPassword("Passw0rd!", "salt000001"), created.Password)
	s.Equal(int64(100), created.CP)
	s.True(created.Enabled)

	stored, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.Password, stored.Password)
}

func (s *AccountServiceTestSuite) TestRegisterRejectsBadInput() {
	cases := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"short username", "abc", "a@x.com", "Passw0rd!", account.ErrInvalidUsername},
		{"leading digit", "1alice", "a@x.com", "Passw0rd!", account.ErrInvalidUsername},
		{"underscore", "ali_ce", "a@x.com", "Passw0rd!", account.ErrInvalidUsername},
		{"bad email", "carol", "not-an-email", "Passw0rd!", account.ErrInvalidEmail},
		{"named email", "carol", "Carol <carol@x.com>", "Passw0rd!", account.ErrInvalidEmail},
		{"short password", "carol", "carol@x.com", "ab1", account.ErrInvalidPassword},
		{"long password", "carol", "carol@x.com", "abcdefghijklmnopq", account.ErrInvalidPassword},
		{"password space", "carol", "carol@x.com", "pass word", account.ErrInvalidPassword},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.ctx, tc.username, tc.email, tc.password)
			s.ErrorIs(err, tc.want)
		})
	}
}

func (s *AccountServiceTestSuite) TestRegisterDuplicateUsername() {
	s.register("alice")
	s.random.QueueString("saltXXXXXX")
	_, err := s.service.Register(s.ctx, "ALICE", "other@x.com", "Passw0rd!")
	s.ErrorIs(err, model.ErrAccountExists)
}

func (s *AccountServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("alice")
	_, err := s.service.Register(s.ctx, "bobby", "alice@x.com", "Passw0rd!")
	s.ErrorIs(err, model.ErrAccountExists)
}

func (s *AccountServiceTestSuite) TestListOrdersByUsername() {
	s.register("carol")
	s.register("alice")
	s.register("bobby")

	accounts, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(accounts, 3)
	s.Equal("alice", accounts[0].Username)
	s.Equal("bobby", accounts[1].Username)
	s.Equal("carol", accounts[2].Username)
}

func (s *AccountServiceTestSuite) TestChangePasswordInvalidatesSession() {
	created := s.register("alice")
	sess := s.registry.GetOrCreate("alice", "test")
	sess.Username = "alice"
	sess.Challenge = "challenge01"
	sess.Account = created

	s.random.QueueString("newsalt001")
	s.Require().NoError(s.service.ChangePassword(s.ctx, sess, "N3wpass!"))

	stored, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("newsalt001", stored.Salt)
	s.Equal(auth.HashPassword("N3wpass!", "newsalt001"), stored.Password)

	s.Empty(sess.Challenge)
	s.Nil(sess.Account)
	s.Equal("alice", sess.Username)
}

func (s *AccountServiceTestSuite) TestAdminUpdateLevelAndBan() {
	s.register("alice")

	level := 500
	enabled := false
	reason := "abuse"
	initiator := "root"
	updated, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{
		UserLevel:    &level,
		Enabled:      &enabled,
		BanReason:    &reason,
		BanInitiator: &initiator,
	})
	s.Require().NoError(err)
	s.Equal(500, updated.UserLevel)
	s.False(updated.Enabled)
	s.Equal("abuse", updated.BanReason)
	s.Equal("root", updated.BanInitiator)
}

func (s *AccountServiceTestSuite) TestAdminUpdateCP() {
	s.register("alice")

	cp := int64(2500)
	updated, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{CP: &cp})
	s.Require().NoError(err)
	s.Equal(int64(2500), updated.CP)

	stored, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(2500), stored.CP)
}

func (s *AccountServiceTestSuite) TestAdminUpdateLevelBounds() {
	s.register("alice")
	level := model.MaxUserLevel + 1
	_, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{UserLevel: &level})
	s.ErrorIs(err, account.ErrLevelOutOfRange)
}

func (s *AccountServiceTestSuite) TestAdminUpdateRejectedWholeOnBadLevel() {
	s.register("alice")

	name := "Mallory"
	tickets := 99
	level := model.MaxUserLevel + 1
	_, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{
		DisplayName: &name,
		TicketCount: &tickets,
		UserLevel:   &level,
	})
	s.ErrorIs(err, account.ErrLevelOutOfRange)

	// No field of the rejected update may land.
	stored, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", stored.DisplayName)
	s.Equal(0, stored.TicketCount)
	s.Equal(0, stored.UserLevel)
}

func (s *AccountServiceTestSuite) TestAdminUpdateRejectedWholeOnBadPassword() {
	s.register("alice")

	name := "Mallory"
	password := "ab1"
	_, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{
		DisplayName: &name,
		Password:    &password,
	})
	s.ErrorIs(err, account.ErrInvalidPassword)

	stored, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", stored.DisplayName)
	s.Equal("saltalice", stored.Salt)
}

func (s *AccountServiceTestSuite) TestAdminDisableDropsSession() {
	s.register("alice")
	s.registry.GetOrCreate("alice", "test")
	s.Equal(1, s.registry.Len())

	enabled := false
	_, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{Enabled: &enabled})
	s.Require().NoError(err)
	s.Equal(0, s.registry.Len())
}

func (s *AccountServiceTestSuite) TestAdminPasswordResetDropsSession() {
	s.register("alice")
	s.registry.GetOrCreate("alice", "test")

	password := "Res3tme!"
	s.random.QueueString("resetsalt0")
	updated, err := s.service.AdminUpdate(s.ctx, "alice", account.Update{Password: &password})
	s.Require().NoError(err)
	s.Equal(auth.HashPassword("Res3tme!", "resetsalt0"), updated.Password)
	s.Equal(0, s.registry.Len())
}

func (s *AccountServiceTestSuite) TestDelete() {
	s.register("alice")
	s.registry.GetOrCreate("alice", "test")

	s.Require().NoError(s.service.Delete(s.ctx, "alice"))
	_, err := s.store.GetAccount(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAccountNotFound)
	s.Equal(0, s.registry.Len())

	s.ErrorIs(s.service.Delete(s.ctx, "alice"), model.ErrAccountNotFound)
}

func (s *AccountServiceTestSuite) TestOnline() {
	s.Require().NoError(s.store.SaveLiveSession(s.ctx, &model.LiveSession{Username: "carol", PeerID: "world1", ClientID: 7}))
	s.Require().NoError(s.store.SaveLiveSession(s.ctx, &model.LiveSession{Username: "alice", PeerID: "world1", ClientID: 3}))

	online, err := s.service.Online(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(online, 2)
	s.Equal("alice", online[0].Username)
	s.Equal("carol", online[1].Username)
}
