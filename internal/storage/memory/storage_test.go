package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/model"
)

type MemoryStorageSuite struct {
	suite.Suite

	ctx   context.Context
	store *Storage
}

func TestMemoryStorageSuite(t *testing.T) {
	suite.Run(t, new(MemoryStorageSuite))
}

func (s *MemoryStorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New()
}

func (s *MemoryStorageSuite) account(username, email string) *model.Account {
	return &model.Account{
		Username:    username,
		DisplayName: username,
		Email:       email,
		CP:          1000,
		Enabled:     true,
	}
}

func (s *MemoryStorageSuite) TestAccountRoundTrip() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	got, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal(int64(1000), got.CP)

	byEmail, err := s.store.GetAccountByEmail(s.ctx, "ALICE@X.COM")
	s.Require().NoError(err)
	s.Equal("alice", byEmail.Username)
}

func (s *MemoryStorageSuite) TestAccountRecordsAreCopies() {
	inserted := s.account("alice", "alice@x.com")
	s.Require().NoError(s.store.InsertAccount(s.ctx, inserted))

	// Mutating the caller's record or a read result must not leak into
	// the store; only UpdateAccount commits changes.
	inserted.DisplayName = "Mallory"

	got, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.DisplayName)

	got.CP = 9999
	got.Characters = append(got.Characters, "c1")

	again, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(1000), again.CP)
	s.Empty(again.Characters)
}

func (s *MemoryStorageSuite) TestAccountUniqueness() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	err := s.store.InsertAccount(s.ctx, s.account("alice", "other@x.com"))
	s.ErrorIs(err, model.ErrAccountExists)

	err = s.store.InsertAccount(s.ctx, s.account("bob", "alice@x.com"))
	s.ErrorIs(err, model.ErrAccountExists)
}

func (s *MemoryStorageSuite) TestUpdateAccountReindexesEmail() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	updated := s.account("alice", "new@x.com")
	s.Require().NoError(s.store.UpdateAccount(s.ctx, updated))

	_, err := s.store.GetAccountByEmail(s.ctx, "alice@x.com")
	s.ErrorIs(err, model.ErrAccountNotFound)

	got, err := s.store.GetAccountByEmail(s.ctx, "new@x.com")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
}

func (s *MemoryStorageSuite) TestDeleteAccountFreesEmail() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))
	s.Require().NoError(s.store.DeleteAccount(s.ctx, "alice"))

	_, err := s.store.GetAccount(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAccountNotFound)

	s.NoError(s.store.InsertAccount(s.ctx, s.account("bob", "alice@x.com")))
}

func (s *MemoryStorageSuite) TestPromosByCode() {
	s.Require().NoError(s.store.InsertPromo(s.ctx, &model.Promo{ID: "p1", Code: "SUMMER"}))
	s.Require().NoError(s.store.InsertPromo(s.ctx, &model.Promo{ID: "p2", Code: "SUMMER"}))
	s.Require().NoError(s.store.InsertPromo(s.ctx, &model.Promo{ID: "p3", Code: "WINTER"}))

	all, err := s.store.ListPromos(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	matched, err := s.store.ListPromosByCode(s.ctx, "SUMMER")
	s.Require().NoError(err)
	s.Len(matched, 2)

	removed, err := s.store.DeletePromosByCode(s.ctx, "SUMMER")
	s.Require().NoError(err)
	s.Equal(2, removed)

	remaining, err := s.store.ListPromos(s.ctx)
	s.Require().NoError(err)
	s.Len(remaining, 1)
}

func (s *MemoryStorageSuite) TestLiveDirectory() {
	_, err := s.store.GetLiveSession(s.ctx, "alice")
	s.ErrorIs(err, model.ErrNotLive)

	live := &model.LiveSession{Username: "alice", PeerID: "world1", ClientID: 7}
	s.Require().NoError(s.store.SaveLiveSession(s.ctx, live))

	got, err := s.store.GetLiveSession(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int32(7), got.ClientID)

	listed, err := s.store.ListLiveSessions(s.ctx)
	s.Require().NoError(err)
	s.Len(listed, 1)

	s.Require().NoError(s.store.DeleteLiveSession(s.ctx, "alice"))
	_, err = s.store.GetLiveSession(s.ctx, "alice")
	s.ErrorIs(err, model.ErrNotLive)
}

func (s *MemoryStorageSuite) TestProfileLookup() {
	profile := &model.Profile{CharacterID: "c1", Name: "Ramyrez", Account: "alice", Coins: 50}
	s.Require().NoError(s.store.SaveProfile(s.ctx, profile))

	byID, err := s.store.GetProfile(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(int64(50), byID.Coins)

	byName, err := s.store.GetProfileByName(s.ctx, "Ramyrez")
	s.Require().NoError(err)
	s.Equal("c1", byName.CharacterID)

	_, err = s.store.GetProfile(s.ctx, "nope")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *MemoryStorageSuite) TestGetDoc() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	doc, err := s.store.GetDoc(s.ctx, changeset.KindAccount, "alice")
	s.Require().NoError(err)
	s.Equal("alice", doc["username"])
	s.Equal(float64(1000), doc["cp"])
}

func (s *MemoryStorageSuite) TestApplyGuardedUpdate() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	cs := changeset.New().
		Update(changeset.KindAccount, "alice", "cp", int64(700), int64(1000)).
		Insert(changeset.KindGrant, "g1", &model.GrantItem{ID: "g1", Type: 1101, Account: "alice"})
	s.Require().NoError(s.store.Apply(s.ctx, cs))

	got, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(700), got.CP)

	grants, err := s.store.ListGrants(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(grants, 1)
}

func (s *MemoryStorageSuite) TestApplyStaleGuardRollsBack() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	cs := changeset.New().
		Update(changeset.KindAccount, "alice", "cp", int64(700), int64(999)).
		Insert(changeset.KindGrant, "g1", &model.GrantItem{ID: "g1", Type: 1101, Account: "alice"})
	s.ErrorIs(s.store.Apply(s.ctx, cs), model.ErrConflict)

	got, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(1000), got.CP)

	grants, err := s.store.ListGrants(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(grants)
}

func (s *MemoryStorageSuite) TestApplyUnknownRecord() {
	cs := changeset.New().Update(changeset.KindAccount, "ghost", "cp", int64(1), int64(0))
	s.ErrorIs(s.store.Apply(s.ctx, cs), model.ErrAccountNotFound)
}
