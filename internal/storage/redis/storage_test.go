package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/model"
)

type RedisStorageSuite struct {
	suite.Suite

	ctx    context.Context
	mini   *miniredis.Miniredis
	client *redis.Client
	store  *Storage
}

func TestRedisStorageSuite(t *testing.T) {
	suite.Run(t, new(RedisStorageSuite))
}

func (s *RedisStorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.store = NewWithClient(s.client, DefaultConfig())
}

func (s *RedisStorageSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *RedisStorageSuite) account(username, email string) *model.Account {
	return &model.Account{
		Username:    username,
		DisplayName: username,
		Email:       email,
		CP:          1000,
		Enabled:     true,
	}
}

func (s *RedisStorageSuite) TestAccountRoundTrip() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	got, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal(int64(1000), got.CP)

	byEmail, err := s.store.GetAccountByEmail(s.ctx, "alice@x.com")
	s.Require().NoError(err)
	s.Equal("alice", byEmail.Username)

	listed, err := s.store.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *RedisStorageSuite) TestAccountUniqueness() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	s.ErrorIs(s.store.InsertAccount(s.ctx, s.account("alice", "other@x.com")), model.ErrAccountExists)
	s.ErrorIs(s.store.InsertAccount(s.ctx, s.account("bob", "alice@x.com")), model.ErrAccountExists)
}

func (s *RedisStorageSuite) TestDeleteAccountFreesEmail() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))
	s.Require().NoError(s.store.DeleteAccount(s.ctx, "alice"))

	_, err := s.store.GetAccount(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAccountNotFound)

	s.NoError(s.store.InsertAccount(s.ctx, s.account("bob", "alice@x.com")))
}

func (s *RedisStorageSuite) TestPromosByCode() {
	s.Require().NoError(s.store.InsertPromo(s.ctx, &model.Promo{ID: "p1", Code: "SUMMER"}))
	s.Require().NoError(s.store.InsertPromo(s.ctx, &model.Promo{ID: "p2", Code: "SUMMER"}))
	s.Require().NoError(s.store.InsertPromo(s.ctx, &model.Promo{ID: "p3", Code: "WINTER"}))

	matched, err := s.store.ListPromosByCode(s.ctx, "SUMMER")
	s.Require().NoError(err)
	s.Len(matched, 2)

	removed, err := s.store.DeletePromosByCode(s.ctx, "SUMMER")
	s.Require().NoError(err)
	s.Equal(2, removed)

	remaining, err := s.store.ListPromos(s.ctx)
	s.Require().NoError(err)
	s.Len(remaining, 1)
	s.Equal("WINTER", remaining[0].Code)
}

func (s *RedisStorageSuite) TestLiveDirectory() {
	_, err := s.store.GetLiveSession(s.ctx, "alice")
	s.ErrorIs(err, model.ErrNotLive)

	live := &model.LiveSession{Username: "alice", PeerID: "world1", ClientID: 7}
	s.Require().NoError(s.store.SaveLiveSession(s.ctx, live))

	got, err := s.store.GetLiveSession(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("world1", got.PeerID)

	s.Require().NoError(s.store.DeleteLiveSession(s.ctx, "alice"))
	listed, err := s.store.ListLiveSessions(s.ctx)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *RedisStorageSuite) TestProfileLookup() {
	profile := &model.Profile{CharacterID: "c1", Name: "Ramyrez", Account: "alice", Coins: 50}
	s.Require().NoError(s.store.SaveProfile(s.ctx, profile))

	byName, err := s.store.GetProfileByName(s.ctx, "Ramyrez")
	s.Require().NoError(err)
	s.Equal("c1", byName.CharacterID)
	s.Equal(int64(50), byName.Coins)
}

func (s *RedisStorageSuite) TestGetDoc() {
	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))

	doc, err := s.store.GetDoc(s.ctx, changeset.KindAccount, "alice")
	s.Require().NoError(err)
	s.Equal("alice", doc["username"])
	s.Equal(float64(1000), doc["cp"])
}

func (s *RedisStorageSuite) TestApplyGuardedUpdate() {
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
	s.Require().Len(grants, 1)
	s.Equal(uint32(1101), grants[0].Type)
}

func (s *RedisStorageSuite) TestApplyStaleGuardRollsBack() {
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

// Two stores with different prefixes share one Redis without seeing
// each other's records.
func (s *RedisStorageSuite) TestPrefixIsolation() {
	worldCfg := DefaultConfig()
	worldCfg.KeyPrefix = "world1"
	world := NewWithClient(s.client, worldCfg)

	s.Require().NoError(s.store.InsertAccount(s.ctx, s.account("alice", "alice@x.com")))
	s.Require().NoError(world.SaveProfile(s.ctx, &model.Profile{CharacterID: "c1", Name: "Ramyrez"}))

	_, err := world.GetAccount(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAccountNotFound)

	_, err = s.store.GetProfile(s.ctx, "c1")
	s.ErrorIs(err, model.ErrProfileNotFound)
}
