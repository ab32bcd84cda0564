// Package redis provides a Redis-backed implementation of the storage
// interface. Records are JSON blobs; changesets commit through a
// WATCH/MULTI transaction so the expected-value guards hold under
// concurrent writers.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Account operations

func (s *Storage) InsertAccount(ctx context.Context, account *model.Account) error {
	usernameTaken, err := s.client.Exists(ctx, s.accountKey(account.Username)).Result()
	if err != nil {
		return err
	}
	emailTaken, err := s.client.Exists(ctx, s.emailIndexKey(account.Email)).Result()
	if err != nil {
		return err
	}
	if usernameTaken > 0 || emailTaken > 0 {
		return model.ErrAccountExists
	}

	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.accountKey(account.Username), data, 0)
	pipe.Set(ctx, s.emailIndexKey(account.Email), account.Username, 0)
	pipe.SAdd(ctx, s.accountSetKey(), account.Username)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	data, err := s.client.Get(ctx, s.accountKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	username, err := s.client.Get(ctx, s.emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	return s.GetAccount(ctx, username)
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	usernames, err := s.client.SMembers(ctx, s.accountSetKey()).Result()
	if err != nil {
		return nil, err
	}

	accounts := make([]*model.Account, 0, len(usernames))
	for _, username := range usernames {
		account, err := s.GetAccount(ctx, username)
		if errors.Is(err, model.ErrAccountNotFound) {
			// Deleted between SMEMBERS and GET
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (s *Storage) UpdateAccount(ctx context.Context, account *model.Account) error {
	old, err := s.GetAccount(ctx, account.Username)
	if err != nil {
		return err
	}

	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	if old.Email != account.Email {
		pipe.Del(ctx, s.emailIndexKey(old.Email))
		pipe.Set(ctx, s.emailIndexKey(account.Email), account.Username, 0)
	}
	pipe.Set(ctx, s.accountKey(account.Username), data, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteAccount(ctx context.Context, username string) error {
	account, err := s.GetAccount(ctx, username)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.accountKey(username))
	pipe.Del(ctx, s.emailIndexKey(account.Email))
	pipe.SRem(ctx, s.accountSetKey(), username)
	_, err = pipe.Exec(ctx)
	return err
}

// Promo operations

func (s *Storage) InsertPromo(ctx context.Context, promo *model.Promo) error {
	data, err := json.Marshal(promo)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.promoKey(promo.ID), data, 0)
	pipe.SAdd(ctx, s.promoSetKey(), promo.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListPromos(ctx context.Context) ([]*model.Promo, error) {
	ids, err := s.client.SMembers(ctx, s.promoSetKey()).Result()
	if err != nil {
		return nil, err
	}

	promos := make([]*model.Promo, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.promoKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var promo model.Promo
		if err := json.Unmarshal(data, &promo); err != nil {
			return nil, err
		}
		promos = append(promos, &promo)
	}
	return promos, nil
}

func (s *Storage) ListPromosByCode(ctx context.Context, code string) ([]*model.Promo, error) {
	promos, err := s.ListPromos(ctx)
	if err != nil {
		return nil, err
	}
	matched := promos[:0]
	for _, promo := range promos {
		if promo.Code == code {
			matched = append(matched, promo)
		}
	}
	return matched, nil
}

func (s *Storage) DeletePromosByCode(ctx context.Context, code string) (int, error) {
	matched, err := s.ListPromosByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, promo := range matched {
		pipe.Del(ctx, s.promoKey(promo.ID))
		pipe.SRem(ctx, s.promoSetKey(), promo.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Grant item operations

func (s *Storage) ListGrants(ctx context.Context, account string) ([]*model.GrantItem, error) {
	ids, err := s.client.SMembers(ctx, s.grantSetKey(account)).Result()
	if err != nil {
		return nil, err
	}

	grants := make([]*model.GrantItem, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.grantKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var grant model.GrantItem
		if err := json.Unmarshal(data, &grant); err != nil {
			return nil, err
		}
		grants = append(grants, &grant)
	}
	return grants, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.profileKey(profile.CharacterID), data, 0)
	pipe.Set(ctx, s.profileNameKey(profile.Name), profile.CharacterID, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, characterID string) (*model.Profile, error) {
	data, err := s.client.Get(ctx, s.profileKey(characterID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Storage) GetProfileByName(ctx context.Context, name string) (*model.Profile, error) {
	characterID, err := s.client.Get(ctx, s.profileNameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	return s.GetProfile(ctx, characterID)
}

// Live session directory

func (s *Storage) SaveLiveSession(ctx context.Context, live *model.LiveSession) error {
	data, err := json.Marshal(live)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.liveKey(live.Username), data, 0)
	pipe.SAdd(ctx, s.liveSetKey(), live.Username)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLiveSession(ctx context.Context, username string) (*model.LiveSession, error) {
	data, err := s.client.Get(ctx, s.liveKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotLive
		}
		return nil, err
	}

	var live model.LiveSession
	if err := json.Unmarshal(data, &live); err != nil {
		return nil, err
	}
	return &live, nil
}

func (s *Storage) DeleteLiveSession(ctx context.Context, username string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.liveKey(username))
	pipe.SRem(ctx, s.liveSetKey(), username)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListLiveSessions(ctx context.Context) ([]*model.LiveSession, error) {
	usernames, err := s.client.SMembers(ctx, s.liveSetKey()).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.LiveSession, 0, len(usernames))
	for _, username := range usernames {
		live, err := s.GetLiveSession(ctx, username)
		if errors.Is(err, model.ErrNotLive) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, live)
	}
	return sessions, nil
}

// Doc and changeset operations

func (s *Storage) GetDoc(ctx context.Context, kind changeset.Kind, key string) (changeset.Doc, error) {
	data, err := s.client.Get(ctx, s.recordKey(kind, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFoundFor(kind)
		}
		return nil, err
	}

	var doc changeset.Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Apply commits a changeset under WATCH: the touched records are read,
// every guard is verified against the live value, and the writes go
// through MULTI/EXEC. A concurrent write to any watched key aborts the
// transaction, which surfaces as model.ErrConflict.
func (s *Storage) Apply(ctx context.Context, cs *changeset.Changeset) error {
	if cs.Empty() {
		return nil
	}

	targets := cs.Keys()
	watch := make([]string, len(targets))
	for i, t := range targets {
		watch[i] = s.recordKey(t.Kind, t.Key)
	}

	txf := func(tx *redis.Tx) error {
		docs := make(map[string]changeset.Doc, len(targets))
		for i, t := range targets {
			data, err := tx.Get(ctx, watch[i]).Bytes()
			if errors.Is(err, redis.Nil) {
				return notFoundFor(t.Kind)
			}
			if err != nil {
				return err
			}
			var doc changeset.Doc
			if err := json.Unmarshal(data, &doc); err != nil {
				return err
			}
			docs[watch[i]] = doc
		}

		for _, u := range cs.Updates {
			if err := changeset.ApplyUpdate(docs[s.recordKey(u.Kind, u.Key)], u); err != nil {
				return err
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, doc := range docs {
				data, err := json.Marshal(doc)
				if err != nil {
					return err
				}
				pipe.Set(ctx, key, data, 0)
			}
			for _, ins := range cs.Inserts {
				data, err := json.Marshal(ins.Record)
				if err != nil {
					return err
				}
				pipe.Set(ctx, s.recordKey(ins.Kind, ins.Key), data, 0)
				s.indexInsert(ctx, pipe, ins)
			}
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, watch...)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent modification", model.ErrConflict)
	}
	return err
}

// indexInsert maintains the secondary indexes for inserted records.
func (s *Storage) indexInsert(ctx context.Context, pipe redis.Pipeliner, ins changeset.Insert) {
	switch ins.Kind {
	case changeset.KindGrant:
		if grant, ok := ins.Record.(*model.GrantItem); ok {
			pipe.SAdd(ctx, s.grantSetKey(grant.Account), grant.ID)
		}
	case changeset.KindPromo:
		pipe.SAdd(ctx, s.promoSetKey(), ins.Key)
	case changeset.KindProfile:
		if profile, ok := ins.Record.(*model.Profile); ok {
			pipe.Set(ctx, s.profileNameKey(profile.Name), profile.CharacterID, 0)
		}
	case changeset.KindAccount:
		if account, ok := ins.Record.(*model.Account); ok {
			pipe.SAdd(ctx, s.accountSetKey(), account.Username)
			pipe.Set(ctx, s.emailIndexKey(account.Email), account.Username, 0)
		}
	}
}

func notFoundFor(kind changeset.Kind) error {
	switch kind {
	case changeset.KindAccount:
		return model.ErrAccountNotFound
	case changeset.KindProfile:
		return model.ErrProfileNotFound
	}
	return model.ErrConflict
}
