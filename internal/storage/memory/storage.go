// Package memory provides an in-memory implementation of the storage
// interface, used for tests and single-process development setups.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/model"
	"github.com/tavisham/lobbygate/internal/storage"
)

// Storage is an in-memory implementation of the storage interface. One
// mutex guards everything, which also makes Apply trivially atomic.
type Storage struct {
	mu sync.RWMutex

	accounts   map[string]*model.Account
	emailIndex map[string]string
	promos     map[string]*model.Promo
	grants     map[string]*model.GrantItem
	profiles   map[string]*model.Profile
	nameIndex  map[string]string
	live       map[string]*model.LiveSession
}

// New creates a new in-memory storage instance.
func New() *Storage {
	return &Storage{
		accounts:   make(map[string]*model.Account),
		emailIndex: make(map[string]string),
		promos:     make(map[string]*model.Promo),
		grants:     make(map[string]*model.GrantItem),
		profiles:   make(map[string]*model.Profile),
		nameIndex:  make(map[string]string),
		live:       make(map[string]*model.LiveSession),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Close is a no-op for the in-memory store.
func (s *Storage) Close() error {
	return nil
}

// Account operations

// Account records cross the API boundary by copy, matching the redis
// driver's decode. Callers mutate their own copy and write it back.
func cloneAccount(account *model.Account) *model.Account {
	clone := *account
	clone.Characters = append([]string(nil), account.Characters...)
	return &clone
}

func (s *Storage) InsertAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Username]; ok {
		return model.ErrAccountExists
	}
	if _, ok := s.emailIndex[strings.ToLower(account.Email)]; ok {
		return model.ErrAccountExists
	}
	s.accounts[account.Username] = cloneAccount(account)
	s.emailIndex[strings.ToLower(account.Email)] = account.Username
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]*model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, cloneAccount(account))
	}
	return accounts, nil
}

func (s *Storage) UpdateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.accounts[account.Username]
	if !ok {
		return model.ErrAccountNotFound
	}
	if !strings.EqualFold(old.Email, account.Email) {
		delete(s.emailIndex, strings.ToLower(old.Email))
		s.emailIndex[strings.ToLower(account.Email)] = account.Username
	}
	s.accounts[account.Username] = cloneAccount(account)
	return nil
}

func (s *Storage) DeleteAccount(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok {
		return model.ErrAccountNotFound
	}
	delete(s.emailIndex, strings.ToLower(account.Email))
	delete(s.accounts, username)
	return nil
}

// Promo operations

func (s *Storage) InsertPromo(ctx context.Context, promo *model.Promo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[promo.ID] = promo
	return nil
}

func (s *Storage) ListPromos(ctx context.Context) ([]*model.Promo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	promos := make([]*model.Promo, 0, len(s.promos))
	for _, promo := range s.promos {
		promos = append(promos, promo)
	}
	return promos, nil
}

func (s *Storage) ListPromosByCode(ctx context.Context, code string) ([]*model.Promo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var promos []*model.Promo
	for _, promo := range s.promos {
		if promo.Code == code {
			promos = append(promos, promo)
		}
	}
	return promos, nil
}

func (s *Storage) DeletePromosByCode(ctx context.Context, code string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, promo := range s.promos {
		if promo.Code == code {
			delete(s.promos, id)
			count++
		}
	}
	return count, nil
}

// Grant item operations

func (s *Storage) ListGrants(ctx context.Context, account string) ([]*model.GrantItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var grants []*model.GrantItem
	for _, grant := range s.grants {
		if grant.Account == account {
			grants = append(grants, grant)
		}
	}
	return grants, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.CharacterID] = profile
	s.nameIndex[profile.Name] = profile.CharacterID
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, characterID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[characterID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Storage) GetProfileByName(ctx context.Context, name string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[name]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return profile, nil
}

// Live session directory

func (s *Storage) SaveLiveSession(ctx context.Context, live *model.LiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[live.Username] = live
	return nil
}

func (s *Storage) GetLiveSession(ctx context.Context, username string) (*model.LiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.live[username]
	if !ok {
		return nil, model.ErrNotLive
	}
	return live, nil
}

func (s *Storage) DeleteLiveSession(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, username)
	return nil
}

func (s *Storage) ListLiveSessions(ctx context.Context) ([]*model.LiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*model.LiveSession, 0, len(s.live))
	for _, live := range s.live {
		sessions = append(sessions, live)
	}
	return sessions, nil
}

// Doc and changeset operations

func (s *Storage) GetDoc(ctx context.Context, kind changeset.Kind, key string) (changeset.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, err := s.lookup(kind, key)
	if err != nil {
		return nil, err
	}
	return changeset.Encode(record)
}

// Apply stages every update against a copy of the touched records,
// verifies all guards, and only then commits writes and inserts. The
// single mutex makes the batch invisible until it lands whole.
func (s *Storage) Apply(ctx context.Context, cs *changeset.Changeset) error {
	if cs.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type staged struct {
		kind changeset.Kind
		key  string
		doc  changeset.Doc
	}

	docs := make(map[string]*staged)
	for _, u := range cs.Updates {
		id := string(u.Kind) + "\x00" + u.Key
		st, ok := docs[id]
		if !ok {
			record, err := s.lookup(u.Kind, u.Key)
			if err != nil {
				return err
			}
			doc, err := changeset.Encode(record)
			if err != nil {
				return err
			}
			st = &staged{kind: u.Kind, key: u.Key, doc: doc}
			docs[id] = st
		}
		if err := changeset.ApplyUpdate(st.doc, u); err != nil {
			return err
		}
	}

	for _, st := range docs {
		if err := s.commit(st.kind, st.key, st.doc); err != nil {
			return err
		}
	}
	for _, ins := range cs.Inserts {
		if err := s.insert(ins); err != nil {
			return err
		}
	}
	return nil
}

// lookup must be called with the mutex held.
func (s *Storage) lookup(kind changeset.Kind, key string) (any, error) {
	switch kind {
	case changeset.KindAccount:
		if account, ok := s.accounts[key]; ok {
			return account, nil
		}
		return nil, model.ErrAccountNotFound
	case changeset.KindGrant:
		if grant, ok := s.grants[key]; ok {
			return grant, nil
		}
		return nil, model.ErrConflict
	case changeset.KindPromo:
		if promo, ok := s.promos[key]; ok {
			return promo, nil
		}
		return nil, model.ErrConflict
	case changeset.KindProfile:
		if profile, ok := s.profiles[key]; ok {
			return profile, nil
		}
		return nil, model.ErrProfileNotFound
	}
	return nil, model.ErrConflict
}

// commit must be called with the mutex held.
func (s *Storage) commit(kind changeset.Kind, key string, doc changeset.Doc) error {
	switch kind {
	case changeset.KindAccount:
		account := &model.Account{}
		if err := changeset.Decode(doc, account); err != nil {
			return err
		}
		s.accounts[key] = account
	case changeset.KindGrant:
		grant := &model.GrantItem{}
		if err := changeset.Decode(doc, grant); err != nil {
			return err
		}
		s.grants[key] = grant
	case changeset.KindPromo:
		promo := &model.Promo{}
		if err := changeset.Decode(doc, promo); err != nil {
			return err
		}
		s.promos[key] = promo
	case changeset.KindProfile:
		profile := &model.Profile{}
		if err := changeset.Decode(doc, profile); err != nil {
			return err
		}
		s.profiles[key] = profile
	}
	return nil
}

// insert must be called with the mutex held.
func (s *Storage) insert(ins changeset.Insert) error {
	doc, err := changeset.Encode(ins.Record)
	if err != nil {
		return err
	}
	if err := s.commit(ins.Kind, ins.Key, doc); err != nil {
		return err
	}
	if ins.Kind == changeset.KindProfile {
		if profile, ok := s.profiles[ins.Key]; ok {
			s.nameIndex[profile.Name] = profile.CharacterID
		}
	}
	return nil
}
