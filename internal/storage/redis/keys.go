package redis

import (
	"strings"

	"github.com/tavisham/lobbygate/internal/changeset"
)

// Key construction helpers. Every key carries the store's prefix so a
// lobby store and several peer stores can share one Redis instance.

func (s *Storage) key(parts ...string) string {
	return s.cfg.KeyPrefix + ":" + strings.Join(parts, ":")
}

func (s *Storage) accountKey(username string) string {
	return s.key("account", username)
}

func (s *Storage) accountSetKey() string {
	return s.key("accounts")
}

func (s *Storage) emailIndexKey(email string) string {
	return s.key("email", strings.ToLower(email))
}

func (s *Storage) promoKey(id string) string {
	return s.key("promo", id)
}

func (s *Storage) promoSetKey() string {
	return s.key("promos")
}

func (s *Storage) grantKey(id string) string {
	return s.key("grant", id)
}

func (s *Storage) grantSetKey(account string) string {
	return s.key("grants", account)
}

func (s *Storage) profileKey(characterID string) string {
	return s.key("profile", characterID)
}

func (s *Storage) profileNameKey(name string) string {
	return s.key("profilename", name)
}

func (s *Storage) liveKey(username string) string {
	return s.key("live", username)
}

func (s *Storage) liveSetKey() string {
	return s.key("lives")
}

// recordKey maps a changeset target onto its storage key.
func (s *Storage) recordKey(kind changeset.Kind, key string) string {
	switch kind {
	case changeset.KindAccount:
		return s.accountKey(key)
	case changeset.KindGrant:
		return s.grantKey(key)
	case changeset.KindPromo:
		return s.promoKey(key)
	case changeset.KindProfile:
		return s.profileKey(key)
	}
	return s.key(string(kind), key)
}
