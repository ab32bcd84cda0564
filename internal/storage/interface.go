package storage

import (
	"context"

	"github.com/tavisham/lobbygate/internal/changeset"
	"github.com/tavisham/lobbygate/internal/model"
)

// Store defines the persistence interface. The lobby store uses the
// account/promo/grant/live operations; each peer store uses the profile
// operations. Both apply changesets the same way.
type Store interface {
	// Account operations. InsertAccount fails with ErrAccountExists
	// when the username or email is already taken. UpdateAccount is a
	// whole-record write reserved for single-writer administrative
	// fields; concurrent economic fields go through Apply.
	InsertAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, username string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, username string) error

	// Promo operations. Codes are not unique; deletion removes every
	// promo with the code and reports how many went away.
	InsertPromo(ctx context.Context, promo *model.Promo) error
	ListPromos(ctx context.Context) ([]*model.Promo, error)
	ListPromosByCode(ctx context.Context, code string) ([]*model.Promo, error)
	DeletePromosByCode(ctx context.Context, code string) (int, error)

	// Grant item operations. Inserts happen through Apply so they can
	// ride in the same batch as the CP deduction.
	ListGrants(ctx context.Context, account string) ([]*model.GrantItem, error)

	// Profile operations (peer stores).
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, characterID string) (*model.Profile, error)
	GetProfileByName(ctx context.Context, name string) (*model.Profile, error)

	// Live session directory.
	SaveLiveSession(ctx context.Context, live *model.LiveSession) error
	GetLiveSession(ctx context.Context, username string) (*model.LiveSession, error)
	DeleteLiveSession(ctx context.Context, username string) error
	ListLiveSessions(ctx context.Context) ([]*model.LiveSession, error)

	// GetDoc reads a record as its raw field map. Extension programs
	// read store fields through this.
	GetDoc(ctx context.Context, kind changeset.Kind, key string) (changeset.Doc, error)

	// Apply commits a changeset atomically: every guarded update must
	// still match its expected value and every write must succeed, or
	// nothing is applied and model.ErrConflict (or the underlying
	// error) is returned.
	Apply(ctx context.Context, cs *changeset.Changeset) error

	Close() error
}
