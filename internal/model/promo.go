package model

// PromoLimitType scopes how a promo's use limit is counted.
type PromoLimitType string

const (
	PromoLimitAccount   PromoLimitType = "account"
	PromoLimitCharacter PromoLimitType = "character"
	PromoLimitWorld     PromoLimitType = "world"
)

// Valid reports whether the limit type is one of the known scopes.
func (t PromoLimitType) Valid() bool {
	switch t {
	case PromoLimitAccount, PromoLimitCharacter, PromoLimitWorld:
		return true
	}
	return false
}

// Promo is a redeemable grant code. Codes are not unique: creating a
// promo with an existing code adds another promo, it does not replace.
type Promo struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	StartTime int64          `json:"start_time"`
	EndTime   int64          `json:"end_time"`
	UseLimit  int            `json:"use_limit"`
	LimitType PromoLimitType `json:"limit_type"`
	Items     []uint32       `json:"items"`
}
