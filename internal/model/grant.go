package model

// MaxGrantItems is the cap on unclaimed grant items per account.
const MaxGrantItems = 100

// GrantItem is an item waiting in an account's in-game post box,
// granted by an admin purchase or a promo redemption.
type GrantItem struct {
	ID        string `json:"id"`
	Type      uint32 `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Account   string `json:"account"`
}
