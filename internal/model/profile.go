package model

// Profile is a character record in a peer's store. Coins is the
// per-character game ledger mutated by web games; it never goes
// negative.
type Profile struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Account     string `json:"account"`
	Coins       int64  `json:"coins"`
}
