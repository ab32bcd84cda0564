package model

// LiveSession records which peer process currently hosts an account's
// gameplay session. Entries are written by the peers themselves; the
// gateway only reads them (directory lookups) and deletes them when an
// account is removed.
type LiveSession struct {
	Username    string `json:"username"`
	PeerID      string `json:"peer_id"`
	ClientID    int32  `json:"client_id"`
	CharacterID string `json:"character_id"`
	// SessionID is minted by the peer when it opens an in-game web
	// view; web game commands must present it.
	SessionID string `json:"session_id"`
}
