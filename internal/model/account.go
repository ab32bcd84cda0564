package model

// MaxCharacterSlots is the fixed number of character slots per account.
const MaxCharacterSlots = 20

// MaxUserLevel is the superuser authorization level.
const MaxUserLevel = 1000

// Account is a lobby account record. Username is the storage key and is
// immutable once the account is created.
type Account struct {
	Username     string   `json:"username"`
	DisplayName  string   `json:"display_name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Salt         string   `json:"salt"`
	CP           int64    `json:"cp"`
	TicketCount  int      `json:"ticket_count"`
	UserLevel    int      `json:"user_level"`
	Enabled      bool     `json:"enabled"`
	BanReason    string   `json:"ban_reason"`
	BanInitiator string   `json:"ban_initiator"`
	LastLogin    int64    `json:"last_login"`
	Characters   []string `json:"characters"`
}

// CharacterCount returns the number of occupied character slots.
func (a *Account) CharacterCount() int {
	count := 0
	for _, c := range a.Characters {
		if c != "" {
			count++
		}
	}
	return count
}

// FreeSlots returns the number of unoccupied character slots.
func (a *Account) FreeSlots() int {
	return MaxCharacterSlots - a.CharacterCount()
}
