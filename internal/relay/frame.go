// Package relay forwards state-change notifications to the peer
// process currently hosting an account's live gameplay session.
package relay

// Mode selects which clients on a peer a frame addresses.
type Mode string

const (
	// ModeAll addresses every client connected to the peer.
	ModeAll Mode = "all"

	// ModeIDs addresses an explicit set of in-peer client IDs.
	ModeIDs Mode = "ids"
)

// PayloadKind discriminates the frame payload variants.
type PayloadKind string

const (
	// KindBalance pushes a fresh ledger balance to a live client.
	KindBalance PayloadKind = "balance"

	// KindMessage broadcasts chat text on the console or ticker.
	KindMessage PayloadKind = "message"

	// KindKick forces a client disconnect with a severity level.
	KindKick PayloadKind = "kick"
)

// MessageChannel is where a broadcast message renders on the client.
type MessageChannel string

const (
	ChannelConsole MessageChannel = "console"
	ChannelTicker  MessageChannel = "ticker"
)

// Kick severity bounds. Severity 1 is a plain disconnect, 3 the
// harshest the peer understands.
const (
	MinKickSeverity = 1
	MaxKickSeverity = 3
)

// Payload is the union of frame payloads; Kind says which fields are
// meaningful.
type Payload struct {
	Kind PayloadKind `json:"kind"`

	// Balance fields.
	CP int64 `json:"cp,omitempty"`

	// Message fields.
	Channel     MessageChannel `json:"channel,omitempty"`
	From        string         `json:"from,omitempty"`
	MessageMode int            `json:"mode,omitempty"`
	SubMode     int            `json:"sub_mode,omitempty"`
	Text        string         `json:"text,omitempty"`

	// Kick fields.
	Username string `json:"username,omitempty"`
	Severity int    `json:"severity,omitempty"`
}

// Frame is the unit published on a peer's relay channel.
type Frame struct {
	Mode    Mode    `json:"mode"`
	Targets []int32 `json:"targets,omitempty"`
	Payload Payload `json:"payload"`
}

// BalancePayload builds a ledger balance update.
func BalancePayload(cp int64) Payload {
	return Payload{Kind: KindBalance, CP: cp}
}

// MessagePayload builds a chat broadcast for a channel.
func MessagePayload(channel MessageChannel, from, text string) Payload {
	return Payload{Kind: KindMessage, Channel: channel, From: from, Text: text}
}

// KickPayload builds a forced-disconnect payload. Severity is clamped
// into the range the peers accept.
func KickPayload(username string, severity int) Payload {
	if severity < MinKickSeverity {
		severity = MinKickSeverity
	}
	if severity > MaxKickSeverity {
		severity = MaxKickSeverity
	}
	return Payload{Kind: KindKick, Username: username, Severity: severity}
}
