// Package server defines the wire envelope formats and shared helpers that
// are reused across client and hub logic.
package server

import (
	"encoding/json"
	"strings"
)

// Envelope type tags. The only client-originated type the server acts on is
// EnvelopeMsg; everything else is server-to-client.
const (
	EnvelopeMeta   = "meta"
	EnvelopeRooms  = "rooms"
	EnvelopeMsg    = "msg"
	EnvelopeSystem = "system"
)

// System notice kinds carried in the "system" field of system envelopes.
const (
	SystemJoin   = "join"
	SystemLeave  = "leave"
	SystemStatus = "status"
)

const (
	// DefaultRoom is used when a join request carries no room name.
	DefaultRoom = "lobby"

	// MaxChatLen is the maximum chat text length in runes; longer text is
	// truncated, never rejected.
	MaxChatLen = 2000

	// SystemNick is the display name attached to system notices.
	SystemNick = "System"

	// FallbackNick substitutes for a departing member whose registry entry
	// was already swept away before its session could look it up.
	FallbackNick = "Someone"

	systemColor = "#666"
)

// Identity is the anonymous nickname/color pair assigned to a connection at
// join time. It is immutable for the lifetime of the connection.
type Identity struct {
	Nick  string `json:"nick"`
	Color string `json:"color"`
}

// Envelope is the tagged message unit exchanged over a connection. Variant
// fields are omitted when empty, so one struct covers the whole protocol:
//
//	meta   {type, you}
//	rooms  {type, rooms}
//	msg    {type, text, nick, color}
//	system {type, text, nick, color, system}
//
// The msg and system variants always carry text on the wire, even when it is
// empty; see MarshalJSON.
type Envelope struct {
	Type   string    `json:"type"`
	Text   string    `json:"text,omitempty"`
	Nick   string    `json:"nick,omitempty"`
	Color  string    `json:"color,omitempty"`
	System string    `json:"system,omitempty"`
	You    *Identity `json:"you,omitempty"`
	Rooms  []string  `json:"rooms,omitempty"`
}

// MarshalJSON keeps the text field present on msg and system envelopes even
// when the text is empty, since clients read it unconditionally for those
// types. Every other variant stays omit-when-empty.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Type == EnvelopeMsg || e.Type == EnvelopeSystem {
		return json.Marshal(struct {
			Type   string `json:"type"`
			Text   string `json:"text"`
			Nick   string `json:"nick,omitempty"`
			Color  string `json:"color,omitempty"`
			System string `json:"system,omitempty"`
		}{e.Type, e.Text, e.Nick, e.Color, e.System})
	}

	type plain Envelope
	return json.Marshal(plain(e))
}

// BroadcastMessage is one pre-serialized envelope queued for delivery to
// every member of Room.
type BroadcastMessage struct {
	Room    string
	Payload []byte
}

// NewMetaEnvelope builds the envelope sent once to a newly joined connection,
// telling it who it is.
func NewMetaEnvelope(you Identity) Envelope {
	return Envelope{Type: EnvelopeMeta, You: &you}
}

// NewRoomsEnvelope builds a room-list snapshot envelope.
func NewRoomsEnvelope(rooms []string) Envelope {
	return Envelope{Type: EnvelopeRooms, Rooms: rooms}
}

// NewChatEnvelope builds a chat message envelope carrying the sender's
// identity. Text is truncated to MaxChatLen runes.
func NewChatEnvelope(text string, sender Identity) Envelope {
	return Envelope{
		Type:  EnvelopeMsg,
		Text:  TruncateText(text, MaxChatLen),
		Nick:  sender.Nick,
		Color: sender.Color,
	}
}

// NewSystemEnvelope builds a lifecycle notice envelope of the given kind.
func NewSystemEnvelope(text, kind string) Envelope {
	return Envelope{
		Type:   EnvelopeSystem,
		Text:   text,
		Nick:   SystemNick,
		Color:  systemColor,
		System: kind,
	}
}

// TruncateText caps s at limit runes. Truncation counts runes, not bytes, so
// multi-byte text is never split mid-character.
func TruncateText(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
