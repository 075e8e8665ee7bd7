package domain

// JoinPayload carries everything a Join request contributes to the room: one
// or more miis, shared location/region metadata, optional login info (only
// required when matchmaking is configured) and, on the very first Join,
// the settings blob that freezes for the life of the room.
type JoinPayload struct {
	Miis            [][]byte
	Location        uint32
	Latitude        uint32
	Longitude       uint32
	RegionLineColor uint32
	LoginInfo       *LoginInfo // nil if the client carries none
	Settings        []uint32
}

// LoginInfo identifies a client to the external matchmaking registry.
type LoginInfo struct {
	ClientID string
}

// JoinEvent is one reply-batch or broadcast Join entry.
type JoinEvent struct {
	Mii             []byte
	Location        uint32
	Latitude        uint32
	Longitude       uint32
	RegionLineColor uint32
}

// JoinReply is handed back to the joining client: its subscription to the
// event bus, its exclusive ClientKey, and the reply batch it must see before
// any broadcast event it later receives from that same subscription.
type JoinReply struct {
	ClientKey    *ClientKey
	Subscription EventSource
	Events       []Event
}

// RequestKind tags the variant of Request.
type RequestKind int

const (
	RequestJoin RequestKind = iota
	RequestComment
	RequestStart
	RequestVote
	RequestClientFrame
)

// Request is one inbound message from a per-client reliable task. Exactly
// one of the payload fields is meaningful, selected by Kind.
type Request struct {
	Kind RequestKind

	// RequestJoin
	ReadKey  Key
	WriteKey Key
	Join     JoinPayload
	ReplyTo  chan<- JoinReply

	// RequestComment
	Comment []byte

	// RequestStart
	Gamemode uint8

	// RequestVote
	PlayerID   uint32
	Properties Properties

	// RequestClientFrame
	ClientFrame ClientFrame
}

// ClientFrame is one player's per-tick report, forwarded to the race loop.
type ClientFrame struct {
	PlayerID uint32
	Inner    PlayerFrame
}

// PlayerFrame is the per-tick payload a client reports for its player(s).
// The external reliable codec defines the exact on-wire layout; the room
// core only needs Time and the first reported player's state.
type PlayerFrame struct {
	Time    uint32
	Players []PlayerState
}

// PlayerState is the opaque per-player race state forwarded verbatim from
// client reports to the server frame (position, speed, item state, ...).
// The room core never inspects its contents.
type PlayerState []byte
