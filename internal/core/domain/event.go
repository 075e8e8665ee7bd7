package domain

// EventKind tags the outer Event variant.
type EventKind int

const (
	EventForward EventKind = iota
	EventStart
)

// ForwardKind tags the inner RoomEvent carried by a Forward event.
type ForwardKind int

const (
	ForwardJoin ForwardKind = iota
	ForwardLeave
	ForwardComment
	ForwardSelectPulse
	ForwardSelectInfo
	ForwardSettings
)

// Event is one broadcast item published by the room, observed in
// publication order by every subscriber that keeps up.
type Event struct {
	Kind EventKind

	// EventForward
	Forward ForwardKind
	Join    JoinEvent
	Leave   LeaveEvent
	Comment []byte
	Pulse   SelectPulseEvent
	Info    SelectInfoEvent
	Setts   SettingsEvent

	// EventStart
	Gamemode uint8
}

// LeaveEvent reports the pre-shift index of a departed player: the index it
// held in the player slice just before removal, not its post-removal one.
type LeaveEvent struct {
	PlayerID uint32
}

// SelectPulseEvent announces that one player has cast its vote.
type SelectPulseEvent struct {
	PlayerID uint32
}

// SelectInfoEvent announces the Voting -> Playing transition: every
// player's drained vote plus the index of the player whose vote won.
type SelectInfoEvent struct {
	PlayerProperties []Properties
	SelectedPlayer   uint32
}

// SettingsEvent carries the settings blob frozen on the room's first Join.
type SettingsEvent struct {
	Settings []uint32
}

func forwardEvent(kind ForwardKind) Event { return Event{Kind: EventForward, Forward: kind} }

// NewJoinEvent builds a Forward(Join) event.
func NewJoinEvent(j JoinEvent) Event {
	e := forwardEvent(ForwardJoin)
	e.Join = j
	return e
}

// NewLeaveEvent builds a Forward(Leave) event.
func NewLeaveEvent(playerID uint32) Event {
	e := forwardEvent(ForwardLeave)
	e.Leave = LeaveEvent{PlayerID: playerID}
	return e
}

// NewCommentEvent builds a Forward(Comment) event.
func NewCommentEvent(body []byte) Event {
	e := forwardEvent(ForwardComment)
	e.Comment = body
	return e
}

// NewSelectPulseEvent builds a Forward(SelectPulse) event.
func NewSelectPulseEvent(playerID uint32) Event {
	e := forwardEvent(ForwardSelectPulse)
	e.Pulse = SelectPulseEvent{PlayerID: playerID}
	return e
}

// NewSelectInfoEvent builds a Forward(SelectInfo) event.
func NewSelectInfoEvent(props []Properties, selected uint32) Event {
	e := forwardEvent(ForwardSelectInfo)
	e.Info = SelectInfoEvent{PlayerProperties: props, SelectedPlayer: selected}
	return e
}

// NewSettingsEvent builds a Forward(Settings) event.
func NewSettingsEvent(settings []uint32) Event {
	e := forwardEvent(ForwardSettings)
	e.Setts = SettingsEvent{Settings: settings}
	return e
}

// NewStartEvent builds a Start event.
func NewStartEvent(gamemode uint8) Event {
	return Event{Kind: EventStart, Gamemode: gamemode}
}
