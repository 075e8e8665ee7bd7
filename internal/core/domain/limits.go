package domain

// Room capacity limits.
const (
	MaxClients = 32
	MaxPlayers = 12
)

// EventSource is anything that yields broadcast events until closed. The
// room hands one back in JoinReply so a joiner can read subsequent events
// without the domain package importing the services package that
// implements the subscription.
type EventSource interface {
	Events() <-chan Event
	Close()
}
