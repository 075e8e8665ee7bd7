package domain

import "sync"

// LeaveSignal is the best-effort tuple a ClientKey posts on release.
type LeaveSignal struct {
	Handle int
	IsHost bool
}

// ClientKey is the exclusive handle returned to an admitted client. Go has
// no deterministic destructor, so the per-client task must `defer
// key.Release()` immediately after a successful Join reply. Release is
// idempotent: only the first call ever sends on leaveTx, so a stray extra
// call (alongside the deferred one) cannot produce a duplicate leave.
type ClientKey struct {
	handle  int
	isHost  bool
	leaveTx chan<- LeaveSignal
	once    sync.Once
}

// NewClientKey constructs a ClientKey for the given handle/leave channel.
func NewClientKey(handle int, isHost bool, leaveTx chan<- LeaveSignal) *ClientKey {
	return &ClientKey{handle: handle, isHost: isHost, leaveTx: leaveTx}
}

// Handle returns the client's stable table index.
func (k *ClientKey) Handle() int { return k.handle }

// IsHost reports whether this client is the room's host.
func (k *ClientKey) IsHost() bool { return k.isHost }

// Release posts the leave signal exactly once, non-blocking. The signal is
// silently dropped if the room's leave channel is already full. The room
// never closes its leave channel; a send on a closed channel would panic.
func (k *ClientKey) Release() {
	k.once.Do(func() {
		select {
		case k.leaveTx <- LeaveSignal{Handle: k.handle, IsHost: k.isHost}:
		default:
		}
	})
}
