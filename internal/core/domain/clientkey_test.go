package domain

import "testing"

func TestClientKeyReleaseSendsExactlyOnce(t *testing.T) {
	leaveCh := make(chan LeaveSignal, 1)
	key := NewClientKey(3, true, leaveCh)

	key.Release()
	key.Release()
	key.Release()

	if len(leaveCh) != 1 {
		t.Fatalf("expected exactly one queued leave signal, got %d", len(leaveCh))
	}

	signal := <-leaveCh
	if signal.Handle != 3 || !signal.IsHost {
		t.Fatalf("unexpected leave signal %+v", signal)
	}
}

func TestClientKeyReleaseNeverBlocksOnFullChannel(t *testing.T) {
	leaveCh := make(chan LeaveSignal, 1)
	leaveCh <- LeaveSignal{Handle: 99}

	key := NewClientKey(1, false, leaveCh)

	done := make(chan struct{})
	go func() {
		key.Release()
		close(done)
	}()

	select {
	case <-done:
	default:
	}
	<-done // Release must return even though the channel is already full.
}

func TestClientKeyAccessors(t *testing.T) {
	leaveCh := make(chan LeaveSignal, 1)
	key := NewClientKey(7, true, leaveCh)

	if key.Handle() != 7 {
		t.Fatalf("Handle() = %d, want 7", key.Handle())
	}
	if !key.IsHost() {
		t.Fatalf("IsHost() = false, want true")
	}
}
