package services

import (
	"testing"

	"github.com/racecore/roomserver/internal/core/domain"
)

func TestEventBusDeliversInPublicationOrder(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(domain.NewCommentEvent([]byte("first")))
	bus.Publish(domain.NewCommentEvent([]byte("second")))

	first := <-sub.Events()
	second := <-sub.Events()

	if string(first.Comment) != "first" || string(second.Comment) != "second" {
		t.Fatalf("events arrived out of order: %q then %q", first.Comment, second.Comment)
	}
}

func TestEventBusDropsOnBacklogOverflow(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	defer sub.Close()

	for i := 0; i < eventBacklog+5; i++ {
		bus.Publish(domain.NewCommentEvent([]byte("x")))
	}

	if sub.Dropped() == 0 {
		t.Fatalf("expected some events to be dropped for a non-draining subscriber")
	}
}

func TestEventBusTwoSubscribersSeeIdenticalSequenceWhenDraining(t *testing.T) {
	bus := NewEventBus()
	subA := bus.Subscribe()
	subB := bus.Subscribe()
	defer subA.Close()
	defer subB.Close()

	for i := 0; i < 10; i++ {
		bus.Publish(domain.NewSelectPulseEvent(uint32(i)))
	}

	for i := 0; i < 10; i++ {
		a := <-subA.Events()
		b := <-subB.Events()
		if a.Pulse.PlayerID != b.Pulse.PlayerID {
			t.Fatalf("subscribers diverged at index %d: %d vs %d", i, a.Pulse.PlayerID, b.Pulse.PlayerID)
		}
		if a.Pulse.PlayerID != uint32(i) {
			t.Fatalf("event %d had PlayerID %d", i, a.Pulse.PlayerID)
		}
	}
}

func TestSubscriptionCloseIsIdempotentAndClosesChannel(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()

	sub.Close()
	sub.Close() // must not panic

	if _, ok := <-sub.Events(); ok {
		t.Fatalf("expected closed subscription channel to yield zero value with ok=false")
	}
}

func TestPublishDoesNotBlockAfterSubscriberCloses(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe()
	sub.Close()

	done := make(chan struct{})
	go func() {
		bus.Publish(domain.NewCommentEvent([]byte("after close")))
		close(done)
	}()
	<-done
}
