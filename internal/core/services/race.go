/*
 * file: race.go
 * package: services
 * description:
 *     The Playing-phase race loop: bind the unreliable socket, rendezvous
 *     with every client, collect one initial frame per player, then emit
 *     one server frame per received client frame.
 */
package services

import (
	"errors"
	"fmt"

	"github.com/racecore/roomserver/internal/adapters/transport"
	"github.com/racecore/roomserver/internal/core/domain"
	"github.com/racecore/roomserver/internal/protocol"
)

// DefaultRacePort is the UDP port the unreliable socket binds to when the
// caller doesn't override it via NewRoom.
const DefaultRacePort = 21330

// errInboxClosed signals a clean shutdown (request channel closed) from
// inside the race loop; runRace translates it back to a nil error.
var errInboxClosed = errors.New("roomserver: inbox closed")

// runRace drives one full race: rendezvous, initial-frame collection, then
// the tick loop, returning when the inbox closes, a protocol violation
// occurs, or the race socket cannot be bound or fails while reading. It intentionally does not select on the leave channel, so a
// mid-race leave is only observed once the inbox itself closes.
func (r *Room) runRace() error {
	peerConnections := make([]*transport.Connection, 0, r.clients.Len())
	r.clients.Each(func(_ int, c *domain.Client) {
		peerConnections = append(peerConnections, transport.NewConnection(c.ReadKey, c.WriteKey))
	})

	conn, err := transport.Bind(fmt.Sprintf("0.0.0.0:%d", r.racePort))
	if err != nil {
		return fmt.Errorf("roomserver: bind race socket: %w", err)
	}
	socket := transport.New(conn, peerConnections)
	defer socket.Close()

	if err := r.raceRendezvous(socket, len(peerConnections)); err != nil {
		return err
	}

	slots, err := r.raceCollectInitialFrames()
	if err != nil {
		if errors.Is(err, errInboxClosed) {
			return nil
		}
		return err
	}

	err = r.raceTickLoop(socket, len(peerConnections), slots)
	if errors.Is(err, errInboxClosed) {
		return nil
	}
	return err
}

func (r *Room) raceRendezvous(socket *transport.UnreliableSocket, peerCount int) error {
	pending := make(map[int]struct{}, peerCount)
	for i := 0; i < peerCount; i++ {
		pending[i] = struct{}{}
	}

	for len(pending) > 0 {
		idx, _, err := transport.Read[protocol.RaceClientPing](socket)
		if err != nil {
			return fmt.Errorf("roomserver: race rendezvous: %w", err)
		}
		delete(pending, idx)
	}
	return nil
}

func (r *Room) raceCollectInitialFrames() ([]domain.PlayerFrame, error) {
	slots := make([]*domain.PlayerFrame, len(r.players))

	for {
		req, ok := <-r.requests
		if !ok {
			return nil, errInboxClosed
		}
		if req.Kind != domain.RequestClientFrame {
			return nil, ErrProtocolViolation
		}
		pid := int(req.ClientFrame.PlayerID)
		if pid < 0 || pid >= len(slots) {
			return nil, ErrProtocolViolation
		}
		frame := req.ClientFrame.Inner
		slots[pid] = &frame

		if allFilled(slots) {
			out := make([]domain.PlayerFrame, len(slots))
			for i, s := range slots {
				out[i] = *s
			}
			return out, nil
		}
	}
}

func allFilled(slots []*domain.PlayerFrame) bool {
	for _, s := range slots {
		if s == nil {
			return false
		}
	}
	return true
}

func (r *Room) raceTickLoop(socket *transport.UnreliableSocket, peerCount int, slots []domain.PlayerFrame) error {
	for time := uint32(0); ; time++ {
		req, ok := <-r.requests
		if !ok {
			return errInboxClosed
		}
		if req.Kind != domain.RequestClientFrame {
			return ErrProtocolViolation
		}
		pid := int(req.ClientFrame.PlayerID)
		if pid < 0 || pid >= len(slots) {
			return ErrProtocolViolation
		}
		slots[pid] = req.ClientFrame.Inner

		playerTimes := make([]uint32, len(slots))
		players := make([][]byte, len(slots))
		for i, s := range slots {
			playerTimes[i] = s.Time
			if len(s.Players) > 0 {
				players[i] = []byte(s.Players[0])
			}
		}

		frame := protocol.RaceServerFrame{Time: time, PlayerTimes: playerTimes, Players: players}
		for idx := 0; idx < peerCount; idx++ {
			transport.Write(socket, idx, frame)
		}
	}
}
