/*
 * file: race.go
 * package: protocol
 * description:
 *     Wire frames carried over the unreliable race channel. The room core
 *     only needs a binary codec narrow enough to fit one UDP datagram; the
 *     full reliable per-client protocol is out of scope here.
 */
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Frame is anything the unreliable socket can send or receive.
type Frame interface {
	MarshalBinary() ([]byte, error)
}

// Unmarshaler is implemented by frame pointer types so transport.Read can
// decode into them generically.
type Unmarshaler interface {
	UnmarshalBinary([]byte) error
}

// RaceClientPing is the client->server readiness beacon sent before any
// frame, used by the race loop's rendezvous step.
type RaceClientPing struct{}

func (RaceClientPing) MarshalBinary() ([]byte, error) { return []byte{0x01}, nil }

func (p *RaceClientPing) UnmarshalBinary(b []byte) error {
	if len(b) != 1 || b[0] != 0x01 {
		return fmt.Errorf("protocol: malformed RaceClientPing")
	}
	return nil
}

// RaceServerFrame is the server->client per-tick state. PlayerTimes[i] and
// Players[i] correspond to the player at stable index i.
type RaceServerFrame struct {
	Time        uint32
	PlayerTimes []uint32
	Players     [][]byte
}

func (f RaceServerFrame) MarshalBinary() ([]byte, error) {
	if len(f.PlayerTimes) != len(f.Players) {
		return nil, fmt.Errorf("protocol: player_times and players length mismatch")
	}
	n := len(f.PlayerTimes)
	buf := make([]byte, 0, 5+4*n+4*n)
	head := make([]byte, 5)
	binary.BigEndian.PutUint32(head, f.Time)
	head[4] = byte(n)
	buf = append(buf, head...)

	for _, t := range f.PlayerTimes {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], t)
		buf = append(buf, b[:]...)
	}
	for _, p := range f.Players {
		var lb [4]byte
		binary.BigEndian.PutUint32(lb[:], uint32(len(p)))
		buf = append(buf, lb[:]...)
		buf = append(buf, p...)
	}
	return buf, nil
}

func (f *RaceServerFrame) UnmarshalBinary(b []byte) error {
	if len(b) < 5 {
		return fmt.Errorf("protocol: RaceServerFrame too short")
	}
	f.Time = binary.BigEndian.Uint32(b[0:4])
	n := int(b[4])
	off := 5

	if len(b) < off+4*n {
		return fmt.Errorf("protocol: RaceServerFrame truncated player_times")
	}
	times := make([]uint32, n)
	for i := 0; i < n; i++ {
		times[i] = binary.BigEndian.Uint32(b[off : off+4])
		off += 4
	}

	players := make([][]byte, n)
	for i := 0; i < n; i++ {
		if len(b) < off+4 {
			return fmt.Errorf("protocol: RaceServerFrame truncated player length")
		}
		l := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if l < 0 || len(b) < off+l {
			return fmt.Errorf("protocol: RaceServerFrame truncated player payload")
		}
		players[i] = append([]byte(nil), b[off:off+l]...)
		off += l
	}

	f.PlayerTimes = times
	f.Players = players
	return nil
}
