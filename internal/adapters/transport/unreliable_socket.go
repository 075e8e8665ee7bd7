/*
 * file: unreliable_socket.go
 * package: transport
 * description:
 *     Per-peer encrypted UDP datagram endpoint used by the race loop: a
 *     UDP socket paired with NaCl secretbox authenticated encryption, one
 *     read/write key pair per peer.
 */
package transport

import (
	"crypto/rand"
	"fmt"
	"net"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/racecore/roomserver/internal/protocol"
)

// maxDatagramSize bounds what the socket will accept; anything larger is
// silently dropped.
const maxDatagramSize = 1472

// raceContext is the 8-byte, space-padded literal mixed into every nonce.
var raceContext = [8]byte{'r', 'a', 'c', 'e', ' ', ' ', ' ', ' '}

// Connection is one peer's encrypted channel state: its current address
// (updated opportunistically on every successfully-authenticated receive,
// since NAT rebinding can change it) and its distinct read/write keys.
type Connection struct {
	Addr     *net.UDPAddr
	ReadKey  [32]byte
	WriteKey [32]byte
}

// NewConnection builds a Connection with no known address yet; Addr is
// filled in by the first authenticated ping from that peer.
func NewConnection(readKey, writeKey [32]byte) *Connection {
	return &Connection{ReadKey: readKey, WriteKey: writeKey}
}

// UnreliableSocket is the room's single per-match UDP endpoint, created on
// entry to Playing and torn down when the room halts.
type UnreliableSocket struct {
	conn        *net.UDPConn
	connections []*Connection
}

// Bind opens a UDP socket listening on addr.
func Bind(addr string) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: bind %s: %w", addr, err)
	}
	return conn, nil
}

// New wraps an already-bound UDP socket with the ordered peer connections
// for the current roster.
func New(conn *net.UDPConn, connections []*Connection) *UnreliableSocket {
	return &UnreliableSocket{conn: conn, connections: connections}
}

// Close releases the underlying UDP socket.
func (s *UnreliableSocket) Close() error { return s.conn.Close() }

// PeerCount returns how many peer connections this socket serves.
func (s *UnreliableSocket) PeerCount() int { return len(s.connections) }

// Read blocks for the next frame addressed to any peer, identifying the
// sender by an explicit peer-index prefix authenticated against that
// peer's read key (cheaper than trying every key against every datagram).
// Misauthenticated or malformed
// datagrams are silently dropped and do not return an error — the caller
// just gets the next valid one. Read only returns an error when the
// underlying socket itself fails (e.g. it was closed).
func Read[T any, PT interface {
	*T
	protocol.Unmarshaler
}](s *UnreliableSocket) (peerIndex int, value T, err error) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, readErr := s.conn.ReadFromUDP(buf)
		if readErr != nil {
			return 0, value, readErr
		}
		if n < 1 {
			continue
		}

		idx := int(buf[0])
		if idx < 0 || idx >= len(s.connections) {
			continue
		}
		peer := s.connections[idx]

		plain, ok := open(peer.ReadKey, buf[1:n])
		if !ok {
			continue
		}

		var out T
		if err := PT(&out).UnmarshalBinary(plain); err != nil {
			continue
		}

		peer.Addr = from
		return idx, out, nil
	}
}

// Write encrypts and sends value to the peer at peerIndex. Send failures
// (no known address yet, short write, closed socket) are swallowed — the
// datagram is considered lost.
func Write[T protocol.Frame](s *UnreliableSocket, peerIndex int, value T) {
	if peerIndex < 0 || peerIndex >= len(s.connections) {
		return
	}
	peer := s.connections[peerIndex]
	if peer.Addr == nil {
		return
	}

	plain, err := value.MarshalBinary()
	if err != nil {
		return
	}

	datagram := make([]byte, 1, 1+24+len(plain)+secretbox.Overhead)
	datagram[0] = byte(peerIndex)
	datagram = append(datagram, seal(peer.WriteKey, plain)...)

	_, _ = s.conn.WriteToUDP(datagram, peer.Addr)
}

// seal builds `nonce || box`; the caller prepends the peer-index byte.
func seal(key [32]byte, plain []byte) []byte {
	var nonce [24]byte
	copy(nonce[:8], raceContext[:])
	_, _ = rand.Read(nonce[8:])

	out := make([]byte, 0, 24+len(plain)+secretbox.Overhead)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, plain, &nonce, &key)
	return out
}

// open authenticates and decrypts a `nonce || box` payload (the leading
// peer-index byte has already been stripped by Read).
func open(key [32]byte, data []byte) ([]byte, bool) {
	if len(data) < 24 {
		return nil, false
	}
	var nonce [24]byte
	copy(nonce[:], data[:24])
	return secretbox.Open(nil, data[24:], &nonce, &key)
}
