/*
 * Race room core server entry point.
 *
 * The reliable per-client framing protocol, the matchmaking registry's own
 * logic, and TLS/session setup are external collaborators and are not
 * implemented here (out of scope). This binary wires configuration, the
 * optional matchmaking sender, the optional history store, and a room
 * factory that the (external) listener uses to spin up one goroutine per
 * active match.
 */
package main

import (
	"fmt"
	"log"

	"github.com/racecore/roomserver/internal/adapters/history"
	"github.com/racecore/roomserver/internal/adapters/matchmaking"
	"github.com/racecore/roomserver/internal/config"
	"github.com/racecore/roomserver/internal/core/domain"
	"github.com/racecore/roomserver/internal/core/ports"
	"github.com/racecore/roomserver/internal/core/services"
)

// RoomFactory constructs and runs rooms on demand. The external listener
// (out of scope here) calls NewRoom with a freshly-made request channel and
// keeps the returned channel to feed Requests in; the room's own goroutine
// drains it until the host leaves or a protocol violation halts it.
type RoomFactory struct {
	matchmaking ports.MatchmakingSender
	history     ports.HistoryRecorder
	racePort    int
}

// NewRoom starts a room's goroutine and returns the channel through which
// the caller feeds it Requests.
func (f *RoomFactory) NewRoom(id string) chan<- domain.Request {
	requests := make(chan domain.Request)
	room := services.NewRoom(id, requests, f.matchmaking, f.history, f.racePort)

	go func() {
		if err := room.Run(); err != nil {
			log.Printf("ERROR: room %s halted: %v", id, err)
			return
		}
		log.Printf("INFO: room %s closed", id)
	}()

	return requests
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	factory := &RoomFactory{racePort: cfg.RacePort}

	if cfg.MatchmakingURL != "" {
		mm, err := matchmaking.Dial(cfg.MatchmakingURL)
		if err != nil {
			log.Fatalf("ERROR: connect to matchmaking registry: %v", err)
		}
		defer mm.Close()
		factory.matchmaking = mm
	}

	if cfg.DatabaseDSN != "" {
		store, err := history.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("ERROR: open history store: %v", err)
		}
		factory.history = store
	}

	log.Printf("=================================")
	log.Printf("  Race Room Core Server")
	log.Printf("=================================")
	log.Printf("  Listen:        %s:%d (reliable, external)", cfg.Host, cfg.Port)
	log.Printf("  Race UDP port: %d", cfg.RacePort)
	log.Printf("  Matchmaking:   %v", cfg.MatchmakingURL != "")
	log.Printf("  History store: %v", cfg.DatabaseDSN != "")
	log.Printf("  Max clients/players: %d/%d", domain.MaxClients, domain.MaxPlayers)
	log.Printf("=================================")

	// The reliable per-client listener that accepts connections, derives
	// read/write keys, and translates wire traffic into domain.Requests is
	// an external collaborator and is not started here. This process, as
	// built, exposes RoomFactory.NewRoom as the seam that listener would
	// call into.
	fmt.Println("race room core ready; awaiting external listener wiring")
	select {}
}
