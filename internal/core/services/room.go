/*
 * file: room.go
 * package: services
 * description:
 *     The room state machine: a single goroutine that drains one Request
 *     (or one leave signal) at a time, enforces per-phase admissibility,
 *     and publishes Events. Replaces a map of registered websocket clients
 *     with the room's Join/Vote/Leave protocol and a single-goroutine
 *     select-loop, so there's never a lock around room state.
 */
package services

import (
	"errors"
	"math/rand"

	"github.com/racecore/roomserver/internal/core/domain"
	"github.com/racecore/roomserver/internal/core/ports"
)

// ErrProtocolViolation is returned by Run when a request arrives that the
// current phase cannot legally receive.
var ErrProtocolViolation = errors.New("roomserver: protocol violation")

// Room owns one match's roster, settings, votes and phase. Every field is
// touched only by the goroutine running Run — no locks guard room state.
type Room struct {
	ID string

	requests <-chan domain.Request
	bus      *EventBus
	leaveCh  chan domain.LeaveSignal

	clients *domain.ClientTable
	players []domain.Player
	settingsSet bool
	settings    []uint32

	phase domain.Phase

	matchmaking    ports.MatchmakingSender
	clientExternal map[int]string // client handle -> external id, filled on Join, read on Leave
	history        ports.HistoryRecorder
	racePort       int

	// randIntn is overridable in tests to make the winning-vote draw
	// deterministic; defaults to math/rand's global source.
	randIntn func(n int) int
}

// NewRoom constructs a Room draining requests from the given channel. The
// channel itself is owned by the caller's listener/factory; matchmaking and
// history are both optional (nil disables them). racePort is the UDP port
// the race loop binds to once the room reaches Playing; pass 0 to fall back
// to DefaultRacePort.
func NewRoom(id string, requests <-chan domain.Request, matchmaking ports.MatchmakingSender, history ports.HistoryRecorder, racePort int) *Room {
	if racePort == 0 {
		racePort = DefaultRacePort
	}
	return &Room{
		ID:             id,
		requests:       requests,
		bus:            NewEventBus(),
		leaveCh:        make(chan domain.LeaveSignal, domain.MaxClients),
		clients:        domain.NewClientTable(),
		phase:          domain.Lobby(),
		matchmaking:    matchmaking,
		clientExternal: make(map[int]string),
		history:        history,
		racePort:       racePort,
		randIntn:       rand.Intn,
	}
}

// Run is the room's single task: it alternates between draining one
// request (or one leave signal) and, while in Playing, running the race
// loop. It returns nil on a clean host-leave or inbox closure, and a
// non-nil error for a protocol violation or when the race socket cannot be
// bound or fails while reading. On return it closes every remaining event
// subscription.
func (r *Room) Run() error {
	defer func() {
		r.bus.mu.Lock()
		defer r.bus.mu.Unlock()
		for sub := range r.bus.subs {
			delete(r.bus.subs, sub)
			close(sub.ch)
		}
	}()

	for {
		select {
		case req, ok := <-r.requests:
			if !ok {
				return nil
			}
			if err := r.handleRequest(req); err != nil {
				return err
			}
		case leave, ok := <-r.leaveCh:
			if !ok {
				return nil
			}
			removed := r.handleLeave(leave.Handle, leave.IsHost)
			if removed != nil && leave.IsHost {
				return nil
			}
		}

		if r.phase.Kind == domain.PhasePlaying {
			if err := r.runRace(); err != nil {
				return err
			}
		}
	}
}

func (r *Room) handleRequest(req domain.Request) error {
	switch req.Kind {
	case domain.RequestJoin:
		r.handleJoin(req)
	case domain.RequestComment:
		r.handleComment(req)
	case domain.RequestStart:
		r.handleStart(req)
	case domain.RequestVote:
		r.handleVote(req)
	default:
		// Only a broken or malicious peer sends a ClientFrame (or any
		// other unimplemented request) outside the race loop.
		return ErrProtocolViolation
	}
	return nil
}

func (r *Room) handleJoin(req domain.Request) {
	if r.phase.Kind != domain.PhaseLobby {
		return
	}
	if r.clients.Len()+1 > domain.MaxClients {
		return
	}
	if len(r.players)+len(req.Join.Miis) > domain.MaxPlayers {
		return
	}

	isHost := !r.settingsSet
	client := &domain.Client{ReadKey: req.ReadKey, WriteKey: req.WriteKey, IsHost: isHost}
	handle := r.clients.Insert(client)

	// Must happen before the ClientKey is built: the leave that its Release
	// triggers makes handleLeave look up clientExternal, so it needs to be
	// populated first.
	if r.matchmaking != nil {
		if req.Join.LoginInfo == nil {
			return
		}
		r.clientExternal[handle] = req.Join.LoginInfo.ClientID
		r.matchmaking.Send(ports.MatchmakingUpdate{
			RoomID:   r.ID,
			ClientID: req.Join.LoginInfo.ClientID,
			IsJoin:   true,
			IsHost:   isHost,
		})
	}

	clientKey := domain.NewClientKey(handle, isHost, r.leaveCh)

	events := make([]domain.Event, 0, len(r.players)+2)
	for _, p := range r.players {
		events = append(events, domain.NewJoinEvent(domain.JoinEvent{
			Mii:             p.Mii,
			Location:        p.Location,
			Latitude:        p.Latitude,
			Longitude:       p.Longitude,
			RegionLineColor: p.RegionLineColor,
		}))
	}

	for _, mii := range req.Join.Miis {
		r.players = append(r.players, domain.Player{
			ClientHandle:    handle,
			Mii:             mii,
			Location:        req.Join.Location,
			Latitude:        req.Join.Latitude,
			Longitude:       req.Join.Longitude,
			RegionLineColor: req.Join.RegionLineColor,
		})
	}

	if !r.settingsSet {
		r.settings = req.Join.Settings
		r.settingsSet = true
	}
	events = append(events, domain.NewSettingsEvent(r.settings))

	for _, mii := range req.Join.Miis {
		r.bus.Publish(domain.NewJoinEvent(domain.JoinEvent{
			Mii:             mii,
			Location:        req.Join.Location,
			Latitude:        req.Join.Latitude,
			Longitude:       req.Join.Longitude,
			RegionLineColor: req.Join.RegionLineColor,
		}))
	}

	sub := r.bus.Subscribe()

	if req.ReplyTo != nil {
		select {
		case req.ReplyTo <- domain.JoinReply{ClientKey: clientKey, Subscription: sub, Events: events}:
		default:
		}
	}
}

func (r *Room) handleComment(req domain.Request) {
	if r.phase.Kind != domain.PhaseLobby {
		return
	}
	r.bus.Publish(domain.NewCommentEvent(req.Comment))
}

func (r *Room) handleStart(req domain.Request) {
	if r.phase.Kind != domain.PhaseLobby {
		return
	}
	r.phase = domain.Voting(req.Gamemode)
	r.bus.Publish(domain.NewStartEvent(req.Gamemode))
}

func (r *Room) handleVote(req domain.Request) {
	if r.phase.Kind != domain.PhaseVoting {
		return
	}
	if int(req.PlayerID) < 0 || int(req.PlayerID) >= len(r.players) {
		return
	}
	player := &r.players[req.PlayerID]
	if player.HasVoted() {
		return
	}

	props := req.Properties
	player.Properties = &props
	r.bus.Publish(domain.NewSelectPulseEvent(req.PlayerID))

	for i := range r.players {
		if !r.players[i].HasVoted() {
			return
		}
	}

	// Every player has voted: pick a winner uniformly among submitted
	// votes, indexed over players rather than clients so a client owning
	// multiple players doesn't skew the draw.
	winner := r.randIntn(len(r.players))
	course := r.players[winner].Properties.Course
	gamemode := r.phase.Gamemode

	r.phase = domain.Playing(gamemode, course)

	playerProps := make([]domain.Properties, len(r.players))
	for i := range r.players {
		playerProps[i] = *r.players[i].Properties
		r.players[i].Properties = nil
	}

	r.bus.Publish(domain.NewSelectInfoEvent(playerProps, uint32(winner)))

	if r.history != nil {
		outcome := ports.RaceOutcome{
			RoomID:         r.ID,
			Gamemode:       gamemode,
			Course:         course,
			PlayerCount:    len(r.players),
			SelectedPlayer: uint32(winner),
		}
		go func() {
			_ = r.history.RecordRace(outcome)
		}()
	}
}

// handleLeave removes every player owned by handle (reverse walk so lower
// indices stay stable across the removals), notifies matchmaking, and
// removes the client itself. The returned Client is non-nil iff handle was
// still admitted.
func (r *Room) handleLeave(handle int, isHost bool) *domain.Client {
	for i := len(r.players) - 1; i >= 0; i-- {
		if r.players[i].ClientHandle != handle {
			continue
		}
		r.bus.Publish(domain.NewLeaveEvent(uint32(i)))
		r.players = append(r.players[:i], r.players[i+1:]...)
	}

	if r.matchmaking != nil {
		if externalID, ok := r.clientExternal[handle]; ok {
			r.matchmaking.Send(ports.MatchmakingUpdate{
				RoomID:   r.ID,
				ClientID: externalID,
				IsJoin:   false,
				IsHost:   isHost,
			})
			delete(r.clientExternal, handle)
		}
	}

	return r.clients.Remove(handle)
}
