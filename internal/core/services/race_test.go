package services

import (
	"errors"
	"testing"

	"github.com/racecore/roomserver/internal/core/domain"
)

func TestAllFilled(t *testing.T) {
	a := domain.PlayerFrame{}
	slots := []*domain.PlayerFrame{&a, nil}
	if allFilled(slots) {
		t.Fatal("allFilled should be false with a nil slot")
	}
	slots[1] = &domain.PlayerFrame{}
	if !allFilled(slots) {
		t.Fatal("allFilled should be true once every slot is set")
	}
}

func TestRaceCollectInitialFramesWaitsForEveryPlayer(t *testing.T) {
	requests := make(chan domain.Request, 4)
	room := NewRoom("race-collect", requests, nil, nil, 0)
	room.players = []domain.Player{{}, {}}

	requests <- domain.Request{Kind: domain.RequestClientFrame, ClientFrame: domain.ClientFrame{PlayerID: 1, Inner: domain.PlayerFrame{Time: 11}}}
	requests <- domain.Request{Kind: domain.RequestClientFrame, ClientFrame: domain.ClientFrame{PlayerID: 0, Inner: domain.PlayerFrame{Time: 10}}}

	slots, err := room.raceCollectInitialFrames()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots[0].Time != 10 || slots[1].Time != 11 {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func TestRaceCollectInitialFramesRejectsWrongRequestKind(t *testing.T) {
	requests := make(chan domain.Request, 1)
	room := NewRoom("race-collect-bad", requests, nil, nil, 0)
	room.players = []domain.Player{{}}

	requests <- domain.Request{Kind: domain.RequestComment}

	_, err := room.raceCollectInitialFrames()
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestRaceCollectInitialFramesReturnsSentinelOnClose(t *testing.T) {
	requests := make(chan domain.Request)
	room := NewRoom("race-collect-close", requests, nil, nil, 0)
	room.players = []domain.Player{{}}
	close(requests)

	_, err := room.raceCollectInitialFrames()
	if !errors.Is(err, errInboxClosed) {
		t.Fatalf("expected errInboxClosed, got %v", err)
	}
}

func TestRaceTickLoopOneTickPerFrame(t *testing.T) {
	requests := make(chan domain.Request, 2)
	room := NewRoom("race-tick", requests, nil, nil, 0)
	room.players = []domain.Player{{}, {}}
	slots := []domain.PlayerFrame{{Time: 10}, {Time: 11}}

	requests <- domain.Request{Kind: domain.RequestClientFrame, ClientFrame: domain.ClientFrame{PlayerID: 0, Inner: domain.PlayerFrame{Time: 20}}}
	close(requests)

	err := room.raceTickLoop(nil, 0, slots)
	if !errors.Is(err, errInboxClosed) {
		t.Fatalf("expected errInboxClosed on inbox closure, got %v", err)
	}
	if slots[0].Time != 20 {
		t.Fatalf("expected slot 0 to be overwritten to time 20, got %d", slots[0].Time)
	}
}

func TestRaceTickLoopRejectsNonClientFrame(t *testing.T) {
	requests := make(chan domain.Request, 1)
	room := NewRoom("race-tick-bad", requests, nil, nil, 0)
	room.players = []domain.Player{{}}
	slots := []domain.PlayerFrame{{}}

	requests <- domain.Request{Kind: domain.RequestVote}

	err := room.raceTickLoop(nil, 0, slots)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestRunRaceTranslatesInboxClosureToCleanShutdown(t *testing.T) {
	requests := make(chan domain.Request)
	room := NewRoom("run-race-clean", requests, nil, nil, 0)
	room.players = []domain.Player{{}}
	room.phase = domain.Playing(0, 0)

	close(requests)

	if err := room.runRace(); err != nil {
		t.Fatalf("runRace must translate inbox closure into a nil error, got %v", err)
	}
}
