/*
 * file: store.go
 * package: history
 * description:
 *     GORM/Postgres adapter that records a best-effort summary row each
 *     time a room's course vote completes. Live room state always stays in
 *     memory; this is only
 *     a retrospective log for players and operators.
 */
package history

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/racecore/roomserver/internal/core/ports"
)

// RaceHistoryEntry is one completed course vote, persisted for later
// inspection.
// It carries no room-live-state fields (votes, pending frames, ...) — only
// the outcome.
type RaceHistoryEntry struct {
	gorm.Model
	RoomID         string `gorm:"index"`
	Gamemode       uint8
	Course         uint32
	PlayerCount    int
	SelectedPlayer uint32
}

// Store implements ports.HistoryRecorder over a Postgres table.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres at dsn, tunes the connection pool, and
// auto-migrates the history schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("history: get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&RaceHistoryEntry{}); err != nil {
		return nil, fmt.Errorf("history: schema migration failed: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordRace inserts one history row per completed course vote.
func (s *Store) RecordRace(outcome ports.RaceOutcome) error {
	entry := RaceHistoryEntry{
		RoomID:         outcome.RoomID,
		Gamemode:       outcome.Gamemode,
		Course:         outcome.Course,
		PlayerCount:    outcome.PlayerCount,
		SelectedPlayer: outcome.SelectedPlayer,
	}
	return s.db.Create(&entry).Error
}

// RecentByRoom returns the most recent history entries for a room, newest
// first, bounded by limit.
func (s *Store) RecentByRoom(roomID string, limit int) ([]RaceHistoryEntry, error) {
	var entries []RaceHistoryEntry
	err := s.db.Where("room_id = ?", roomID).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
