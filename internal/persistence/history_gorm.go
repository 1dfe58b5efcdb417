package persistence

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/suderio/werewolf-arena/internal/engine"
)

type historyRow struct {
	SessionID string `gorm:"primaryKey;size:64"`
	Seq       int64  `gorm:"primaryKey"`
	Day       int    `gorm:"not null"`
	Phase     string `gorm:"size:32;not null"`
	Type      string `gorm:"size:64;not null"`
	Source    string `gorm:"size:32"`
	Data      string `gorm:"type:text;not null"`
}

func (historyRow) TableName() string {
	return "history_entries"
}

func (r historyRow) toEntry() engine.HistoryEntry {
	return engine.HistoryEntry{
		Seq:    r.Seq,
		Day:    r.Day,
		Phase:  engine.Phase(r.Phase),
		Type:   engine.EventType(r.Type),
		Source: engine.Source(r.Source),
		Data:   json.RawMessage(r.Data),
	}
}

func historyRowFromEntry(sessionID string, e engine.HistoryEntry) historyRow {
	return historyRow{
		SessionID: sessionID,
		Seq:       e.Seq,
		Day:       e.Day,
		Phase:     string(e.Phase),
		Type:      string(e.Type),
		Source:    string(e.Source),
		Data:      string(e.Data),
	}
}

// GormStore keeps one session's history in a SQL table.
type GormStore struct {
	db        *gorm.DB
	sessionID string
}

// NewGormStore binds a store to a session. The tables must exist (see Migrate).
func NewGormStore(db *gorm.DB, sessionID string) *GormStore {
	return &GormStore{db: db, sessionID: sessionID}
}

func (s *GormStore) Append(entry engine.HistoryEntry) error {
	row := historyRowFromEntry(s.sessionID, entry)
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("append history %s/%d: %w", s.sessionID, entry.Seq, err)
	}
	return nil
}

func (s *GormStore) Load() ([]engine.HistoryEntry, error) {
	var rows []historyRow
	if err := s.db.Where("session_id = ?", s.sessionID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history %s: %w", s.sessionID, err)
	}
	entries := make([]engine.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func (s *GormStore) Close() error { return nil }

// Sessions lists the session ids with stored history.
func Sessions(db *gorm.DB) ([]string, error) {
	var ids []string
	if err := db.Model(&historyRow{}).Distinct("session_id").Order("session_id").Pluck("session_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}
