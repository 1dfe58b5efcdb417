package persistence

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result is the outcome summary of one finished game.
type Result struct {
	SessionID      string    `json:"game"`
	Seed           int64     `json:"seed"`
	Winner         string    `json:"winner"`
	Days           int       `json:"days"`
	Decisions      int       `json:"decisions"`
	Heuristic      int       `json:"heuristic"`
	Timeouts       int       `json:"timeouts"`
	ProviderErrors int       `json:"provider_errors"`
	AvgLatencyMs   float64   `json:"avg_latency_ms"`
	FinishedAt     time.Time `json:"finished_at"`
}

type resultRow struct {
	SessionID      string    `gorm:"primaryKey;size:64"`
	Seed           int64     `gorm:"not null"`
	Winner         string    `gorm:"size:32;index"`
	Days           int       `gorm:"not null"`
	Decisions      int       `gorm:"not null"`
	Heuristic      int       `gorm:"not null"`
	Timeouts       int       `gorm:"not null"`
	ProviderErrors int       `gorm:"not null"`
	AvgLatencyMs   float64   `gorm:"not null"`
	FinishedAt     time.Time `gorm:"not null"`
}

func (resultRow) TableName() string {
	return "game_results"
}

func (r resultRow) toResult() Result {
	return Result(r)
}

// ResultStore records game results in SQL.
type ResultStore struct {
	db *gorm.DB
}

func NewResultStore(db *gorm.DB) *ResultStore {
	return &ResultStore{db: db}
}

// Save upserts a result by session id.
func (s *ResultStore) Save(r Result) error {
	row := resultRow(r)
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save result %s: %w", r.SessionID, err)
	}
	return nil
}

// List returns all results ordered by completion time.
func (s *ResultStore) List() ([]Result, error) {
	var rows []resultRow
	if err := s.db.Order("finished_at asc, session_id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toResult())
	}
	return out, nil
}

// WinRates returns the share of games won by each winner.
func (s *ResultStore) WinRates() (map[string]float64, error) {
	type count struct {
		Winner string
		N      int
	}
	var counts []count
	if err := s.db.Model(&resultRow{}).Select("winner, count(*) as n").Group("winner").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("win rates: %w", err)
	}
	total := 0
	for _, c := range counts {
		total += c.N
	}
	rates := make(map[string]float64, len(counts))
	for _, c := range counts {
		rates[c.Winner] = float64(c.N) / float64(total)
	}
	return rates, nil
}
