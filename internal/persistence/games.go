package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const historyFile = "history.jsonl"

// GameManager lays out one directory per session under a root games directory.
type GameManager struct {
	GamesDir string
}

func NewGameManager(gamesDir string) *GameManager {
	return &GameManager{GamesDir: gamesDir}
}

// GamePath returns the directory of a session.
func (g *GameManager) GamePath(sessionID string) string {
	return filepath.Join(g.GamesDir, sessionID)
}

// HistoryPath returns the JSONL history file of a session.
func (g *GameManager) HistoryPath(sessionID string) string {
	return filepath.Join(g.GamePath(sessionID), historyFile)
}

// Create makes the session directory and opens a fresh history.
func (g *GameManager) Create(sessionID string) (*Store, error) {
	path := g.GamePath(sessionID)
	if _, err := os.Stat(g.HistoryPath(sessionID)); err == nil {
		return nil, fmt.Errorf("game %s already exists", sessionID)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return NewStore(g.HistoryPath(sessionID))
}

// Load opens the history of an existing session.
func (g *GameManager) Load(sessionID string) (*Store, error) {
	path := g.GamePath(sessionID)
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("game folder not found: %s", path)
	}
	return NewStore(g.HistoryPath(sessionID))
}

// List returns the ids of every stored session, sorted.
func (g *GameManager) List() ([]string, error) {
	entries, err := os.ReadDir(g.GamesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(g.GamesDir, e.Name(), historyFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
