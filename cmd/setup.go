package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/suderio/werewolf-arena/internal/data"
	"github.com/suderio/werewolf-arena/internal/engine"
	"github.com/suderio/werewolf-arena/internal/persistence"
	"github.com/suderio/werewolf-arena/internal/session"
)

func newLogger() *log.Logger {
	if viper.GetBool("verbose") {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// loadGame reads the game file given on the command line, or game.yaml through
// the data directory fallback chain, and the role catalog.
func loadGame(args []string) (*data.GameConfig, *engine.Catalog, error) {
	var dirs []string
	if dir := viper.GetString("data_dir"); dir != "" {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "data")
	loader := data.NewLoader(dirs)

	var (
		game *data.GameConfig
		err  error
	)
	if len(args) > 0 {
		game, err = data.LoadGameFile(args[0])
	} else {
		game, err = loader.LoadGame()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load game: %w", err)
	}
	catalog, err := loader.LoadCatalog()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return game, catalog, nil
}

// backend is where session histories and eval results live: the configured
// database, or one JSONL file per game under the games directory.
type backend struct {
	stores  session.StoreFactory
	results *persistence.ResultStore
	db      *gorm.DB
	games   *persistence.GameManager
}

func openBackend() (*backend, error) {
	if driver := viper.GetString("db_driver"); driver != "" {
		db, err := persistence.OpenGorm(driver, viper.GetString("db_dsn"))
		if err != nil {
			return nil, err
		}
		if err := persistence.Migrate(db); err != nil {
			return nil, err
		}
		return &backend{stores: session.GormStores(db), results: persistence.NewResultStore(db), db: db}, nil
	}
	games := persistence.NewGameManager(viper.GetString("games_dir"))
	return &backend{stores: session.FileStores(games), games: games}, nil
}

// history loads the stored history of a game.
func (b *backend) history(id string) ([]engine.HistoryEntry, error) {
	store, err := b.stores(id, true)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load()
}

// list returns the ids of every stored game.
func (b *backend) list() ([]string, error) {
	if b.db != nil {
		return persistence.Sessions(b.db)
	}
	return b.games.List()
}
