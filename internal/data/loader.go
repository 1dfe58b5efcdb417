package data

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/suderio/werewolf-arena/internal/engine"
)

//go:embed defaults/*.yaml
var defaults embed.FS

const (
	GameFile  = "game.yaml"
	RolesFile = "roles.yaml"
)

// Loader reads game files through a fallback hierarchy of data directories,
// ending with the embedded defaults.
type Loader struct {
	dataDirs []string
}

// NewLoader initializes a new Data Loader with the given data directory fallback hierarchy
func NewLoader(dataDirs []string) *Loader {
	return &Loader{
		dataDirs: dataDirs,
	}
}

// LoadGame reads game.yaml. Rules missing from the file keep their defaults.
func (l *Loader) LoadGame() (*GameConfig, error) {
	c := GameConfig{Rules: engine.DefaultRules()}
	if err := l.load(GameFile, &c); err != nil {
		return nil, err
	}
	c.Rules = c.Rules.Normalize()
	return &c, nil
}

// LoadGameFile reads a game file from an explicit path.
func LoadGameFile(path string) (*GameConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c := GameConfig{Rules: engine.DefaultRules()}
	if err := decode(f, path, &c); err != nil {
		return nil, err
	}
	c.Rules = c.Rules.Normalize()
	return &c, nil
}

// LoadCatalog reads roles.yaml into a role catalog.
func (l *Loader) LoadCatalog() (*engine.Catalog, error) {
	var roles []engine.Role
	if err := l.load(RolesFile, &roles); err != nil {
		return nil, err
	}
	catalog, err := engine.NewCatalog(roles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RolesFile, err)
	}
	return catalog, nil
}

func (l *Loader) load(ref string, target interface{}) error {
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, ref)
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			return decode(f, path, target)
		}
	}

	f, err := defaults.Open("defaults/" + ref)
	if err != nil {
		return fmt.Errorf("could not find or open %s in any available data directory", ref)
	}
	defer f.Close()
	return decode(f, ref, target)
}

func decode(r io.Reader, name string, target interface{}) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: failed to decode yaml %s: %v", engine.ErrConfig, name, err)
	}
	return nil
}
