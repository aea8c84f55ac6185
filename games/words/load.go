/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package words

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtin embed.FS

var ErrNoTiers = errors.New("no word tiers found")

// Builtin returns the tiers shipped with the binary.
func Builtin() (*Library, error) {
	data, err := builtin.ReadFile("builtin.yaml")
	if err != nil {
		return nil, err
	}

	var tiers []Tier
	if err := yaml.Unmarshal(data, &tiers); err != nil {
		return nil, fmt.Errorf("builtin.yaml: %w", err)
	}

	return NewLibrary(tiers...), nil
}

// LoadDir reads every tier file in dir. Scraped lists are named
// words_<tier>.json; hand-written ones are <tier>.yaml or <tier>.yml.
func LoadDir(dir string) (*Library, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS is LoadDir over an arbitrary filesystem.
func LoadFS(fsys fs.FS) (*Library, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	library := NewLibrary()

	for _, name := range names {
		tier, ok, err := loadFile(fsys, name)
		if err != nil {
			return nil, err
		}

		if ok {
			library.Add(tier)
		}
	}

	if len(library.Names()) == 0 {
		return nil, ErrNoTiers
	}

	return library, nil
}

func loadFile(fsys fs.FS, name string) (Tier, bool, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	var decode func([]byte, *Tier) error

	switch {
	case ext == ".json" && strings.HasPrefix(base, "words_"):
		base = strings.TrimPrefix(base, "words_")
		decode = func(data []byte, t *Tier) error {
			return json.NewDecoder(bytes.NewReader(data)).Decode(t)
		}
	case ext == ".yaml" || ext == ".yml":
		decode = func(data []byte, t *Tier) error {
			return yaml.Unmarshal(data, t)
		}
	default:
		return Tier{}, false, nil
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Tier{}, false, err
	}

	var tier Tier
	if err := decode(data, &tier); err != nil {
		return Tier{}, false, fmt.Errorf("%s: %w", name, err)
	}

	// The file name is the tier's identity; the name field is for display.
	if tier.Description == "" {
		tier.Description = tier.Name
	}
	tier.Name = base

	return tier, true, nil
}
