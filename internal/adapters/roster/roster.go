// Package roster provides roster sources outside the ledger store.
package roster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/rollcall/internal/domain/model"
)

// ErrInvalidRoster is returned for entries missing an id or nickname, or repeating an id.
var ErrInvalidRoster = errors.New("invalid roster")

// FileSource reads a YAML roster file on every call:
//
//	players:
//	  - id: "111"
//	    nickname: "[DOA]Foo"
type FileSource struct {
	path string
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ListRoster parses the file.
func (s *FileSource) ListRoster(ctx context.Context) ([]model.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load roster %s: %w", s.path, err)
	}
	var entries []model.RosterEntry
	if err := k.Unmarshal("players", &entries); err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", s.path, err)
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Static is a fixed in-memory roster.
type Static []model.RosterEntry

// ListRoster returns a copy of the entries.
func (s Static) ListRoster(context.Context) ([]model.RosterEntry, error) {
	return slices.Clone(s), nil
}

// Validate checks that every entry has an id and nickname and ids are unique.
func Validate(entries []model.RosterEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.PlayerID) == "" || strings.TrimSpace(e.Nickname) == "" {
			return fmt.Errorf("%w: entry %d needs id and nickname", ErrInvalidRoster, i)
		}
		if _, dup := seen[e.PlayerID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidRoster, e.PlayerID)
		}
		seen[e.PlayerID] = struct{}{}
	}
	return nil
}
