package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/lithicearth/lithicearth-server/internal/game"
)

var (
	ErrInvalidHero  = errors.New("invalid hero")
	ErrInvalidSite  = errors.New("invalid site")
	ErrInvalidState = errors.New("invalid stored state")
)

type GlobeMode string

const (
	GlobeStylized  GlobeMode = "stylized"
	GlobeRealistic GlobeMode = "realistic"
)

func (m GlobeMode) Valid() bool {
	return m == GlobeStylized || m == GlobeRealistic
}

// Toggled returns the other globe mode.
func (m GlobeMode) Toggled() GlobeMode {
	if m == GlobeStylized {
		return GlobeRealistic
	}
	return GlobeStylized
}

// GameState is the persisted part of a player's progress. CurrentSite, when
// set, is always a member of UnlockedSites.
type GameState struct {
	SelectedHero  *game.HeroID `json:"selectedHero"`
	GlobeMode     GlobeMode    `json:"globeMode"`
	UnlockedSites []string     `json:"unlockedSites"`
	CurrentSite   *string      `json:"currentSite"`
}

// Default returns the state of a fresh profile.
func Default() GameState {
	return GameState{
		GlobeMode:     GlobeRealistic,
		UnlockedSites: game.DefaultUnlockedSites(),
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s GameState) Clone() GameState {
	out := GameState{
		GlobeMode:     s.GlobeMode,
		UnlockedSites: append([]string{}, s.UnlockedSites...),
	}
	if s.SelectedHero != nil {
		h := *s.SelectedHero
		out.SelectedHero = &h
	}
	if s.CurrentSite != nil {
		c := *s.CurrentSite
		out.CurrentSite = &c
	}
	return out
}

// IsUnlocked reports whether id is in the unlocked set.
func (s GameState) IsUnlocked(id string) bool {
	return slices.Contains(s.UnlockedSites, id)
}

// Validate checks every field against the catalogs and the current-site invariant.
func (s GameState) Validate() error {
	if s.SelectedHero != nil {
		if _, ok := game.LookupHero(*s.SelectedHero); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidHero, *s.SelectedHero)
		}
	}
	if !s.GlobeMode.Valid() {
		return fmt.Errorf("%w: globe mode %q", ErrInvalidState, s.GlobeMode)
	}
	for _, id := range s.UnlockedSites {
		if _, ok := game.LookupSite(id); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidSite, id)
		}
	}
	if s.CurrentSite != nil && !s.IsUnlocked(*s.CurrentSite) {
		return fmt.Errorf("%w: current site %q is not unlocked", ErrInvalidSite, *s.CurrentSite)
	}
	return nil
}

var requiredFields = []string{"selectedHero", "globeMode", "unlockedSites", "currentSite"}

// Decode parses a stored state. Any missing field or invalid value fails the
// whole decode; callers fall back to Default rather than hydrating partially.
func Decode(data []byte) (GameState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return GameState{}, fmt.Errorf("%w: missing %s", ErrInvalidState, f)
		}
	}

	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if s.UnlockedSites == nil {
		return GameState{}, fmt.Errorf("%w: unlockedSites is null", ErrInvalidState)
	}
	if err := s.Validate(); err != nil {
		return GameState{}, err
	}
	return s, nil
}

// Encode serializes a state for storage.
func Encode(s GameState) ([]byte, error) {
	if s.UnlockedSites == nil {
		s.UnlockedSites = []string{}
	}
	return json.Marshal(s)
}
