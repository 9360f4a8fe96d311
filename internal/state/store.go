package state

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lithicearth/lithicearth-server/internal/game"
)

// StorageKey is the fixed slot name the state is persisted under.
const StorageKey = "lithicearth-game-state"

const slotTimeout = 2 * time.Second

// Slot is a durable key-value slot. Load returns nil data when the key has
// never been written.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Store is the single source of truth for one profile's GameState. All
// mutations go through named actions; subscribers receive snapshots.
type Store struct {
	state    GameState
	slot     Slot
	key      string
	degraded bool

	subs    map[int]func(GameState)
	nextSub int

	mu sync.Mutex
}

// SlotKey returns the storage key for a profile.
func SlotKey(profileID string) string {
	if profileID == "" {
		return StorageKey
	}
	return StorageKey + ":" + profileID
}

// Open creates a store for profileID, restoring any previously saved state.
// A nil slot gives an in-memory store.
func Open(ctx context.Context, slot Slot, profileID string) *Store {
	s := &Store{
		state: Default(),
		slot:  slot,
		key:   SlotKey(profileID),
		subs:  make(map[int]func(GameState)),
	}
	if slot == nil {
		s.degraded = true
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, slotTimeout)
	defer cancel()

	data, err := slot.Load(ctx, s.key)
	switch {
	case err != nil:
		// Saving defaults over an unreadable slot would lose the stored progress.
		s.degraded = true
		slog.Warn("state load failed, continuing in memory", "key", s.key, "error", err)
	case data == nil:
	default:
		restored, err := Decode(data)
		if err != nil {
			slog.Warn("stored state rejected, using defaults", "key", s.key, "error", err)
			break
		}
		s.state = restored
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Degraded reports whether the store has stopped persisting.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Subscribe registers fn to receive a snapshot after every action. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(GameState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SelectHero sets the selected hero. Unknown heroes are rejected.
func (s *Store) SelectHero(id game.HeroID) error {
	if _, ok := game.LookupHero(id); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidHero, id)
	}
	s.apply(func(st *GameState) {
		st.SelectedHero = &id
	})
	return nil
}

// ClearHero resets the hero and the current site together.
func (s *Store) ClearHero() {
	s.apply(func(st *GameState) {
		st.SelectedHero = nil
		st.CurrentSite = nil
	})
}

func (s *Store) ToggleGlobeMode() {
	s.apply(func(st *GameState) {
		st.GlobeMode = st.GlobeMode.Toggled()
	})
}

// SetCurrentSite sets or clears the current site. A site outside the
// unlocked set is rejected with ErrInvalidSite.
func (s *Store) SetCurrentSite(id *string) error {
	if id == nil {
		s.apply(func(st *GameState) {
			st.CurrentSite = nil
		})
		return nil
	}

	site := *id
	return s.applyErr(func(st *GameState) error {
		if !st.IsUnlocked(site) {
			return fmt.Errorf("%w: %q is not unlocked", ErrInvalidSite, site)
		}
		st.CurrentSite = &site
		return nil
	})
}

// EnterSite makes id the current site.
func (s *Store) EnterSite(id string) error {
	return s.SetCurrentSite(&id)
}

// BackToSites clears the current site.
func (s *Store) BackToSites() {
	_ = s.SetCurrentSite(nil)
}

// UnlockSite adds a catalog site to the unlocked set.
func (s *Store) UnlockSite(id string) error {
	if _, ok := game.LookupSite(id); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSite, id)
	}
	return s.applyErr(func(st *GameState) error {
		if !slices.Contains(st.UnlockedSites, id) {
			st.UnlockedSites = append(st.UnlockedSites, id)
		}
		return nil
	})
}

func (s *Store) apply(fn func(*GameState)) {
	_ = s.applyErr(func(st *GameState) error {
		fn(st)
		return nil
	})
}

// applyErr runs fn on a copy of the state; the copy replaces the state only
// when fn succeeds. The new state is persisted before subscribers see it.
func (s *Store) applyErr(fn func(*GameState) error) error {
	s.mu.Lock()
	next := s.state.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.persist()

	subs := make([]func(GameState), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	snapshot := next.Clone()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot.Clone())
	}
	return nil
}

// persist writes the state to the slot. Caller must hold s.mu.
func (s *Store) persist() {
	if s.degraded {
		return
	}

	data, err := Encode(s.state)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), slotTimeout)
		err = s.slot.Save(ctx, s.key, data)
		cancel()
	}
	if err != nil {
		s.degraded = true
		slog.Warn("state save failed, continuing in memory", "key", s.key, "error", err)
	}
}
