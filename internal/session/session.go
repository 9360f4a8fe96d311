// Package session runs one player's exploration game over a WebSocket
// client: the boot splash, the frame loop, key handling and the overlays
// layered on top of the persisted game state.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lithicearth/lithicearth-server/internal/flavor"
	"github.com/lithicearth/lithicearth-server/internal/game"
	"github.com/lithicearth/lithicearth-server/internal/state"
	"github.com/lithicearth/lithicearth-server/internal/ws"
)

var (
	ErrBootNotReady = errors.New("boot sequence not finished")
	ErrNotBooted    = errors.New("game has not started")
	ErrClosed       = errors.New("session closed")
)

// Session is a single player's game. All game mutations run with mu held.
// The store may be shared with other sessions of the same profile, so the
// subscription callback can run without mu.
type Session struct {
	ID string

	client  *ws.Client
	store   *state.Store
	flavor  *flavor.Catalog
	metrics *Metrics

	unsubscribe func()
	bootLines   []string

	movement *game.MovementController
	entry    game.EntryDetector
	secret   *game.SecretDetector
	held     game.HeldKeys
	boot     *game.BootSequence

	explore   bool
	revealed  *game.Site
	pulse     *time.Timer
	pulseGen  int
	bootReady bool
	booted    bool

	// Timings default to the game constants.
	bootStep       time.Duration
	bootReadyDelay time.Duration
	pulseDuration  time.Duration
	frameInterval  time.Duration

	stopCh      chan struct{}
	loopRunning bool
	closed      atomic.Bool
	wg          sync.WaitGroup

	// Read by onState, which other sessions sharing the store may trigger.
	decoded  atomic.Bool
	traveled atomic.Bool

	mu sync.Mutex
}

// New creates a session for client backed by store. Nothing runs until Start.
func New(id string, client *ws.Client, store *state.Store, catalog *flavor.Catalog, metrics *Metrics) *Session {
	s := &Session{
		ID:             id,
		client:         client,
		store:          store,
		flavor:         catalog,
		metrics:        metrics,
		bootLines:      catalog.BootLines(),
		movement:       game.NewMovementController(game.Position{}),
		secret:         game.NewSecretDetector(),
		held:           make(game.HeldKeys),
		boot:           game.NewBootSequence(len(catalog.BootLines())),
		explore:        true,
		bootStep:       game.BootStepInterval,
		bootReadyDelay: game.BootReadyDelay,
		pulseDuration:  game.PulseDuration,
		frameInterval:  game.FrameInterval,
		stopCh:         make(chan struct{}),
	}
	s.unsubscribe = store.Subscribe(s.onState)
	return s
}

// Start pushes the current state and begins the boot splash.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	s.sendState(s.store.Snapshot())
	s.wg.Add(1)
	go s.bootLoop()
	s.metrics.sessionOpened()
	slog.Info("session started", "session", s.ID, "profile", s.client.ProfileID, "degraded", s.store.Degraded())
}

// StartLoop starts the frame loop. Calling it again while the loop runs is a
// no-op, so there is never more than one loop per session.
func (s *Session) StartLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLoopLocked()
}

func (s *Session) startLoopLocked() {
	if s.loopRunning || s.closed.Load() {
		return
	}
	s.loopRunning = true
	s.wg.Add(1)
	go s.frameLoop()
}

// Close stops the loops and timers and detaches from the store. It is safe
// to call more than once. Once Close returns the session sends nothing and
// writes nothing.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return
	}
	s.closed.Store(true)
	close(s.stopCh)
	s.stopPulse()
	s.mu.Unlock()

	s.unsubscribe()
	s.wg.Wait()
	s.metrics.sessionClosed()
	slog.Info("session closed", "session", s.ID)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Store returns the session's game state store.
func (s *Session) Store() *state.Store {
	return s.store
}

// bootLoop advances the boot splash until it completes, then marks the game
// ready to begin after a short pause.
func (s *Session) bootLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.bootStep)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			progress := s.boot.Step()
			s.send(ws.TypeBootProgress, bootProgressMessage{
				Progress: progress,
				Line:     s.bootLines[s.boot.LineIndex()],
			})
			done := s.boot.Done()
			s.mu.Unlock()
			if !done {
				continue
			}

			ready := time.NewTimer(s.bootReadyDelay)
			defer ready.Stop()
			select {
			case <-s.stopCh:
				return
			case <-ready.C:
			}

			s.mu.Lock()
			s.bootReady = true
			s.send(ws.TypeBootReady, bootReadyMessage{
				Text:       s.flavor.BootReady(),
				Objectives: s.flavor.Objectives(),
				Tip:        s.flavor.Tip(),
			})
			s.mu.Unlock()
			return
		}
	}
}

// frameLoop ticks the movement controller at the frame rate.
func (s *Session) frameLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			s.mu.Lock()
			s.tick(dt)
			s.mu.Unlock()
		}
	}
}

// tick advances the player and checks for site entry. Movement only happens
// in explore mode with a hero selected and no site open. Caller must hold mu.
func (s *Session) tick(dt time.Duration) {
	if s.closed.Load() || !s.booted || !s.explore {
		return
	}
	snap := s.store.Snapshot()
	if snap.SelectedHero == nil || snap.CurrentSite != nil {
		return
	}

	prev := s.movement.Position()
	pos := s.movement.Tick(dt, s.held)
	if pos != prev {
		vel := s.movement.Velocity()
		s.send(ws.TypeFrame, frameMessage{
			X:       pos.X,
			Y:       pos.Y,
			VX:      vel.X,
			VY:      vel.Y,
			Running: s.held.Running(),
		})
	}

	site, ok := s.entry.Check(pos, game.Sites(), game.UnlockedSet(snap.UnlockedSites))
	if !ok {
		return
	}
	if err := s.enterLocked(site); err != nil {
		slog.Warn("site entry rejected", "session", s.ID, "site", site.ID, "error", err)
	}
}

// KeyDown handles a key press. Presses typed into a text input are ignored.
func (s *Session) KeyDown(key string, inTextInput bool) {
	if inTextInput {
		return
	}
	k := game.NormalizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	// Escape only resets once the game has begun; nothing can be unlocked
	// or revealed during the boot splash.
	if !s.booted {
		if s.bootReady {
			s.beginLocked()
		}
		return
	}

	if k == "escape" {
		s.resetOverlays()
		s.send(ws.TypeOverlayReset, overlayResetMessage{Explore: s.explore})
		return
	}

	s.held[k] = true
	if !s.secret.Press(k) {
		return
	}

	s.explore = false
	s.revealed = nil
	s.startPulse()
	s.metrics.secretUnlocked()
	s.send(ws.TypeSecretUnlocked, secretUnlockedMessage{
		Text:       s.flavor.SecretUnlocked(),
		PulseMilli: s.pulseDuration.Milliseconds(),
	})
	slog.Info("secret unlocked", "session", s.ID)
}

// KeyUp releases a held key. Releases are honored even from text inputs so
// that a key never stays stuck down.
func (s *Session) KeyUp(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, game.NormalizeKey(key))
}

// Begin ends the boot splash once it is ready and starts exploration.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	if s.booted {
		return nil
	}
	if !s.bootReady {
		return ErrBootNotReady
	}
	s.beginLocked()
	return nil
}

func (s *Session) beginLocked() {
	s.booted = true
	s.sendState(s.store.Snapshot())
	s.startLoopLocked()
	slog.Info("exploration started", "session", s.ID)
}

// SelectHero picks the player's hero and puts them back at the origin.
func (s *Session) SelectHero(id game.HeroID) error {
	return s.action(func() error {
		if err := s.store.SelectHero(id); err != nil {
			return err
		}
		s.movement.Reset(game.Position{})
		return nil
	})
}

func (s *Session) ClearHero() error {
	return s.action(func() error {
		s.store.ClearHero()
		s.movement.Reset(game.Position{})
		clear(s.held)
		return nil
	})
}

func (s *Session) ToggleGlobeMode() error {
	return s.action(func() error {
		s.store.ToggleGlobeMode()
		return nil
	})
}

// EnterSite opens a site directly, as a click on its marker does.
func (s *Session) EnterSite(id string) error {
	site, ok := game.LookupSite(id)
	if !ok {
		return fmt.Errorf("%w: %q", state.ErrInvalidSite, id)
	}
	return s.action(func() error {
		return s.enterLocked(site)
	})
}

func (s *Session) enterLocked(site game.Site) error {
	if err := s.store.EnterSite(site.ID); err != nil {
		return err
	}
	s.traveled.Store(true)
	s.metrics.siteEntered(site.ID)
	s.send(ws.TypeSiteEntered, siteEnteredMessage{Site: site})
	slog.Info("site entered", "session", s.ID, "site", site.ID)
	return nil
}

// BackToSites closes the current site. The site stays disarmed until the
// player walks out of its radius.
func (s *Session) BackToSites() error {
	return s.action(func() error {
		current := s.store.Snapshot().CurrentSite
		s.store.BackToSites()
		if current != nil {
			s.entry.Disarm(*current)
		}
		return nil
	})
}

// RevealSite handles a click on a site marker. With shift held it opens the
// reveal overlay for the site and unlocks the next locked catalog site;
// otherwise it enters the site.
func (s *Session) RevealSite(id string, shift bool) error {
	if !shift {
		return s.EnterSite(id)
	}
	site, ok := game.LookupSite(id)
	if !ok {
		return fmt.Errorf("%w: %q", state.ErrInvalidSite, id)
	}

	return s.action(func() error {
		snap := s.store.Snapshot()
		if !snap.IsUnlocked(site.ID) {
			return fmt.Errorf("%w: %q is not unlocked", state.ErrInvalidSite, site.ID)
		}

		s.revealed = &site
		s.explore = false
		s.decoded.Store(true)

		var unlocked string
		for _, next := range game.Sites() {
			if snap.IsUnlocked(next.ID) {
				continue
			}
			if err := s.store.UnlockSite(next.ID); err != nil {
				return err
			}
			unlocked = next.ID
			break
		}

		s.metrics.revealed(site.ID)
		s.send(ws.TypeReveal, revealMessage{
			Site:      site,
			Header:    s.flavor.RevealHeader(site.Name),
			Mysteries: site.Mysteries,
			Unlocked:  unlocked,
		})
		return nil
	})
}

// action runs fn with mu held once the game has started.
func (s *Session) action(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.booted {
		return ErrNotBooted
	}
	return fn()
}

// resetOverlays is the single reset path: it clears the secret, the reveal
// overlay and the pulse, and restores explore mode. Caller must hold mu.
func (s *Session) resetOverlays() {
	s.secret.Reset()
	s.revealed = nil
	s.stopPulse()
	s.explore = true
}

// startPulse arms the one-shot pulse timer. Caller must hold mu.
func (s *Session) startPulse() {
	s.stopPulse()
	s.pulseGen++
	gen := s.pulseGen
	s.pulse = time.AfterFunc(s.pulseDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed.Load() || gen != s.pulseGen {
			return
		}
		s.pulse = nil
		s.send(ws.TypeSecretPulseEnd, nil)
	})
}

// stopPulse cancels a pending pulse. A callback already waiting on mu sees
// the bumped generation and does nothing. Caller must hold mu.
func (s *Session) stopPulse() {
	if s.pulse != nil {
		s.pulse.Stop()
		s.pulse = nil
	}
	s.pulseGen++
}

// onState forwards every store snapshot to the client. The store invokes it
// from inside a session action, with mu held.
func (s *Session) onState(st state.GameState) {
	s.sendState(st)
}

func (s *Session) sendState(st state.GameState) {
	s.send(ws.TypeGameState, gameStateMessage{
		State: st,
		Objectives: objectives{
			Hero:   st.SelectedHero != nil,
			Travel: s.traveled.Load() || st.CurrentSite != nil,
			Decode: s.decoded.Load(),
		},
		Degraded: s.store.Degraded(),
	})
}

// send pushes a message to the client unless the session is closed.
func (s *Session) send(msgType string, payload any) {
	if s.closed.Load() {
		return
	}
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		slog.Error("failed to build message", "session", s.ID, "type", msgType, "error", err)
		return
	}
	s.client.SendMessage(msg)
}

// Position returns the player's current world position.
func (s *Session) Position() game.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movement.Position()
}

// Exploring reports whether movement and collision are active.
func (s *Session) Exploring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.explore
}

// SecretUnlocked reports whether a hidden sequence has been entered since
// the last reset.
func (s *Session) SecretUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret.Unlocked()
}
