package session

import (
	"github.com/lithicearth/lithicearth-server/internal/game"
	"github.com/lithicearth/lithicearth-server/internal/state"
)

type frameMessage struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Running bool    `json:"running"`
}

type siteEnteredMessage struct {
	Site game.Site `json:"site"`
}

type secretUnlockedMessage struct {
	Text       string `json:"text"`
	PulseMilli int64  `json:"pulse_ms"`
}

type overlayResetMessage struct {
	Explore bool `json:"explore"`
}

type revealMessage struct {
	Site      game.Site `json:"site"`
	Header    string    `json:"header"`
	Mysteries []string  `json:"mysteries"`
	// Unlocked is the catalog site opened up by this reveal, if any.
	Unlocked string `json:"unlocked,omitempty"`
}

type bootProgressMessage struct {
	Progress int    `json:"progress"`
	Line     string `json:"line"`
}

type bootReadyMessage struct {
	Text       string   `json:"text"`
	Objectives []string `json:"objectives"`
	Tip        string   `json:"tip"`
}

type gameStateMessage struct {
	State      state.GameState `json:"state"`
	Objectives objectives      `json:"objectives"`
	Degraded   bool            `json:"degraded"`
}

// objectives tracks the checklist shown alongside the globe.
type objectives struct {
	Hero   bool `json:"hero"`
	Travel bool `json:"travel"`
	Decode bool `json:"decode"`
}
