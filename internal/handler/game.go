package handler

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/lithicearth/lithicearth-server/internal/game"
	"github.com/lithicearth/lithicearth-server/internal/session"
	"github.com/lithicearth/lithicearth-server/internal/state"
	"github.com/lithicearth/lithicearth-server/internal/ws"
)

// GameHandler handles in-game messages.
type GameHandler struct {
	sessions *session.Manager
}

// NewGameHandler creates a new game handler.
func NewGameHandler(sessions *session.Manager) *GameHandler {
	return &GameHandler{sessions: sessions}
}

type keyRequest struct {
	Key         string `json:"key"`
	InTextInput bool   `json:"in_text_input"`
}

type selectHeroRequest struct {
	Hero game.HeroID `json:"hero"`
}

type siteRequest struct {
	Site  string `json:"site"`
	Shift bool   `json:"shift,omitempty"`
}

// HandleKeyDown forwards a key press to the client's session.
func (h *GameHandler) HandleKeyDown(client *ws.Client, msg ws.Message) {
	var req keyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Key == "" {
		client.SendMessage(ws.NewErrorMessage("invalid key data"))
		return
	}
	if s := h.session(client); s != nil {
		s.KeyDown(req.Key, req.InTextInput)
	}
}

// HandleKeyUp forwards a key release to the client's session.
func (h *GameHandler) HandleKeyUp(client *ws.Client, msg ws.Message) {
	var req keyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Key == "" {
		client.SendMessage(ws.NewErrorMessage("invalid key data"))
		return
	}
	if s := h.session(client); s != nil {
		s.KeyUp(req.Key)
	}
}

func (h *GameHandler) HandleBegin(client *ws.Client, _ ws.Message) {
	if s := h.session(client); s != nil {
		h.reply(client, s.Begin())
	}
}

func (h *GameHandler) HandleSelectHero(client *ws.Client, msg ws.Message) {
	var req selectHeroRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid hero data"))
		return
	}
	if s := h.session(client); s != nil {
		h.reply(client, s.SelectHero(req.Hero))
	}
}

func (h *GameHandler) HandleClearHero(client *ws.Client, _ ws.Message) {
	if s := h.session(client); s != nil {
		h.reply(client, s.ClearHero())
	}
}

func (h *GameHandler) HandleToggleGlobeMode(client *ws.Client, _ ws.Message) {
	if s := h.session(client); s != nil {
		h.reply(client, s.ToggleGlobeMode())
	}
}

func (h *GameHandler) HandleEnterSite(client *ws.Client, msg ws.Message) {
	var req siteRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Site == "" {
		client.SendMessage(ws.NewErrorMessage("invalid site data"))
		return
	}
	if s := h.session(client); s != nil {
		h.reply(client, s.EnterSite(req.Site))
	}
}

func (h *GameHandler) HandleBackToSites(client *ws.Client, _ ws.Message) {
	if s := h.session(client); s != nil {
		h.reply(client, s.BackToSites())
	}
}

// HandleRevealSite handles a marker click, with or without shift held.
func (h *GameHandler) HandleRevealSite(client *ws.Client, msg ws.Message) {
	var req siteRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Site == "" {
		client.SendMessage(ws.NewErrorMessage("invalid site data"))
		return
	}
	if s := h.session(client); s != nil {
		h.reply(client, s.RevealSite(req.Site, req.Shift))
	}
}

func (h *GameHandler) session(client *ws.Client) *session.Session {
	s := h.sessions.Get(client.ID)
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("no active session"))
	}
	return s
}

// reply reports a failed action back to the client.
func (h *GameHandler) reply(client *ws.Client, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, state.ErrInvalidHero):
		client.SendMessage(ws.NewErrorMessage("unknown hero"))
	case errors.Is(err, state.ErrInvalidSite):
		client.SendMessage(ws.NewErrorMessage("site is not available"))
	case errors.Is(err, session.ErrBootNotReady), errors.Is(err, session.ErrNotBooted):
		client.SendMessage(ws.NewErrorMessage("game is still booting"))
	default:
		slog.Warn("game action failed", "client", client.ID, "error", err)
		client.SendMessage(ws.NewErrorMessage("action failed"))
	}
}
