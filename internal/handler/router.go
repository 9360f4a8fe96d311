package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/lithicearth/lithicearth-server/internal/session"
	"github.com/lithicearth/lithicearth-server/internal/ws"
)

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	hello    *HelloHandler
	game     *GameHandler
	sessions *session.Manager
}

// NewRouter creates a new message router.
func NewRouter(sessions *session.Manager, locale string) *Router {
	return &Router{
		hello:    NewHelloHandler(sessions, locale),
		game:     NewGameHandler(sessions),
		sessions: sessions,
	}
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	// Hello is always allowed
	if msg.Type == ws.TypeHello {
		r.hello.HandleHello(cm.Client, msg)
		return
	}

	// Hello guard: nothing else until the client has introduced itself
	if !cm.Client.Greeted() {
		cm.Client.SendMessage(ws.NewErrorMessage("hello required"))
		return
	}

	switch msg.Type {
	// Input
	case ws.TypeKeyDown:
		r.game.HandleKeyDown(cm.Client, msg)
	case ws.TypeKeyUp:
		r.game.HandleKeyUp(cm.Client, msg)
	case ws.TypeBegin:
		r.game.HandleBegin(cm.Client, msg)

	// Game state actions
	case ws.TypeSelectHero:
		r.game.HandleSelectHero(cm.Client, msg)
	case ws.TypeClearHero:
		r.game.HandleClearHero(cm.Client, msg)
	case ws.TypeToggleGlobeMode:
		r.game.HandleToggleGlobeMode(cm.Client, msg)
	case ws.TypeEnterSite:
		r.game.HandleEnterSite(cm.Client, msg)
	case ws.TypeBackToSites:
		r.game.HandleBackToSites(cm.Client, msg)
	case ws.TypeRevealSite:
		r.game.HandleRevealSite(cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect closes the client's session.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.sessions.Remove(client.ID)
}

// StartHelloTimeout starts the hello timeout for a new client.
func (r *Router) StartHelloTimeout(client *ws.Client) {
	r.hello.StartHelloTimeout(client)
}
