package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lithicearth/lithicearth-server/internal/game"
	"github.com/lithicearth/lithicearth-server/internal/session"
	"github.com/lithicearth/lithicearth-server/internal/ws"
)

const (
	helloTimeout = 10 * time.Second
	openTimeout  = 5 * time.Second

	maxProfileIDLength = 64
)

// HelloHandler opens a game session for a client once it introduces itself.
type HelloHandler struct {
	sessions *session.Manager
	locale   string
}

// NewHelloHandler creates a new hello handler.
func NewHelloHandler(sessions *session.Manager, locale string) *HelloHandler {
	return &HelloHandler{
		sessions: sessions,
		locale:   locale,
	}
}

type helloRequest struct {
	// ProfileID identifies the saved game to resume. A new one is issued
	// when empty.
	ProfileID string `json:"profile_id,omitempty"`
}

type welcomeResponse struct {
	ClientID  string      `json:"client_id"`
	ProfileID string      `json:"profile_id"`
	Locale    string      `json:"locale"`
	Heroes    []game.Hero `json:"heroes"`
	Sites     []game.Site `json:"sites"`
}

// HandleHello processes a hello message.
func (h *HelloHandler) HandleHello(client *ws.Client, msg ws.Message) {
	if client.Greeted() {
		client.SendMessage(ws.NewErrorMessage("already greeted"))
		return
	}

	var req helloRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			client.SendMessage(ws.NewErrorMessage("invalid hello data"))
			return
		}
	}

	profileID := strings.TrimSpace(req.ProfileID)
	if len(profileID) > maxProfileIDLength {
		client.SendMessage(ws.NewErrorMessage("profile id too long"))
		return
	}
	if profileID == "" {
		profileID = uuid.NewString()
	}

	client.Greet(profileID)

	resp, _ := ws.NewMessage(ws.TypeWelcome, welcomeResponse{
		ClientID:  client.ID,
		ProfileID: profileID,
		Locale:    h.locale,
		Heroes:    game.Heroes(),
		Sites:     game.Sites(),
	})
	client.SendMessage(resp)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	h.sessions.Open(ctx, client, profileID)

	slog.Info("client greeted", "client", client.ID, "profile", profileID)
}

// StartHelloTimeout closes the connection if the client doesn't say hello in time.
func (h *HelloHandler) StartHelloTimeout(client *ws.Client) {
	time.AfterFunc(helloTimeout, func() {
		if !client.Greeted() {
			slog.Info("hello timeout, closing connection", "client", client.ID)
			client.SendMessage(ws.NewErrorMessage("hello timeout"))
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	})
}
