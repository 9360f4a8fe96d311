package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Session
const (
	TypeHello   = "hello"
	TypeWelcome = "welcome"
	TypeBegin   = "begin"
)

// Message types - Input
const (
	TypeKeyDown = "key_down"
	TypeKeyUp   = "key_up"
)

// Message types - Game state actions
const (
	TypeSelectHero      = "select_hero"
	TypeClearHero       = "clear_hero"
	TypeToggleGlobeMode = "toggle_globe_mode"
	TypeEnterSite       = "enter_site"
	TypeBackToSites     = "back_to_sites"
	TypeRevealSite      = "reveal_site"
)

// Message types - Server pushes
const (
	TypeGameState      = "game_state"
	TypeFrame          = "frame"
	TypeSiteEntered    = "site_entered"
	TypeSecretUnlocked = "secret_unlocked"
	TypeSecretPulseEnd = "secret_pulse_end"
	TypeOverlayReset   = "overlay_reset"
	TypeReveal         = "reveal"
	TypeBootProgress   = "boot_progress"
	TypeBootReady      = "boot_ready"
	TypeArchiveUpdated = "archive_updated"
)

// Message types - System
const (
	TypeError = "error"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
