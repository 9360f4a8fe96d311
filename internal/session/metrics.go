package session

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/lithicearth/lithicearth-server/internal/session"

// Metrics holds the session instruments.
type Metrics struct {
	active       metric.Int64UpDownCounter
	sitesEntered metric.Int64Counter
	secrets      metric.Int64Counter
	reveals      metric.Int64Counter
}

// NewMetrics creates the session instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out Metrics
		err error
	)

	out.active, err = m.Int64UpDownCounter(
		"session.active",
		metric.WithDescription("Open game sessions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active session counter: %w", err)
	}

	out.sitesEntered, err = m.Int64Counter(
		"session.sites.entered",
		metric.WithDescription("Total site entries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating site entry counter: %w", err)
	}

	out.secrets, err = m.Int64Counter(
		"session.secrets.unlocked",
		metric.WithDescription("Total hidden sequence unlocks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating secret counter: %w", err)
	}

	out.reveals, err = m.Int64Counter(
		"session.reveals",
		metric.WithDescription("Total reveal overlays opened"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reveal counter: %w", err)
	}

	return &out, nil
}

func siteAttr(id string) metric.AddOption {
	return metric.WithAttributes(attribute.String("site", id))
}

// The recording helpers accept a nil *Metrics so tests can skip instruments.

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.active.Add(context.Background(), 1)
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.active.Add(context.Background(), -1)
	}
}

func (m *Metrics) siteEntered(id string) {
	if m != nil {
		m.sitesEntered.Add(context.Background(), 1, siteAttr(id))
	}
}

func (m *Metrics) secretUnlocked() {
	if m != nil {
		m.secrets.Add(context.Background(), 1)
	}
}

func (m *Metrics) revealed(id string) {
	if m != nil {
		m.reveals.Add(context.Background(), 1, siteAttr(id))
	}
}
