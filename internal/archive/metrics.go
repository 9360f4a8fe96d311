package archive

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/lithicearth/lithicearth-server/internal/archive"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
