package sentinell

import (
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/m-mizutani/sentinell"

// tracer follows the global TracerProvider, so spans are exported once the process installs one.
var tracer = otel.Tracer(tracerName)
