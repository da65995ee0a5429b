package communications

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("services/communications")
