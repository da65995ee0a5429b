package submissions

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("services/submissions")
