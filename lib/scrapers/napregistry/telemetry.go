package napregistry

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/napregistry")
