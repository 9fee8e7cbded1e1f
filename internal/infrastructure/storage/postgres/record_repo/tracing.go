package record_repo

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("staffdesk/record_repo")
