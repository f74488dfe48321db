package exporters

import "context"

// Exporter forwards generated results to a downstream sink (SQS, HTTP).
type Exporter interface {
	ID() string
	Type() string
	Export(ctx context.Context, evt Event) error
}
