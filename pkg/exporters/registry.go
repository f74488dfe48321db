package exporters

import (
	"context"
	"fmt"
)

// Builder creates an Exporter from a config entry.
type Builder func(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error)

// Builders maps an exporter type to its constructor.
type Builders map[string]Builder

// DefaultBuilders knows the http and sqs exporters.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP: newHTTPExporter,
		TypeSQS:  newSQSExporter,
	}
}

// Build constructs every entry in order and stops at the first failure.
func (b Builders) Build(ctx context.Context, cfgs Configs, log Logger) ([]Exporter, error) {
	out := make([]Exporter, 0, len(cfgs))
	for _, cfg := range cfgs {
		build, ok := b[cfg.Type]
		if !ok {
			return nil, fmt.Errorf("exporter %q: no builder for type %q", cfg.ID, cfg.Type)
		}
		exp, err := build(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, nil
}
