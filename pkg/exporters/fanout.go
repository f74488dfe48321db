package exporters

import (
	"context"
	"errors"
	"fmt"
)

// Fanout dispatches events to all configured exporters.
type Fanout struct {
	exporters []Exporter
	log       Logger
}

// NewFanout builds a dispatcher over exps, skipping nil entries.
func NewFanout(exps []Exporter, log Logger) *Fanout {
	cp := make([]Exporter, 0, len(exps))
	for _, e := range exps {
		if e == nil {
			continue
		}
		cp = append(cp, e)
	}
	return &Fanout{exporters: cp, log: ensureLogger(log)}
}

// Export forwards the event to every exporter and returns how many accepted it.
func (f *Fanout) Export(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.exporters) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, e := range f.exporters {
		if err := e.Export(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s exporter[%s]: %w", e.Type(), e.ID(), err))
			continue
		}
		successful++
	}
	if len(errs) > 0 {
		f.log.WarnObj("result export incomplete", "export", map[string]any{
			"kind":      evt.Kind,
			"delivered": successful,
			"failed":    len(errs),
		})
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active exporters.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.exporters)
}
