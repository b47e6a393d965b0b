// Package sink holds record sinks and observer plumbing that sit between the
// pipeline and its outputs.
package sink

import (
	"context"
	"sync"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

// DryRun logs rendered records instead of uploading them.
type DryRun struct {
	logger *logging.Logger

	mu     sync.Mutex
	titles []string
}

// NewDryRun creates a dry-run sink.
func NewDryRun(logger *logging.Logger) *DryRun {
	return &DryRun{logger: logger.Component("dry-run")}
}

// Publish logs the record body and always succeeds.
func (d *DryRun) Publish(_ context.Context, title, body string) error {
	d.mu.Lock()
	d.titles = append(d.titles, title)
	d.mu.Unlock()

	d.logger.Info("would publish record", "title", title, "body", body)
	return nil
}

// Titles returns every title seen so far.
func (d *DryRun) Titles() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.titles))
	copy(out, d.titles)
	return out
}

// Fanout forwards each publication to several observers in order.
type Fanout []pipeline.Observer

// Published implements pipeline.Observer. Nil entries are skipped.
func (f Fanout) Published(ctx context.Context, p pipeline.Publication) {
	for _, o := range f {
		if o != nil {
			o.Published(ctx, p)
		}
	}
}
