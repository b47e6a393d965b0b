// Package pipeline runs update cycles: discover games per source, drop the
// ones already recorded, then scrape, render and publish the rest.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/render"
	"github.com/maccabipedia/basketbot/internal/source"
)

var (
	// ErrSourceUnavailable is the per-source feed failure.
	ErrSourceUnavailable = source.ErrSourceUnavailable
	// ErrIndexUnavailable aborts a source's cycle before any scraping.
	ErrIndexUnavailable = errors.New("existence index unavailable")
)

// IndexProvider answers which titles already exist in the knowledge base.
type IndexProvider interface {
	CheckExistence(ctx context.Context, titles []string) (game.ExistenceIndex, error)
}

// Sink stores one rendered record under its title.
type Sink interface {
	Publish(ctx context.Context, title, body string) error
}

// Observer is told about every successful publish. Failures are its own
// business; the runner never waits on them to decide success.
type Observer interface {
	Published(ctx context.Context, p Publication)
}

// Publication describes a record that reached the sink.
type Publication struct {
	Title       string      `json:"title"`
	Source      string      `json:"source"`
	SourceURL   string      `json:"source_url"`
	Body        string      `json:"body"`
	Record      game.Record `json:"record"`
	PublishedAt time.Time   `json:"published_at"`
}

// Config tunes a Runner.
type Config struct {
	TrackedTeam  string
	GamesToCheck int
	Concurrency  int
	GameTimeout  time.Duration
}

// CycleReport summarizes one source's cycle.
type CycleReport struct {
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Candidates int       `json:"candidates"`
	New        int       `json:"new"`
	Existing   int       `json:"existing"`
	Published  int       `json:"published"`
	Failed     []string  `json:"failed,omitempty"`
	Error      string    `json:"error,omitempty"`
	Err        error     `json:"-"`
}

// Runner executes update cycles over a fixed set of adapters.
type Runner struct {
	adapters []source.Adapter
	index    IndexProvider
	sink     Sink
	observer Observer
	cfg      Config
	logger   *logging.Logger

	mu   sync.RWMutex
	last []CycleReport
}

// NewRunner wires a runner. observer may be nil.
func NewRunner(adapters []source.Adapter, index IndexProvider, sink Sink, observer Observer, cfg Config, logger *logging.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.GameTimeout <= 0 {
		cfg.GameTimeout = 2 * time.Minute
	}
	return &Runner{
		adapters: adapters,
		index:    index,
		sink:     sink,
		observer: observer,
		cfg:      cfg,
		logger:   logger.Component("pipeline"),
	}
}

// RunCycle runs every source concurrently and returns one report per
// source, in adapter order. It returns after all games have finished.
func (r *Runner) RunCycle(ctx context.Context) []CycleReport {
	reports := make([]CycleReport, len(r.adapters))

	var wg conc.WaitGroup
	for i, adapter := range r.adapters {
		i, adapter := i, adapter
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() {
				reports[i] = r.runSource(ctx, adapter)
			})
			if recovered := pc.Recovered(); recovered != nil {
				err := recovered.AsError()
				r.logger.Error("source panicked", "source", adapter.Name(), "error", err)
				reports[i] = CycleReport{
					Source:     adapter.Name(),
					FinishedAt: time.Now(),
					Err:        err,
					Error:      err.Error(),
				}
			}
		})
	}
	wg.Wait()

	r.mu.Lock()
	r.last = reports
	r.mu.Unlock()

	return reports
}

// LastReports returns the reports of the most recent cycle.
func (r *Runner) LastReports() []CycleReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CycleReport, len(r.last))
	copy(out, r.last)
	return out
}

func (r *Runner) runSource(ctx context.Context, adapter source.Adapter) CycleReport {
	name := adapter.Name()
	log := r.logger.With("source", name)
	report := CycleReport{Source: name, StartedAt: time.Now()}

	fail := func(err error) CycleReport {
		report.Err = err
		report.Error = err.Error()
		report.FinishedAt = time.Now()
		return report
	}

	candidates, err := adapter.Discover(ctx, r.cfg.TrackedTeam, r.cfg.GamesToCheck)
	if err != nil {
		log.Error("failed to update last games", "error", err)
		return fail(err)
	}
	report.Candidates = len(candidates)
	if len(candidates) == 0 {
		log.Info("no completed games found")
		report.FinishedAt = time.Now()
		return report
	}

	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.IdentityKey
		log.Info("will check existence", "url", c.SourceURL, "title", c.IdentityKey)
	}

	index, err := r.index.CheckExistence(ctx, titles)
	if err == nil && index == nil {
		err = errors.New("provider returned no index")
	}
	if err != nil {
		err = errors.Mark(errors.Wrap(err, "check existence"), ErrIndexUnavailable)
		log.Error("aborting cycle", "error", err)
		return fail(err)
	}

	part := Partition(candidates, index)
	report.New = len(part.New)
	report.Existing = len(part.Existing)
	log.Info("partitioned candidates", "new", report.New, "existing", report.Existing)

	if len(part.New) == 0 {
		report.FinishedAt = time.Now()
		return report
	}

	published, failed, err := r.publishAll(ctx, adapter, part.New, log)
	report.Published = published
	report.Failed = failed
	if err != nil {
		return fail(err)
	}

	report.FinishedAt = time.Now()
	return report
}

func (r *Runner) publishAll(ctx context.Context, adapter source.Adapter, games []game.Candidate, log *logging.Logger) (int, []string, error) {
	pool, err := ants.NewPool(r.cfg.Concurrency)
	if err != nil {
		return 0, nil, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	var (
		mu        sync.Mutex
		published int
		failed    []string
		workers   sync.WaitGroup
	)

	record := func(title string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed = append(failed, title)
			return
		}
		published++
	}

	for _, c := range games {
		c := c
		if ctx.Err() != nil {
			record(c.IdentityKey, ctx.Err())
			continue
		}

		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			var pc panics.Catcher
			var gameErr error
			pc.Try(func() { gameErr = r.processGame(ctx, adapter, c, log) })
			if recovered := pc.Recovered(); recovered != nil {
				gameErr = recovered.AsError()
			}
			if gameErr != nil {
				log.Error("failed to upload new game", "title", c.IdentityKey, "error", gameErr)
			}
			record(c.IdentityKey, gameErr)
		}); err != nil {
			workers.Done()
			record(c.IdentityKey, err)
			log.Error("submit game to worker pool", "title", c.IdentityKey, "error", err)
		}
	}

	workers.Wait()
	return published, failed, nil
}

func (r *Runner) processGame(ctx context.Context, adapter source.Adapter, c game.Candidate, log *logging.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gctx, cancel := context.WithTimeout(ctx, r.cfg.GameTimeout)
	defer cancel()

	log.Info("game does not exist, uploading", "title", c.IdentityKey)

	rec, err := adapter.Scrape(gctx, c)
	if err != nil {
		return errors.Wrapf(err, "scrape %s", c.SourceURL)
	}

	body := render.Game(rec)
	if err := r.sink.Publish(gctx, c.IdentityKey, body); err != nil {
		return errors.Wrap(err, "publish")
	}

	log.Info("game published", "title", c.IdentityKey)

	if r.observer != nil {
		r.observer.Published(ctx, Publication{
			Title:       c.IdentityKey,
			Source:      adapter.Name(),
			SourceURL:   c.SourceURL,
			Body:        body,
			Record:      rec,
			PublishedAt: time.Now().UTC(),
		})
	}
	return nil
}
