package querystate

import (
	"context"
	"sync"
	"time"

	"docketlens/internal/core/engine"
	"docketlens/internal/core/query"
	"docketlens/internal/platform/logger"
)

// defaultDebounce coalesces rapid keystrokes before a search commits
const defaultDebounce = 500 * time.Millisecond

// Executor runs one query execution per piece. Implementations are the
// query execution services; failures come back as errors, never panics
type Executor interface {
	Rows(ctx context.Context, q query.Query) (engine.ResultPage, error)
	Stats(ctx context.Context, q query.Query) (engine.StanceCounts, error)
	DedupedStats(ctx context.Context, q query.Query) (engine.StanceCounts, error)
	Series(ctx context.Context, q query.Query, dateField string, includeDuplicates bool) ([]engine.TimeBucket, error)
}

// URLWriter replaces the navigable address in place, without a reload
type URLWriter interface {
	Replace(params map[string]string)
}

// Controller is the imperative shell around Transition. All state mutation
// is serialized under one mutex; fetches run concurrently and report back
// through Dispatch, where the generation check decides their fate
type Controller struct {
	mu    sync.Mutex
	state State

	exec Executor
	urlw URLWriter
	log  *logger.Logger

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration

	ctx context.Context
}

// Option tunes a controller
type Option func(*Controller)

// WithDebounce overrides the search debounce delay, mostly for tests
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounceDelay = d }
}

// New builds a controller for one browsing view
func New(ctx context.Context, exec Executor, urlw URLWriter, opts ...Option) *Controller {
	if exec == nil {
		panic("querystate.Controller requires a non nil Executor")
	}
	c := &Controller{
		exec:          exec,
		urlw:          urlw,
		log:           logger.Named("querystate"),
		debounceDelay: defaultDebounce,
		ctx:           ctx,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a snapshot of the visible state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch advances the state machine and executes the resulting effects
func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	next, effects := Transition(c.state, ev)
	c.state = next
	c.mu.Unlock()

	for _, eff := range effects {
		switch e := eff.(type) {
		case FetchEffect:
			c.fanOut(e)
		case WriteURLEffect:
			if c.urlw != nil {
				c.urlw.Replace(e.Params)
			}
		case DebounceEffect:
			c.armDebounce(e.Term)
		}
	}
}

// fanOut dispatches every piece concurrently. Pieces fail independently;
// there is no all-or-nothing join, and no hard cancellation: a superseded
// result is discarded by the generation check when it resolves
func (c *Controller) fanOut(e FetchEffect) {
	gen, q := e.Generation, e.Query

	go func() {
		page, err := c.exec.Rows(c.ctx, q)
		c.resolve(gen, PieceRows, err, func(ev *FetchResolved) { ev.Rows = &page })
	}()
	go func() {
		st, err := c.exec.Stats(c.ctx, q)
		c.resolve(gen, PieceStats, err, func(ev *FetchResolved) { ev.Stats = &st })
	}()
	go func() {
		st, err := c.exec.DedupedStats(c.ctx, q)
		c.resolve(gen, PieceDedupedStats, err, func(ev *FetchResolved) { ev.Stats = &st })
	}()
	for _, v := range SeriesVariants {
		go func() {
			buckets, err := c.exec.Series(c.ctx, q, v.DateField, v.IncludeDuplicates)
			c.resolve(gen, v.Piece(), err, func(ev *FetchResolved) { ev.Series = buckets })
		}()
	}
}

func (c *Controller) resolve(gen uint64, piece Piece, err error, fill func(*FetchResolved)) {
	if err != nil {
		c.log.Warn().Uint64("generation", gen).Str("piece", string(piece)).Err(err).Msg("fetch failed")
		c.Dispatch(FetchFailed{Generation: gen, Piece: piece, Err: err.Error()})
		return
	}
	ev := FetchResolved{Generation: gen, Piece: piece}
	fill(&ev)
	c.Dispatch(ev)
}

func (c *Controller) armDebounce(term string) {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.debounceDelay, func() {
		c.Dispatch(DebounceElapsed{Term: term})
	})
}
