// Package resilience turns an ordered list of unreliable source clients into
// exactly one validated result per metric group.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heliopulse/internal/fetchers"
	"heliopulse/internal/logger"
	"heliopulse/internal/metrics"
	"heliopulse/internal/models"
)

// Strategy selects how clients are tried
type Strategy string

const (
	// Sequential tries clients in declared order and stops at the first good one
	Sequential Strategy = "sequential"
	// Race starts every client at once; the highest-priority good answer wins
	Race Strategy = "race"
)

// ErrAttemptTimeout is recorded when a client outlives its deadline
var ErrAttemptTimeout = errors.New("attempt deadline exceeded")

// Fetcher resolves one metric group. It is safe for concurrent use.
type Fetcher struct {
	spec     models.GroupSpec
	clients  []fetchers.Client
	strategy Strategy
	rnd      Rand
	synth    Synthesizer
	now      func() time.Time
	metrics  *metrics.Recorder
	log      *logger.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithStrategy selects sequential or race mode
func WithStrategy(s Strategy) Option {
	return func(f *Fetcher) { f.strategy = s }
}

// WithRand injects the randomness used for simulated values
func WithRand(r Rand) Option {
	return func(f *Fetcher) { f.rnd = r }
}

// WithSynthesizer replaces the fallback builder
func WithSynthesizer(s Synthesizer) Option {
	return func(f *Fetcher) { f.synth = s }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithMetrics records attempts and results
func WithMetrics(m *metrics.Recorder) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a fetcher for one group with clients in priority order
func New(spec models.GroupSpec, clients []fetchers.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		spec:     spec,
		clients:  append([]fetchers.Client(nil), clients...),
		strategy: Sequential,
		rnd:      DefaultRand(),
		synth:    Synthesize,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Named("resilience")
	}
	return f
}

// Spec returns the group spec the fetcher validates against
func (f *Fetcher) Spec() models.GroupSpec { return f.spec }

// Fetch returns a good result from the first acceptable source or a simulated
// one. The only error is *CatastrophicError. Cancelling ctx does not abort
// attempts; each one is bounded by its client's own timeout.
func (f *Fetcher) Fetch(ctx context.Context) (models.SourceResult, error) {
	var (
		winner   *outcome
		attempts []models.Attempt
	)
	if f.strategy == Race {
		winner, attempts = f.race(ctx)
	} else {
		winner, attempts = f.sequential(ctx)
	}

	if winner != nil {
		res := models.SourceResult{
			Group:      f.spec.Group,
			Values:     winner.reading.Values,
			Records:    winner.reading.Records,
			Quality:    models.QualityGood,
			SourceID:   winner.source,
			ObservedAt: winner.reading.ObservedAt,
			Timestamp:  f.now(),
			Attempts:   attempts,
		}
		f.metrics.ObserveResult(string(f.spec.Group), string(res.Quality))
		return res, nil
	}

	now := f.now()
	res, err := buildFallback(f.spec, f.synth, f.rnd, now)
	if err != nil {
		f.log.Error("Fallback synthesis failed", err, map[string]interface{}{"group": string(f.spec.Group)})
		return models.SourceResult{}, err
	}
	res.Timestamp = now
	res.Attempts = attempts
	f.log.Warn("All sources failed, serving simulated data", map[string]interface{}{
		"group":    string(f.spec.Group),
		"attempts": len(attempts),
	})
	f.metrics.ObserveResult(string(f.spec.Group), string(res.Quality))
	return res, nil
}

func (f *Fetcher) sequential(ctx context.Context) (*outcome, []models.Attempt) {
	parent := context.WithoutCancel(ctx)
	attempts := make([]models.Attempt, 0, len(f.clients))
	for _, c := range f.clients {
		out := f.attempt(parent, c)
		attempts = append(attempts, out.record())
		if out.quality == models.QualityGood {
			return &out, attempts
		}
	}
	return nil, attempts
}

// race starts every client at once. Client i wins as soon as it is good and
// every client before it has settled as not good; the rest are cancelled.
func (f *Fetcher) race(ctx context.Context) (*outcome, []models.Attempt) {
	n := len(f.clients)
	if n == 0 {
		return nil, nil
	}

	raceCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	type indexed struct {
		i   int
		out outcome
	}
	results := make(chan indexed, n)
	for i, c := range f.clients {
		go func(i int, c fetchers.Client) {
			results <- indexed{i: i, out: f.attempt(raceCtx, c)}
		}(i, c)
	}

	outs := make([]*outcome, n)
	next := 0
	winner := -1
	for received := 0; received < n && winner < 0; received++ {
		r := <-results
		outs[r.i] = &r.out
		for next < n && outs[next] != nil {
			if outs[next].quality == models.QualityGood {
				winner = next
				break
			}
			next++
		}
	}

	if winner >= 0 {
		// losers return promptly once cancelled
		cancel()
		for pending := countNil(outs); pending > 0; pending-- {
			r := <-results
			outs[r.i] = &r.out
		}
	}

	attempts := make([]models.Attempt, 0, n)
	for _, o := range outs {
		attempts = append(attempts, o.record())
	}
	if winner < 0 {
		return nil, attempts
	}
	return outs[winner], attempts
}

func countNil(outs []*outcome) int {
	n := 0
	for _, o := range outs {
		if o == nil {
			n++
		}
	}
	return n
}

type outcome struct {
	source   string
	reading  models.Reading
	quality  models.Quality
	err      error
	duration time.Duration
}

func (o outcome) record() models.Attempt {
	a := models.Attempt{
		SourceID:   o.source,
		Quality:    o.quality,
		DurationMS: o.duration.Milliseconds(),
	}
	if o.err != nil {
		a.Error = o.err.Error()
	}
	return a
}

type fetchResult struct {
	reading *models.Reading
	err     error
}

// attempt runs one client under its own deadline. A client that ignores its
// context is abandoned at the deadline; a panicking client counts as a
// payload failure.
func (f *Fetcher) attempt(parent context.Context, c fetchers.Client) (out outcome) {
	start := time.Now()
	out.source = c.ID()
	defer func() {
		out.duration = time.Since(start)
		f.metrics.ObserveAttempt(string(f.spec.Group), out.source, string(out.quality), out.duration)
		fields := map[string]interface{}{
			"group":       string(f.spec.Group),
			"source":      out.source,
			"quality":     string(out.quality),
			"duration_ms": out.duration.Milliseconds(),
		}
		if out.err != nil {
			fields["error"] = out.err.Error()
		}
		f.log.Debug("Source attempt finished", fields)
	}()

	ctx, cancel := context.WithTimeout(parent, c.Timeout())
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: &fetchers.FetchError{
					Source: c.ID(),
					Kind:   fetchers.KindPayload,
					Err:    fmt.Errorf("client panicked: %v", r),
				}}
			}
		}()
		reading, err := c.Fetch(ctx)
		done <- fetchResult{reading: reading, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		cause := ctx.Err()
		if errors.Is(cause, context.DeadlineExceeded) {
			cause = ErrAttemptTimeout
		}
		out.quality = models.QualityEmpty
		out.err = &fetchers.FetchError{Source: c.ID(), Kind: fetchers.KindTransport, Err: cause}
		return out
	}

	if res.err != nil {
		out.err = res.err
		out.quality = models.QualityEmpty
		if kind, ok := fetchers.KindOf(res.err); ok && kind == fetchers.KindPayload {
			out.quality = models.QualityInvalid
		}
		return out
	}

	out.reading, out.quality, out.err = Validate(f.spec, res.reading)
	return out
}
