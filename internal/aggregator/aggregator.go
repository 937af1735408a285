// Package aggregator fans out over metric groups and merges the per-group
// results into one aggregate.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heliopulse/internal/fetchers"
	"heliopulse/internal/logger"
	"heliopulse/internal/metrics"
	"heliopulse/internal/models"
	"heliopulse/internal/resilience"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownGroup is returned when a requested group has no fetcher
var ErrUnknownGroup = errors.New("unknown metric group")

// StatusGroups is the group set behind the overall status view
var StatusGroups = []models.MetricGroup{
	models.GroupSolarWind,
	models.GroupFlares,
	models.GroupSunspots,
	models.GroupGeomagnetic,
	models.GroupAlerts,
}

// GroupFetcher resolves exactly one result for one group
type GroupFetcher interface {
	Spec() models.GroupSpec
	Fetch(ctx context.Context) (models.SourceResult, error)
}

// Aggregator merges group results. It holds no per-request state and is safe
// for concurrent use.
type Aggregator struct {
	fetchers map[models.MetricGroup]GroupFetcher
	now      func() time.Time
	metrics  *metrics.Recorder
	log      *logger.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithMetrics records aggregate latency
func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New creates an aggregator over the given group fetchers. A later fetcher
// for the same group replaces an earlier one.
func New(groupFetchers []GroupFetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetchers: make(map[models.MetricGroup]GroupFetcher, len(groupFetchers)),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, f := range groupFetchers {
		a.fetchers[f.Spec().Group] = f
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("aggregator")
	}
	return a
}

// FromRegistry builds one resilient fetcher per catalogue group using the
// registry's clients in priority order
func FromRegistry(catalogue models.Catalogue, reg *fetchers.Registry, opts ...resilience.Option) []GroupFetcher {
	out := make([]GroupFetcher, 0, len(catalogue))
	for _, g := range catalogue.Groups() {
		out = append(out, resilience.New(catalogue[g], reg.Clients(g), opts...))
	}
	return out
}

// Groups lists the groups this aggregator can serve
func (a *Aggregator) Groups() []models.MetricGroup {
	c := make(models.Catalogue, len(a.fetchers))
	for g, f := range a.fetchers {
		c[g] = f.Spec()
	}
	return c.Groups()
}

// FetchAggregateStatus resolves every requested group concurrently. The
// result always holds one entry per distinct requested group. When a group's
// fallback could not be built it gets a static default and the returned error
// joins every *resilience.CatastrophicError; the result is still complete.
func (a *Aggregator) FetchAggregateStatus(ctx context.Context, groups []models.MetricGroup) (*models.AggregateResult, error) {
	start := time.Now()
	requested, err := a.resolve(groups)
	if err != nil {
		return nil, err
	}

	results := make([]models.SourceResult, len(requested))
	failures := make([]error, len(requested))

	var eg errgroup.Group
	for i, g := range requested {
		f := a.fetchers[g]
		eg.Go(func() error {
			results[i], failures[i] = a.fetchGroup(ctx, f)
			return nil
		})
	}
	_ = eg.Wait()

	now := a.now()
	agg := &models.AggregateResult{
		RequestID: uuid.NewString(),
		Timestamp: now,
		Groups:    make(map[models.MetricGroup]models.SourceResult, len(requested)),
	}
	for i, g := range requested {
		if failures[i] != nil {
			def := a.fetchers[g].Spec().StaticDefault(now)
			a.metrics.ObserveResult(string(g), string(def.Quality))
			agg.Groups[g] = def
			continue
		}
		agg.Groups[g] = results[i]
	}

	joined := errors.Join(failures...)
	a.metrics.ObserveAggregate(time.Since(start))
	if joined != nil {
		a.log.Error("Aggregate served static defaults", joined, map[string]interface{}{"request_id": agg.RequestID})
	} else {
		a.log.Debug("Aggregate complete", map[string]interface{}{
			"request_id":  agg.RequestID,
			"groups":      len(requested),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
	return agg, joined
}

func (a *Aggregator) resolve(groups []models.MetricGroup) ([]models.MetricGroup, error) {
	seen := make(map[models.MetricGroup]bool, len(groups))
	out := make([]models.MetricGroup, 0, len(groups))
	for _, g := range groups {
		if _, ok := a.fetchers[g]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out, nil
}

// fetchGroup never lets a panic escape; one is reported as catastrophic
func (a *Aggregator) fetchGroup(ctx context.Context, f GroupFetcher) (res models.SourceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &resilience.CatastrophicError{
				Group: f.Spec().Group,
				At:    a.now(),
				Cause: fmt.Errorf("group fetcher panicked: %v", r),
			}
		}
	}()

	res, err = f.Fetch(ctx)
	if err != nil {
		var cat *resilience.CatastrophicError
		if !errors.As(err, &cat) {
			err = &resilience.CatastrophicError{Group: f.Spec().Group, At: a.now(), Cause: err}
		}
	}
	return res, err
}
