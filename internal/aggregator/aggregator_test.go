package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"heliopulse/internal/fetchers"
	"heliopulse/internal/logger"
	"heliopulse/internal/metrics"
	"heliopulse/internal/models"
	"heliopulse/internal/resilience"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type readingClient struct {
	id      string
	delay   time.Duration
	reading *models.Reading
	err     error
}

func (c readingClient) ID() string             { return c.id }
func (c readingClient) Timeout() time.Duration { return 2 * time.Second }

func (c readingClient) Fetch(ctx context.Context) (*models.Reading, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	values := make(map[string]float64, len(c.reading.Values))
	for k, v := range c.reading.Values {
		values[k] = v
	}
	return &models.Reading{Values: values, Records: c.reading.Records}, nil
}

func failing(id string) readingClient {
	return readingClient{id: id, err: &fetchers.FetchError{Source: id, Kind: fetchers.KindTransport, Err: errors.New("down")}}
}

type panicFetcher struct{ spec models.GroupSpec }

func (p panicFetcher) Spec() models.GroupSpec { return p.spec }
func (p panicFetcher) Fetch(context.Context) (models.SourceResult, error) {
	panic("fetcher bug")
}

func goodClients() map[models.MetricGroup][]fetchers.Client {
	return map[models.MetricGroup][]fetchers.Client{
		models.GroupSolarWind: {readingClient{id: "wind", reading: &models.Reading{
			Values: map[string]float64{"speed": 450, "density": 5, "temperature": 100000},
		}}},
		models.GroupSunspots: {readingClient{id: "ssn", reading: &models.Reading{
			Values: map[string]float64{"ssn": 113},
		}}},
		models.GroupGeomagnetic: {readingClient{id: "kp", reading: &models.Reading{
			Values: map[string]float64{"kp": 3.33, "a_index": 12},
		}}},
		models.GroupFlares: {readingClient{id: "xray", reading: &models.Reading{
			Values: map[string]float64{"count": 2, "max_flux": 1.2e-5},
		}}},
		models.GroupAlerts: {readingClient{id: "alerts", reading: &models.Reading{
			Values:  map[string]float64{"count": 1},
			Records: []models.Record{{Type: "Report", Title: "Quiet"}},
		}}},
		models.GroupAPOD: {readingClient{id: "apod", reading: &models.Reading{
			Records: []models.Record{{Type: "APOD", Title: "Pillars"}},
		}}},
	}
}

func buildAggregator(t *testing.T, clients map[models.MetricGroup][]fetchers.Client, opts ...resilience.Option) *Aggregator {
	t.Helper()
	reg := &fetchers.Registry{}
	for g, cs := range clients {
		reg.Register(g, cs...)
	}
	base := []resilience.Option{
		resilience.WithClock(func() time.Time { return fixedNow }),
		resilience.WithLogger(logger.NewNop()),
	}
	gf := FromRegistry(models.DefaultCatalogue(), reg, append(base, opts...)...)
	return New(gf, WithClock(func() time.Time { return fixedNow }), WithLogger(logger.NewNop()))
}

func TestFetchAggregateStatusAllGood(t *testing.T) {
	t.Parallel()
	agg := buildAggregator(t, goodClients())

	res, err := agg.FetchAggregateStatus(context.Background(), StatusGroups)

	require.NoError(t, err)
	require.Len(t, res.Groups, len(StatusGroups))
	for _, g := range StatusGroups {
		assert.Equal(t, models.QualityGood, res.Groups[g].Quality, g)
	}
	assert.Equal(t, 450.0, res.Groups[models.GroupSolarWind].Values["speed"])
	assert.Equal(t, 113.0, res.Groups[models.GroupSunspots].Values["ssn"])
	assert.Equal(t, fixedNow, res.Timestamp)
	_, err = uuid.Parse(res.RequestID)
	assert.NoError(t, err)
	assert.Equal(t, "wind/good", res.Provenance()[models.GroupSolarWind])
}

func TestFetchAggregateStatusMixedProvenance(t *testing.T) {
	t.Parallel()
	clients := goodClients()
	clients[models.GroupSolarWind] = []fetchers.Client{readingClient{id: "wind", reading: &models.Reading{
		Values: map[string]float64{"speed": 5, "density": 5, "temperature": 100000},
	}}}
	clients[models.GroupAlerts] = []fetchers.Client{failing("donki"), failing("swpc")}
	agg := buildAggregator(t, clients)

	res, err := agg.FetchAggregateStatus(context.Background(), StatusGroups)

	require.NoError(t, err)
	wind := res.Groups[models.GroupSolarWind]
	assert.Equal(t, models.QualitySimulated, wind.Quality)
	assert.GreaterOrEqual(t, wind.Values["speed"], 300.0)
	assert.LessOrEqual(t, wind.Values["speed"], 550.0)
	assert.Equal(t, models.QualityGood, res.Groups[models.GroupSunspots].Quality)

	alerts := res.Groups[models.GroupAlerts]
	assert.Equal(t, models.QualitySimulated, alerts.Quality)
	assert.Equal(t, float64(len(alerts.Records)), alerts.Values["count"])
	assert.Len(t, alerts.Attempts, 2)
}

func TestFetchAggregateStatusEveryGroupPresentWhenAllFail(t *testing.T) {
	t.Parallel()
	clients := map[models.MetricGroup][]fetchers.Client{}
	for _, g := range models.DefaultCatalogue().Groups() {
		clients[g] = []fetchers.Client{failing(string(g))}
	}
	agg := buildAggregator(t, clients)
	all := agg.Groups()

	res, err := agg.FetchAggregateStatus(context.Background(), all)

	require.NoError(t, err)
	require.Len(t, res.Groups, len(all))
	catalogue := models.DefaultCatalogue()
	for _, g := range all {
		r := res.Groups[g]
		assert.True(t, r.IsSimulated(), g)
		for name, v := range r.Values {
			m, _ := catalogue[g].Metric(name)
			assert.True(t, m.InRange(v), "%s.%s=%g", g, name, v)
		}
	}
}

func TestFetchAggregateStatusRunsGroupsConcurrently(t *testing.T) {
	t.Parallel()
	delay := 300 * time.Millisecond
	clients := goodClients()
	for g, cs := range clients {
		c := cs[0].(readingClient)
		c.delay = delay
		clients[g] = []fetchers.Client{c}
	}
	agg := buildAggregator(t, clients)

	start := time.Now()
	res, err := agg.FetchAggregateStatus(context.Background(), StatusGroups)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, res.Groups, len(StatusGroups))
	assert.Less(t, elapsed, 2*delay, "groups must not be fetched one after another")
}

func TestFetchAggregateStatusSlowGroupDoesNotDelayOthersBeyondItself(t *testing.T) {
	t.Parallel()
	clients := goodClients()
	slow := clients[models.GroupSunspots][0].(readingClient)
	slow.delay = 500 * time.Millisecond
	clients[models.GroupSunspots] = []fetchers.Client{slow}
	agg := buildAggregator(t, clients)

	start := time.Now()
	res, err := agg.FetchAggregateStatus(context.Background(), StatusGroups)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, models.QualityGood, res.Groups[models.GroupSunspots].Quality)
	assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
	assert.Less(t, elapsed, 900*time.Millisecond)
}

func TestFetchAggregateStatusRejectsUnknownGroup(t *testing.T) {
	t.Parallel()
	agg := buildAggregator(t, goodClients())

	res, err := agg.FetchAggregateStatus(context.Background(), []models.MetricGroup{models.GroupSolarWind, "weather_on_mars"})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnknownGroup)
	assert.Contains(t, err.Error(), "weather_on_mars")
}

func TestFetchAggregateStatusDeduplicates(t *testing.T) {
	t.Parallel()
	agg := buildAggregator(t, goodClients())

	res, err := agg.FetchAggregateStatus(context.Background(), []models.MetricGroup{
		models.GroupFlares, models.GroupFlares, models.GroupSunspots,
	})

	require.NoError(t, err)
	assert.Len(t, res.Groups, 2)
}

func TestFetchAggregateStatusEmptyRequest(t *testing.T) {
	t.Parallel()
	agg := buildAggregator(t, goodClients())

	res, err := agg.FetchAggregateStatus(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, res.Groups)
}

func TestCatastrophicFallbackYieldsStaticDefault(t *testing.T) {
	t.Parallel()
	clients := goodClients()
	clients[models.GroupSolarWind] = []fetchers.Client{failing("wind")}
	broken := func(models.GroupSpec, resilience.Rand, time.Time) models.SourceResult { panic("template missing") }
	agg := buildAggregator(t, clients, resilience.WithSynthesizer(broken))

	res, err := agg.FetchAggregateStatus(context.Background(), StatusGroups)

	require.Error(t, err)
	var cat *resilience.CatastrophicError
	require.ErrorAs(t, err, &cat)
	assert.Equal(t, models.GroupSolarWind, cat.Group)

	require.NotNil(t, res)
	require.Len(t, res.Groups, len(StatusGroups))
	wind := res.Groups[models.GroupSolarWind]
	assert.Equal(t, models.SourceStaticDefault, wind.SourceID)
	assert.Equal(t, models.QualitySimulated, wind.Quality)
	assert.Equal(t, 425.0, wind.Values["speed"])
	assert.Equal(t, models.QualityGood, res.Groups[models.GroupSunspots].Quality)
}

func TestPanickingGroupFetcherIsContained(t *testing.T) {
	t.Parallel()
	catalogue := models.DefaultCatalogue()
	reg := &fetchers.Registry{}
	for g, cs := range goodClients() {
		reg.Register(g, cs...)
	}
	gf := FromRegistry(catalogue, reg, resilience.WithLogger(logger.NewNop()))
	gf = append(gf, panicFetcher{spec: catalogue[models.GroupFlares]})
	agg := New(gf, WithLogger(logger.NewNop()))

	res, err := agg.FetchAggregateStatus(context.Background(), StatusGroups)

	var cat *resilience.CatastrophicError
	require.ErrorAs(t, err, &cat)
	assert.Equal(t, models.GroupFlares, cat.Group)
	assert.Equal(t, models.SourceStaticDefault, res.Groups[models.GroupFlares].SourceID)
	assert.Equal(t, models.QualityGood, res.Groups[models.GroupSolarWind].Quality)
}

func TestFetchAggregateStatusRecordsLatency(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	r := &fetchers.Registry{}
	for g, cs := range goodClients() {
		r.Register(g, cs...)
	}
	agg := New(FromRegistry(models.DefaultCatalogue(), r, resilience.WithLogger(logger.NewNop()), resilience.WithMetrics(rec)),
		WithMetrics(rec), WithLogger(logger.NewNop()))

	_, err = agg.FetchAggregateStatus(context.Background(), StatusGroups)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "heliopulse_group_results_total")
	require.NoError(t, err)
	assert.Equal(t, len(StatusGroups), count)
	count, err = testutil.GatherAndCount(reg, "heliopulse_aggregate_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
