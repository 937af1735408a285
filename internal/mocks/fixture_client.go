// Package mocks serves recorded upstream payloads for offline development.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"heliopulse/internal/fetchers"
	"heliopulse/internal/models"
)

// FixtureClient replays a recorded payload through the live parser
type FixtureClient struct {
	id      string
	path    string
	timeout time.Duration
	parse   fetchers.Parser
}

// NewFixtureClient creates a client reading the payload from path
func NewFixtureClient(id, path string, timeout time.Duration, parse fetchers.Parser) *FixtureClient {
	return &FixtureClient{id: id, path: path, timeout: timeout, parse: parse}
}

// ID returns the source id of the live client being stood in for
func (c *FixtureClient) ID() string { return c.id }

// Timeout returns the per-attempt deadline
func (c *FixtureClient) Timeout() time.Duration { return c.timeout }

// Fetch reads and parses the fixture file
func (c *FixtureClient) Fetch(ctx context.Context) (*models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, &fetchers.FetchError{Source: c.id, Kind: fetchers.KindTransport, Err: err}
	}

	content, err := os.ReadFile(c.path)
	if err != nil {
		return nil, &fetchers.FetchError{Source: c.id, Kind: fetchers.KindTransport,
			Err: fmt.Errorf("failed to read fixture %s: %w", filepath.Base(c.path), err)}
	}
	if len(content) == 0 {
		return nil, &fetchers.FetchError{Source: c.id, Kind: fetchers.KindEmpty, Err: fetchers.ErrEmptyPayload}
	}

	reading, err := c.parse(content)
	if err != nil {
		kind := fetchers.KindPayload
		if errors.Is(err, fetchers.ErrEmptyPayload) {
			kind = fetchers.KindEmpty
		}
		return nil, &fetchers.FetchError{Source: c.id, Kind: kind, Err: err}
	}
	if reading.ObservedAt.IsZero() {
		reading.ObservedAt = time.Now().UTC()
	}
	return reading, nil
}

type fixture struct {
	group models.MetricGroup
	id    string
	file  string
	parse fetchers.Parser
	with  []fixture
}

var (
	plasmaRows = fetchers.ParseLatestRow(fetchers.PlasmaColumns)
	magRows    = fetchers.ParseLatestRow(fetchers.MagColumns)
	dstRows    = fetchers.ParseLatestRow(fetchers.DstColumns)
)

var fixtures = []fixture{
	{models.GroupSolarWind, fetchers.SourceNOAAPlasma1Day, "noaa_plasma_1_day.json", plasmaRows,
		[]fixture{{id: fetchers.SourceNOAAMag1Day, file: "noaa_mag_1_day.json", parse: magRows}}},
	{models.GroupSolarWind, fetchers.SourceNOAAPlasma2Hour, "noaa_plasma_2_hour.json", plasmaRows,
		[]fixture{{id: fetchers.SourceNOAAMag2Hour, file: "noaa_mag_2_hour.json", parse: magRows}}},
	{models.GroupSunspots, fetchers.SourceNOAASunspots, "noaa_sunspots.json", fetchers.ParseSolarCycle, nil},
	{models.GroupSunspots, fetchers.SourceNOAASolarCycle, "noaa_sunspots.json", fetchers.ParseSolarCycle, nil},
	{models.GroupSunspots, fetchers.SourceSIDCSILSO, "sidc_silso_monthly.csv", fetchers.ParseSILSOMonthly, nil},
	{models.GroupGeomagnetic, fetchers.SourceNOAAKIndex, "noaa_k_index.json", fetchers.ParseKIndex,
		[]fixture{{id: fetchers.SourceNOAAKyotoDst, file: "noaa_kyoto_dst.json", parse: dstRows}}},
	{models.GroupGeomagnetic, fetchers.SourceN0NBH, "n0nbh_solar.xml", fetchers.ParseN0NBH, nil},
	{models.GroupFlares, fetchers.SourceNOAAXRayFlares, "noaa_xray_flares.json", fetchers.ParseXRayFlares, nil},
	{models.GroupFlares, fetchers.SourceDONKIFlares, "donki_flares.json", fetchers.ParseDONKIFlares, nil},
	{models.GroupAlerts, fetchers.SourceDONKINotifications, "donki_notifications.json", fetchers.ParseDONKINotifications, nil},
	{models.GroupAlerts, fetchers.SourceDONKICME, "donki_cme.json", fetchers.ParseDONKICME, nil},
	{models.GroupAlerts, fetchers.SourceSWPCAlerts, "swpc_alerts.json", fetchers.ParseSWPCAlerts, nil},
	{models.GroupAlerts, fetchers.SourceSIDCRSS, "sidc_bulletins.xml", fetchers.ParseSIDCFeed, nil},
	{models.GroupAPOD, fetchers.SourceNASAAPOD, "nasa_apod.json", fetchers.ParseAPOD, nil},
}

// NewRegistry mirrors the live source table with fixture files from dir,
// supplements included
func NewRegistry(dir string, timeout time.Duration) *fetchers.Registry {
	r := &fetchers.Registry{}
	for _, f := range fixtures {
		var c fetchers.Client = NewFixtureClient(f.id, filepath.Join(dir, f.file), timeout, f.parse)
		if len(f.with) > 0 {
			supplements := make([]fetchers.Client, 0, len(f.with))
			for _, s := range f.with {
				supplements = append(supplements, NewFixtureClient(s.id, filepath.Join(dir, s.file), timeout, s.parse))
			}
			c = fetchers.Merge(c, supplements...)
		}
		r.Register(f.group, c)
	}
	return r
}
