package fetchers

import (
	"strings"
	"sync"

	"heliopulse/internal/config"
	"heliopulse/internal/models"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Source identifiers
const (
	SourceNOAAPlasma1Day     = "noaa-plasma-1-day"
	SourceNOAAPlasma2Hour    = "noaa-plasma-2-hour"
	SourceNOAAMag1Day        = "noaa-mag-1-day"
	SourceNOAAMag2Hour       = "noaa-mag-2-hour"
	SourceNOAASunspots       = "noaa-sunspots"
	SourceNOAASolarCycle     = "noaa-solar-cycle-indices"
	SourceSIDCSILSO          = "sidc-silso-monthly"
	SourceNOAAKIndex         = "noaa-planetary-k-index"
	SourceNOAAKyotoDst       = "noaa-kyoto-dst"
	SourceN0NBH              = "n0nbh-solarxml"
	SourceNOAAXRayFlares     = "noaa-xray-flares"
	SourceDONKIFlares        = "donki-flr"
	SourceDONKINotifications = "donki-notifications"
	SourceDONKICME           = "donki-cme"
	SourceSWPCAlerts         = "swpc-alerts"
	SourceSIDCRSS            = "sidc-rss"
	SourceNASAAPOD           = "nasa-apod"
)

// Registry holds the ordered source clients of every metric group.
// The zero value is ready to use.
type Registry struct {
	mu      sync.RWMutex
	clients map[models.MetricGroup][]Client
}

// Register appends clients to a group in priority order
func (r *Registry) Register(group models.MetricGroup, clients ...Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients == nil {
		r.clients = make(map[models.MetricGroup][]Client)
	}
	r.clients[group] = append(r.clients[group], clients...)
}

// Clients returns a copy of the group's clients, highest priority first
func (r *Registry) Clients(group models.MetricGroup) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, len(r.clients[group]))
	copy(out, r.clients[group])
	return out
}

// Groups lists the groups that have at least one client
func (r *Registry) Groups() []models.MetricGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.MetricGroup, 0, len(r.clients))
	for g, cs := range r.clients {
		if len(cs) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Endpoints describes where each source lives
type Endpoints struct {
	SolarWind1Day  string
	SolarWind2Hour string
	Mag1Day        string
	Mag2Hour       string
	Sunspots       string
	SolarCycle     string
	SILSOMonthly   string
	KIndex         string
	KyotoDst       string
	N0NBH          string
	XRayFlares     string
	DONKIFlares    string
	DONKINotes     string
	DONKICME       string
	SWPCAlerts     string
	SIDCRSS        string
	APOD           string
}

// EndpointsFromConfig resolves upstream URLs from the configured base addresses
func EndpointsFromConfig(cfg *config.Config) Endpoints {
	noaa := strings.TrimRight(cfg.NOAAAPIBase, "/")
	nasa := strings.TrimRight(cfg.NASAAPIBase, "/")
	return Endpoints{
		SolarWind1Day:  noaa + "/products/solar-wind/plasma-1-day.json",
		SolarWind2Hour: noaa + "/products/solar-wind/plasma-2-hour.json",
		Mag1Day:        noaa + "/products/solar-wind/mag-1-day.json",
		Mag2Hour:       noaa + "/products/solar-wind/mag-2-hour.json",
		Sunspots:       noaa + "/json/solar-cycle/sunspots.json",
		SolarCycle:     noaa + "/json/solar-cycle/observed-solar-cycle-indices.json",
		SILSOMonthly:   cfg.SIDCSunspotURL,
		KIndex:         noaa + "/products/noaa-planetary-k-index.json",
		KyotoDst:       noaa + "/products/kyoto-dst.json",
		N0NBH:          cfg.N0NBHSolarURL,
		XRayFlares:     noaa + "/json/goes/primary/xray-flares-latest.json",
		DONKIFlares:    nasa + "/DONKI/FLR",
		DONKINotes:     nasa + "/DONKI/notifications",
		DONKICME:       nasa + "/DONKI/CME",
		SWPCAlerts:     noaa + "/products/alerts.json",
		SIDCRSS:        cfg.SIDCRSSURL,
		APOD:           nasa + "/planetary/apod",
	}
}

// NewRegistry builds the full source table from configuration. All sources
// share the given resty client; the NASA sources share one rate limiter.
// Magnetic field components and Dst ride along as supplements of the plasma
// and K-index sources.
func NewRegistry(cfg *config.Config, client *resty.Client) *Registry {
	ep := EndpointsFromConfig(cfg)
	limiter := rate.NewLimiter(rate.Limit(cfg.NASARequestsPerSecond), cfg.NASABurst)
	timeout := cfg.SourceTimeout
	nasaTimeout := cfg.NASATimeout
	key := cfg.NASAAPIKey

	nasa := func(id, url string, parse Parser, q QueryBuilder, needsKey bool) Client {
		opts := []SourceOption{WithLimiter(limiter), WithQuery(q)}
		if needsKey {
			opts = append(opts, WithCredential(key))
		}
		return NewHTTPSource(client, id, url, nasaTimeout, parse, opts...)
	}

	r := &Registry{}
	r.Register(models.GroupSolarWind,
		Merge(NewHTTPSource(client, SourceNOAAPlasma1Day, ep.SolarWind1Day, timeout, ParseLatestRow(PlasmaColumns)),
			NewHTTPSource(client, SourceNOAAMag1Day, ep.Mag1Day, timeout, ParseLatestRow(MagColumns))),
		Merge(NewHTTPSource(client, SourceNOAAPlasma2Hour, ep.SolarWind2Hour, timeout, ParseLatestRow(PlasmaColumns)),
			NewHTTPSource(client, SourceNOAAMag2Hour, ep.Mag2Hour, timeout, ParseLatestRow(MagColumns))),
	)
	r.Register(models.GroupSunspots,
		NewHTTPSource(client, SourceNOAASunspots, ep.Sunspots, timeout, ParseSolarCycle),
		NewHTTPSource(client, SourceNOAASolarCycle, ep.SolarCycle, timeout, ParseSolarCycle),
		NewHTTPSource(client, SourceSIDCSILSO, ep.SILSOMonthly, timeout, ParseSILSOMonthly, WithAccept("text/csv")),
	)
	r.Register(models.GroupGeomagnetic,
		Merge(NewHTTPSource(client, SourceNOAAKIndex, ep.KIndex, timeout, ParseKIndex),
			NewHTTPSource(client, SourceNOAAKyotoDst, ep.KyotoDst, timeout, ParseLatestRow(DstColumns))),
		NewHTTPSource(client, SourceN0NBH, ep.N0NBH, timeout, ParseN0NBH, WithAccept("application/xml")),
	)
	r.Register(models.GroupFlares,
		NewHTTPSource(client, SourceNOAAXRayFlares, ep.XRayFlares, timeout, ParseXRayFlares),
		nasa(SourceDONKIFlares, ep.DONKIFlares, ParseDONKIFlares, DONKIWindow(key, 7, nil), true),
	)
	r.Register(models.GroupAlerts,
		nasa(SourceDONKINotifications, ep.DONKINotes, ParseDONKINotifications,
			DONKIWindow(key, 7, map[string]string{"type": "all"}), true),
		nasa(SourceDONKICME, ep.DONKICME, ParseDONKICME, DONKIWindow(key, 3, nil), true),
		NewHTTPSource(client, SourceSWPCAlerts, ep.SWPCAlerts, timeout, ParseSWPCAlerts),
		NewHTTPSource(client, SourceSIDCRSS, ep.SIDCRSS, timeout, ParseSIDCFeed,
			WithAccept("application/rss+xml, application/xml;q=0.9, */*;q=0.8")),
	)
	r.Register(models.GroupAPOD,
		nasa(SourceNASAAPOD, ep.APOD, ParseAPOD, APODQuery(key), false),
	)
	return r
}
