package models

import (
	"math"
	"time"
)

// Quality is the provenance marker attached to every fetch outcome
type Quality string

const (
	QualityGood      Quality = "good"
	QualityInvalid   Quality = "invalid"
	QualityEmpty     Quality = "empty"
	QualitySimulated Quality = "simulated"
)

// Source identifiers used when no upstream provided the data
const (
	SourceSimulated     = "simulated"
	SourceStaticDefault = "static-default"
)

// MetricGroup names a bundle of related fields fetched together
type MetricGroup string

const (
	GroupSolarWind   MetricGroup = "solar_wind"
	GroupFlares      MetricGroup = "flares"
	GroupSunspots    MetricGroup = "sunspots"
	GroupGeomagnetic MetricGroup = "geomagnetic"
	GroupAlerts      MetricGroup = "alerts"
	GroupAPOD        MetricGroup = "apod"
)

// Band is a closed numeric interval
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies inside the band
func (b Band) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= b.Low && v <= b.High
}

// Mid returns the band midpoint
func (b Band) Mid() float64 {
	return (b.Low + b.High) / 2
}

// Metric describes one physical quantity and the range a genuine reading must satisfy
type Metric struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Required bool    `json:"required"`
	// Integer metrics are counts or identifiers; simulated values are rounded
	Integer bool `json:"integer,omitempty"`
	// Fallback is the band simulated values are drawn from. It must lie inside [Min, Max].
	Fallback Band `json:"fallback"`
}

// InRange reports whether v is a plausible value for the metric
func (m Metric) InRange(v float64) bool {
	return Band{Low: m.Min, High: m.Max}.Contains(v)
}

// Record is a textual entry attached to a result: an alert, a flare, a picture of the day
type Record struct {
	Type     string    `json:"type"`
	ID       string    `json:"id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Body     string    `json:"body,omitempty"`
	URL      string    `json:"url,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Reading is what a source client parses out of one upstream payload
type Reading struct {
	Values     map[string]float64
	Records    []Record
	ObservedAt time.Time
}

// Attempt records the outcome of trying one source client
type Attempt struct {
	SourceID   string  `json:"sourceId"`
	Quality    Quality `json:"quality"`
	Error      string  `json:"error,omitempty"`
	DurationMS int64   `json:"durationMs"`
}

// SourceResult is the single outcome produced for one metric group
type SourceResult struct {
	Group      MetricGroup        `json:"group"`
	Values     map[string]float64 `json:"values"`
	Records    []Record           `json:"records,omitempty"`
	Quality    Quality            `json:"quality"`
	SourceID   string             `json:"sourceId"`
	ObservedAt time.Time          `json:"observedAt"`
	Timestamp  time.Time          `json:"timestamp"`
	Attempts   []Attempt          `json:"attempts,omitempty"`
}

// IsSimulated reports whether the result was synthesized rather than fetched
func (r SourceResult) IsSimulated() bool {
	return r.Quality == QualitySimulated
}

// Value returns a field value and whether it is present
func (r SourceResult) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// AggregateResult merges one SourceResult per requested group
type AggregateResult struct {
	RequestID string                       `json:"requestId"`
	Timestamp time.Time                    `json:"timestamp"`
	Groups    map[MetricGroup]SourceResult `json:"groups"`
}

// Provenance summarizes which source answered each group
func (a *AggregateResult) Provenance() map[MetricGroup]string {
	out := make(map[MetricGroup]string, len(a.Groups))
	for g, r := range a.Groups {
		out[g] = r.SourceID + "/" + string(r.Quality)
	}
	return out
}
