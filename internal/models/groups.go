package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MinFlareFlux is the smallest plausible peak flux (class A0.1) in W/m2
const MinFlareFlux = 1e-9

// GroupSpec declares the fields a metric group must carry
type GroupSpec struct {
	Group       MetricGroup `json:"group"`
	Description string      `json:"description"`
	Metrics     []Metric    `json:"metrics"`
	// MinRecords is the number of records a reading needs to be usable
	MinRecords int `json:"minRecords,omitempty"`
}

// Metric looks up a declared metric by name
func (g GroupSpec) Metric(name string) (Metric, bool) {
	for _, m := range g.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// RequiredFields returns the names of all required metrics
func (g GroupSpec) RequiredFields() []string {
	var out []string
	for _, m := range g.Metrics {
		if m.Required {
			out = append(out, m.Name)
		}
	}
	return out
}

// Check verifies every group is self-consistent: ranges ordered, fallback bands inside ranges
func (g GroupSpec) Check() error {
	for _, m := range g.Metrics {
		if m.Min > m.Max {
			return fmt.Errorf("%s.%s: min %g greater than max %g", g.Group, m.Name, m.Min, m.Max)
		}
		if m.Fallback.Low > m.Fallback.High {
			return fmt.Errorf("%s.%s: fallback band [%g,%g] is inverted", g.Group, m.Name, m.Fallback.Low, m.Fallback.High)
		}
		if !m.InRange(m.Fallback.Low) || !m.InRange(m.Fallback.High) {
			return fmt.Errorf("%s.%s: fallback band [%g,%g] outside plausible range [%g,%g]",
				g.Group, m.Name, m.Fallback.Low, m.Fallback.High, m.Min, m.Max)
		}
	}
	return nil
}

// StaticDefault builds the last-resort result used when even fallback synthesis broke.
// Values sit on the fallback band midpoints so they stay inside the plausible range.
func (g GroupSpec) StaticDefault(now time.Time) SourceResult {
	values := make(map[string]float64, len(g.Metrics))
	for _, m := range g.Metrics {
		v := m.Fallback.Mid()
		if m.Integer {
			v = math.Round(v)
		}
		values[m.Name] = v
	}

	var records []Record
	for i := 0; i < g.MinRecords; i++ {
		records = append(records, Record{
			Type:     "Unavailable",
			ID:       fmt.Sprintf("STATIC-%s-%d", g.Group, i+1),
			Title:    "Data temporarily unavailable",
			IssuedAt: now,
		})
	}

	return SourceResult{
		Group:      g.Group,
		Values:     values,
		Records:    records,
		Quality:    QualitySimulated,
		SourceID:   SourceStaticDefault,
		ObservedAt: now,
		Timestamp:  now,
	}
}

// Ranges holds the externally configurable plausible ranges
type Ranges struct {
	WindSpeed       Band
	WindDensity     Band
	WindTemperature Band
	MagneticField   Band
	SunspotNumber   Band
	Kp              Band
	Dst             Band
}

// DefaultRanges returns the plausible ranges used when nothing is configured
func DefaultRanges() Ranges {
	return Ranges{
		WindSpeed:       Band{Low: 100, High: 1000},
		WindDensity:     Band{Low: 0, High: 100},
		WindTemperature: Band{Low: 1000, High: 10_000_000},
		MagneticField:   Band{Low: -100, High: 100},
		SunspotNumber:   Band{Low: 0, High: 500},
		Kp:              Band{Low: 0, High: 9},
		Dst:             Band{Low: -1000, High: 100},
	}
}

// Catalogue maps every known group to its spec
type Catalogue map[MetricGroup]GroupSpec

// Groups returns the catalogue's groups in a stable order
func (c Catalogue) Groups() []MetricGroup {
	out := make([]MetricGroup, 0, len(c))
	for g := range c {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Check validates every spec in the catalogue
func (c Catalogue) Check() error {
	for _, g := range c.Groups() {
		if err := c[g].Check(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultCatalogue builds the catalogue with DefaultRanges
func DefaultCatalogue() Catalogue {
	return NewCatalogue(DefaultRanges())
}

// NewCatalogue builds the group specs from the given plausible ranges
func NewCatalogue(r Ranges) Catalogue {
	bt := Band{Low: 0, High: r.MagneticField.High}

	return Catalogue{
		GroupSolarWind: {
			Group:       GroupSolarWind,
			Description: "Solar wind plasma and interplanetary magnetic field",
			Metrics: []Metric{
				{Name: "speed", Unit: "km/s", Min: r.WindSpeed.Low, Max: r.WindSpeed.High, Required: true, Fallback: Band{Low: 300, High: 550}},
				{Name: "density", Unit: "p/cm3", Min: r.WindDensity.Low, Max: r.WindDensity.High, Required: true, Fallback: Band{Low: 5, High: 8}},
				{Name: "temperature", Unit: "K", Min: r.WindTemperature.Low, Max: r.WindTemperature.High, Required: true, Fallback: Band{Low: 100_000, High: 150_000}},
				{Name: "bx", Unit: "nT", Min: r.MagneticField.Low, Max: r.MagneticField.High, Fallback: Band{Low: -5, High: 5}},
				{Name: "by", Unit: "nT", Min: r.MagneticField.Low, Max: r.MagneticField.High, Fallback: Band{Low: -5, High: 5}},
				{Name: "bz", Unit: "nT", Min: r.MagneticField.Low, Max: r.MagneticField.High, Fallback: Band{Low: -5, High: 5}},
				{Name: "bt", Unit: "nT", Min: bt.Low, Max: bt.High, Fallback: Band{Low: 5, High: 8}},
			},
		},
		GroupSunspots: {
			Group:       GroupSunspots,
			Description: "Sunspot number and solar cycle indices",
			Metrics: []Metric{
				{Name: "ssn", Min: r.SunspotNumber.Low, Max: r.SunspotNumber.High, Required: true, Fallback: Band{Low: 75, High: 125}},
				{Name: "smoothed_ssn", Min: r.SunspotNumber.Low, Max: r.SunspotNumber.High, Fallback: Band{Low: 65, High: 90}},
				{Name: "f107", Unit: "sfu", Min: 50, Max: 400, Fallback: Band{Low: 120, High: 160}},
				{Name: "cycle", Min: 1, Max: 40, Integer: true, Fallback: Band{Low: 25, High: 25}},
			},
		},
		GroupGeomagnetic: {
			Group:       GroupGeomagnetic,
			Description: "Planetary geomagnetic indices",
			Metrics: []Metric{
				{Name: "kp", Min: r.Kp.Low, Max: r.Kp.High, Required: true, Fallback: Band{Low: 2, High: 4}},
				{Name: "a_index", Min: 0, Max: 400, Fallback: Band{Low: 5, High: 15}},
				{Name: "dst", Unit: "nT", Min: r.Dst.Low, Max: r.Dst.High, Fallback: Band{Low: -20, High: 0}},
			},
		},
		GroupFlares: {
			Group:       GroupFlares,
			Description: "Recent X-ray flares",
			Metrics: []Metric{
				{Name: "count", Min: 0, Max: 500, Required: true, Integer: true, Fallback: Band{Low: 0, High: 3}},
				{Name: "max_flux", Unit: "W/m2", Min: MinFlareFlux, Max: 1e-2, Fallback: Band{Low: 1e-6, High: 5e-6}},
			},
		},
		GroupAlerts: {
			Group:       GroupAlerts,
			Description: "Space weather notifications",
			Metrics: []Metric{
				{Name: "count", Min: 0, Max: 1000, Required: true, Integer: true, Fallback: Band{Low: 1, High: 1}},
			},
			MinRecords: 1,
		},
		GroupAPOD: {
			Group:       GroupAPOD,
			Description: "Astronomy picture of the day",
			MinRecords:  1,
		},
	}
}

// KpLevel classifies a planetary K-index value
func KpLevel(kp float64) string {
	switch {
	case kp < 4:
		return "Quiet"
	case kp < 6:
		return "Unsettled"
	case kp < 7:
		return "Minor Storm"
	case kp < 8:
		return "Major Storm"
	default:
		return "Severe Storm"
	}
}
