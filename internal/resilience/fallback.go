package resilience

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"heliopulse/internal/models"
)

// Rand supplies uniform draws in [0, 1). Implementations must be safe for
// concurrent use; one Rand is shared by every group fetched in parallel.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand draws from the math/rand/v2 global source
func DefaultRand() Rand { return globalRand{} }

// Synthesizer builds the simulated result for a group
type Synthesizer func(spec models.GroupSpec, rnd Rand, now time.Time) models.SourceResult

// flareWatchThreshold is the draw above which a simulated flare watch is issued
const flareWatchThreshold = 0.6

// Synthesize draws each metric uniformly from its fallback band. Alert groups
// get simulated notifications and the picture of the day a static entry.
func Synthesize(spec models.GroupSpec, rnd Rand, now time.Time) models.SourceResult {
	values := make(map[string]float64, len(spec.Metrics))
	for _, m := range spec.Metrics {
		v := m.Fallback.Low + rnd.Float64()*(m.Fallback.High-m.Fallback.Low)
		if m.Integer {
			v = math.Round(v)
		}
		values[m.Name] = v
	}

	var records []models.Record
	switch spec.Group {
	case models.GroupAlerts:
		records = simulatedNotifications(rnd, now)
		values["count"] = float64(len(records))
	case models.GroupAPOD:
		records = []models.Record{{
			Type:     "APOD",
			ID:       "SIM-APOD",
			Title:    "NASA Astronomy Picture",
			Body:     "Daily astronomy image",
			URL:      "https://apod.nasa.gov/apod/",
			IssuedAt: now,
		}}
	}

	return models.SourceResult{
		Group:      spec.Group,
		Values:     values,
		Records:    records,
		Quality:    models.QualitySimulated,
		SourceID:   models.SourceSimulated,
		ObservedAt: now,
		Timestamp:  now,
	}
}

func simulatedNotifications(rnd Rand, now time.Time) []models.Record {
	var records []models.Record
	if rnd.Float64() > flareWatchThreshold {
		issued := now.Add(-time.Duration(rnd.Float64() * float64(12*time.Hour)))
		records = append(records, models.Record{
			Type:     "Solar Flare Watch",
			ID:       fmt.Sprintf("SIM-FLR-%d", now.UnixMilli()),
			Title:    "Solar Flare Watch",
			Body:     "Increased solar flare probability from active regions",
			IssuedAt: issued,
		})
	}
	records = append(records, models.Record{
		Type:     "Solar Status",
		ID:       fmt.Sprintf("SIM-STATUS-%d", now.UnixMilli()),
		Title:    "Solar Status",
		Body:     "Solar activity within normal ranges. No significant space weather expected.",
		IssuedAt: now,
	})
	return records
}

// buildFallback synthesizes and verifies the simulated result. Any defect
// here is catastrophic: there is nothing left to fall back to.
func buildFallback(spec models.GroupSpec, synth Synthesizer, rnd Rand, now time.Time) (res models.SourceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = models.SourceResult{}
			err = &CatastrophicError{Group: spec.Group, At: now, Cause: fmt.Errorf("fallback panicked: %v", r)}
		}
	}()

	res = synth(spec, rnd, now)
	if _, q, verr := Validate(spec, &models.Reading{Values: res.Values, Records: res.Records}); q != models.QualityGood {
		if verr == nil {
			verr = fmt.Errorf("fallback quality %s", q)
		}
		return models.SourceResult{}, &CatastrophicError{Group: spec.Group, At: now, Cause: verr}
	}

	res.Group = spec.Group
	res.Quality = models.QualitySimulated
	res.SourceID = models.SourceSimulated
	return res, nil
}
