package resilience

import (
	"heliopulse/internal/models"
)

// Validate checks a reading against the group spec. Undeclared fields are
// dropped; the returned reading holds only declared metrics. A reading is
// good only when every present field is in range, every required field is
// present and enough records are attached.
func Validate(spec models.GroupSpec, r *models.Reading) (models.Reading, models.Quality, error) {
	if r == nil {
		return models.Reading{}, models.QualityEmpty, ErrNoData
	}

	clean := models.Reading{
		Values:     make(map[string]float64, len(spec.Metrics)),
		Records:    r.Records,
		ObservedAt: r.ObservedAt,
	}
	for _, m := range spec.Metrics {
		if v, ok := r.Values[m.Name]; ok {
			clean.Values[m.Name] = v
		}
	}

	if len(clean.Values) == 0 && len(clean.Records) == 0 {
		return clean, models.QualityEmpty, ErrNoData
	}

	for _, m := range spec.Metrics {
		v, ok := clean.Values[m.Name]
		if !ok {
			continue
		}
		if !m.InRange(v) {
			return clean, models.QualityInvalid, &ValidationError{
				Group: spec.Group, Field: m.Name, Value: v, Min: m.Min, Max: m.Max,
			}
		}
	}

	for _, name := range spec.RequiredFields() {
		if _, ok := clean.Values[name]; !ok {
			return clean, models.QualityInvalid, &ValidationError{Group: spec.Group, Field: name, Missing: true}
		}
	}

	if len(clean.Records) < spec.MinRecords {
		return clean, models.QualityEmpty, ErrNoData
	}

	return clean, models.QualityGood, nil
}
