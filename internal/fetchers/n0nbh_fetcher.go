package fetchers

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"heliopulse/internal/models"
)

// ParseN0NBH reads the hamqsl solarxml payload for the geomagnetic indices
func ParseN0NBH(body []byte) (*models.Reading, error) {
	var data models.N0NBHXMLResponse
	if err := xml.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse N0NBH XML response: %w", err)
	}

	reading := &models.Reading{Values: map[string]float64{}}
	if kp, err := parseFloat(strings.TrimSpace(data.SolarData.KIndex)); err == nil {
		reading.Values["kp"] = kp
	}
	if a, err := parseFloat(strings.TrimSpace(data.SolarData.AIndex)); err == nil {
		reading.Values["a_index"] = a
	}
	if len(reading.Values) == 0 {
		return nil, ErrEmptyPayload
	}

	// e.g. "15 Oct 2026 1200 GMT"
	if t, err := time.Parse("02 Jan 2006 1504 MST", strings.TrimSpace(data.SolarData.Updated)); err == nil {
		reading.ObservedAt = t.UTC()
	}
	return reading, nil
}
