package fetchers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"heliopulse/internal/models"
)

const (
	// DemoKey is NASA's shared low-quota key, accepted by APOD only
	DemoKey = "DEMO_KEY"

	apodExplanationLimit = 150
	dateLayout           = "2006-01-02"
)

// DONKIWindow builds the startDate/endDate query for the last n days
func DONKIWindow(key string, days int, extra map[string]string) QueryBuilder {
	return func(now time.Time) map[string]string {
		q := map[string]string{
			"api_key":   key,
			"startDate": now.AddDate(0, 0, -days).Format(dateLayout),
			"endDate":   now.Format(dateLayout),
		}
		for k, v := range extra {
			q[k] = v
		}
		return q
	}
}

// APODQuery uses the configured key or falls back to DEMO_KEY
func APODQuery(key string) QueryBuilder {
	if key == "" {
		key = DemoKey
	}
	return func(time.Time) map[string]string {
		return map[string]string{"api_key": key}
	}
}

// ParseDONKINotifications reads the DONKI notifications feed
func ParseDONKINotifications(body []byte) (*models.Reading, error) {
	var notes []models.DONKINotification
	if err := json.Unmarshal(body, &notes); err != nil {
		return nil, fmt.Errorf("failed to parse DONKI notifications: %w", err)
	}
	if len(notes) == 0 {
		return nil, ErrEmptyPayload
	}

	records := make([]models.Record, 0, len(notes))
	for _, n := range notes {
		records = append(records, models.Record{
			Type:     n.MessageType,
			ID:       n.MessageID,
			Title:    donkiTitle(n.MessageBody, n.MessageType),
			Body:     strings.TrimSpace(n.MessageBody),
			URL:      n.MessageURL,
			IssuedAt: parseTimeTag(n.MessageIssueTime),
		})
	}
	return recordsReading(records), nil
}

// ParseDONKICME reads the DONKI coronal mass ejection feed into alert records
func ParseDONKICME(body []byte) (*models.Reading, error) {
	var cmes []models.DONKICME
	if err := json.Unmarshal(body, &cmes); err != nil {
		return nil, fmt.Errorf("failed to parse DONKI CME list: %w", err)
	}
	if len(cmes) == 0 {
		return nil, ErrEmptyPayload
	}

	records := make([]models.Record, 0, len(cmes))
	for _, c := range cmes {
		title := "Coronal mass ejection"
		if c.SourceLocation != "" {
			title += " at " + c.SourceLocation
		}
		records = append(records, models.Record{
			Type:     "CME",
			ID:       c.ActivityID,
			Title:    title,
			Body:     strings.TrimSpace(c.Note),
			URL:      c.Link,
			IssuedAt: parseTimeTag(c.StartTime),
		})
	}
	return recordsReading(records), nil
}

// ParseDONKIFlares reads the DONKI FLR feed
func ParseDONKIFlares(body []byte) (*models.Reading, error) {
	var flares []models.DONKIFlare
	if err := json.Unmarshal(body, &flares); err != nil {
		return nil, fmt.Errorf("failed to parse DONKI flares: %w", err)
	}

	reading := &models.Reading{Values: map[string]float64{"count": float64(len(flares))}}
	maxFlux := 0.0
	for _, f := range flares {
		if flux, ok := FlareClassFlux(f.ClassType); ok && flux > maxFlux {
			maxFlux = flux
		}
		peak := parseTimeTag(f.PeakTime)
		if peak.After(reading.ObservedAt) {
			reading.ObservedAt = peak
		}
		title := fmt.Sprintf("Class %s flare", f.ClassType)
		if f.ActiveRegionNum != nil {
			title += fmt.Sprintf(" from AR %d", *f.ActiveRegionNum)
		}
		reading.Records = append(reading.Records, models.Record{
			Type:     "Solar Flare",
			ID:       f.FlrID,
			Title:    title,
			Body:     fmt.Sprintf("Begin %s, peak %s, end %s", f.BeginTime, f.PeakTime, f.EndTime),
			URL:      f.Link,
			IssuedAt: peak,
		})
	}
	if maxFlux > 0 {
		reading.Values["max_flux"] = maxFlux
	}
	reading.Records = newestRecords(reading.Records, maxRecords)
	return reading, nil
}

// ParseAPOD reads the astronomy picture of the day
func ParseAPOD(body []byte) (*models.Reading, error) {
	var apod models.APODResponse
	if err := json.Unmarshal(body, &apod); err != nil {
		return nil, fmt.Errorf("failed to parse APOD response: %w", err)
	}
	if apod.Title == "" && apod.URL == "" {
		return nil, ErrEmptyPayload
	}

	title := apod.Title
	if title == "" {
		title = "NASA Astronomy Picture"
	}
	explanation := "Daily astronomy image"
	if apod.Explanation != "" {
		explanation = truncate(apod.Explanation, apodExplanationLimit)
	}

	issued := parseTimeTag(apod.Date)
	return &models.Reading{
		Values: map[string]float64{},
		Records: []models.Record{{
			Type:     "APOD",
			ID:       apod.Date,
			Title:    title,
			Body:     explanation,
			URL:      apod.URL,
			IssuedAt: issued,
		}},
		ObservedAt: issued,
	}, nil
}

// truncate cuts s to n runes and marks the cut
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s + "..."
	}
	return string(r[:n]) + "..."
}

// donkiTitle pulls the "## Summary:" style headline out of a DONKI message body
func donkiTitle(body, fallback string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "## Summary:") {
			for _, next := range lines[i+1:] {
				if next = strings.TrimSpace(next); next != "" {
					return next
				}
			}
		}
	}
	return fallback
}
