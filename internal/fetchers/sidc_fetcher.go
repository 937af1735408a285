package fetchers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"heliopulse/internal/models"

	"github.com/mmcdole/gofeed"
)

// ParseSILSOMonthly reads the SILSO monthly total sunspot CSV.
// Format: Year;Month;Date_fraction;SSN_value;SSN_error;Nb_observations;Definitive
// The last row with a non-negative sunspot number is current.
func ParseSILSOMonthly(body []byte) (*models.Reading, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = ';'
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	var latest *models.Reading
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SILSO CSV: %w", err)
		}
		if len(fields) < 4 {
			continue
		}

		ssn, err := parseFloat(strings.TrimSpace(fields[3]))
		if err != nil || ssn < 0 {
			continue
		}
		year, errY := strconv.Atoi(strings.TrimSpace(fields[0]))
		month, errM := strconv.Atoi(strings.TrimSpace(fields[1]))
		if errY != nil || errM != nil || month < 1 || month > 12 {
			continue
		}

		latest = &models.Reading{
			Values:     map[string]float64{"ssn": ssn},
			ObservedAt: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		}
	}

	if latest == nil {
		return nil, ErrEmptyPayload
	}
	return latest, nil
}

// ParseSIDCFeed reads the SIDC bulletin RSS feed into alert records
func ParseSIDCFeed(body []byte) (*models.Reading, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SIDC feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, ErrEmptyPayload
	}

	records := make([]models.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		rec := models.Record{
			Type:  "SIDC Bulletin",
			ID:    item.GUID,
			Title: strings.TrimSpace(item.Title),
			Body:  strings.TrimSpace(item.Description),
			URL:   item.Link,
		}
		if rec.ID == "" {
			rec.ID = item.Link
		}
		switch {
		case item.PublishedParsed != nil:
			rec.IssuedAt = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			rec.IssuedAt = item.UpdatedParsed.UTC()
		}
		records = append(records, rec)
	}
	return recordsReading(records), nil
}
