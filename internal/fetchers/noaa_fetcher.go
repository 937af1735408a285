package fetchers

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"heliopulse/internal/models"
)

// Column orders of the SWPC positional products. Empty names are ignored.
var (
	PlasmaColumns = []string{"time_tag", "density", "speed", "temperature"}
	MagColumns    = []string{"time_tag", "bx", "by", "bz", "", "", "bt"}
	DstColumns    = []string{"time_tag", "dst"}
)

// maxRecords bounds how many records a textual source contributes
const maxRecords = 5

// ParseLatestRow returns a parser for the SWPC array-of-rows products.
// The columns name each position; a leading header row is skipped and the
// newest row with at least one numeric cell is taken as current. Null cells
// are left out of the reading.
func ParseLatestRow(columns []string) Parser {
	return func(body []byte) (*models.Reading, error) {
		var rows [][]any
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse positional rows: %w", err)
		}
		if len(rows) > 0 && isHeaderRow(rows[0]) {
			rows = rows[1:]
		}

		for i := len(rows) - 1; i >= 0; i-- {
			if reading := rowReading(columns, rows[i]); len(reading.Values) > 0 {
				return reading, nil
			}
		}
		return nil, ErrEmptyPayload
	}
}

func rowReading(columns []string, row []any) *models.Reading {
	reading := &models.Reading{Values: map[string]float64{}}
	for i, name := range columns {
		if i >= len(row) {
			break
		}
		switch name {
		case "":
		case "time_tag":
			if s, ok := row[i].(string); ok {
				reading.ObservedAt = parseTimeTag(s)
			}
		default:
			if v, ok := toFloat(row[i]); ok {
				reading.Values[name] = v
			}
		}
	}
	return reading
}

// ParseSolarCycle reads the SWPC solar-cycle products and picks the latest
// record with a published sunspot number.
func ParseSolarCycle(body []byte) (*models.Reading, error) {
	var records []models.NOAASolarCycleRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse solar cycle records: %w", err)
	}

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.SSN == nil || *rec.SSN < 0 {
			continue
		}

		reading := &models.Reading{
			Values:     map[string]float64{"ssn": *rec.SSN},
			ObservedAt: parseTimeTag(rec.TimeTag),
		}
		if rec.SmoothedSSN != nil && *rec.SmoothedSSN >= 0 {
			reading.Values["smoothed_ssn"] = *rec.SmoothedSSN
		}
		if rec.F107 != nil && *rec.F107 > 0 {
			reading.Values["f107"] = *rec.F107
		}
		if rec.SolarCycle != nil && *rec.SolarCycle > 0 {
			reading.Values["cycle"] = *rec.SolarCycle
		}
		return reading, nil
	}
	return nil, ErrEmptyPayload
}

// ParseKIndex reads the planetary K-index product. It accepts both the
// array-of-arrays form with a header row and the array-of-objects form.
func ParseKIndex(body []byte) (*models.Reading, error) {
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err == nil {
		return parseKIndexRows(rows)
	}

	var records []models.NOAAKIndexRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse K-index response: %w", err)
	}
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		kp := firstPresent(rec.Kp, rec.KpIndex, rec.EstimatedKp)
		if kp == nil {
			continue
		}
		reading := &models.Reading{
			Values:     map[string]float64{"kp": *kp},
			ObservedAt: parseTimeTag(rec.TimeTag),
		}
		if rec.ARunning != nil {
			reading.Values["a_index"] = *rec.ARunning
		}
		return reading, nil
	}
	return nil, ErrEmptyPayload
}

func parseKIndexRows(rows [][]any) (*models.Reading, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPayload
	}

	// time_tag, Kp, a_running, station_count unless the header says otherwise
	timeCol, kpCol, aCol := 0, 1, 2
	if isHeaderRow(rows[0]) {
		for i, cell := range rows[0] {
			switch name, _ := cell.(string); strings.ToLower(name) {
			case "time_tag":
				timeCol = i
			case "kp", "kp_index":
				kpCol = i
			case "a_running", "a_index":
				aCol = i
			}
		}
		rows = rows[1:]
	}

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if kpCol >= len(row) {
			continue
		}
		kp, ok := toFloat(row[kpCol])
		if !ok {
			continue
		}
		reading := &models.Reading{Values: map[string]float64{"kp": kp}}
		if aCol < len(row) {
			if a, ok := toFloat(row[aCol]); ok {
				reading.Values["a_index"] = a
			}
		}
		if timeCol < len(row) {
			if s, ok := row[timeCol].(string); ok {
				reading.ObservedAt = parseTimeTag(s)
			}
		}
		return reading, nil
	}
	return nil, ErrEmptyPayload
}

// ParseXRayFlares reads the GOES flare list. A quiet sun yields a count of zero.
func ParseXRayFlares(body []byte) (*models.Reading, error) {
	var flares []models.NOAAXRayFlare
	if err := json.Unmarshal(body, &flares); err != nil {
		return nil, fmt.Errorf("failed to parse x-ray flares: %w", err)
	}

	reading := &models.Reading{Values: map[string]float64{"count": float64(len(flares))}}
	maxFlux := 0.0
	for _, f := range flares {
		if flux, ok := FlareClassFlux(f.MaxClass); ok && flux > maxFlux {
			maxFlux = flux
		}
		issued := parseTimeTag(f.MaxTime)
		if issued.After(reading.ObservedAt) {
			reading.ObservedAt = issued
		}
		reading.Records = append(reading.Records, models.Record{
			Type:     "Solar Flare",
			ID:       f.BeginTime,
			Title:    fmt.Sprintf("Class %s flare", f.MaxClass),
			Body:     fmt.Sprintf("Begin %s, peak %s, end %s", f.BeginTime, f.MaxTime, f.EndTime),
			IssuedAt: issued,
		})
	}
	if maxFlux > 0 {
		reading.Values["max_flux"] = maxFlux
	}
	reading.Records = newestRecords(reading.Records, maxRecords)
	return reading, nil
}

// ParseSWPCAlerts reads the SWPC alerts product
func ParseSWPCAlerts(body []byte) (*models.Reading, error) {
	var alerts []models.SWPCAlert
	if err := json.Unmarshal(body, &alerts); err != nil {
		return nil, fmt.Errorf("failed to parse SWPC alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil, ErrEmptyPayload
	}

	records := make([]models.Record, 0, len(alerts))
	for _, a := range alerts {
		records = append(records, models.Record{
			Type:     "SWPC Alert",
			ID:       a.ProductID,
			Title:    messageTitle(a.Message),
			Body:     strings.TrimSpace(a.Message),
			IssuedAt: parseTimeTag(a.IssueDatetime),
		})
	}
	return recordsReading(records), nil
}

// FlareClassFlux converts a GOES class such as "M2.5" into peak flux in W/m2.
// Classes below models.MinFlareFlux are reported as not convertible.
func FlareClassFlux(class string) (float64, bool) {
	class = strings.TrimSpace(strings.ToUpper(class))
	if class == "" {
		return 0, false
	}

	var base float64
	switch class[0] {
	case 'A':
		base = 1e-8
	case 'B':
		base = 1e-7
	case 'C':
		base = 1e-6
	case 'M':
		base = 1e-5
	case 'X':
		base = 1e-4
	default:
		return 0, false
	}

	mult := 1.0
	if len(class) > 1 {
		m, err := strconv.ParseFloat(class[1:], 64)
		if err != nil || m <= 0 {
			return 0, false
		}
		mult = m
	}
	flux := base * mult
	if flux < models.MinFlareFlux {
		return 0, false
	}
	return flux, true
}

// recordsReading keeps the newest records and counts them
func recordsReading(records []models.Record) *models.Reading {
	records = newestRecords(records, maxRecords)
	reading := &models.Reading{
		Values:  map[string]float64{"count": float64(len(records))},
		Records: records,
	}
	if len(records) > 0 {
		reading.ObservedAt = records[0].IssuedAt
	}
	return reading
}

func newestRecords(records []models.Record, n int) []models.Record {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})
	if len(records) > n {
		records = records[:n]
	}
	return records
}

func messageTitle(message string) string {
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ALERT:") || strings.HasPrefix(line, "WARNING:") ||
			strings.HasPrefix(line, "WATCH:") || strings.HasPrefix(line, "SUMMARY:") ||
			strings.HasPrefix(line, "EXTENDED WARNING:") {
			return line
		}
	}
	for _, line := range strings.Split(message, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func isHeaderRow(row []any) bool {
	if len(row) == 0 {
		return false
	}
	s, ok := row[0].(string)
	return ok && parseTimeTag(s).IsZero()
}

func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// toFloat accepts JSON numbers and numeric strings
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case string:
		f, err := parseFloat(strings.TrimSpace(x))
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// parseFloat safely parses a string to float64
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.ParseFloat(s, 64)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
}

// parseTimeTag understands the timestamp shapes used by NOAA and NASA feeds.
// Unparseable input yields the zero time.
func parseTimeTag(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
