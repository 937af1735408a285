package fetchers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLatestRowPlasma(t *testing.T) {
	t.Parallel()

	plasma := `[["time_tag","density","speed","temperature"],
		["2026-10-15 11:58:00.000","4.10","430.1","98000"],
		["2026-10-15 11:59:00.000","5.20","450.0","101000"]]`

	reading, err := ParseLatestRow(PlasmaColumns)([]byte(plasma))
	require.NoError(t, err)
	assert.Equal(t, 450.0, reading.Values["speed"])
	assert.Equal(t, 5.2, reading.Values["density"])
	assert.Equal(t, 101000.0, reading.Values["temperature"])
	assert.Equal(t, time.Date(2026, 10, 15, 11, 59, 0, 0, time.UTC), reading.ObservedAt)
}

func TestParseLatestRowMag(t *testing.T) {
	t.Parallel()

	mag := `[["time_tag","bx_gsm","by_gsm","bz_gsm","lon_gsm","lat_gsm","bt"],
		["2026-10-15 11:58:00.000","-1.20","2.30","-4.50","117.50","-40.10","5.60"],
		["2026-10-15 11:59:00.000",null,null,null,null,null,null]]`

	reading, err := ParseLatestRow(MagColumns)([]byte(mag))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bx": -1.2, "by": 2.3, "bz": -4.5, "bt": 5.6}, reading.Values)
	assert.Equal(t, time.Date(2026, 10, 15, 11, 58, 0, 0, time.UTC), reading.ObservedAt, "all-null rows are skipped")
}

func TestParseLatestRowDst(t *testing.T) {
	t.Parallel()

	dst := `[["time_tag","dst"],
		["2026-10-15 10:00:00","-18"],
		["2026-10-15 11:00:00","-62"]]`

	reading, err := ParseLatestRow(DstColumns)([]byte(dst))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"dst": -62}, reading.Values)
	assert.Equal(t, time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC), reading.ObservedAt)
}

func TestParseLatestRowEdgeCases(t *testing.T) {
	t.Parallel()

	_, err := ParseLatestRow(PlasmaColumns)([]byte(`[["time_tag","density","speed","temperature"]]`))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = ParseLatestRow(DstColumns)([]byte(`[["time_tag","dst"],["2026-10-15 11:00:00",null]]`))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = ParseLatestRow(PlasmaColumns)([]byte(`{"not":"rows"}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyPayload)

	reading, err := ParseLatestRow(PlasmaColumns)([]byte(`[["2026-10-15 11:59:00.000", null, "450", "abc"]]`))
	require.NoError(t, err)
	assert.Equal(t, 450.0, reading.Values["speed"])
	assert.NotContains(t, reading.Values, "density")
	assert.NotContains(t, reading.Values, "temperature")
}

func TestParseSolarCycle(t *testing.T) {
	t.Parallel()

	body := `[
		{"time-tag":"2026-08","ssn":120.5,"smoothed_ssn":110.2,"f10.7":150.1,"solar_cycle":25},
		{"time-tag":"2026-09","ssn":113,"smoothed_ssn":-1,"f10.7":148.0},
		{"time-tag":"2026-10","ssn":-1}
	]`

	reading, err := ParseSolarCycle([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 113.0, reading.Values["ssn"])
	assert.Equal(t, 148.0, reading.Values["f107"])
	assert.NotContains(t, reading.Values, "smoothed_ssn")
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), reading.ObservedAt)

	_, err = ParseSolarCycle([]byte(`[{"time-tag":"2026-10","ssn":-1}]`))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseKIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		kp    float64
		aIdx  float64
		hasA  bool
		empty bool
	}{
		{
			name: "rows with header",
			body: `[["time_tag","Kp","a_running","station_count"],
				["2026-10-15 06:00:00.000","2.33","9","8"],
				["2026-10-15 09:00:00.000","3.67","18","8"]]`,
			kp: 3.67, aIdx: 18, hasA: true,
		},
		{
			name: "rows with reordered header",
			body: `[["a_running","time_tag","Kp"],["7","2026-10-15 09:00:00.000","1.00"]]`,
			kp:   1, aIdx: 7, hasA: true,
		},
		{
			name: "objects",
			body: `[{"time_tag":"2026-10-15T06:00:00","Kp":2.0,"a_running":7},
				{"time_tag":"2026-10-15T09:00:00","Kp":4.33,"a_running":32}]`,
			kp: 4.33, aIdx: 32, hasA: true,
		},
		{
			name: "objects with estimated kp only",
			body: `[{"time_tag":"2026-10-15T09:00:00","estimated_kp":5.0}]`,
			kp:   5,
		},
		{
			name:  "header only",
			body:  `[["time_tag","Kp","a_running","station_count"]]`,
			empty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reading, err := ParseKIndex([]byte(tt.body))
			if tt.empty {
				assert.ErrorIs(t, err, ErrEmptyPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kp, reading.Values["kp"])
			if tt.hasA {
				assert.Equal(t, tt.aIdx, reading.Values["a_index"])
			} else {
				assert.NotContains(t, reading.Values, "a_index")
			}
		})
	}
}

func TestFlareClassFlux(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class string
		flux  float64
		ok    bool
	}{
		{"A1.0", 1e-8, true},
		{"B5.0", 5e-7, true},
		{"C3.2", 3.2e-6, true},
		{"m1.5", 1.5e-5, true},
		{"X2", 2e-4, true},
		{"X", 1e-4, true},
		{"Z1.0", 0, false},
		{"", 0, false},
		{"Mfoo", 0, false},
		{"A0.1", 1e-9, true},
		{"A0.05", 0, false},
	}

	for _, tt := range tests {
		flux, ok := FlareClassFlux(tt.class)
		assert.Equal(t, tt.ok, ok, tt.class)
		assert.InDelta(t, tt.flux, flux, tt.flux*1e-9, tt.class)
	}
}

func TestParseXRayFlares(t *testing.T) {
	t.Parallel()

	body := `[
		{"time_tag":"2026-10-15T10:00:00Z","begin_time":"2026-10-15T09:40Z","max_time":"2026-10-15T09:52Z","end_time":"2026-10-15T10:05Z","max_class":"C4.1"},
		{"time_tag":"2026-10-15T11:00:00Z","begin_time":"2026-10-15T10:40Z","max_time":"2026-10-15T10:49Z","end_time":"2026-10-15T11:01Z","max_class":"M1.2"}
	]`

	reading, err := ParseXRayFlares([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 2.0, reading.Values["count"])
	assert.InDelta(t, 1.2e-5, reading.Values["max_flux"], 1e-12)
	require.Len(t, reading.Records, 2)
	assert.Equal(t, "Class M1.2 flare", reading.Records[0].Title)

	faint, err := ParseXRayFlares([]byte(`[{"begin_time":"2026-10-15T09:40Z","max_time":"2026-10-15T09:52Z","max_class":"A0.05"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, faint.Values["count"])
	assert.NotContains(t, faint.Values, "max_flux", "sub-A0.1 peaks are below the plausible floor")

	quiet, err := ParseXRayFlares([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, quiet.Values["count"])
	assert.NotContains(t, quiet.Values, "max_flux")
}

func TestParseSWPCAlerts(t *testing.T) {
	t.Parallel()

	body := `[
		{"product_id":"K04A","issue_datetime":"2026-10-15 08:00:00.000","message":"Space Weather Message Code: ALTK04\nALERT: Geomagnetic K-index of 4\n"},
		{"product_id":"EF3A","issue_datetime":"2026-10-15 10:30:00.000","message":"WARNING: Proton 10MeV Integral Flux above 10pfu expected"}
	]`

	reading, err := ParseSWPCAlerts([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 2.0, reading.Values["count"])
	require.Len(t, reading.Records, 2)
	assert.Equal(t, "EF3A", reading.Records[0].ID, "newest first")
	assert.Equal(t, "ALERT: Geomagnetic K-index of 4", reading.Records[1].Title)

	_, err = ParseSWPCAlerts([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseSILSOMonthly(t *testing.T) {
	t.Parallel()

	body := "2026;07;2026.538;  140.3;  19.1; 1120;0\n" +
		"2026;08;2026.623;  131.7;  18.4; 1087;0\n" +
		"2026;09;2026.705;   -1.0;  -1.0;    0;0\n"

	reading, err := ParseSILSOMonthly([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 131.7, reading.Values["ssn"])
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), reading.ObservedAt)

	_, err = ParseSILSOMonthly([]byte("# comment only\n"))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseSIDCFeed(t *testing.T) {
	t.Parallel()

	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>SIDC</title>
<item><title>Old bulletin</title><link>https://sidc.example/1</link><guid>1</guid>
<pubDate>Mon, 12 Oct 2026 12:00:00 GMT</pubDate><description>quiet</description></item>
<item><title>Flare alert</title><link>https://sidc.example/2</link><guid>2</guid>
<pubDate>Wed, 14 Oct 2026 12:00:00 GMT</pubDate><description>M-class flare observed</description></item>
</channel></rss>`

	reading, err := ParseSIDCFeed([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 2.0, reading.Values["count"])
	require.Len(t, reading.Records, 2)
	assert.Equal(t, "Flare alert", reading.Records[0].Title)
	assert.Equal(t, "SIDC Bulletin", reading.Records[0].Type)

	_, err = ParseSIDCFeed([]byte(`<rss version="2.0"><channel><title>SIDC</title></channel></rss>`))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseN0NBH(t *testing.T) {
	t.Parallel()

	body := `<?xml version="1.0" encoding="utf-8"?>
<solar><solardata>
<source url="http://www.hamqsl.com/solar.html">N0NBH</source>
<updated> 15 Oct 2026 1200 GMT</updated>
<solarflux>150</solarflux><aindex> 12</aindex><kindex> 3</kindex>
</solardata></solar>`

	reading, err := ParseN0NBH([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 3.0, reading.Values["kp"])
	assert.Equal(t, 12.0, reading.Values["a_index"])
	assert.Equal(t, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), reading.ObservedAt)

	_, err = ParseN0NBH([]byte(`<solar><solardata></solardata></solar>`))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseDONKINotifications(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 7; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"messageType":"Report","messageID":"N`)
		b.WriteString(string(rune('0' + i)))
		b.WriteString(`","messageIssueTime":"2026-10-1`)
		b.WriteString(string(rune('0' + i)))
		b.WriteString(`T00:00Z","messageBody":"## Summary:\n\nEvent `)
		b.WriteString(string(rune('0' + i)))
		b.WriteString(`"}`)
	}
	b.WriteString("]")

	reading, err := ParseDONKINotifications([]byte(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 5.0, reading.Values["count"])
	require.Len(t, reading.Records, 5)
	assert.Equal(t, "N6", reading.Records[0].ID)
	assert.Equal(t, "Event 6", reading.Records[0].Title)

	_, err = ParseDONKINotifications([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseDONKICME(t *testing.T) {
	t.Parallel()

	reading, err := ParseDONKICME([]byte(`[{"activityID":"2026-10-14-CME-001","startTime":"2026-10-14T03:12Z","sourceLocation":"N12E30","note":"Partial halo"}]`))
	require.NoError(t, err)
	require.Len(t, reading.Records, 1)
	assert.Equal(t, "Coronal mass ejection at N12E30", reading.Records[0].Title)
	assert.Equal(t, 1.0, reading.Values["count"])
}

func TestParseDONKIFlares(t *testing.T) {
	t.Parallel()

	reading, err := ParseDONKIFlares([]byte(`[
		{"flrID":"F1","beginTime":"2026-10-14T01:00Z","peakTime":"2026-10-14T01:10Z","classType":"X1.1","activeRegionNum":13800},
		{"flrID":"F2","beginTime":"2026-10-14T05:00Z","peakTime":"2026-10-14T05:10Z","classType":"C2.0"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, reading.Values["count"])
	assert.InDelta(t, 1.1e-4, reading.Values["max_flux"], 1e-12)
	assert.Equal(t, "F2", reading.Records[0].ID)
	assert.Equal(t, "Class X1.1 flare from AR 13800", reading.Records[1].Title)
}

func TestParseAPOD(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 400)
	reading, err := ParseAPOD([]byte(`{"title":"Pillars","url":"https://apod.example/p.jpg","date":"2026-10-15","explanation":"` + long + `"}`))
	require.NoError(t, err)
	require.Len(t, reading.Records, 1)
	rec := reading.Records[0]
	assert.Equal(t, "APOD", rec.Type)
	assert.Equal(t, strings.Repeat("a", 150)+"...", rec.Body)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), rec.IssuedAt)

	_, err = ParseAPOD([]byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestDONKIWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	q := DONKIWindow("k", 7, map[string]string{"type": "all"})(now)

	assert.Equal(t, map[string]string{
		"api_key":   "k",
		"startDate": "2026-10-08",
		"endDate":   "2026-10-15",
		"type":      "all",
	}, q)
}
