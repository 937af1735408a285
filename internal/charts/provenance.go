package charts

import (
	"bytes"
	"fmt"
	"sort"

	"heliopulse/internal/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// ProvenanceRow is one line of the provenance table
type ProvenanceRow struct {
	Group     models.MetricGroup
	SourceID  string
	Quality   models.Quality
	Simulated bool
	Values    string
	Attempts  int
}

// provenanceRows lists the groups of a result in stable order
func provenanceRows(res *models.AggregateResult) []ProvenanceRow {
	rows := make([]ProvenanceRow, 0, len(res.Groups))
	for g, r := range res.Groups {
		rows = append(rows, ProvenanceRow{
			Group:     g,
			SourceID:  r.SourceID,
			Quality:   r.Quality,
			Simulated: r.IsSimulated(),
			Values:    formatValues(r.Values),
			Attempts:  len(r.Attempts),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Group < rows[j].Group })
	return rows
}

func formatValues(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for i, name := range names {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s=%.4g", name, values[name])
	}
	return buf.String()
}

// generateAttemptChart plots how long every source attempt took
func generateAttemptChart(res *models.AggregateResult) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:   types.ThemeWesteros,
			Width:   "900px",
			Height:  "360px",
			ChartID: "chart-source-attempts",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Source Attempts",
			Subtitle: "Duration of each upstream attempt (ms)",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)

	var labels []string
	var data []opts.BarData
	for _, row := range provenanceRows(res) {
		for _, a := range res.Groups[row.Group].Attempts {
			labels = append(labels, a.SourceID)
			data = append(data, opts.BarData{Name: string(a.Quality), Value: a.DurationMS})
		}
	}

	bar.SetXAxis(labels).AddSeries("Attempt duration", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render attempt chart: %w", err)
	}
	return buf.String(), nil
}

// generateQualityChart shows how many groups were answered by a live source
func generateQualityChart(res *models.AggregateResult) (string, error) {
	counts := map[models.Quality]int{}
	for _, r := range res.Groups {
		counts[r.Quality]++
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:   types.ThemeWesteros,
			Width:   "420px",
			Height:  "360px",
			ChartID: "chart-result-quality",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Result Quality"}),
	)

	var items []opts.PieData
	for _, q := range []models.Quality{models.QualityGood, models.QualitySimulated} {
		if counts[q] > 0 {
			items = append(items, opts.PieData{Name: string(q), Value: counts[q]})
		}
	}
	pie.AddSeries("Quality", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}))

	var buf bytes.Buffer
	if err := pie.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render quality chart: %w", err)
	}
	return buf.String(), nil
}
