// Package charts renders the aggregated space weather status as an HTML dashboard.
package charts

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"heliopulse/internal/config"
	"heliopulse/internal/logger"
	"heliopulse/internal/models"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// recordGroups are the groups whose records are listed on the dashboard
var recordGroups = []models.MetricGroup{models.GroupAlerts, models.GroupFlares, models.GroupAPOD}

// Dashboard renders aggregate results
type Dashboard struct {
	catalogue models.Catalogue
	tmpl      *template.Template
}

// TemplateData is the data handed to the dashboard template
type TemplateData struct {
	GeneratedAt  string
	RequestID    string
	Version      string
	Warnings     []string
	Gauges       []template.HTML
	Rows         []ProvenanceRow
	AttemptChart template.HTML
	QualityChart template.HTML
	Records      []RecordView
}

// RecordView is a record prepared for display
type RecordView struct {
	Group  models.MetricGroup
	Type   string
	Title  string
	URL    string
	Issued string
	Body   template.HTML
	at     time.Time
}

// NewDashboard parses the embedded template
func NewDashboard(catalogue models.Catalogue) (*Dashboard, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Dashboard{catalogue: catalogue, tmpl: tmpl}, nil
}

// Render writes the dashboard for res to w
func (d *Dashboard) Render(w io.Writer, res *models.AggregateResult) error {
	if res == nil {
		return fmt.Errorf("aggregate result cannot be nil")
	}

	data, err := d.templateData(res)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute dashboard template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (d *Dashboard) templateData(res *models.AggregateResult) (TemplateData, error) {
	data := TemplateData{
		GeneratedAt: res.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"),
		RequestID:   res.RequestID,
		Version:     config.GetVersion(),
		Rows:        provenanceRows(res),
		Warnings:    warnings(res),
		Records:     recordViews(res),
	}

	gauges, err := gaugeSnippets(d.catalogue, res)
	if err != nil {
		return TemplateData{}, err
	}
	for _, g := range gauges {
		data.Gauges = append(data.Gauges, template.HTML(g.HTML))
	}

	if chart, err := generateQualityChart(res); err != nil {
		logger.Warn("Quality chart unavailable", map[string]interface{}{"error": err.Error()})
		data.QualityChart = "<p>Quality chart unavailable</p>"
	} else {
		data.QualityChart = template.HTML(chart)
	}
	if chart, err := generateAttemptChart(res); err != nil {
		logger.Warn("Attempt chart unavailable", map[string]interface{}{"error": err.Error()})
		data.AttemptChart = "<p>Attempt chart unavailable</p>"
	} else {
		data.AttemptChart = template.HTML(chart)
	}
	return data, nil
}

func warnings(res *models.AggregateResult) []string {
	var out []string
	for _, row := range provenanceRows(res) {
		if row.Simulated {
			out = append(out, fmt.Sprintf("%s: no upstream source available, showing simulated values", row.Group))
		}
	}
	if geo, ok := res.Groups[models.GroupGeomagnetic]; ok {
		if kp, ok := geo.Value("kp"); ok && kp >= 6 {
			out = append(out, fmt.Sprintf("Geomagnetic storm: Kp %.1f (%s)", kp, models.KpLevel(kp)))
		}
	}
	return out
}

func recordViews(res *models.AggregateResult) []RecordView {
	var views []RecordView
	for _, g := range recordGroups {
		r, ok := res.Groups[g]
		if !ok {
			continue
		}
		for _, rec := range r.Records {
			views = append(views, RecordView{
				Group:  g,
				Type:   rec.Type,
				Title:  rec.Title,
				URL:    rec.URL,
				Issued: issued(rec.IssuedAt),
				Body:   markdownToHTML(rec.Body),
				at:     rec.IssuedAt,
			})
		}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].at.After(views[j].at) })
	return views
}

func issued(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
