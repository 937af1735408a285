package charts

import (
	"fmt"

	"heliopulse/internal/models"
)

// gauge describes one dial: the value, its scale and the colour bands as
// fractions of the scale
type gauge struct {
	id     string
	title  string
	metric models.Metric
	value  float64
	status string
	format string
	colors [][]interface{}
}

func (g gauge) snippet(quality models.Quality) (ChartSnippet, error) {
	detail := fmt.Sprintf(g.format, g.value)
	if g.status != "" {
		detail += "\n" + g.status
	}
	if quality == models.QualitySimulated {
		detail += "\n(simulated)"
	}

	option := map[string]interface{}{
		"tooltip": map[string]interface{}{
			"formatter": "{a} <br/>{b} : {c}",
		},
		"series": []interface{}{
			map[string]interface{}{
				"name":   g.title,
				"type":   "gauge",
				"min":    g.metric.Min,
				"max":    g.metric.Max,
				"radius": "80%",
				"axisLine": map[string]interface{}{
					"lineStyle": map[string]interface{}{
						"width": 20,
						"color": g.colors,
					},
				},
				"pointer": map[string]interface{}{
					"itemStyle": map[string]interface{}{"color": "auto"},
				},
				"axisLabel": map[string]interface{}{
					"color":    "inherit",
					"fontSize": 12,
					"distance": 30,
				},
				"detail": map[string]interface{}{
					"valueAnimation": true,
					"formatter":      detail,
					"color":          "inherit",
					"fontSize":       14,
					"fontWeight":     "bold",
					"offsetCenter":   []interface{}{0, "60%"},
				},
				"data": []interface{}{
					map[string]interface{}{"value": g.value, "name": g.metric.Unit},
				},
			},
		},
	}
	return newSnippet(g.id, g.title, "250px", option)
}

// gaugeSnippets builds the dials for the groups present in the result.
// Groups without the metric are skipped.
func gaugeSnippets(catalogue models.Catalogue, res *models.AggregateResult) ([]ChartSnippet, error) {
	var gauges []gauge
	var qualities []models.Quality

	if wind, ok := res.Groups[models.GroupSolarWind]; ok {
		if v, ok := wind.Value("speed"); ok {
			m, _ := catalogue[models.GroupSolarWind].Metric("speed")
			gauges = append(gauges, gauge{
				id: "chart-solar-wind-gauge", title: "Solar Wind Speed", metric: m, value: v,
				status: windStatus(v), format: "%.0f km/s",
				colors: [][]interface{}{{0.3, "#67e0e3"}, {0.5, "#37a2da"}, {0.7, "#ffdb5c"}, {1.0, "#ff9f7f"}},
			})
			qualities = append(qualities, wind.Quality)
		}
	}
	if geo, ok := res.Groups[models.GroupGeomagnetic]; ok {
		if v, ok := geo.Value("kp"); ok {
			m, _ := catalogue[models.GroupGeomagnetic].Metric("kp")
			gauges = append(gauges, gauge{
				id: "chart-k-index-gauge", title: "K-index", metric: m, value: v,
				status: models.KpLevel(v), format: "%.1f",
				// 0-4 quiet, 4-6 unsettled, 6-7 minor, 7-8 major, 8-9 severe
				colors: [][]interface{}{{0.44, "#28a745"}, {0.67, "#ffc107"}, {0.78, "#fd7e14"}, {0.89, "#dc3545"}, {1.0, "#6f42c1"}},
			})
			qualities = append(qualities, geo.Quality)
		}
	}
	if spots, ok := res.Groups[models.GroupSunspots]; ok {
		if v, ok := spots.Value("ssn"); ok {
			m, _ := catalogue[models.GroupSunspots].Metric("ssn")
			gauges = append(gauges, gauge{
				id: "chart-sunspot-gauge", title: "Sunspot Number", metric: m, value: v,
				status: sunspotStatus(v), format: "%.0f",
				colors: [][]interface{}{{0.1, "#6c757d"}, {0.3, "#28a745"}, {0.5, "#ffc107"}, {1.0, "#dc3545"}},
			})
			qualities = append(qualities, spots.Quality)
		}
	}

	snippets := make([]ChartSnippet, 0, len(gauges))
	for i, g := range gauges {
		s, err := g.snippet(qualities[i])
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, s)
	}
	return snippets, nil
}

func windStatus(speed float64) string {
	switch {
	case speed < 400:
		return "Slow"
	case speed < 500:
		return "Normal"
	case speed < 700:
		return "Fast"
	default:
		return "Very Fast"
	}
}

func sunspotStatus(ssn float64) string {
	switch {
	case ssn == 0:
		return "None"
	case ssn < 20:
		return "Very Low"
	case ssn < 50:
		return "Low"
	case ssn < 100:
		return "Moderate"
	case ssn < 150:
		return "High"
	default:
		return "Very High"
	}
}
