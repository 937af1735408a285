package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"heliopulse/internal/aggregator"
	"heliopulse/internal/config"
	"heliopulse/internal/models"
	"heliopulse/internal/resilience"
)

// DashboardGroups are fetched for the HTML dashboard
var DashboardGroups = append(append([]models.MetricGroup(nil), aggregator.StatusGroups...), models.GroupAPOD)

const (
	xClassFlux        = 1e-4
	highActivityCount = 3
	kpStormThreshold  = 6
	dstStormThreshold = -50
)

// StatusResponse is the aggregate plus a one-line provenance per group
type StatusResponse struct {
	*models.AggregateResult
	Provenance map[models.MetricGroup]string `json:"provenance"`
}

// GroupResponse wraps a single group result
type GroupResponse struct {
	RequestID string `json:"requestId"`
	models.SourceResult
}

// FlaresResponse adds flare activity flags
type FlaresResponse struct {
	GroupResponse
	HasXClass bool   `json:"hasXClass"`
	Warning   string `json:"warning"`
}

// KpIndex is the classified planetary K-index
type KpIndex struct {
	Value        float64 `json:"value"`
	Level        string  `json:"level"`
	StormWarning bool    `json:"stormWarning"`
}

// DstIndex is the disturbance storm time index
type DstIndex struct {
	Value          float64 `json:"value"`
	StormCondition bool    `json:"stormCondition"`
}

// GeomagneticResponse adds the Kp classification and Dst storm condition
type GeomagneticResponse struct {
	GroupResponse
	KpIndex  KpIndex   `json:"kpIndex"`
	DstIndex *DstIndex `json:"dstIndex,omitempty"`
}

// ErrorResponse is returned when even the fallback failed
type ErrorResponse struct {
	Error     string                                     `json:"error"`
	Groups    map[models.MetricGroup]models.SourceResult `json:"groups,omitempty"`
	Timestamp time.Time                                  `json:"timestamp"`
	RequestID string                                     `json:"requestId,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	endpoints := []string{
		"GET /health",
		"GET /api/solar/status",
		"GET /api/solar/wind",
		"GET /api/solar/flares",
		"GET /api/solar/sunspots",
		"GET /api/solar/geomagnetic",
		"GET /api/solar/alerts",
		"GET /api/nasa/apod",
		"GET /dashboard",
	}
	if s.snapshots != nil {
		endpoints = append(endpoints, "GET /api/snapshots", "POST /api/snapshots", "GET /snapshots/{path}")
	}
	if s.gatherer != nil {
		endpoints = append(endpoints, "GET /metrics")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "heliopulse",
		"description": "Space weather aggregation service",
		"version":     config.GetVersion(),
		"environment": s.environment,
		"endpoints":   endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now().Format(time.RFC3339),
		"version":   config.GetVersion(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetch(w, r, aggregator.StatusGroups)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{AggregateResult: res, Provenance: res.Provenance()})
}

func (s *Server) handleGroup(group models.MetricGroup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.fetch(w, r, []models.MetricGroup{group})
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, groupResponse(res, group))
	}
}

func (s *Server) handleFlares(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetch(w, r, []models.MetricGroup{models.GroupFlares})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, flaresResponse(groupResponse(res, models.GroupFlares)))
}

func (s *Server) handleGeomagnetic(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetch(w, r, []models.MetricGroup{models.GroupGeomagnetic})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, geomagneticResponse(groupResponse(res, models.GroupGeomagnetic)))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := s.agg.FetchAggregateStatus(r.Context(), DashboardGroups)
	if res == nil {
		s.writeFailure(w, nil, err)
		return
	}
	if err != nil {
		// static defaults are still worth showing
		s.log.Error("Dashboard rendered with static defaults", err, nil)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.dashboard.Render(w, res); err != nil {
		s.log.Error("Failed to render dashboard", err, nil)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
	}
}

// fetch runs the aggregate and writes the error response itself when needed
func (s *Server) fetch(w http.ResponseWriter, r *http.Request, groups []models.MetricGroup) (*models.AggregateResult, bool) {
	res, err := s.agg.FetchAggregateStatus(r.Context(), groups)
	if err != nil {
		s.writeFailure(w, res, err)
		return nil, false
	}
	return res, true
}

func (s *Server) writeFailure(w http.ResponseWriter, res *models.AggregateResult, err error) {
	if errors.Is(err, aggregator.ErrUnknownGroup) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Timestamp: s.now()})
		return
	}

	var cat *resilience.CatastrophicError
	if errors.As(err, &cat) {
		s.log.Error("Catastrophic failure while aggregating", err, map[string]interface{}{"group": string(cat.Group)})
	} else {
		s.log.Error("Aggregation failed", err, nil)
	}

	resp := ErrorResponse{Error: "space weather data unavailable: " + err.Error(), Timestamp: s.now()}
	if res != nil {
		resp.Groups = res.Groups
		resp.Timestamp = res.Timestamp
		resp.RequestID = res.RequestID
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func groupResponse(res *models.AggregateResult, group models.MetricGroup) GroupResponse {
	return GroupResponse{RequestID: res.RequestID, SourceResult: res.Groups[group]}
}

func flaresResponse(g GroupResponse) FlaresResponse {
	resp := FlaresResponse{GroupResponse: g, Warning: "Normal"}
	if flux, ok := g.Value("max_flux"); ok && flux >= xClassFlux {
		resp.HasXClass = true
	}
	for _, rec := range g.Records {
		if strings.HasPrefix(rec.Title, "Class X") {
			resp.HasXClass = true
		}
	}
	if count, _ := g.Value("count"); count > highActivityCount {
		resp.Warning = "High solar activity detected"
	}
	return resp
}

func geomagneticResponse(g GroupResponse) GeomagneticResponse {
	kp, _ := g.Value("kp")
	resp := GeomagneticResponse{
		GroupResponse: g,
		KpIndex: KpIndex{
			Value:        kp,
			Level:        models.KpLevel(kp),
			StormWarning: kp >= kpStormThreshold,
		},
	}
	if dst, ok := g.Value("dst"); ok {
		resp.DstIndex = &DstIndex{Value: dst, StormCondition: dst <= dstStormThreshold}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
