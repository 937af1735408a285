package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"heliopulse/internal/charts"
	"heliopulse/internal/logger"
	"heliopulse/internal/models"
	"heliopulse/internal/storage"

	"github.com/go-chi/chi/v5"
)

const defaultSnapshotListLimit = 20

// Snapshot describes a stored dashboard snapshot
type Snapshot struct {
	Folder     string                        `json:"folder"`
	RequestID  string                        `json:"requestId"`
	Timestamp  time.Time                     `json:"timestamp"`
	Provenance map[models.MetricGroup]string `json:"provenance"`
	Degraded   bool                          `json:"degraded"`
}

// Snapshotter fetches every dashboard group once and stores the JSON and the
// rendered page together
type Snapshotter struct {
	agg       Aggregator
	dashboard *charts.Dashboard
	store     storage.Store
	log       *logger.Logger

	// one snapshot at a time
	mu sync.Mutex
}

// NewSnapshotter creates a snapshotter writing into store
func NewSnapshotter(agg Aggregator, dashboard *charts.Dashboard, store storage.Store, log *logger.Logger) *Snapshotter {
	if log == nil {
		log = logger.Named("snapshot")
	}
	return &Snapshotter{agg: agg, dashboard: dashboard, store: store, log: log}
}

// ErrSnapshotInProgress is returned when another snapshot is being written
var ErrSnapshotInProgress = errors.New("snapshot already in progress")

// TrySave is Save that fails fast instead of queueing behind a running snapshot
func (s *Snapshotter) TrySave(ctx context.Context) (*Snapshot, error) {
	if !s.mu.TryLock() {
		return nil, ErrSnapshotInProgress
	}
	defer s.mu.Unlock()
	return s.save(ctx)
}

// Save writes one snapshot. Static defaults still produce a snapshot, marked
// degraded.
func (s *Snapshotter) Save(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Snapshotter) save(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	res, err := s.agg.FetchAggregateStatus(ctx, DashboardGroups)
	if res == nil {
		return nil, fmt.Errorf("aggregate fetch failed: %w", err)
	}
	degraded := err != nil
	if degraded {
		s.log.Error("Snapshot contains static defaults", err, map[string]interface{}{"request_id": res.RequestID})
	}

	folder := storage.SnapshotFolder(res.Timestamp)

	apiData, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode aggregate: %w", err)
	}
	if err := s.store.StoreFile(ctx, folder+"/"+storage.APIDataFile, apiData); err != nil {
		return nil, fmt.Errorf("failed to save API data: %w", err)
	}

	var page bytes.Buffer
	if err := s.dashboard.Render(&page, res); err != nil {
		return nil, err
	}
	// the dashboard goes last; its presence marks the folder complete
	if err := s.store.StoreFile(ctx, folder+"/"+storage.DashboardFile, page.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to save dashboard: %w", err)
	}

	snap := &Snapshot{
		Folder:     folder,
		RequestID:  res.RequestID,
		Timestamp:  res.Timestamp,
		Provenance: res.Provenance(),
		Degraded:   degraded,
	}
	s.log.Info("Snapshot written", map[string]interface{}{
		"folder":      folder,
		"groups":      len(res.Groups),
		"request_id":  res.RequestID,
		"degraded":    degraded,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return snap, nil
}

// List returns the newest stored snapshot folders
func (s *Snapshotter) List(ctx context.Context, limit int) ([]string, error) {
	return s.store.ListSnapshots(ctx, limit)
}

// File reads a file from a stored snapshot
func (s *Snapshotter) File(ctx context.Context, path string) ([]byte, error) {
	return s.store.GetFile(ctx, path)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.TrySave(r.Context())
	if errors.Is(err, ErrSnapshotInProgress) {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Timestamp: s.now()})
		return
	}
	if err != nil {
		s.log.Error("Snapshot failed", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "snapshot failed", Timestamp: s.now()})
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Timestamp: s.now()})
			return
		}
		limit = n
	}

	folders, err := s.snapshots.List(r.Context(), limit)
	if err != nil {
		s.log.Error("Failed to list snapshots", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list snapshots", Timestamp: s.now()})
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": folders,
		"count":     len(folders),
	})
}

func (s *Server) handleSnapshotFile(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	data, err := s.snapshots.File(r.Context(), path)
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	case errors.Is(err, storage.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.log.Error("Failed to read snapshot file", err, map[string]interface{}{"path": path})
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", storage.GetContentType(path))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
