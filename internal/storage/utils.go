package storage

import (
	"fmt"
	"strings"
	"time"
)

// Files written into every snapshot folder
const (
	APIDataFile   = "01_api_data.json"
	DashboardFile = "dashboard.html"
)

// SnapshotFolder generates a consistent folder path for a snapshot.
// Format: YYYY/MM/DD/Snapshot-YYYY-MM-DD-HH-MM-SS
func SnapshotFolder(timestamp time.Time) string {
	t := timestamp.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/Snapshot-%04d-%02d-%02d-%02d-%02d-%02d",
		t.Year(), t.Month(), t.Day(),
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second())
}

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".json"):
		return "application/json"
	case strings.HasSuffix(filename, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(filename, ".txt"):
		return "text/plain"
	case strings.HasSuffix(filename, ".css"):
		return "text/css"
	default:
		return "application/octet-stream"
	}
}
