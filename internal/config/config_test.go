package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "3000", cfg.Port)
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "https://services.swpc.noaa.gov", cfg.NOAAAPIBase)
				assert.Equal(t, "https://api.nasa.gov", cfg.NASAAPIBase)
				assert.Empty(t, cfg.NASAAPIKey)
				assert.Equal(t, StrategySequential, cfg.FetchStrategy)
				assert.Equal(t, 5*time.Second, cfg.SourceTimeout)
				assert.Equal(t, 4*time.Second, cfg.NASATimeout)
				assert.Equal(t, 0, cfg.SourceRetries)
				assert.False(t, cfg.MockupMode)
				assert.Equal(t, "./snapshots", cfg.SnapshotsDir)
				assert.Equal(t, float64(100), cfg.Ranges.WindSpeedMin)
				assert.Equal(t, float64(1000), cfg.Ranges.WindSpeedMax)
				assert.Equal(t, float64(9), cfg.Ranges.KpMax)
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"PORT":                 "9000",
				"ENVIRONMENT":          "production",
				"NASA_API_KEY":         "secret",
				"FETCH_STRATEGY":       "race",
				"SOURCE_TIMEOUT":       "750ms",
				"SOURCE_RETRIES":       "2",
				"MOCKUP_MODE":          "true",
				"SNAPSHOTS_DIR":        "/var/lib/heliopulse",
				"RANGE_WIND_SPEED_MIN": "200",
				"RANGE_WIND_SPEED_MAX": "900",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9000", cfg.Port)
				assert.True(t, cfg.IsProduction())
				assert.Equal(t, "secret", cfg.NASAAPIKey)
				assert.Equal(t, StrategyRace, cfg.FetchStrategy)
				assert.Equal(t, 750*time.Millisecond, cfg.SourceTimeout)
				assert.Equal(t, 2, cfg.SourceRetries)
				assert.True(t, cfg.MockupMode)
				assert.Equal(t, "/var/lib/heliopulse", cfg.SnapshotsDir)

				ranges := cfg.Ranges.Model()
				assert.Equal(t, float64(200), ranges.WindSpeed.Low)
				assert.Equal(t, float64(900), ranges.WindSpeed.High)
			},
		},
		{
			name:        "unknown strategy",
			envVars:     map[string]string{"FETCH_STRATEGY": "fastest"},
			expectError: "FETCH_STRATEGY",
		},
		{
			name:        "zero timeout",
			envVars:     map[string]string{"SOURCE_TIMEOUT": "0s"},
			expectError: "SOURCE_TIMEOUT",
		},
		{
			name:        "malformed duration",
			envVars:     map[string]string{"NASA_TIMEOUT": "soon"},
			expectError: "failed to process config",
		},
		{
			name:        "negative retries",
			envVars:     map[string]string{"SOURCE_RETRIES": "-1"},
			expectError: "SOURCE_RETRIES",
		},
		{
			name:        "fallback band outside narrowed range",
			envVars:     map[string]string{"RANGE_WIND_SPEED_MAX": "400"},
			expectError: "plausible ranges",
		},
		{
			name: "inverted range",
			envVars: map[string]string{
				"RANGE_KP_MIN": "9",
				"RANGE_KP_MAX": "0",
			},
			expectError: "plausible ranges",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.envVars))

			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}

			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=4242\nFETCH_STRATEGY=race\n"), 0644))

	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(original)

	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("FETCH_STRATEGY", "")
	os.Unsetenv("FETCH_STRATEGY")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4242", cfg.Port)
	assert.Equal(t, StrategyRace, cfg.FetchStrategy)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(original)

	_, err = Load(context.Background())
	assert.NoError(t, err)
}

func TestCatalogueFollowsRanges(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"RANGE_SUNSPOT_MAX": "300",
	}))
	require.NoError(t, err)

	spec := cfg.Catalogue()["sunspots"]
	ssn, ok := spec.Metric("ssn")
	require.True(t, ok)
	assert.Equal(t, float64(300), ssn.Max)
}
