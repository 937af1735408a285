package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"heliopulse/internal/models"
)

// Fetch strategies
const (
	StrategySequential = "sequential"
	StrategyRace       = "race"
)

// Config holds all configuration for the space weather aggregation service
type Config struct {
	// Server configuration
	Port        string `env:"PORT,default=3000"`
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=json"`

	// Data source endpoints
	NOAAAPIBase    string `env:"NOAA_API_BASE,default=https://services.swpc.noaa.gov"`
	NASAAPIBase    string `env:"NASA_API_BASE,default=https://api.nasa.gov"`
	NASAAPIKey     string `env:"NASA_API_KEY"`
	N0NBHSolarURL  string `env:"N0NBH_SOLAR_URL,default=https://www.hamqsl.com/solarxml.php"`
	SIDCSunspotURL string `env:"SIDC_SUNSPOT_URL,default=https://www.sidc.be/SILSO/INFO/snmtotcsv.php"`
	SIDCRSSURL     string `env:"SIDC_RSS_URL,default=https://www.sidc.be/products/meu"`

	// Fetch behaviour
	SourceTimeout         time.Duration `env:"SOURCE_TIMEOUT,default=5s"`
	NASATimeout           time.Duration `env:"NASA_TIMEOUT,default=4s"`
	SourceRetries         int           `env:"SOURCE_RETRIES,default=0"`
	NASARequestsPerSecond float64       `env:"NASA_REQUESTS_PER_SECOND,default=1"`
	NASABurst             int           `env:"NASA_BURST,default=3"`
	FetchStrategy         string        `env:"FETCH_STRATEGY,default=sequential"`

	// Offline development
	MockupMode bool   `env:"MOCKUP_MODE,default=false"`
	MocksDir   string `env:"MOCKS_DIR,default=./internal/mocks/data"`

	// Snapshot storage
	SnapshotsDir string `env:"SNAPSHOTS_DIR,default=./snapshots"`

	Ranges RangeConfig `env:", prefix=RANGE_"`
}

// RangeConfig holds the plausible ranges a genuine reading must satisfy
type RangeConfig struct {
	WindSpeedMin       float64 `env:"WIND_SPEED_MIN,default=100"`
	WindSpeedMax       float64 `env:"WIND_SPEED_MAX,default=1000"`
	WindDensityMin     float64 `env:"WIND_DENSITY_MIN,default=0"`
	WindDensityMax     float64 `env:"WIND_DENSITY_MAX,default=100"`
	WindTemperatureMin float64 `env:"WIND_TEMPERATURE_MIN,default=1000"`
	WindTemperatureMax float64 `env:"WIND_TEMPERATURE_MAX,default=10000000"`
	MagneticFieldMin   float64 `env:"MAGNETIC_FIELD_MIN,default=-100"`
	MagneticFieldMax   float64 `env:"MAGNETIC_FIELD_MAX,default=100"`
	SunspotMin         float64 `env:"SUNSPOT_MIN,default=0"`
	SunspotMax         float64 `env:"SUNSPOT_MAX,default=500"`
	KpMin              float64 `env:"KP_MIN,default=0"`
	KpMax              float64 `env:"KP_MAX,default=9"`
	DstMin             float64 `env:"DST_MIN,default=-1000"`
	DstMax             float64 `env:"DST_MAX,default=100"`
}

// Model converts the configured ranges into the catalogue input
func (r RangeConfig) Model() models.Ranges {
	return models.Ranges{
		WindSpeed:       models.Band{Low: r.WindSpeedMin, High: r.WindSpeedMax},
		WindDensity:     models.Band{Low: r.WindDensityMin, High: r.WindDensityMax},
		WindTemperature: models.Band{Low: r.WindTemperatureMin, High: r.WindTemperatureMax},
		MagneticField:   models.Band{Low: r.MagneticFieldMin, High: r.MagneticFieldMax},
		SunspotNumber:   models.Band{Low: r.SunspotMin, High: r.SunspotMax},
		Kp:              models.Band{Low: r.KpMin, High: r.KpMax},
		Dst:             models.Band{Low: r.DstMin, High: r.DstMax},
	}
}

// Catalogue builds the group catalogue for the configured ranges
func (c *Config) Catalogue() models.Catalogue {
	return models.NewCatalogue(c.Ranges.Model())
}

// Load reads an optional .env file and then the process environment
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes configuration from the given lookuper and validates it
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	switch c.FetchStrategy {
	case StrategySequential, StrategyRace:
	default:
		return fmt.Errorf("FETCH_STRATEGY must be %q or %q, got %q", StrategySequential, StrategyRace, c.FetchStrategy)
	}

	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive, got %s", c.SourceTimeout)
	}
	if c.NASATimeout <= 0 {
		return fmt.Errorf("NASA_TIMEOUT must be positive, got %s", c.NASATimeout)
	}
	if c.SourceRetries < 0 {
		return fmt.Errorf("SOURCE_RETRIES must not be negative, got %d", c.SourceRetries)
	}
	if c.NASARequestsPerSecond <= 0 {
		return fmt.Errorf("NASA_REQUESTS_PER_SECOND must be positive, got %g", c.NASARequestsPerSecond)
	}
	if c.SnapshotsDir == "" {
		return errors.New("SNAPSHOTS_DIR must not be empty")
	}
	if c.NASABurst < 1 {
		return fmt.Errorf("NASA_BURST must be at least 1, got %d", c.NASABurst)
	}

	if err := c.Catalogue().Check(); err != nil {
		return fmt.Errorf("plausible ranges: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
