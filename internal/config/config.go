package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Registry backends.
const (
	BackendMock     = "mock"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Registry RegistryConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Session  SessionConfig
	Map      MapConfig
	PDF      PDFConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// RegistryConfig selects and tunes the cadastral registry.
type RegistryConfig struct {
	Backend        string
	SearchLatency  time.Duration
	DetailsLatency time.Duration
	MaxTracked     int
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// SessionConfig holds search session configuration.
type SessionConfig struct {
	TTL         time.Duration
	MaxSessions int
}

// MapConfig describes the map viewer: base tile layers, overlay files and the initial view.
type MapConfig struct {
	StreetTileURL        string
	StreetAttribution    string
	StreetMaxZoom        int
	SatelliteTileURL     string
	SatelliteAttribution string
	SatelliteMaxZoom     int
	HousingOverlayPath   string
	BlocksOverlayPath    string
	CenterLat            float64
	CenterLng            float64
	InitialZoom          int
}

// PDFConfig holds ficha export configuration.
type PDFConfig struct {
	Enabled     bool
	ChromePath  string
	SettleDelay time.Duration
	Timeout     time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Registry: RegistryConfig{
			Backend:        strings.ToLower(v.GetString("REGISTRY_BACKEND")),
			SearchLatency:  v.GetDuration("SEARCH_LATENCY"),
			DetailsLatency: v.GetDuration("DETAILS_LATENCY"),
			MaxTracked:     v.GetInt("REGISTRY_MAX_TRACKED"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Session: SessionConfig{
			TTL:         v.GetDuration("SESSION_TTL"),
			MaxSessions: v.GetInt("SESSION_MAX"),
		},
		Map: MapConfig{
			StreetTileURL:        v.GetString("MAP_STREET_TILE_URL"),
			StreetAttribution:    v.GetString("MAP_STREET_ATTRIBUTION"),
			StreetMaxZoom:        v.GetInt("MAP_STREET_MAX_ZOOM"),
			SatelliteTileURL:     v.GetString("MAP_SATELLITE_TILE_URL"),
			SatelliteAttribution: v.GetString("MAP_SATELLITE_ATTRIBUTION"),
			SatelliteMaxZoom:     v.GetInt("MAP_SATELLITE_MAX_ZOOM"),
			HousingOverlayPath:   v.GetString("MAP_HOUSING_OVERLAY"),
			BlocksOverlayPath:    v.GetString("MAP_BLOCKS_OVERLAY"),
			CenterLat:            v.GetFloat64("MAP_CENTER_LAT"),
			CenterLng:            v.GetFloat64("MAP_CENTER_LNG"),
			InitialZoom:          v.GetInt("MAP_INITIAL_ZOOM"),
		},
		PDF: PDFConfig{
			Enabled:     v.GetBool("PDF_ENABLED"),
			ChromePath:  v.GetString("PDF_CHROME_PATH"),
			SettleDelay: v.GetDuration("PDF_SETTLE_DELAY"),
			Timeout:     v.GetDuration("PDF_TIMEOUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")

	v.SetDefault("REGISTRY_BACKEND", BackendMock)
	v.SetDefault("SEARCH_LATENCY", "1500ms")
	v.SetDefault("DETAILS_LATENCY", "1000ms")
	v.SetDefault("REGISTRY_MAX_TRACKED", 1000)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "catastro")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)

	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_MAX", 10000)

	v.SetDefault("MAP_STREET_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("MAP_STREET_ATTRIBUTION",
		`&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`)
	v.SetDefault("MAP_STREET_MAX_ZOOM", 19)
	v.SetDefault("MAP_SATELLITE_TILE_URL", "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}")
	v.SetDefault("MAP_SATELLITE_ATTRIBUTION", "Map data © Google")
	v.SetDefault("MAP_SATELLITE_MAX_ZOOM", 22)
	v.SetDefault("MAP_HOUSING_OVERLAY", "web/data/viviendas.geojson")
	v.SetDefault("MAP_BLOCKS_OVERLAY", "web/data/manzanas.geojson")
	v.SetDefault("MAP_CENTER_LAT", -7.2458)
	v.SetDefault("MAP_CENTER_LNG", -78.3861)
	v.SetDefault("MAP_INITIAL_ZOOM", 14)

	v.SetDefault("PDF_ENABLED", true)
	v.SetDefault("PDF_CHROME_PATH", "")
	v.SetDefault("PDF_SETTLE_DELAY", "100ms")
	v.SetDefault("PDF_TIMEOUT", "30s")
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Registry.Backend {
	case BackendMock:
	case BackendPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("REGISTRY_BACKEND must be %q or %q, got %q", BackendMock, BackendPostgres, c.Registry.Backend)
	}

	if c.Registry.SearchLatency < 0 || c.Registry.DetailsLatency < 0 {
		return fmt.Errorf("SEARCH_LATENCY and DETAILS_LATENCY must be non-negative")
	}
	if c.Registry.MaxTracked < 1 {
		return fmt.Errorf("REGISTRY_MAX_TRACKED must be at least 1")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("SESSION_MAX must be at least 1")
	}

	if c.Map.StreetMaxZoom < 1 || c.Map.SatelliteMaxZoom < 1 {
		return fmt.Errorf("MAP_STREET_MAX_ZOOM and MAP_SATELLITE_MAX_ZOOM must be at least 1")
	}

	if c.PDF.Enabled && c.PDF.Timeout <= 0 {
		return fmt.Errorf("PDF_TIMEOUT must be positive when PDF_ENABLED is set")
	}

	return nil
}

// Validate checks the PostgreSQL settings. Only required for the postgres backend.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
