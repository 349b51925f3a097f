package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Geocoder   GeocoderConfig   `mapstructure:"geocoder"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Session    SessionConfig    `mapstructure:"session"`
	Map        MapConfig        `mapstructure:"map"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

// DatabaseConfig points at the reference-space store. When disabled the
// embedded seed list is used.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr     string        `mapstructure:"addr"`
	Prefix   string        `mapstructure:"prefix"`
	LocalTTL time.Duration `mapstructure:"local_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type GeocoderConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Suffix    string        `mapstructure:"suffix"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type DirectionsConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	AccessToken string        `mapstructure:"access_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	TTL                time.Duration `mapstructure:"ttl"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
	MaxChecked         int           `mapstructure:"max_checked"`
	GeolocationTimeout time.Duration `mapstructure:"geolocation_timeout"`
}

type MapConfig struct {
	FallbackLat  float64 `mapstructure:"fallback_lat"`
	FallbackLng  float64 `mapstructure:"fallback_lng"`
	FocusZoom    float64 `mapstructure:"focus_zoom"`
	OverviewZoom float64 `mapstructure:"overview_zoom"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: WALKIES_GEOCODER_BASE_URL → geocoder.base_url
	v.SetEnvPrefix("WALKIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "walkies")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "walkies")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "walkies:")
	v.SetDefault("valkey.local_ttl", 30*time.Second)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.suffix", ", London, UK")
	v.SetDefault("geocoder.user_agent", "walkies/1.0")
	v.SetDefault("geocoder.timeout", 5*time.Second)
	v.SetDefault("directions.base_url", "https://api.mapbox.com")
	v.SetDefault("directions.access_token", "")
	v.SetDefault("directions.timeout", 8*time.Second)
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("session.max_checked", 5)
	v.SetDefault("session.geolocation_timeout", 10*time.Second)
	v.SetDefault("map.fallback_lat", 51.5072)
	v.SetDefault("map.fallback_lng", -0.1276)
	v.SetDefault("map.focus_zoom", 16)
	v.SetDefault("map.overview_zoom", 12)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, "geocoder.base_url is required")
	}
	if c.Geocoder.UserAgent == "" {
		errs = append(errs, "geocoder.user_agent is required")
	}
	if c.Geocoder.Timeout <= 0 {
		errs = append(errs, "geocoder.timeout must be positive")
	}
	if c.Directions.BaseURL == "" {
		errs = append(errs, "directions.base_url is required")
	}
	if c.Directions.Timeout <= 0 {
		errs = append(errs, "directions.timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "session.sweep_interval must be positive")
	}
	if c.Session.MaxChecked <= 0 {
		errs = append(errs, fmt.Sprintf("session.max_checked must be positive, got %d", c.Session.MaxChecked))
	}
	if c.Session.GeolocationTimeout <= 0 {
		errs = append(errs, "session.geolocation_timeout must be positive")
	}
	if c.Map.FallbackLat < -90 || c.Map.FallbackLat > 90 || c.Map.FallbackLng < -180 || c.Map.FallbackLng > 180 {
		errs = append(errs, fmt.Sprintf("map fallback %v,%v is out of range", c.Map.FallbackLat, c.Map.FallbackLng))
	}
	if c.Map.FocusZoom <= 0 || c.Map.OverviewZoom <= 0 {
		errs = append(errs, "map zoom levels must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
