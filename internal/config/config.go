// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CenterLat and CenterLng fix the urban-core reference coordinate used
	// by the spatial features and the scanner.
	CenterLat float64 `koanf:"center_lat"`
	CenterLng float64 `koanf:"center_lng"`

	// TrainingSeed fixes the train/test splits and the synthetic corpus.
	TrainingSeed int64 `koanf:"training_seed"`

	// NoiseSeed fixes the spatial noise source.
	NoiseSeed int64 `koanf:"noise_seed"`

	// SyntheticSamples sizes the generated corpus when no database is
	// configured or reachable.
	SyntheticSamples int `koanf:"synthetic_samples"`

	// DefaultRadiusKm is the scan radius when a request does not set one.
	DefaultRadiusKm float64 `koanf:"default_radius_km"`

	// MaxHeatmapResolution caps the per-axis heatmap grid size.
	MaxHeatmapResolution int `koanf:"max_heatmap_resolution"`

	// PostgresDSN points at the issue-tracking database. Empty means
	// synthetic-only operation.
	PostgresDSN string `koanf:"postgres_dsn"`

	// WeatherAPIKey enables the live weather provider. Empty means the demo
	// provider serves all requests.
	WeatherAPIKey string `koanf:"weather_api_key"`

	// WeatherBaseURL overrides the weather API endpoint.
	WeatherBaseURL string `koanf:"weather_base_url"`

	// TrainOnStart runs a training pass during startup.
	TrainOnStart bool `koanf:"train_on_start"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9090",
		CenterLat:            23.3441,
		CenterLng:            85.3096,
		TrainingSeed:         42,
		NoiseSeed:            7,
		SyntheticSamples:     1000,
		DefaultRadiusKm:      2,
		MaxHeatmapResolution: 200,
		TrainOnStart:         true,
	}
}
