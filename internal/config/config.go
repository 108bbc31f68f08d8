// Package config defines service configuration structures and loading.
//
// Conventions follow the rest of the codebase: defaults first, then an
// optional .env file, then an optional YAML file, then environment
// variables with the CABINA_ prefix.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the request store backend: "memory" or "sqlite".
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used when StoreDriver is "sqlite".
	SQLitePath string `koanf:"sqlite_path"`

	// RedisAddr enables the Redis cooldown store when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// CooldownSeconds is the per-session wait between accepted submissions.
	CooldownSeconds int `koanf:"cooldown_seconds"`

	// GeofenceRadiusKm applies to events whose geofence has no explicit radius.
	GeofenceRadiusKm float64 `koanf:"geofence_radius_km"`

	// PendingPromptTTLSeconds bounds how long an unanswered payment prompt
	// keeps its staged submission.
	PendingPromptTTLSeconds int `koanf:"pending_prompt_ttl_seconds"`

	// CatalogBaseURL points at a Deezer-compatible search API.
	CatalogBaseURL string `koanf:"catalog_base_url"`

	// CatalogTimeoutMS bounds one catalog search round trip.
	CatalogTimeoutMS int `koanf:"catalog_timeout_ms"`

	// QuotaTier1 and QuotaTier2 override the per-event distinct request
	// limits for the bounded tiers. Zero keeps the defaults.
	QuotaTier1 int `koanf:"quota_tier1"`
	QuotaTier2 int `koanf:"quota_tier2"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		StoreDriver:             "memory",
		SQLitePath:              "cabina.db",
		CooldownSeconds:         60,
		GeofenceRadiusKm:        1,
		PendingPromptTTLSeconds: 300,
		CatalogBaseURL:          "https://api.deezer.com",
		CatalogTimeoutMS:        5000,
	}
}
