package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Lookup LookupConfig `yaml:"lookup"`
	Scan   ScanConfig   `yaml:"scan"`
	Import ImportConfig `yaml:"import"`
	Server ServerConfig `yaml:"server"`
	CORS   CORSConfig   `yaml:"cors"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig holds term store settings. The store opens lazily on first
// access unless Preload is set. Memory ignores Dir.
type StoreConfig struct {
	Dir     string `yaml:"dir"     env:"STORE_DIR"     env-default:"./data/store"`
	Preload bool   `yaml:"preload" env:"STORE_PRELOAD"`
	Memory  bool   `yaml:"memory"  env:"STORE_MEMORY"`
}

// LookupConfig holds lookup engine settings. RawQueries skips width and
// composition normalization. RulesPath replaces the embedded rule table.
type LookupConfig struct {
	CacheSize     int    `yaml:"cache_size"     env:"LOOKUP_CACHE_SIZE"     env-default:"10000"`
	MaxCandidates int    `yaml:"max_candidates" env:"LOOKUP_MAX_CANDIDATES" env-default:"4096"`
	RawQueries    bool   `yaml:"raw_queries"    env:"LOOKUP_RAW_QUERIES"`
	RulesPath     string `yaml:"rules_path"     env:"LOOKUP_RULES_PATH"`
}

// ScanConfig holds scanner settings. ProbeAll disables the first-rune
// script check.
type ScanConfig struct {
	MaxWindow int  `yaml:"max_window" env:"SCAN_MAX_WINDOW" env-default:"20"`
	ProbeAll  bool `yaml:"probe_all"  env:"SCAN_PROBE_ALL"`
}

// ImportConfig holds dictionary import settings.
type ImportConfig struct {
	Mode string `yaml:"mode" env:"IMPORT_MODE" env-default:"skip-existing"`
}

// ServerConfig holds HTTP server settings. ReadTimeout and WriteTimeout
// cover a whole request, so they must leave room for uploading and
// importing an archive of up to rest.MaxArchiveSize bytes.
type ServerConfig struct {
	Host              string        `yaml:"host"                env:"SERVER_HOST"                env-default:"0.0.0.0"`
	Port              int           `yaml:"port"                env:"SERVER_PORT"                env-default:"8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"SERVER_READ_HEADER_TIMEOUT" env-default:"10s"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"SERVER_READ_TIMEOUT"        env-default:"5m"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"SERVER_WRITE_TIMEOUT"       env-default:"5m"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"SERVER_IDLE_TIMEOUT"        env-default:"60s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SERVER_SHUTDOWN_TIMEOUT"    env-default:"10s"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	AllowedMethods string `yaml:"allowed_methods" env:"CORS_ALLOWED_METHODS" env-default:"GET,POST,OPTIONS"`
	AllowedHeaders string `yaml:"allowed_headers" env:"CORS_ALLOWED_HEADERS" env-default:"Content-Type"`
	MaxAge         int    `yaml:"max_age"         env:"CORS_MAX_AGE"         env-default:"86400"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Origins splits AllowedOrigins on commas.
func (c CORSConfig) Origins() []string { return splitList(c.AllowedOrigins) }

// Methods splits AllowedMethods on commas.
func (c CORSConfig) Methods() []string { return splitList(c.AllowedMethods) }

// Headers splits AllowedHeaders on commas.
func (c CORSConfig) Headers() []string { return splitList(c.AllowedHeaders) }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
