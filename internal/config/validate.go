package config

import (
	"fmt"
	"strings"
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if c.Lookup.CacheSize < 0 {
		return fmt.Errorf("lookup.cache_size must be >= 0 (got %d)", c.Lookup.CacheSize)
	}
	if c.Lookup.MaxCandidates <= 0 {
		return fmt.Errorf("lookup.max_candidates must be > 0 (got %d)", c.Lookup.MaxCandidates)
	}
	if c.Scan.MaxWindow <= 0 {
		return fmt.Errorf("scan.max_window must be > 0 (got %d)", c.Scan.MaxWindow)
	}

	switch strings.ToLower(c.Import.Mode) {
	case "skip-existing", "skip", "refresh":
	default:
		return fmt.Errorf("import.mode must be skip-existing or refresh (got %q)", c.Import.Mode)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}
