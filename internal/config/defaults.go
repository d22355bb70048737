package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			IncludeDirs:       nil,
			SystemIncludeDirs: []string{"/usr/local/include", "/usr/include"},
			IncludeSystem:     false,
			FilterHeader:      "",
			Canonical:         false,
		},
		Output: OutputConfig{
			DefaultFormat: "yaml",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)
	result.Cache = mergeCacheConfig(loaded.Cache, defaults.Cache)

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	// Use loaded include dirs if provided, otherwise defaults
	if len(loaded.IncludeDirs) > 0 {
		result.IncludeDirs = loaded.IncludeDirs
	} else {
		result.IncludeDirs = defaults.IncludeDirs
	}

	if len(loaded.SystemIncludeDirs) > 0 {
		result.SystemIncludeDirs = loaded.SystemIncludeDirs
	} else {
		result.SystemIncludeDirs = defaults.SystemIncludeDirs
	}

	// Booleans: YAML unmarshals missing as false, and the defaults here
	// are false, so the loaded values pass through.
	result.IncludeSystem = loaded.IncludeSystem
	result.Canonical = loaded.Canonical

	if loaded.FilterHeader != "" {
		result.FilterHeader = loaded.FilterHeader
	} else {
		result.FilterHeader = defaults.FilterHeader
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.DefaultFormat != "" {
		result.DefaultFormat = loaded.DefaultFormat
	} else {
		result.DefaultFormat = defaults.DefaultFormat
	}

	return result
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	// Enabled: use loaded value (bool can't distinguish unset from false)
	// YAML unmarshals a missing key as false, so a bare config disables
	// nothing; users who want the cache off set enabled: false AND pass
	// --no-cache. The default stays on when loaded is zero-value.
	result := CacheConfig{}
	result.Enabled = loaded.Enabled
	if !loaded.Enabled && defaults.Enabled {
		result.Enabled = defaults.Enabled
	}
	return result
}

// ValidFormats lists the valid values for output format
var ValidFormats = []string{"yaml", "json"}

// IsValidFormat checks if the given format value is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}
