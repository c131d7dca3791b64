package pricing

import (
	"encoding/json"
	"log/slog"
	"strings"

	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
)

type ClampRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ClampConfig holds default nightly bounds per city. Cities are keyed by
// lower-cased name.
type ClampConfig struct {
	DefaultRange ClampRange            `json:"defaults"`
	Cities       map[string]ClampRange `json:"cities"`
}

func DefaultClampConfig() ClampConfig {
	return ClampConfig{
		DefaultRange: ClampRange{Min: 40, Max: 1_000},
		Cities: map[string]ClampRange{
			"lisbon":    {Min: 60, Max: 900},
			"barcelona": {Min: 70, Max: 1_200},
			"paris":     {Min: 90, Max: 1_500},
		},
	}
}

// LoadClampConfig parses PRICE_BOUNDS. Invalid JSON or an inverted range
// falls back to the defaults with a warning.
func LoadClampConfig(raw string, logger *slog.Logger) ClampConfig {
	if strings.TrimSpace(raw) == "" {
		return DefaultClampConfig()
	}

	var cfg ClampConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		if logger != nil {
			logger.Warn("invalid PRICE_BOUNDS JSON, using defaults", "error", err)
		}
		return DefaultClampConfig()
	}
	if !cfg.DefaultRange.valid() {
		if logger != nil {
			logger.Warn("invalid PRICE_BOUNDS defaults, using built-in range", "min", cfg.DefaultRange.Min, "max", cfg.DefaultRange.Max)
		}
		cfg.DefaultRange = DefaultClampConfig().DefaultRange
	}

	normalized := make(map[string]ClampRange, len(cfg.Cities))
	for city, rng := range cfg.Cities {
		key := NormalizeCity(city)
		if key == "" || !rng.valid() {
			continue
		}
		normalized[key] = rng
	}
	cfg.Cities = normalized
	return cfg
}

func NormalizeCity(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (r ClampRange) valid() bool {
	return r.Min >= 0 && r.Max >= 0 && (r.Max == 0 || r.Min <= r.Max)
}

// Defaults implements the bounds policy used when a quote request has none.
func (c ClampConfig) Defaults(loc property.Location) domainpricing.Bounds {
	rng, ok := c.Cities[NormalizeCity(loc.City)]
	if !ok {
		rng = c.DefaultRange
	}
	return domainpricing.Bounds{MinPrice: rng.Min, MaxPrice: rng.Max}
}
