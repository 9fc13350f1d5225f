package discovery

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the engine uses. The numbers are working
// defaults, not derived optima, so deployments can recalibrate them from a
// YAML file without touching code.
type Config struct {
	// LookaheadWindowHours is how long after an event a flare still counts
	// as that event's outcome.
	LookaheadWindowHours float64 `yaml:"lookahead_window_hours"`

	// MinEventsForAnalysis is the floor below which a run returns an
	// insufficient-data result instead of statistics.
	MinEventsForAnalysis int `yaml:"min_events_for_analysis"`

	// Interestingness filter: a factor never becomes a discovery unless it
	// appears MinOccurrences times and clears MinLift or MinConfidence.
	MinOccurrences int     `yaml:"min_occurrences"`
	MinLift        float64 `yaml:"min_lift"`
	MinConfidence  float64 `yaml:"min_confidence"`

	// MaxPersistedPerRun bounds storage growth per analysis run.
	MaxPersistedPerRun int `yaml:"max_persisted_per_run"`

	// MaxSupportingEvents caps supporting_event_ids per discovery.
	MaxSupportingEvents int `yaml:"max_supporting_events"`

	// Lifecycle thresholds, checked in classifier order.
	StrongConfidence        float64 `yaml:"strong_confidence"`
	StrongOccurrences       int     `yaml:"strong_occurrences"`
	StrongPValue            float64 `yaml:"strong_p_value"`
	ConfirmedConfidence     float64 `yaml:"confirmed_confidence"`
	ConfirmedOccurrences    int     `yaml:"confirmed_occurrences"`
	ConfirmedPValue         float64 `yaml:"confirmed_p_value"`
	InvestigatingConfidence float64 `yaml:"investigating_confidence"`
	InvestigatingOccurrence int     `yaml:"investigating_occurrences"`
	DisprovenConfidence     float64 `yaml:"disproven_confidence"`
	DisprovenOccurrences    int     `yaml:"disproven_occurrences"`
	DecliningConfidence     float64 `yaml:"declining_confidence"`
	DecliningOccurrences    int     `yaml:"declining_occurrences"`
}

func DefaultConfig() Config {
	return Config{
		LookaheadWindowHours: 48,
		MinEventsForAnalysis: 5,
		MinOccurrences:       2,
		MinLift:              1.1,
		MinConfidence:        0.25,
		MaxPersistedPerRun:   50,
		MaxSupportingEvents:  20,

		StrongConfidence:        0.70,
		StrongOccurrences:       5,
		StrongPValue:            0.05,
		ConfirmedConfidence:     0.50,
		ConfirmedOccurrences:    3,
		ConfirmedPValue:         0.10,
		InvestigatingConfidence: 0.30,
		InvestigatingOccurrence: 2,
		DisprovenConfidence:     0.15,
		DisprovenOccurrences:    5,
		DecliningConfidence:     0.20,
		DecliningOccurrences:    3,
	}
}

// LoadConfig overlays a YAML file onto the defaults. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read discovery config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse discovery config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.LookaheadWindowHours <= 0 {
		return fmt.Errorf("lookahead_window_hours must be positive")
	}
	if c.MinOccurrences < 1 {
		return fmt.Errorf("min_occurrences must be at least 1")
	}
	if c.MaxPersistedPerRun < 1 {
		return fmt.Errorf("max_persisted_per_run must be at least 1")
	}
	if c.MaxSupportingEvents < 1 {
		return fmt.Errorf("max_supporting_events must be at least 1")
	}
	return nil
}
