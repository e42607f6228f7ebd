package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// SourceTags are matched case-insensitively as substrings of a record's sourceName.
	// A record is considered only if its source contains at least one tag.
	SourceTags []string `json:"source_tags,omitempty"`

	// MealGapMinutes is the largest gap between consecutive food events of one meal.
	MealGapMinutes int `json:"meal_gap_minutes,omitempty"`

	// FallbackGranularity is the time bucket used to build identity keys for records
	// without a stable identifier, as a Go duration string ("1m", "5m").
	FallbackGranularity string `json:"fallback_granularity,omitempty"`

	// Metadata keys. Unknown metadata keys are ignored.
	FoodNameKey   string `json:"food_name_key,omitempty"`
	ExternalIDKey string `json:"external_id_key,omitempty"`
	MealSlotKey   string `json:"meal_slot_key,omitempty"`

	// RecordTypes maps additional record type identifiers to a nutrient kind
	// ("energy", "protein", "carbohydrate", "fat", "water"). Entries override
	// the built-in HealthKit dietary identifiers.
	RecordTypes map[string]string `json:"record_types,omitempty"`

	// OutputFields maps a nutrient kind to the column name used in CSV output.
	OutputFields map[string]string `json:"output_fields,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of MCP tool types ("report", "snapshot") to disable entirely.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SourceTags:          []string{"YAZIO", "FDDB"},
		MealGapMinutes:      30,
		FallbackGranularity: "1m",
		FoodNameKey:         "HKFoodType",
		ExternalIDKey:       "HKExternalUUID",
		MealSlotKey:         "Mahlzeit",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global directory (~/.mealtrace)
// and the nearest .mealtrace/config.json found walking upward from startDir.
// Repo config takes precedence. Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .mealtrace/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".mealtrace", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Scalars and SourceTags: overlay wins if set. Maps: merged key by key, overlay wins.
// Tool lists: merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SourceTags = mergeStringSlice(nil, base.SourceTags)
	if tags := mergeStringSlice(nil, overlay.SourceTags); len(tags) > 0 {
		result.SourceTags = tags
	}

	result.MealGapMinutes = overlay.MealGapMinutes
	if result.MealGapMinutes == 0 {
		result.MealGapMinutes = base.MealGapMinutes
	}

	result.FallbackGranularity = firstNonEmpty(overlay.FallbackGranularity, base.FallbackGranularity)
	result.FoodNameKey = firstNonEmpty(overlay.FoodNameKey, base.FoodNameKey)
	result.ExternalIDKey = firstNonEmpty(overlay.ExternalIDKey, base.ExternalIDKey)
	result.MealSlotKey = firstNonEmpty(overlay.MealSlotKey, base.MealSlotKey)

	result.RecordTypes = mergeStringMap(base.RecordTypes, overlay.RecordTypes)
	result.OutputFields = mergeStringMap(base.OutputFields, overlay.OutputFields)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(a, b string) string {
	if a = strings.TrimSpace(a); a != "" {
		return a
	}
	return strings.TrimSpace(b)
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// mergeStringMap copies base and applies overlay on top. Returns nil when both are empty.
func mergeStringMap(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}
