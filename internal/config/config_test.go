package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MealGapMinutes != 30 {
		t.Fatalf("MealGapMinutes = %d, want 30", cfg.MealGapMinutes)
	}
	if len(cfg.SourceTags) != 2 || cfg.SourceTags[0] != "YAZIO" || cfg.SourceTags[1] != "FDDB" {
		t.Fatalf("SourceTags = %v, want [YAZIO FDDB]", cfg.SourceTags)
	}
	if cfg.FoodNameKey != "HKFoodType" {
		t.Errorf("FoodNameKey = %q, want HKFoodType", cfg.FoodNameKey)
	}
	if cfg.ExternalIDKey != "HKExternalUUID" {
		t.Errorf("ExternalIDKey = %q, want HKExternalUUID", cfg.ExternalIDKey)
	}
	if cfg.MealSlotKey != "Mahlzeit" {
		t.Errorf("MealSlotKey = %q, want Mahlzeit", cfg.MealSlotKey)
	}
	if cfg.FallbackGranularity != "1m" {
		t.Errorf("FallbackGranularity = %q, want 1m", cfg.FallbackGranularity)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	data := `{"meal_gap_minutes": 45, "source_tags": ["fddb"], "meal_slot_key": "Meal"}`
	if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MealGapMinutes != 45 {
		t.Fatalf("MealGapMinutes = %d, want 45", cfg.MealGapMinutes)
	}
	if len(cfg.SourceTags) != 1 || cfg.SourceTags[0] != "fddb" {
		t.Fatalf("SourceTags = %v, want [fddb] (overlay replaces)", cfg.SourceTags)
	}
	if cfg.MealSlotKey != "Meal" {
		t.Errorf("MealSlotKey = %q, want Meal", cfg.MealSlotKey)
	}
	if cfg.FoodNameKey != "HKFoodType" {
		t.Errorf("FoodNameKey = %q, want default", cfg.FoodNameKey)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_RecordTypesAndOutputFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	data := `{
		"record_types": {"HKQuantityTypeIdentifierDietaryCaffeine": "water"},
		"output_fields": {"energy": "kcal"}
	}`
	if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RecordTypes["HKQuantityTypeIdentifierDietaryCaffeine"] != "water" {
		t.Errorf("RecordTypes = %v", cfg.RecordTypes)
	}
	if cfg.OutputFields["energy"] != "kcal" {
		t.Errorf("OutputFields = %v", cfg.OutputFields)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"meal_gap_minutes": 20, "disabled_tools": ["snapshot_write"], "output_fields": {"energy": "kcal", "fat": "fat"}}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	repoDir := filepath.Join(repoRoot, ".mealtrace")
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"meal_gap_minutes": 40, "disabled_tools": ["report_meals"], "output_fields": {"energy": "energy_kcal"}}`
	if err := os.WriteFile(filepath.Join(repoDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	nested := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.MealGapMinutes != 40 {
		t.Errorf("MealGapMinutes = %d, want 40 (repo override)", cfg.MealGapMinutes)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want merged list of 2", cfg.DisabledTools)
	}
	if cfg.OutputFields["energy"] != "energy_kcal" {
		t.Errorf("OutputFields[energy] = %q, want energy_kcal", cfg.OutputFields["energy"])
	}
	if cfg.OutputFields["fat"] != "fat" {
		t.Errorf("OutputFields[fat] = %q, want fat (from global)", cfg.OutputFields["fat"])
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.MealGapMinutes != DefaultConfig().MealGapMinutes {
		t.Errorf("MealGapMinutes = %d, want default", cfg.MealGapMinutes)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if got := FindRepoConfig(t.TempDir()); got != "" {
		t.Errorf("FindRepoConfig() = %q, want empty", got)
	}
	if got := FindRepoConfig(""); got != "" {
		t.Errorf("FindRepoConfig(\"\") = %q, want empty", got)
	}
}

func TestMerge_SliceDedup(t *testing.T) {
	base := &Config{DisabledTypes: []string{"snapshot", " report "}}
	overlay := &Config{DisabledTypes: []string{"report", ""}}

	got := Merge(base, overlay)
	if len(got.DisabledTypes) != 2 {
		t.Fatalf("DisabledTypes = %v, want 2 entries", got.DisabledTypes)
	}
	if got.DisabledTypes[0] != "snapshot" || got.DisabledTypes[1] != "report" {
		t.Errorf("DisabledTypes = %v", got.DisabledTypes)
	}
}

func TestMerge_EmptyOverlayKeepsBase(t *testing.T) {
	got := Merge(DefaultConfig(), &Config{})
	want := DefaultConfig()

	if got.MealGapMinutes != want.MealGapMinutes {
		t.Errorf("MealGapMinutes = %d, want %d", got.MealGapMinutes, want.MealGapMinutes)
	}
	if len(got.SourceTags) != len(want.SourceTags) {
		t.Errorf("SourceTags = %v, want %v", got.SourceTags, want.SourceTags)
	}
	if got.RecordTypes != nil {
		t.Errorf("RecordTypes = %v, want nil", got.RecordTypes)
	}
}
