package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePreset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasError(result ValidationResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidJSON(t *testing.T) {
	path := writePreset(t, "custom.json", `{
		"name": "custom",
		"description": "Test configuration",
		"congestion_threshold": 4
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Errorf("Expected valid config, but got errors: %v", result.Errors)
	}
	if !hasError(result, "✓ Name: custom") || !hasError(result, "congestion threshold: 4") {
		t.Errorf("Expected summary lines, got %v", result.Errors)
	}
	if !hasError(result, "✓ Smoke run:") {
		t.Errorf("Expected smoke run line, got %v", result.Errors)
	}
}

func TestValidateConfig_ValidYAML(t *testing.T) {
	path := writePreset(t, "dense.yaml", "name: dense\nspawn_interval_ms: 40\n")

	result := validateConfig(path)
	if !result.Valid {
		t.Errorf("Expected valid config, but got errors: %v", result.Errors)
	}
}

func TestValidateConfig_UnknownYAMLKey(t *testing.T) {
	path := writePreset(t, "typo.yaml", "name: typo\ncongestion_treshold: 2\n")

	result := validateConfig(path)
	if result.Valid {
		t.Error("Expected strict YAML decoding to reject unknown keys")
	}
	if !hasError(result, "Invalid document") {
		t.Errorf("Expected decode error, got %v", result.Errors)
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	path := writePreset(t, "broken.json", `{"name": "broken",`)

	result := validateConfig(path)
	if result.Valid {
		t.Error("Expected invalid config for malformed JSON")
	}
	if result.File != "broken.json" {
		t.Errorf("Expected file name broken.json, got %s", result.File)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Error("Expected invalid result for a missing file")
	}
	if !hasError(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"zero threshold", `{"name": "bad", "congestion_threshold": 0}`, "congestion_threshold"},
		{"speed range", `{"name": "bad", "min_base_speed": 2, "max_base_speed": 1}`, "min_base_speed"},
		{"tiny window", `{"name": "bad", "window_size": 100}`, "window_size"},
		{"missing name", `{"description": "no name"}`, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writePreset(t, "bad.json", tt.content))
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !hasError(result, tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, result.Errors)
			}
			if hasError(result, "config validation:") {
				t.Errorf("Prefix should be trimmed, got %v", result.Errors)
			}
		})
	}
}

func TestValidateConfig_NameMismatch(t *testing.T) {
	path := writePreset(t, "expected.json", `{"name": "other"}`)

	result := validateConfig(path)
	if result.Valid {
		t.Error("Expected name mismatch to be reported")
	}
	if !hasError(result, `does not match file name "expected"`) {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
}

func TestValidateConfig_SingleVehicleCapacity(t *testing.T) {
	// one vehicle at a time, every other spawn rejected
	path := writePreset(t, "stuck.json", `{"name": "stuck", "capacity": 1, "spawn_interval_ms": 16}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected a single-lane preset to still move traffic: %v", result.Errors)
	}
}

func TestShippedPresets(t *testing.T) {
	files, err := presetFiles("../configs")
	if err != nil {
		t.Fatalf("presetFiles failed: %v", err)
	}
	if len(files) < 3 {
		t.Fatalf("Expected at least 3 shipped presets, got %d", len(files))
	}

	for _, file := range files {
		result := validateConfig(file)
		if !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
