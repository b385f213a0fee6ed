package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/smartroad/game/engine"
)

func createValidConfig(name string) *engine.Config {
	config := engine.DefaultConfig()
	config.Name = name
	config.Description = "Test configuration"
	return config
}

func writeConfigFile(t *testing.T, dir, filename string, config *engine.Config) {
	t.Helper()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	if filepath.Ext(filename) == "" {
		filename += ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func writeRaw(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", filename, err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("classic is the default", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
		writeConfigFile(t, dir, "aaa", createValidConfig("First"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic" {
			t.Errorf("Expected default 'Classic', got '%s'", got)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("first valid preset without classic", func(t *testing.T) {
		dir := t.TempDir()
		writeRaw(t, dir, "aaa.json", `{"name":"broken","capacity":0}`)
		writeConfigFile(t, dir, "bbb", createValidConfig("Second"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Second" {
			t.Errorf("Expected default 'Second', got '%s'", got)
		}
	})

	t.Run("empty directory falls back to built-in defaults", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed even without config files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil {
			t.Fatal("Expected default config to be available")
		}
		if err := engine.ValidateConfig(defaultConfig); err != nil {
			t.Errorf("Built-in default should be valid: %v", err)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))

	busy := createValidConfig("Busy")
	busy.Capacity = 40
	writeConfigFile(t, dir, "busy", busy)

	writeRaw(t, dir, "rush.yaml", "name: Rush\ncongestion_threshold: 2\n")
	writeRaw(t, dir, "typo.yml", "name: Typo\ncongestion: 2\n")
	writeRaw(t, dir, "slow.json", `{"name":"Slow","max_base_speed":40}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load json config", func(t *testing.T) {
		config, err := manager.LoadConfig("busy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Busy" || config.Capacity != 40 {
			t.Errorf("Unexpected config: %+v", config)
		}
	})

	t.Run("load with extension", func(t *testing.T) {
		config, err := manager.LoadConfig("busy.json")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Busy" {
			t.Errorf("Expected 'Busy', got '%s'", config.Name)
		}
	})

	t.Run("load yaml config with defaults", func(t *testing.T) {
		config, err := manager.LoadConfig("rush")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.CongestionThreshold != 2 {
			t.Errorf("Expected congestion threshold 2, got %d", config.CongestionThreshold)
		}
		if config.WindowSize != 800 {
			t.Errorf("Expected default window size, got %g", config.WindowSize)
		}
	})

	t.Run("unknown yaml field", func(t *testing.T) {
		_, err := manager.LoadConfig("typo")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("failing validation", func(t *testing.T) {
		_, err := manager.LoadConfig("slow")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := manager.LoadConfig("nope")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeRaw(t, dir, "rush.yaml", "name: Rush\ncapacity: 12\n")
	writeRaw(t, dir, "broken.json", "{")
	writeRaw(t, dir, "README.md", "# presets")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}

	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "classic" || configs[1].ConfigID != "rush" {
		t.Errorf("Unexpected order: %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if configs[1].Filename != "rush.yaml" || configs[1].Capacity != 12 {
		t.Errorf("Unexpected info: %+v", configs[1])
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json round trip", func(t *testing.T) {
		config := createValidConfig("Saved")
		config.Capacity = 77
		if err := manager.SaveConfig("saved", config); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		manager.RefreshCache()
		loaded, err := manager.LoadConfig("saved")
		if err != nil {
			t.Fatalf("Failed to reload: %v", err)
		}
		if loaded.Capacity != 77 {
			t.Errorf("Expected capacity 77, got %d", loaded.Capacity)
		}
	})

	t.Run("yaml replaces json", func(t *testing.T) {
		config := createValidConfig("Saved")
		config.Capacity = 88
		if err := manager.SaveConfig("saved.yaml", config); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); !os.IsNotExist(err) {
			t.Error("Expected the json file to be replaced")
		}

		manager.RefreshCache()
		loaded, err := manager.LoadConfig("saved")
		if err != nil {
			t.Fatalf("Failed to reload: %v", err)
		}
		if loaded.Capacity != 88 {
			t.Errorf("Expected capacity 88, got %d", loaded.Capacity)
		}
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		config := createValidConfig("Bad")
		config.Capacity = 0
		err := manager.SaveConfig("bad", config)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		err := manager.SaveConfig("../escape", createValidConfig("Escape"))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "busy", createValidConfig("Busy"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("busy"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Busy" {
		t.Errorf("Expected default 'Busy', got '%s'", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		writeConfigFile(t, dir, fmt.Sprintf("config%d", i), createValidConfig(fmt.Sprintf("Config%d", i)))
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadConfig(fmt.Sprintf("config%d", id%5+1)); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.count() < 5 {
		t.Errorf("Expected at least 5 configs in cache, got %d", manager.count())
	}
}

func TestShippedPresets(t *testing.T) {
	manager, err := NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	for _, id := range []string{"classic", "rush_hour", "large"} {
		if _, err := manager.LoadConfig(id); err != nil {
			t.Errorf("Preset %s does not load: %v", id, err)
		}
	}
	if manager.GetDefault().Name != "classic" {
		t.Errorf("Expected classic default, got %s", manager.GetDefault().Name)
	}
}

func (m *Manager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
