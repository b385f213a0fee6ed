// Package config loads and caches the tuning presets of the intersection
// simulator.
//
// Presets live in a single directory as JSON (*.json) or YAML (*.yaml,
// *.yml) files. The file name without extension is the config ID used when
// creating a session. Fields missing from a file keep the values of
// engine.DefaultConfig, and every preset is validated with
// engine.ValidateConfig before it is cached.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rush, err := manager.LoadConfig("rush_hour")
//	defaultConfig := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// The default is "classic" when present, otherwise the first valid preset,
// otherwise the built-in defaults.
package config
