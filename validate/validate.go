// Command validate checks the tuning presets in a configs directory
// (../configs by default). For every .json, .yaml and .yml file it checks:
//   - the document decodes (YAML strictly, unknown keys are errors)
//   - the values describe a drivable intersection
//   - the preset name matches its file name
//   - a short seeded run completes and moves traffic through the core
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/smartroad/game/batch"
	"github.com/wricardo/smartroad/game/engine"
)

// smokeTicks is the length of the seeded run each preset must survive.
const smokeTicks = 1500

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseConfig(data, filePath)
	if err != nil {
		result.fail("Invalid document: %v", err)
		return result
	}

	if err := engine.ValidateConfig(config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if config.Name != id {
		result.fail("name %q does not match file name %q", config.Name, id)
	}

	if !result.Valid {
		return result
	}

	smoke := validateTraffic(config)
	if !smoke.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, smoke.Errors...)

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Window: %.0f (lane %.0f)", config.WindowSize, config.LineSpacing())
		result.info("Base speed: %.2f..%.2f", config.MinBaseSpeed, config.MaxBaseSpeed)
		result.info("Capacity: %d, congestion threshold: %d", config.Capacity, config.CongestionThreshold)
		result.info("Frame: %dms, spawn: %dms", config.FrameIntervalMs, config.SpawnIntervalMs)
	}

	return result
}

// validateTraffic runs the preset for a while and checks that vehicles are
// accepted and complete their trips.
func validateTraffic(config *engine.Config) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	res, err := batch.Run(context.Background(), config, batch.Options{Ticks: smokeTicks, Seed: 1})
	if err != nil {
		result.fail("Smoke run failed: %v", err)
		return result
	}

	if res.Stats.Vehicles == 0 {
		result.fail("No vehicle was accepted in %d ticks", smokeTicks)
		return result
	}
	if res.Stats.Trips == 0 {
		result.fail("No vehicle completed its trip in %d ticks (%d still inside)", smokeTicks, res.Active)
		return result
	}

	result.info("Smoke run: %d vehicles, %d trips, avg %.2fs", res.Stats.Vehicles, res.Stats.Trips, res.Stats.AvgTrip)
	return result
}

// presetFiles lists the preset files of dir in name order.
func presetFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := presetFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
