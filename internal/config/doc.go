// Package config provides configuration management for mixlauncher.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Conversion to the option types of other packages
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Game data lives in ~/.minecraftmix
//	// 16 download workers, progress every 150ms
//	// Official Mojang, Modrinth, Fabric, Quilt and Forge endpoints
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// Values present in the file override the defaults; absent keys keep them.
//
// # Saving Settings
//
//	settings.MemoryMB = 4096
//	err := settings.Save("/path/to/config.json")
//
// # Configuration Options
//
// Settings includes options for:
//   - Data directory and download concurrency
//   - Retry behavior (disabled by default)
//   - Java executable and memory limits
//   - Remote endpoints, overridable for mirrors and tests
//   - Log level and format
package config
