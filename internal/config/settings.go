package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/handiism/mixlauncher/internal/http"
	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// Storage
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Download settings
	Workers               int     `json:"workers" yaml:"workers"`
	ProgressIntervalMS    int     `json:"progress_interval_ms" yaml:"progress_interval_ms"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	ModDownloadTimeout    int     `json:"mod_download_timeout_seconds" yaml:"mod_download_timeout_seconds"`
	DownloadMaxRetries    int     `json:"download_max_retries" yaml:"download_max_retries"`
	DownloadRetryCooldown float64 `json:"download_retry_cooldown" yaml:"download_retry_cooldown"`
	DownloadRetryExponent float64 `json:"download_retry_exponent" yaml:"download_retry_exponent"`
	UserAgent             string  `json:"user_agent" yaml:"user_agent"`

	// Rule evaluation platform: linux, osx or windows. Empty means the host.
	Platform string `json:"platform" yaml:"platform"`

	// Launch settings
	JavaPath    string `json:"java_path" yaml:"java_path"`
	MemoryMB    int    `json:"memory_mb" yaml:"memory_mb"`
	MinMemoryMB int    `json:"min_memory_mb" yaml:"min_memory_mb"`

	// Async operations
	MaxConcurrentOperations int `json:"max_concurrent_operations" yaml:"max_concurrent_operations"`
	SearchLimit             int `json:"search_limit" yaml:"search_limit"`

	ForgeInstallerTimeout int `json:"forge_installer_timeout_seconds" yaml:"forge_installer_timeout_seconds"`

	// Endpoints
	VersionManifestURL string `json:"version_manifest_url" yaml:"version_manifest_url"`
	ResourcesURL       string `json:"resources_url" yaml:"resources_url"`
	ModrinthURL        string `json:"modrinth_url" yaml:"modrinth_url"`
	FabricMetaURL      string `json:"fabric_meta_url" yaml:"fabric_meta_url"`
	FabricMavenURL     string `json:"fabric_maven_url" yaml:"fabric_maven_url"`
	QuiltMetaURL       string `json:"quilt_meta_url" yaml:"quilt_meta_url"`
	QuiltMavenURL      string `json:"quilt_maven_url" yaml:"quilt_maven_url"`
	ForgePromotionsURL string `json:"forge_promotions_url" yaml:"forge_promotions_url"`
	ForgeMavenURL      string `json:"forge_maven_url" yaml:"forge_maven_url"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		DataDir: defaultDataDir(),

		Workers:               16,
		ProgressIntervalMS:    150,
		RequestTimeoutSeconds: 30,
		ModDownloadTimeout:    60,
		DownloadMaxRetries:    0,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
		UserAgent:             "MixLauncher/2.0",

		JavaPath:    "java",
		MemoryMB:    2048,
		MinMemoryMB: 512,

		MaxConcurrentOperations: 4,
		SearchLimit:             30,

		ForgeInstallerTimeout: 300,

		VersionManifestURL: "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json",
		ResourcesURL:       "https://resources.download.minecraft.net",
		ModrinthURL:        "https://api.modrinth.com/v2",
		FabricMetaURL:      "https://meta.fabricmc.net/v2",
		FabricMavenURL:     "https://maven.fabricmc.net/",
		QuiltMetaURL:       "https://meta.quiltmc.org/v3",
		QuiltMavenURL:      "https://maven.quiltmc.org/repository/release/",
		ForgePromotionsURL: "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json",
		ForgeMavenURL:      "https://maven.minecraftforge.net",

		LogLevel:  "info",
		LogFormat: "text",
	}
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		return filepath.Join(homeDir, "AppData", "Roaming", ".minecraftmix")
	}
	return filepath.Join(homeDir, ".minecraftmix")
}

// Load reads settings from a JSON or YAML file. Missing files yield defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// PlatformName returns the operating-system name used when evaluating
// library rules.
func (s *Settings) PlatformName() string {
	if s.Platform != "" {
		return s.Platform
	}
	return HostPlatform()
}

// HostPlatform maps runtime.GOOS to the names used by version descriptors.
func HostPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

// ProgressInterval returns the orchestrator tick interval.
func (s *Settings) ProgressInterval() time.Duration {
	return time.Duration(s.ProgressIntervalMS) * time.Millisecond
}

// ForgeTimeout returns the maximum runtime of the Forge installer.
func (s *Settings) ForgeTimeout() time.Duration {
	return time.Duration(s.ForgeInstallerTimeout) * time.Second
}

// HTTPOptions converts settings to client options.
func (s *Settings) HTTPOptions() http.Options {
	opts := http.DefaultOptions()
	if s.UserAgent != "" {
		opts.UserAgent = s.UserAgent
	}
	if s.RequestTimeoutSeconds > 0 {
		opts.Timeout = time.Duration(s.RequestTimeoutSeconds) * time.Second
	}
	return opts
}

// ModHTTPOptions returns client options for registry file downloads, which
// are allowed a longer timeout than metadata requests.
func (s *Settings) ModHTTPOptions() http.Options {
	opts := s.HTTPOptions()
	if s.ModDownloadTimeout > 0 {
		opts.Timeout = time.Duration(s.ModDownloadTimeout) * time.Second
	}
	return opts
}
