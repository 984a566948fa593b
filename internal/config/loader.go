package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".linkguard"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Environment variable names for API keys. The same names work from the
// process environment or a .env file in the working directory.
const (
	EnvReputationAPIKey   = "VT_API_KEY"
	EnvSafeBrowsingAPIKey = "GOOGLE_SAFE_BROWSING_API_KEY"
	EnvDeepScanAPIKey     = "URLSCAN_API_KEY"
)

// File represents the structure of the .linkguard configuration file.
// API keys are intentionally not part of the file; they come from the
// environment so config files can be committed without leaking secrets.
type File struct {
	// Feeds overrides the default blocklist feed set when non-empty.
	Feeds []Feed `yaml:"feeds,omitempty"`

	// UserAgent overrides the outbound User-Agent header when non-empty.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers decide
// whether that matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file:
// an explicit path wins, then .linkguard in the current directory, then in
// the user's home directory. Returns empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// Apply merges file settings into the config. Only non-empty file values
// override flag- or default-populated fields.
func (c *Config) Apply(cf *File) {
	if cf == nil {
		return
	}
	if len(cf.Feeds) > 0 {
		c.Feeds = cf.Feeds
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
}

// LoadAPIKeys populates the API key fields from the environment, reading a
// .env file from the working directory first when one exists. Missing keys
// stay empty; each missing key degrades its lookup to not-configured
// rather than failing.
func (c *Config) LoadAPIKeys() {
	// Best effort: a missing .env file is the common case.
	_ = godotenv.Load() //nolint:errcheck // Absent .env is not an error

	c.ReputationAPIKey = strings.TrimSpace(os.Getenv(EnvReputationAPIKey))
	c.SafeBrowsingAPIKey = strings.TrimSpace(os.Getenv(EnvSafeBrowsingAPIKey))
	c.DeepScanAPIKey = strings.TrimSpace(os.Getenv(EnvDeepScanAPIKey))
}
