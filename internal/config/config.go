// Package config provides configuration for the librarydesk client with support
// for command-line flags, environment variables, .env files and a YAML profile file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production deployment of the library backend.
const DefaultBaseURL = "https://librarybe-f7dpbmd5fte9ggd7.southeastasia-01.azurewebsites.net/"

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	API    APIConfig
	UI     UIConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	Profile     string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// APIConfig holds settings for the backend the gateway talks to.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration // Per-request timeout (default: 30s)
	RPS     float64       // Outbound requests per second per resource (default: 10)
	Burst   int           // Outbound burst per resource (default: 20)
}

// UIConfig holds settings for the list screens.
type UIConfig struct {
	SearchDebounce time.Duration // Delay before search text is committed (default: 500ms)
	NotifyBuffer   int           // Per-subscriber notification buffer (default: 64)
}

// Overrides carries values set on the command line. Empty fields fall through
// to the environment.
type Overrides struct {
	Environment string
	LogLevel    string
	BaseURL     string
	Timeout     string
	Profile     string
	ProfileFile string
	EnvFile     string
}

// Profile is one named backend deployment in the profile file.
type Profile struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout,omitempty"`
}

// ProfileFile is the on-disk shape of librarydesk.yaml.
type ProfileFile struct {
	Default  string             `yaml:"default"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Selected profile from the profile file.
// 5. Default values (lowest priority).
func Load(o Overrides) (*Config, error) {
	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	profileFile := getConfigValue(o.ProfileFile, "LIBRARYDESK_CONFIG", "librarydesk.yaml")
	profiles, err := loadProfileFile(profileFile)
	if err != nil {
		return nil, fmt.Errorf("load profile file %s: %w", profileFile, err)
	}

	profileName := getConfigValue(o.Profile, "LIBRARYDESK_PROFILE", profiles.Default)
	var profile Profile
	if profileName != "" {
		p, ok := profiles.Profiles[profileName]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", profileName)
		}
		profile = p
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(o.Environment, "ENV", "development"),
			Profile:     profileName,
		},
		Logger: LoggerConfig{
			Level: getConfigValue(o.LogLevel, "LOG_LEVEL", "info"),
		},
		API: APIConfig{
			BaseURL: getConfigValue(o.BaseURL, "API_BASE_URL", firstNonEmpty(profile.BaseURL, DefaultBaseURL)),
			RPS:     getFloatConfigValue("", "API_RPS", 10),
			Burst:   getIntConfigValue("", "API_BURST", 20),
		},
		UI: UIConfig{
			NotifyBuffer: getIntConfigValue("", "NOTIFY_BUFFER", 64),
		},
	}

	timeoutStr := getConfigValue(o.Timeout, "API_TIMEOUT", firstNonEmpty(profile.Timeout, "30s"))
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid api timeout %q: %w", timeoutStr, err)
	}
	cfg.API.Timeout = timeout

	debounceStr := getConfigValue("", "SEARCH_DEBOUNCE", "500ms")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid search debounce %q: %w", debounceStr, err)
	}
	cfg.UI.SearchDebounce = debounce

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.API.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q: must be an absolute http(s) URL", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}
	if c.API.RPS <= 0 || c.API.Burst <= 0 {
		return errors.New("api rate limit must be positive")
	}
	if c.UI.SearchDebounce < 0 {
		return errors.New("search debounce cannot be negative")
	}
	if c.UI.NotifyBuffer <= 0 {
		return errors.New("notify buffer must be positive")
	}

	return nil
}

// loadProfileFile reads the YAML profile file. A missing file yields an empty set.
func loadProfileFile(path string) (ProfileFile, error) {
	var pf ProfileFile
	data, err := os.ReadFile(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pf, nil
		}
		return pf, err
	}
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return pf, fmt.Errorf("parse yaml: %w", err)
	}
	return pf, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars already set take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
