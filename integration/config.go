package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// TestConfig configures the integration suites. An empty BaseURL runs them
// against the in-process fake.
type TestConfig struct {
	BaseURL        string
	AccessToken    string
	RequestTimeout time.Duration
	MaxRetries     int
	Recipient      string
	DebugLogging   bool
}

// Live reports whether the suites run against a real API instead of the
// in-process fake.
func (c *TestConfig) Live() bool {
	return c.BaseURL != ""
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns an error if a live base URL is set without an access token.
func LoadTestConfig() (*TestConfig, error) {
	loadEnvFile()

	config := &TestConfig{
		BaseURL:        os.Getenv("SHEETROWS_BASE_URL"),
		AccessToken:    os.Getenv("SHEETROWS_ACCESS_TOKEN"),
		RequestTimeout: getDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:     getIntWithDefault("MAX_RETRIES", 3),
		Recipient:      getStringWithDefault("TEST_RECIPIENT", "john.doe@example.com"),
		DebugLogging:   getBoolWithDefault("DEBUG_LOGGING", false),
	}

	if config.Live() && config.AccessToken == "" {
		return nil, fmt.Errorf("missing required configuration: SHEETROWS_ACCESS_TOKEN must be set when SHEETROWS_BASE_URL is. Set it in the environment or a .env file")
	}

	return config, nil
}

func getStringWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return n
}

// getBoolWithDefault gets a boolean from environment variable or returns default.
func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func loadEnvFile() {
	envPaths := []string{
		"../.env",    // integration/.env, from integration/suites
		"../../.env", // module root .env, from integration/suites
	}

	var envPath string
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// no .env file, variables come from the environment
		return
	}

	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}
