// Package config loads runner settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultStateDir   = ".pipewright/run"
	DefaultHistoryDB  = ".pipewright/history.db"
	DefaultShell      = "sh"
	DefaultDefinition = ".pipewright.yml"
)

// Config holds the runner settings. Relative paths are resolved against
// the project root by Resolve.
type Config struct {
	StateDir    string
	HistoryDB   string
	Definition  string
	Shell       string
	MetricsFile string
	LogLevel    string
	InPlace     bool
	NoHistory   bool
}

// Load reads the configuration. Values in a .env file in the working
// directory are used unless the variable is already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StateDir:    getEnv("PIPEWRIGHT_STATE_DIR", DefaultStateDir),
		HistoryDB:   getEnv("PIPEWRIGHT_HISTORY_DB", DefaultHistoryDB),
		Definition:  getEnv("PIPEWRIGHT_DEFINITION", DefaultDefinition),
		Shell:       getEnv("PIPEWRIGHT_SHELL", DefaultShell),
		MetricsFile: getEnv("PIPEWRIGHT_METRICS_FILE", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.InPlace, err = getEnvBool("PIPEWRIGHT_IN_PLACE", false)
	if err != nil {
		return nil, err
	}
	cfg.NoHistory, err = getEnvBool("PIPEWRIGHT_NO_HISTORY", false)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve anchors relative paths at root.
func (c *Config) Resolve(root string) {
	c.StateDir = anchor(root, c.StateDir)
	c.HistoryDB = anchor(root, c.HistoryDB)
	c.Definition = anchor(root, c.Definition)
	if c.MetricsFile != "" {
		c.MetricsFile = anchor(root, c.MetricsFile)
	}
}

func anchor(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	return b, nil
}
