package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config holds the settings of the progression command
type Config struct {
	DBPath   string
	LogLevel log.Level
	// Seed of the random source that breaks skill ties in
	// the pool draft
	DraftSeed int64
	// When true scores are checked for plausibility before
	// they are recorded
	StrictScores bool
}

// Load reads the configuration from environment variables.
// A .env file in the working directory is loaded first when
// present. Variables that are already set take precedence.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := &Config{
		DBPath:       "progression.db",
		LogLevel:     log.InfoLevel,
		DraftSeed:    time.Now().UnixNano(),
		StrictScores: true,
	}

	if path := os.Getenv("PROGRESSION_DB_PATH"); path != "" {
		cfg.DBPath = path
	}

	if levelStr := os.Getenv("PROGRESSION_LOG_LEVEL"); levelStr != "" {
		level, err := log.ParseLevel(levelStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PROGRESSION_LOG_LEVEL environment variable: %w", err)
		}
		cfg.LogLevel = level
	}

	if seedStr := os.Getenv("PROGRESSION_DRAFT_SEED"); seedStr != "" {
		seed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PROGRESSION_DRAFT_SEED environment variable: %w", err)
		}
		cfg.DraftSeed = seed
	}

	if strictStr := os.Getenv("PROGRESSION_STRICT_SCORES"); strictStr != "" {
		strict, err := strconv.ParseBool(strictStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PROGRESSION_STRICT_SCORES environment variable: %w", err)
		}
		cfg.StrictScores = strict
	}

	return cfg, nil
}
