// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration for the scout service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Owner user: the default subject of scheduled runs, resolved by email.
	OwnerEmail         string
	OwnerTelegramChat  string
	TelegramBotToken   string

	// Source credentials. A missing credential disables that source; it is
	// not a startup error.
	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string // e.g. "in", "fr", "gb"
	SerperAPIKey  string

	AnthropicAPIKey string
	AnthropicModel  string

	ScoutIntervalHours int // how often the cron job fires
	RunOnStart         bool

	Scoring ScoringConfig
}

// ScoringConfig carries the pipeline's tunable cutoffs. The zero value is
// not usable; DefaultScoring supplies the source defaults.
type ScoringConfig struct {
	PromoteThreshold float64 // fit score at or above ⇒ promoted
	ReviewThreshold  float64 // fit score at or above ⇒ held for review
	DedupThreshold   int     // fuzzy ratio above ⇒ title/company duplicate
	RoleThreshold    int     // partial ratio above ⇒ title matches a target role
}

// DefaultScoring returns the tuned cutoffs the pipeline ships with.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		PromoteThreshold: 7,
		ReviewThreshold:  5,
		DedupThreshold:   85,
		RoleThreshold:    70,
	}
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	ownerEmail := os.Getenv("OWNER_EMAIL")
	if ownerEmail == "" {
		return nil, fmt.Errorf("OWNER_EMAIL is required")
	}

	interval := 24
	if s := os.Getenv("SCOUT_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SCOUT_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	country := os.Getenv("ADZUNA_COUNTRY")
	if country == "" {
		country = "in"
	}

	aiModel := os.Getenv("ANTHROPIC_MODEL")
	if aiModel == "" {
		aiModel = "claude-sonnet-4-20250514"
	}

	port := os.Getenv("SCOUT_PORT")
	if port == "" {
		port = "8083"
	}

	scoring := DefaultScoring()
	if s := os.Getenv("SCOUT_PROMOTE_THRESHOLD"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("SCOUT_PROMOTE_THRESHOLD must be a number, got %q", s)
		}
		scoring.PromoteThreshold = v
	}
	if s := os.Getenv("SCOUT_REVIEW_THRESHOLD"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("SCOUT_REVIEW_THRESHOLD must be a number, got %q", s)
		}
		scoring.ReviewThreshold = v
	}
	if scoring.ReviewThreshold > scoring.PromoteThreshold {
		return nil, fmt.Errorf("SCOUT_REVIEW_THRESHOLD (%v) must not exceed SCOUT_PROMOTE_THRESHOLD (%v)",
			scoring.ReviewThreshold, scoring.PromoteThreshold)
	}

	return &Config{
		Port:               port,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		OwnerEmail:         ownerEmail,
		OwnerTelegramChat:  os.Getenv("OWNER_TELEGRAM_CHAT_ID"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdzunaAppID:        os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:       os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:      country,
		SerperAPIKey:       os.Getenv("SERPER_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     aiModel,
		ScoutIntervalHours: interval,
		RunOnStart:         parseBool(os.Getenv("SCOUT_RUN_ON_START")),
		Scoring:            scoring,
	}, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
