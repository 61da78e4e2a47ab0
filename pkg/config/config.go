// Package config loads the game server's tunables from the environment,
// falling back to sane defaults when a variable is unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every environment-tunable setting the game server reads at
// startup.
type Config struct {
	ServerAddr string
	JWTSecret  string

	DefaultSmallBlind int64
	DefaultBigBlind   int64

	MaxPlayersPerRoom int
	ActionTimeout     time.Duration

	MatchmakingTimeout time.Duration
	AIFillDelayMin     time.Duration
	AIFillDelayMax     time.Duration
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	cfg := Config{
		ServerAddr:         getString("SERVER_ADDR", ":3002"),
		JWTSecret:          getString("JWT_SECRET", ""),
		DefaultSmallBlind:  5,
		DefaultBigBlind:    10,
		MaxPlayersPerRoom:  9,
		ActionTimeout:      30 * time.Second,
		MatchmakingTimeout: 60 * time.Second,
		AIFillDelayMin:     5 * time.Second,
		AIFillDelayMax:     10 * time.Second,
	}

	var err error
	if cfg.DefaultSmallBlind, err = getInt64("DEFAULT_SMALL_BLIND", cfg.DefaultSmallBlind); err != nil {
		return Config{}, err
	}
	if cfg.DefaultBigBlind, err = getInt64("DEFAULT_BIG_BLIND", cfg.DefaultBigBlind); err != nil {
		return Config{}, err
	}
	if cfg.MaxPlayersPerRoom, err = getInt("MAX_PLAYERS_PER_ROOM", cfg.MaxPlayersPerRoom); err != nil {
		return Config{}, err
	}
	if cfg.ActionTimeout, err = getDuration("ACTION_TIMEOUT", cfg.ActionTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MatchmakingTimeout, err = getDuration("MATCHMAKING_TIMEOUT", cfg.MatchmakingTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AIFillDelayMin, err = getDuration("AI_FILL_DELAY", cfg.AIFillDelayMin); err != nil {
		return Config{}, err
	}
	if cfg.AIFillDelayMax <= cfg.AIFillDelayMin {
		cfg.AIFillDelayMax = cfg.AIFillDelayMin + 5*time.Second
	}

	if cfg.DefaultBigBlind <= cfg.DefaultSmallBlind {
		return Config{}, fmt.Errorf("DEFAULT_BIG_BLIND (%d) must exceed DEFAULT_SMALL_BLIND (%d)", cfg.DefaultBigBlind, cfg.DefaultSmallBlind)
	}

	return cfg, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
