package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	Env            string
	LogLevel       string
	TickRate       int
	WorldWidth     float64
	WorldHeight    float64
	MaxPlayers     int
	MaxProjectiles int
	MaxArenas      int
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Addr:     ":" + getEnv("PORT", "3000"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.TickRate, err = positiveInt("TICK_RATE", 60); err != nil {
		return Config{}, err
	}
	if cfg.WorldWidth, err = positiveFloat("WORLD_WIDTH", 2000); err != nil {
		return Config{}, err
	}
	if cfg.WorldHeight, err = positiveFloat("WORLD_HEIGHT", 1500); err != nil {
		return Config{}, err
	}
	if cfg.MaxPlayers, err = positiveInt("MAX_PLAYERS", 64); err != nil {
		return Config{}, err
	}
	if cfg.MaxProjectiles, err = positiveInt("MAX_PROJECTILES", 1024); err != nil {
		return Config{}, err
	}
	if cfg.MaxArenas, err = positiveInt("MAX_ARENAS", 100); err != nil {
		return Config{}, err
	}
	if cfg.IdleTimeout, err = positiveDuration("ARENA_IDLE_TIMEOUT", time.Minute); err != nil {
		return Config{}, err
	}

	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func positiveFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if !(f > 0) {
		return 0, fmt.Errorf("%s must be positive, got %v", key, f)
	}
	return f, nil
}

func positiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
