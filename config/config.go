package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lazharichir/baccarat/baccarat"
	"github.com/lazharichir/baccarat/odds"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultDecks = 6
	DefaultAddr  = ":7777"
)

// Output formats understood by the CLI.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDump = "dump"
)

type Config struct {
	Decks       int
	Workers     int
	Addr        string
	DatabaseURL string
	CacheSize   int
	Format      string
}

// Load reads .env when present, then the process environment. Variables
// already set in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        getenv("BACCARAT_ADDR", DefaultAddr),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Format:      strings.ToLower(getenv("BACCARAT_FORMAT", FormatText)),
	}

	var err error
	if cfg.Decks, err = atoiEnv("BACCARAT_DECKS", DefaultDecks); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = atoiEnv("BACCARAT_WORKERS", runtime.GOMAXPROCS(0)); err != nil {
		return Config{}, err
	}
	if cfg.CacheSize, err = atoiEnv("BACCARAT_CACHE_SIZE", odds.DefaultCacheSize); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Decks <= 0:
		return fmt.Errorf("%w: decks must be positive, got %d", ErrInvalidConfig, c.Decks)
	case c.Decks > baccarat.MaxSafeDecks:
		return fmt.Errorf("%w: decks must be at most %d, got %d", ErrInvalidConfig, baccarat.MaxSafeDecks, c.Decks)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.CacheSize <= 0:
		return fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidConfig, c.CacheSize)
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatDump:
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func atoiEnv(k string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(k))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, k, s)
	}
	return n, nil
}
