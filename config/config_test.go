package config

import (
	"runtime"
	"testing"

	"github.com/lazharichir/baccarat/odds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BACCARAT_DECKS", "BACCARAT_WORKERS", "BACCARAT_ADDR",
		"BACCARAT_CACHE_SIZE", "BACCARAT_FORMAT", "DATABASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, Config{
		Decks:     DefaultDecks,
		Workers:   runtime.GOMAXPROCS(0),
		Addr:      DefaultAddr,
		CacheSize: odds.DefaultCacheSize,
		Format:    FormatText,
	}, cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACCARAT_DECKS", "8")
	t.Setenv("BACCARAT_WORKERS", " 3 ")
	t.Setenv("BACCARAT_ADDR", "127.0.0.1:9000")
	t.Setenv("BACCARAT_CACHE_SIZE", "2")
	t.Setenv("BACCARAT_FORMAT", "JSON")
	t.Setenv("DATABASE_URL", "postgres://localhost/baccarat")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Decks)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 2, cfg.CacheSize)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "postgres://localhost/baccarat", cfg.DatabaseURL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric decks", "BACCARAT_DECKS", "six"},
		{"zero decks", "BACCARAT_DECKS", "0"},
		{"negative decks", "BACCARAT_DECKS", "-1"},
		{"too many decks", "BACCARAT_DECKS", "32"},
		{"zero workers", "BACCARAT_WORKERS", "0"},
		{"zero cache", "BACCARAT_CACHE_SIZE", "0"},
		{"unknown format", "BACCARAT_FORMAT", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_MaxDecks(t *testing.T) {
	cfg := Config{Decks: 31, Workers: 1, Addr: DefaultAddr, CacheSize: 1, Format: FormatDump}
	assert.NoError(t, cfg.Validate())
}
