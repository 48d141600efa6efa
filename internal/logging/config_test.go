package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "warning",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "1",
		EnvLogFormat:    "JSON",
	}
	s := defaultSettings()
	applyEnvOverrides(&s, func(k string) string { return env[k] })

	if s.Level != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", s.Level)
	}
	if s.Timestamp || !s.NoColor || !s.JSON {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestApplyEnvOverridesIgnoresGarbage(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "loud",
		EnvLogTimestamp: "maybe",
	}
	s := defaultSettings()
	applyEnvOverrides(&s, func(k string) string { return env[k] })

	if s.Level != zerolog.InfoLevel || !s.Timestamp {
		t.Fatalf("expected defaults to survive malformed env, got %+v", s)
	}
}

func TestRankFromEnv(t *testing.T) {
	t.Setenv(EnvRank, "3")
	if got := RankFromEnv(0); got != 3 {
		t.Fatalf("expected rank 3, got %d", got)
	}
	t.Setenv(EnvRank, "-1")
	if got := RankFromEnv(7); got != 7 {
		t.Fatalf("expected fallback for negative rank, got %d", got)
	}
}

func TestNewWithWriterLeavesGlobalLogger(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var global, local bytes.Buffer
	log.Logger = zerolog.New(&global)

	logger := NewWithWriter(&local, "catalink", 2)
	logger.Warn().Msg("adapter line")
	log.Warn().Msg("host line")

	if !strings.Contains(local.String(), "adapter line") || strings.Contains(local.String(), "host line") {
		t.Fatalf("unexpected adapter output: %q", local.String())
	}
	if !strings.Contains(global.String(), "host line") || strings.Contains(global.String(), "adapter line") {
		t.Fatalf("global logger was replaced, got %q", global.String())
	}
}
