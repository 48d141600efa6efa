package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "CATALINK_LOG_LEVEL"
	EnvLogTimestamp = "CATALINK_LOG_TIMESTAMP"
	EnvLogNoColor   = "CATALINK_LOG_NOCOLOR"
	EnvLogFormat    = "CATALINK_LOG_FORMAT"
	EnvRank         = "CATALINK_RANK"
)

// Settings is the resolved process-wide logging configuration.
type Settings struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
}

var (
	configureOnce sync.Once
	settings      Settings
)

// Configure applies defaults plus env overrides once per process.
func Configure() Settings {
	configureOnce.Do(func() {
		settings = defaultSettings()
		applyEnvOverrides(&settings, os.Getenv)
		zerolog.SetGlobalLevel(settings.Level)
		zerolog.TimeFieldFormat = time.RFC3339
	})
	return settings
}

// New builds a logger tagged with app and rank, writing to stdout.
func New(app string, rank int) zerolog.Logger {
	return NewWithWriter(os.Stdout, app, rank)
}

// NewWithWriter builds a tagged logger on w. The zerolog global logger is
// left alone so embedding hosts keep their own.
func NewWithWriter(w io.Writer, app string, rank int) zerolog.Logger {
	s := Configure()
	out := w
	if !s.JSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: s.NoColor}
	}
	ctx := zerolog.New(out).With().Str("app", app).Int("rank", rank)
	if s.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// RankFromEnv returns CATALINK_RANK, or fallback when unset or malformed.
func RankFromEnv(fallback int) int {
	raw := strings.TrimSpace(os.Getenv(EnvRank))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func defaultSettings() Settings {
	return Settings{Level: zerolog.InfoLevel, Timestamp: true}
}

func applyEnvOverrides(s *Settings, getenv func(string) string) {
	if lvl, ok := parseLevel(getenv(EnvLogLevel)); ok {
		s.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogTimestamp)); ok {
		s.Timestamp = v
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		s.NoColor = v
	}
	switch strings.ToLower(strings.TrimSpace(getenv(EnvLogFormat))) {
	case "json":
		s.JSON = true
	case "console", "text":
		s.JSON = false
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
