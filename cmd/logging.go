package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/inovacc/jenkinsfix/internal/config"
	"github.com/inovacc/jenkinsfix/internal/security"
)

// configureLogger installs the default slog logger. Flags win over config,
// which already carries JENKINSFIX_LOG_* overrides.
func configureLogger(w io.Writer, flagLevel, flagFormat string, cfg config.LogConfig) error {
	rawLevel := firstNonEmpty(flagLevel, cfg.Level)

	level, err := parseLogLevel(rawLevel)
	if err != nil {
		return err
	}

	rawFormat := firstNonEmpty(flagFormat, cfg.Format)

	format := strings.ToLower(strings.TrimSpace(rawFormat))
	switch format {
	case "", config.LogFormatText, config.LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: expected %s or %s", rawFormat, config.LogFormatText, config.LogFormatJSON)
	}

	slog.SetDefault(newLogger(w, level, format))
	security.SetLogLevel(level)

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
