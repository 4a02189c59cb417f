package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level  string `name:"log-level"  doc:"log from debug, info, warn or error"`
	File   string `name:"log-file"   doc:"append logs to file, - for stdout"`
	Format string `name:"log-format" doc:"format logs as text or json"         default:"text"`
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

func output(option string) (io.Writer, error) {
	switch option {
	case "", "-":
		return os.Stdout, nil
	case os.DevNull:
		return io.Discard, nil
	default:
		return os.OpenFile(option, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	}
}

// New returns a logger configured by options. Invalid options are reset
// to their default and reported through the returned logger.
func New(options *Options) *slog.Logger {
	type warning struct {
		msg  string
		args []any
	}
	var warnings []warning

	lvl, ok := level(options.Level)
	if !ok {
		warnings = append(warnings, warning{"could not parse logger level", []any{"log-level", options.Level}})
		options.Level = ""
	}
	opts := slog.HandlerOptions{Level: lvl}

	out, err := output(options.File)
	if err != nil {
		warnings = append(warnings, warning{"could not open logger file", []any{"log-file", options.File, "err", err}})
		options.File = ""
		out = os.Stdout
	}

	var logger *slog.Logger
	switch {
	case out == io.Discard:
		return slog.New(slog.DiscardHandler)
	case strings.EqualFold(options.Format, "json"):
		logger = slog.New(slog.NewJSONHandler(out, &opts))
	case strings.EqualFold(options.Format, "text"):
		logger = slog.New(slog.NewTextHandler(out, &opts))
	default:
		warnings = append(warnings, warning{"could not parse logger format", []any{"log-format", options.Format}})
		options.Format = "text"
		logger = slog.New(slog.NewTextHandler(out, &opts))
	}

	for _, w := range warnings {
		logger.Warn(w.msg, w.args...)
	}
	return logger
}
