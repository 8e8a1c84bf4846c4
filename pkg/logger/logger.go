// Package logger builds the zap logger shared by the pagestore binaries.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Service is attached to every entry as the "service" field.
	Service string
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is "json" or "console".
	Format string
	// OutputFile is a comma-separated list of sinks: file paths, "stdout" or "stderr".
	OutputFile string
}

// New returns the logger and a func that closes any log files it opened.
// An unknown level falls back to info and is reported through the new logger.
func New(config Config) (*zap.Logger, func(), error) {
	level, levelErr := zapcore.ParseLevel(config.Level)
	if levelErr != nil {
		level = zapcore.InfoLevel
	}

	sink, closeSinks, err := zap.Open(outputs(config.OutputFile)...)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output %q: %w", config.OutputFile, err)
	}

	core := zapcore.NewCore(encoder(config.Format), sink, zap.NewAtomicLevelAt(level))
	lg := zap.New(core, zap.AddCaller(), zap.ErrorOutput(sink))

	service := config.Service
	if service == "" {
		service = "pagestore"
	}
	lg = lg.With(zap.String("service", service))

	if levelErr != nil && config.Level != "" {
		lg.Warn("unknown log level, using info", zap.String("requested", config.Level))
	}
	return lg, closeSinks, nil
}

func outputs(spec string) []string {
	var out []string
	for _, p := range strings.Split(spec, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"stderr"}
	}
	return out
}

func encoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if strings.EqualFold(format, "json") {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
