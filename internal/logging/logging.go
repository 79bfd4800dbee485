// Package logging builds the zap logger used by the CLI and maps build
// diagnostics onto log entries.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string

	// Verbose forces the debug level.
	Verbose bool

	// File is an extra output path next to stderr.
	File string

	// Console selects the human-readable encoder instead of JSON.
	Console bool
}

// New builds a production logger from opts.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.Console {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	// Diagnostics come in bursts of one entry per bad row.
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// IssueFields returns the structured fields describing issue.
func IssueFields(issue validation.Issue) []zap.Field {
	fields := []zap.Field{
		zap.String("stage", string(issue.Stage)),
	}
	if issue.RowNumber > 0 {
		fields = append(fields, zap.Int("row", issue.RowNumber))
	}
	if issue.Field != "" {
		fields = append(fields, zap.String("field", issue.Field))
	}
	if issue.Value != "" {
		fields = append(fields, zap.String("value", issue.Value))
	}
	if len(issue.Raw) > 0 {
		fields = append(fields, zap.Strings("raw", issue.Raw))
	}
	return fields
}

// LogIssues writes one entry per issue at the level matching its severity.
func LogIssues(logger *zap.Logger, issues []validation.Issue) {
	for _, issue := range issues {
		fields := IssueFields(issue)
		switch issue.Severity {
		case validation.SeverityError:
			logger.Error(issue.Message, fields...)
		case validation.SeverityWarning:
			logger.Warn(issue.Message, fields...)
		default:
			logger.Info(issue.Message, fields...)
		}
	}
}
