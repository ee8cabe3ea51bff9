// Package audit appends rejected login attempts to a write-only log file.
// The core never reads this file back.
package audit

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Reporter records a failed login attempt from the given origin address.
type Reporter interface {
	Report(origin string)
}

// timeLayout is the timestamp format of audit lines.
const timeLayout = "2006-01-02 15:04:05"

// FileReporter appends lines of the form
//
//	2023-05-07 12:00:00 - auth - WARNING - Failed Login Attempt from 10.0.0.7
//
// to the audit log file.
type FileReporter struct {
	logger zerolog.Logger
	file   *os.File
}

// NewFileReporter opens (or creates) the audit log at the given path.
func NewFileReporter(path string) (*FileReporter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	cw := zerolog.ConsoleWriter{
		Out:           f,
		NoColor:       true,
		PartsOrder:    []string{zerolog.TimestampFieldName, "source", zerolog.LevelFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{"source"},
		FormatTimestamp: func(i interface{}) string {
			ts, ok := i.(string)
			if !ok {
				return fmt.Sprintf("%v -", i)
			}
			t, err := time.Parse(zerolog.TimeFieldFormat, ts)
			if err != nil {
				return ts + " -"
			}
			return t.Format(timeLayout) + " -"
		},
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			if level == zerolog.LevelWarnValue {
				return "WARNING -"
			}
			return strings.ToUpper(level) + " -"
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%v -", i)
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("%v", i)
		},
	}

	return &FileReporter{
		logger: zerolog.New(cw).With().Timestamp().Str("source", "auth").Logger(),
		file:   f,
	}, nil
}

// Report appends one failed-attempt line with the current time and the
// caller's network origin.
func (r *FileReporter) Report(origin string) {
	r.logger.Warn().Msgf("Failed Login Attempt from %s", origin)
}

// Close closes the underlying log file.
func (r *FileReporter) Close() error {
	return r.file.Close()
}
