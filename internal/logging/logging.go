// Package logging builds the logrus logger shared by the server and the
// CLI.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Caller     bool   `yaml:"caller"`
}

// Formatter writes one line per entry: date, time, source, level, a fresh
// event id, the message and the sorted fields.
type Formatter struct {
	SystemName string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	ts := entry.Time
	fmt.Fprintf(b, "Date: %s, Time: %s, ", ts.Format("2006-01-02"), ts.Format("15:04:05"))
	fmt.Fprintf(b, "Event Source: %s, ", f.SystemName)
	fmt.Fprintf(b, "Event Type: %s, ", strings.ToUpper(entry.Level.String()))
	fmt.Fprintf(b, "Event ID: %s, ", uuid.New().String())
	fmt.Fprintf(b, "Message: %s", entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, ", %s=%v", k, entry.Data[k])
		}
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, ", Location: %s:%d in %s", entry.Caller.File, entry.Caller.Line, entry.Caller.Function)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// New returns a logger writing to stderr and, when cfg.File is set, to a
// rotating log file.
func New(systemName string, cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&Formatter{SystemName: systemName})

	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = l
	}
	logger.SetLevel(level)
	logger.SetReportCaller(cfg.Caller)

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   cfg.Compress,
		})
	}
	logger.SetOutput(out)
	return logger, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
