/*
 * Copyright 2025 NetNynja Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logger provides JSON structured logging using zerolog.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the behavior of a Logger instance.
type Config struct {
	Level      string     `json:"level" yaml:"level"`
	Debug      bool       `json:"debug" yaml:"debug"`
	Output     string     `json:"output" yaml:"output"`
	TimeFormat string     `json:"time_format" yaml:"time_format"`
	OTel       OTelConfig `json:"otel" yaml:"otel"`
}

// DefaultConfig returns a Config populated from the standard environment
// variables, falling back to info-level stdout logging.
func DefaultConfig() *Config {
	return &Config{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:      getEnvBoolOrDefault("DEBUG", false),
		Output:     getEnvOrDefault("LOG_OUTPUT", "stdout"),
		TimeFormat: getEnvOrDefault("LOG_TIME_FORMAT", ""),
		OTel:       DefaultOTelConfig(),
	}
}

// logPr is the zerolog-backed Logger implementation. It holds no global
// state; every service constructs its own instance.
type logPr struct {
	logger zerolog.Logger
}

// New creates a Logger from config. When config is nil the defaults apply.
// The context bounds OTLP exporter initialization when OTel export is
// enabled; exporter construction failures are returned, never swallowed.
func New(ctx context.Context, config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	if config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := NewOTELWriter(ctx, config.OTel)
		if err != nil {
			return nil, err
		}

		output = NewMultiWriter(output, otelWriter)
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &logPr{logger: zlog}, nil
}

func (l *logPr) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *logPr) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *logPr) Info() *zerolog.Event  { return l.logger.Info() }
func (l *logPr) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *logPr) Error() *zerolog.Event { return l.logger.Error() }
func (l *logPr) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *logPr) Panic() *zerolog.Event { return l.logger.Panic() }

func (l *logPr) With() zerolog.Context { return l.logger.With() }

// WithComponent returns a child Logger tagged with a component field.
func (l *logPr) WithComponent(component string) Logger {
	return &logPr{logger: l.logger.With().Str("component", component).Logger()}
}

func (l *logPr) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (l *logPr) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *logPr) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch value {
	case "true", "1", "yes", "on", "TRUE", "True":
		return true
	default:
		return false
	}
}
