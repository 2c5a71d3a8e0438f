/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
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

// Package logging provides logging facilities for the kernel.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper of zap.Logger.
type Logger = *zap.SugaredLogger

// Field is a wrapper of zap.Field.
type Field = zap.Field

// Below are the formats of the log output.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	defaultLogger Logger
	loggerOnce    sync.Once

	logLevel  = zapcore.InfoLevel
	logFormat = FormatConsole
)

// SetLogLevel sets the level of global logger with ["debug", "info", "warn",
// "error", "panic", "fatal"]. It must be called before DefaultLogger or New.
func SetLogLevel(level string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}
	if l < zapcore.DebugLevel || l > zapcore.FatalLevel {
		return fmt.Errorf("invalid log level: %s", level)
	}

	logLevel = l
	return nil
}

// SetFormat sets the output format of loggers created afterwards.
func SetFormat(format string) error {
	switch format {
	case FormatConsole, FormatJSON:
		logFormat = format
		return nil
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
}

// New creates a new logger with the given name and fields.
func New(name string, fields ...Field) Logger {
	logger := newLogger(name)
	if len(fields) == 0 {
		return logger
	}

	args := make([]interface{}, len(fields))
	for i, field := range fields {
		args[i] = field
	}
	return logger.With(args...)
}

// NewField creates a new field with the given key and value.
func NewField(key string, value string) Field {
	return zap.String(key, value)
}

// DefaultLogger returns the default logger used by the kernel.
func DefaultLogger() Logger {
	loggerOnce.Do(func() {
		defaultLogger = newLogger("default")
	})
	return defaultLogger
}

// Enabled returns true if the given level is enabled.
func Enabled(level zapcore.Level) bool {
	return level >= logLevel
}

func newLogger(name string) Logger {
	encoder := zapcore.NewConsoleEncoder(humanEncoderConfig())
	if logFormat == FormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	}

	return zap.New(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), logLevel),
		zap.AddStacktrace(zap.ErrorLevel),
	).Named(name).Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func humanEncoderConfig() zapcore.EncoderConfig {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}
