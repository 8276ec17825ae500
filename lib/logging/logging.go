// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the structured logger shared by the shardfs
// binaries: JSON records on stderr, optionally teed into a size-rotated
// log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string

	// File, when set, receives a copy of every record and is rotated
	// by size.
	File string

	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int

	// MaxBackups is how many rotated files are kept.
	MaxBackups int

	// MaxAgeDays removes rotated files older than this many days.
	// Zero keeps them regardless of age.
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// New returns a JSON logger writing to stderr (and File when set), and
// installs it as the slog default. The returned closer releases the log
// file; it is a no-op without one.
func New(options Options) (*slog.Logger, io.Closer, error) {
	return newLogger(os.Stderr, options)
}

func newLogger(console io.Writer, options Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(options.Level)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = console
	var closer io.Closer = nopCloser{}
	if options.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAgeDays,
			Compress:   options.Compress,
		}
		output = io.MultiWriter(console, rotating)
		closer = rotating
	}

	logger := slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
