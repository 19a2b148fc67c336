// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the leveled loggers shared by every package.
//
// The loggers write to stderr until Initialize points them at a rotating
// log file. Messages follow the "EVENT | key=value" layout.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLog    *log.Logger
	WarningLog *log.Logger
	ErrorLog   *log.Logger

	mu      sync.Mutex
	logFile io.Closer
	logPath string
)

// LogFileName is the file created inside Config.Dir.
const LogFileName = "deskshell.log"

// Config controls where and how logs are written.
type Config struct {
	Enabled    bool
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

func init() {
	// Tests and library callers log before Initialize runs.
	setWriter(os.Stderr)
}

func setWriter(w io.Writer) {
	InfoLog = log.New(w, "INFO: ", log.Ldate|log.Ltime)
	WarningLog = log.New(w, "WARNING: ", log.Ldate|log.Ltime)
	ErrorLog = log.New(w, "ERROR: ", log.Ldate|log.Ltime)
}

// Initialize redirects the loggers to a rotating file under cfg.Dir and
// returns its path. A disabled config discards all output.
func Initialize(cfg Config) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	if !cfg.Enabled {
		setWriter(io.Discard)
		return "", nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "deskshell")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create log directory: %w", err)
	}

	path := filepath.Join(dir, LogFileName)
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	InfoLog = log.New(writer, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarningLog = log.New(writer, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(writer, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	logFile = writer
	logPath = path
	return path, nil
}

// Path returns the current log file, or "" when logging to stderr.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Close flushes the log file and points the loggers back at stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeLocked()
	setWriter(os.Stderr)
	return err
}

func closeLocked() error {
	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logPath = ""
	return err
}
