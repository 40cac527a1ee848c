// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the process-wide structured logger. Packages grab a
// contextual logger once at init and never touch handler setup.
package log

import (
	"log/slog"
	"os"
)

var (
	level slog.LevelVar
	root  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
)

// Logger is the handle packages log through.
type Logger = *slog.Logger

// WithContext returns a logger carrying the given key-value context,
// typically ("pkg", name).
func WithContext(args ...any) Logger {
	return root.With(args...)
}

// Root returns the root logger.
func Root() Logger {
	return root
}

// SetLevel adjusts the level of all loggers handed out by this package.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// FromVerbosity maps a numeric verbosity flag onto a level: 0 silences all
// but errors, 3 is the info default, 4 and above turn on debug.
func FromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1, v == 2:
		return slog.LevelWarn
	case v == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
