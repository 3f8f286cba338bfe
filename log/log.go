// Copyright 2019 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package log is a wrapper for the logrus Go logging package, trimmed to
// the leveled surface the engine actually calls: Warn/Warnf/Info/Infof
// and WithField for structured fields on partition, catalog-watch and
// schema-hook warnings.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Entry is a log line with fields attached via WithField.
type Entry struct {
	entry *logrus.Entry
}

// WithField adds another field to the entry, for chaining.
func (e *Entry) WithField(key string, value interface{}) *Entry {
	return &Entry{entry: e.entry.WithField(key, value)}
}

// Warn logs the entry at level Warn.
func (e *Entry) Warn(args ...interface{}) {
	e.entry.Warn(args...)
}

// Info logs the entry at level Info.
func (e *Entry) Info(args ...interface{}) {
	e.entry.Info(args...)
}

// Logger is the interface used by applications; NewLogger constructs one
// over its own logrus instance, Global returns the package-wide default.
type Logger interface {
	Warn(...interface{})
	Warnf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	WithField(key string, value interface{}) *Entry
	SetOutput(io.Writer)
}

type logger struct {
	entry *logrus.Entry
}

// NewLogger creates a new logger.
func NewLogger() Logger {
	return logger{entry: logrus.NewEntry(logrus.New())}
}

func (l logger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l logger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l logger) WithField(key string, value interface{}) *Entry {
	return &Entry{entry: l.entry.WithField(key, value)}
}

func (l logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
	l.entry.Logger.SetFormatter(&logrus.JSONFormatter{})
}

var globalLogger = logger{entry: logrus.NewEntry(logrus.New())}

// Global returns the default logger, used by every package that warns or
// informs without holding its own Logger (catalog watch, schema hooks,
// the async partition pool).
func Global() Logger {
	return globalLogger
}

// Warn logs a message at level Warn on the global logger.
func Warn(args ...interface{}) {
	globalLogger.entry.Warn(args...)
}

// Warnf logs a message at level Warn on the global logger.
func Warnf(format string, args ...interface{}) {
	globalLogger.entry.Warnf(format, args...)
}

// Info logs a message at level Info on the global logger.
func Info(args ...interface{}) {
	globalLogger.entry.Info(args...)
}

// Infof logs a message at level Info on the global logger.
func Infof(format string, args ...interface{}) {
	globalLogger.entry.Infof(format, args...)
}
