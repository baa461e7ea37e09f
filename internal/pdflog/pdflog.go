// Package pdflog wraps the zap sugared logger used for pdfconcat's
// handful of non-fatal diagnostics: the situations where the reader
// falls back to a more permissive rule instead of failing outright.
// Status/progress printing for the command-line tool itself stays
// out of this package.
package pdflog

import "go.uber.org/zap"

var sugar = newSugar()

func newSugar() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Warnf logs a non-fatal diagnostic: a permissive fallback was taken
// and the run continues.
func Warnf(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

// Sync flushes buffered log entries; callers should defer it once at
// startup.
func Sync() {
	_ = sugar.Sync()
}
