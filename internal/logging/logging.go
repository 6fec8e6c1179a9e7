// Package logging builds the logr.Logger used across the allocator. Library packages
// accept a logr.Logger and never construct one; only binaries and test suites call
// into this package.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Verbosity levels for logger.V(...)
const (
	DEBUG = 1
	TRACE = 2
)

// NewLogger returns a zap-backed logger writing to w. verbosity is the highest V level
// that is emitted; development switches to the human-readable console encoder.
func NewLogger(w io.Writer, verbosity int, development bool) logr.Logger {
	opts := zap.Options{
		Development: development,
		Level:       zapcore.Level(-verbosity),
		DestWriter:  w,
	}
	return zap.New(zap.UseFlagOptions(&opts))
}
