// Package logtest provides the logger used by ginkgo suites. It is imported only from
// tests so the command binaries do not link ginkgo.
package logtest

import (
	"github.com/go-logr/logr"
	"github.com/onsi/ginkgo/v2"
	"go.uber.org/zap/zapcore"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ramstk/reliability-allocator/internal/logging"
)

// New installs and returns a logger that writes every level to the ginkgo writer, so
// output is only shown for failing specs.
func New() logr.Logger {
	logger := zap.New(
		zap.UseDevMode(true),
		zap.WriteTo(ginkgo.GinkgoWriter),
		zap.Level(zapcore.Level(-logging.TRACE)),
	)
	logf.SetLogger(logger)
	return logger
}
