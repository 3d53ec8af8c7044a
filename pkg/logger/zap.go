package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewStructured returns a zap.SugaredLogger that emits JSON lines tagged
// with namespace, for callers that want machine-readable diagnostics (e.g.
// piping import-graph traces into a log aggregator) instead of the default
// human-readable text lines New() produces. It honors the same DEBUG gate.
func NewStructured(namespace string) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if os.Getenv("DEBUG") != "" {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)
	return zap.New(core).Sugar().With("namespace", namespace)
}
