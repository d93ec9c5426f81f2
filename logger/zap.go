package logger

import (
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a *zap.Logger to Logger. Field keys are written in sorted
// order so bridge log lines diff cleanly between runs.
type ZapLogger struct {
	log *zap.Logger
}

// ParseLevel maps a config level name onto zap. Unknown names log at info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewZapLogger builds a JSON production logger named "walletbridge".
func NewZapLogger(level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	log, err := cfg.Build()
	if err != nil {
		return NoopLogger{}
	}
	return &ZapLogger{log: log.Named("walletbridge")}
}

// NewBridgeLogger maps the bridge's debug toggle onto a zap level.
func NewBridgeLogger(debug bool) Logger {
	if debug {
		return NewZapLogger("debug")
	}
	return NewZapLogger("info")
}

// FromZap wraps an existing zap logger, e.g. one built on a test observer core.
func FromZap(log *zap.Logger) *ZapLogger {
	return &ZapLogger{log: log}
}

// Named returns a child logger named after component that also carries a
// "component" field.
func (z *ZapLogger) Named(component string) *ZapLogger {
	return &ZapLogger{log: z.log.Named(component).With(zap.String("component", component))}
}

func (z *ZapLogger) Debug(msg string, fields map[string]any) { z.write(zapcore.DebugLevel, msg, fields) }
func (z *ZapLogger) Info(msg string, fields map[string]any)  { z.write(zapcore.InfoLevel, msg, fields) }
func (z *ZapLogger) Warn(msg string, fields map[string]any)  { z.write(zapcore.WarnLevel, msg, fields) }
func (z *ZapLogger) Error(msg string, fields map[string]any) { z.write(zapcore.ErrorLevel, msg, fields) }

func (z *ZapLogger) Sync() error {
	return z.log.Sync()
}

// write skips field conversion for disabled levels; raw frontend payloads are
// logged at debug and can be large.
func (z *ZapLogger) write(lvl zapcore.Level, msg string, fields map[string]any) {
	if ce := z.log.Check(lvl, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func toZapFields(m map[string]any) []zap.Field {
	fields := make([]zap.Field, 0, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case error:
			fields = append(fields, zap.NamedError(k, v))
		default:
			fields = append(fields, zap.Any(k, v))
		}
	}
	return fields
}
