package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leandrodaf/midisync/sdk/contracts"
)

// ZapLogger implements contracts.Logger on top of Uber's zap.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger creates a production-configured zap logger.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, _ := cfg.Build(zap.AddCallerSkip(1))
	return &ZapLogger{logger: logger, level: level}
}

// Info logs a message at the INFO level.
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.logger.Info(msg, toZap(fields)...)
}

// Error logs a message at the ERROR level.
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.logger.Error(msg, toZap(fields)...)
}

// Debug logs a message at the DEBUG level.
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.logger.Debug(msg, toZap(fields)...)
}

// Warn logs a message at the WARN level.
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.logger.Warn(msg, toZap(fields)...)
}

// Field returns a new instance of Field.
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level.
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	switch level {
	case contracts.DebugLevel:
		z.level.SetLevel(zapcore.DebugLevel)
	case contracts.WarnLevel:
		z.level.SetLevel(zapcore.WarnLevel)
	case contracts.ErrorLevel:
		z.level.SetLevel(zapcore.ErrorLevel)
	default:
		z.level.SetLevel(zapcore.InfoLevel)
	}
}

func toZap(fields []contracts.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if zf, ok := f.(*zapField); ok {
			out = append(out, zf.field)
		}
	}
	return out
}

// zapField implements contracts.Field by capturing a single zap.Field.
type zapField struct {
	field zap.Field
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return &zapField{zap.Bool(key, val)}
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return &zapField{zap.Int(key, val)}
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return &zapField{zap.Float64(key, val)}
}

func (f *zapField) String(key string, val string) contracts.Field {
	return &zapField{zap.String(key, val)}
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return &zapField{zap.Time(key, val)}
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return &zapField{zap.Int64(key, val)}
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return &zapField{zap.NamedError(key, val)}
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return &zapField{zap.Uint64(key, val)}
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return &zapField{zap.Uint8(key, val)}
}
