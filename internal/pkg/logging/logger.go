// Package logging keeps the teacher's call-site API
// (Info/Warn/Error/Debug(msg, fields)) so business code never names a
// concrete logging library, but backs it with zap instead of a hand-rolled
// encoder — grounded on hxuan190-stable_payment_gateway and
// Sketchyjo-STACK-BACKEND-SERVICE, both zap-based services in this domain.
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"transaction-service/internal/config"
)

var (
	base  *zap.Logger
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the process-wide logger from configuration. Safe to call
// multiple times; only the first call takes effect.
func Init(cfg *config.Config) {
	once.Do(func() {
		level := parseLevel(cfg.Logging.Level)
		var zc zap.Config
		if strings.EqualFold(cfg.Logging.Format, "console") {
			zc = zap.NewDevelopmentConfig()
		} else {
			zc = zap.NewProductionConfig()
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		l, err := zc.Build()
		if err != nil {
			l = zap.NewNop()
		}
		base = l
		sugar = l.Sugar()
	})
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ensure() *zap.SugaredLogger {
	if sugar == nil {
		base = zap.NewNop()
		sugar = base.Sugar()
	}
	return sugar
}

func fieldArgs(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func Debug(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	ensure().Debugw(message, fieldArgs(f)...)
}

func Info(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	ensure().Infow(message, fieldArgs(f)...)
}

func Warn(message string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	ensure().Warnw(message, fieldArgs(f)...)
}

func Error(message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	ensure().Errorw(message, fieldArgs(fields)...)
}

// Sync flushes any buffered log entries; call during graceful shutdown.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
