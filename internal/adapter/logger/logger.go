package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type zapLogger struct {
	log *zap.Logger
}

// New builds a JSON logger on stdout for the given service name.
func New(service string, level string) Logger {
	hostname, _ := os.Hostname()

	encCfg := zapcore.EncoderConfig{
		TimeKey:        keyTimestamp,
		LevelKey:       keyLevel,
		MessageKey:     keyMessage,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		parseLevel(level),
	)

	return &zapLogger{
		log: zap.New(core).With(
			zap.String(keyService, service),
			zap.String(keyHostname, hostname),
		),
	}
}

// Wrap adapts an existing zap logger, mostly for tests with zaptest/observer.
func Wrap(l *zap.Logger) Logger {
	return &zapLogger{log: l}
}

// Nop discards everything.
func Nop() Logger {
	return &zapLogger{log: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log.Info(message, fields(action, requestID, details)...)
}

func (l *zapLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log.Debug(message, fields(action, requestID, details)...)
}

func (l *zapLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	fs := fields(action, requestID, details)
	if err != nil {
		fs = append(fs, zap.Object(keyError, errorInfo{err: err}))
	}
	l.log.Error(message, fs...)
}

func fields(action, requestID string, details map[string]interface{}) []zap.Field {
	fs := []zap.Field{
		zap.String(keyAction, action),
		zap.String(keyRequestID, requestID),
	}
	if len(details) > 0 {
		fs = append(fs, zap.Any(keyDetails, details))
	}
	return fs
}

type errorInfo struct {
	err error
}

func (e errorInfo) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.err.Error())
	enc.AddString("stack", fmt.Sprintf("%T", e.err))
	return nil
}
