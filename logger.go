package bfinal

import (
	"log"
	"net/http"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogUnhandledServeError(err error)
	LogImplicitFlushError(err error)
	LogConnectionAbort(err error)
	LogDrainError(err error)
	LogResponseWriteError(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledServeError(err error) {
	l.Logger.Printf("bfinal: unhandled server error: %s", err)
}

func (l stdLogger) LogImplicitFlushError(err error) {
	l.Logger.Printf("bfinal: error while flushing implicitly: %s", err)
}

func (l stdLogger) LogConnectionAbort(err error) {
	l.Logger.Printf("bfinal: failed to abort connection of a response already sent: %s", err)
}

func (l stdLogger) LogDrainError(err error) {
	l.Logger.Printf("bfinal: failed to drain request body: %s", err)
}

func (l stdLogger) LogResponseWriteError(err error) {
	l.Logger.Printf("bfinal: failed to write error response: %s", err)
}

// NewStdLogger logs to l, or to the default standard logger when l is nil.
func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}

	return stdLogger{l}
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogUnhandledServeError(err error) {
	l.Logger.Error("unhandled server error", zap.Error(err))
}

func (l zapLogger) LogImplicitFlushError(err error) {
	l.Logger.Error("error while flushing implicitly", zap.Error(err))
}

func (l zapLogger) LogConnectionAbort(err error) {
	l.Logger.Warn("failed to abort connection of a response already sent", zap.Error(err))
}

func (l zapLogger) LogDrainError(err error) {
	l.Logger.Info("failed to drain request body", zap.Error(err))
}

func (l zapLogger) LogResponseWriteError(err error) {
	l.Logger.Error("failed to write error response", zap.Error(err))
}

// NewZapLogger logs through a named zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	return zapLogger{l.Named("bfinal")}
}

// ZapObserver returns an [ErrorObserver] that logs every finalized error.
func ZapObserver(l *zap.Logger) ErrorObserver {
	l = l.Named("bfinal")

	return func(err error, r *http.Request, _ http.ResponseWriter) {
		l.Error("finalized request with error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", resourceName(r)),
			zap.Int("code", int(CodeOf(err))))
	}
}

type TestLogger struct {
	tb testing.TB

	NumLogUnhandledServeError int64
	NumLogImplicitFlushError  int64
	NumLogConnectionAbort     int64
	NumLogDrainError          int64
	NumLogResponseWriteError  int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogUnhandledServeError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledServeError, 1)
	l.tb.Logf("bfinal: unhandled server error: %s", err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.tb.Logf("bfinal: error while flushing implicitly: %s", err)
}

func (l *TestLogger) LogConnectionAbort(err error) {
	atomic.AddInt64(&l.NumLogConnectionAbort, 1)
	l.tb.Logf("bfinal: failed to abort connection: %s", err)
}

func (l *TestLogger) LogDrainError(err error) {
	atomic.AddInt64(&l.NumLogDrainError, 1)
	l.tb.Logf("bfinal: failed to drain request body: %s", err)
}

func (l *TestLogger) LogResponseWriteError(err error) {
	atomic.AddInt64(&l.NumLogResponseWriteError, 1)
	l.tb.Logf("bfinal: failed to write error response: %s", err)
}

var (
	_ Logger = &TestLogger{}
	_ Logger = stdLogger{}
	_ Logger = zapLogger{}
)
