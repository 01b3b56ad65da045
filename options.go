package bfinal

import (
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Responder] beyond what [Config] carries.
type Option func(*Responder)

// WithLogger sets the logger that is informed about aborted connections and drain failures.
// Without it the standard library's default logger is used.
func WithLogger(logs Logger) Option {
	return func(rs *Responder) {
		rs.logs = logs
	}
}

// WithScheduler sets how the error observer is run. The default starts a new goroutine, tests may
// want to run the observer inline.
func WithScheduler(schedule func(func())) Option {
	return func(rs *Responder) {
		rs.schedule = schedule
	}
}

// WithTracerProvider makes every finalize run inside its own span.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(rs *Responder) {
		rs.tracer = tp.Tracer(tracerName)
	}
}

// goSchedule runs f on its own goroutine.
func goSchedule(f func()) { go f() }
