package finalfx

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server runs the handler provided by [Module] on an HTTP server that is started and stopped
// with the fx lifecycle. It also provides the tracer provider and propagator.
var Server = fx.Options(
	fx.Provide(ParseServerConfig),
	fx.Provide(NewTracerProvider),
	fx.Provide(NewPropagator),
	fx.Provide(NewServer),
	fx.Invoke(startServerHook),
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string        `env:"BFINAL_ADDR"                envDefault:":8080"`
	ServiceName       string        `env:"BFINAL_SERVICE_NAME"        envDefault:"bfinal"`
	OtelExporter      string        `env:"BFINAL_OTEL_EXPORTER"       envDefault:"none"`
	ReadHeaderTimeout time.Duration `env:"BFINAL_READ_HEADER_TIMEOUT" envDefault:"5s"`
	IdleTimeout       time.Duration `env:"BFINAL_IDLE_TIMEOUT"        envDefault:"60s"`
}

// ParseServerConfig reads the server config from the process environment.
func ParseServerConfig() (cfg ServerConfig, err error) {
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to parse environment")
	}

	return cfg, nil
}

// NewTracerProvider creates the tracer provider for the configured exporter: "stdout" prints
// spans, "none" disables tracing. Shutdown is handled via the fx lifecycle.
func NewTracerProvider(lc fx.Lifecycle, cfg ServerConfig) (trace.TracerProvider, error) {
	switch cfg.OtelExporter {
	case "none", "":
		return noop.NewTracerProvider(), nil
	case "stdout":
	default:
		return nil, errors.Newf("unsupported exporter: %q (supported: none, stdout)", cfg.OtelExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

// NewPropagator creates a W3C TraceContext and Baggage propagator.
func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// NewServer creates the HTTP server for the handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// startServerHook binds the listener on start, so the address is in use once the app started, and
// shuts the server down on stop. The bound address is written back to server.Addr.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var lcfg net.ListenConfig
			ln, err := lcfg.Listen(ctx, "tcp", server.Addr)
			if err != nil {
				return errors.Wrapf(err, "failed to listen on %q", server.Addr)
			}

			server.Addr = ln.Addr().String()
			logger.Info("starting server", zap.String("addr", server.Addr))

			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}
