// Package finalfx provides the final responder and its ServeMux to an fx application.
package finalfx

import (
	"net/http"

	"github.com/advdv/bfinal"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module provides the [bfinal.Config] parsed from the environment, a [*bfinal.Responder], a
// [*bfinal.ServeMux] and an instrumented [http.Handler] serving that mux. It requires a
// [*zap.Logger] in the graph, a [trace.TracerProvider] is used when present.
var Module = fx.Module("bfinal",
	fx.Provide(bfinal.ParseConfig),
	fx.Provide(NewResponder),
	fx.Provide(NewServeMux),
	fx.Provide(NewHandler),
)

// ResponderParams holds the dependencies of the responder.
type ResponderParams struct {
	fx.In

	Config     bfinal.Config
	Logger     *zap.Logger
	TracerProv trace.TracerProvider `optional:"true"`
}

// NewResponder creates a responder that logs through zap and reports finalized errors to it.
func NewResponder(params ResponderParams) (*bfinal.Responder, error) {
	cfg := params.Config
	if cfg.OnError == nil {
		cfg.OnError = bfinal.ZapObserver(params.Logger)
	}

	opts := []bfinal.Option{bfinal.WithLogger(bfinal.NewZapLogger(params.Logger))}
	if params.TracerProv != nil {
		opts = append(opts, bfinal.WithTracerProvider(params.TracerProv))
	}

	rs, err := bfinal.NewResponder(cfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create responder")
	}

	return rs, nil
}

// NewServeMux creates a mux without buffer limit that finalizes through rs.
func NewServeMux(rs *bfinal.Responder) *bfinal.ServeMux {
	return bfinal.NewServeMuxWith(-1, rs, http.NewServeMux())
}

// HandlerParams holds the dependencies of the instrumented handler.
type HandlerParams struct {
	fx.In

	Mux        *bfinal.ServeMux
	TracerProv trace.TracerProvider          `optional:"true"`
	Propagator propagation.TextMapPropagator `optional:"true"`
}

// NewHandler wraps the mux with otelhttp so the finalize spans have a server span as parent.
func NewHandler(params HandlerParams) http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if params.TracerProv != nil {
		opts = append(opts, otelhttp.WithTracerProvider(params.TracerProv))
	}
	if params.Propagator != nil {
		opts = append(opts, otelhttp.WithPropagators(params.Propagator))
	}

	return otelhttp.NewHandler(params.Mux, "bfinal", opts...)
}

// NewLogger creates a zap logger for the config: JSON encoding in production, human friendly
// console output otherwise.
func NewLogger(cfg bfinal.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logs, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}

	return logs, nil
}
