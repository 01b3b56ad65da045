package bfinal

import (
	"net/http"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// EnvProduction is the environment name that hides error details from clients.
const EnvProduction = "production"

// ErrUnsupportedContentType is returned when the configured default content type is not
// one of [MediaTypeHTML] or [MediaTypeText].
var ErrUnsupportedContentType = errors.New("unsupported default content type")

// ErrorObserver is informed about every error that is finalized. It is called asynchronously once
// the response is done and receives a [*FinishedResponse] with the final headers and status.
type ErrorObserver func(err error, r *http.Request, w http.ResponseWriter)

// Config configures the final responder. The zero value is usable: development mode, no
// negotiation and html bodies.
type Config struct {
	// Env selects whether clients see error details. Only "production" hides them.
	Env string `env:"BFINAL_ENV" envDefault:"development"`

	// ContentTypeNegotiation enables picking between html and plain text using the Accept header.
	ContentTypeNegotiation bool `env:"BFINAL_CONTENT_TYPE_NEGOTIATION" envDefault:"false"`

	// DefaultContentType is used when negotiation is disabled.
	DefaultContentType string `env:"BFINAL_DEFAULT_CONTENT_TYPE" envDefault:"text/html"`

	// DrainLimit caps how many bytes of an unread request body are discarded before the
	// connection is marked for closing. Zero or less drains without limit.
	DrainLimit int64 `env:"BFINAL_DRAIN_LIMIT" envDefault:"0"`

	// LogLevel is used by loggers that are built from the config.
	LogLevel zapcore.Level `env:"BFINAL_LOG_LEVEL" envDefault:"info"`

	// OnError is scheduled for every finalized error, also when the response could not be written.
	OnError ErrorObserver `env:"-"`
}

// ParseConfig reads the config from the process environment.
func ParseConfig() (cfg Config, err error) {
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to parse environment")
	}

	return cfg, nil
}

// IsProduction reports whether client facing messages should hide error details.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// validate fills in defaults and checks the config.
func (c Config) validate() (Config, error) {
	if c.DefaultContentType == "" {
		c.DefaultContentType = MediaTypeHTML
	}

	switch c.DefaultContentType {
	case MediaTypeHTML, MediaTypeText:
	default:
		return c, errors.Wrapf(ErrUnsupportedContentType, "%q", c.DefaultContentType)
	}

	return c, nil
}
