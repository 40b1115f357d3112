// Package alert forwards failures that were absorbed instead of returned, so repeated
// best-effort write errors still surface somewhere.
package alert

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/tubedigest/config"
)

// Reporter receives absorbed errors with a short operation tag.
type Reporter interface {
	Report(op string, err error, tags map[string]string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Report(string, error, map[string]string) {}

// Sentry reports to the sentry hub configured by Init.
type Sentry struct{}

// Init configures sentry. An empty DSN yields a Nop reporter.
func Init(cfg config.SentryConfig) (Reporter, func(), error) {
	if cfg.DSN == "" {
		return Nop{}, func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return nil, nil, err
	}
	return Sentry{}, func() { sentry.Flush(2 * time.Second) }, nil
}

func (Sentry) Report(op string, err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}
