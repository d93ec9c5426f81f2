package walletbridge

import (
	"time"

	"github.com/vitwit/walletbridge/deeplink"
	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/metrics"
	"github.com/vitwit/walletbridge/session"
	"github.com/vitwit/walletbridge/utils"
)

type Option func(*Bridge)

func WithLogger(l logger.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(b *Bridge) {
		b.metrics = r
	}
}

// WithTimeout overrides the per-operation timeout.
func WithTimeout(t time.Duration) Option {
	return func(b *Bridge) {
		b.timeout = t
	}
}

// WithScheduler replaces the built-in event loop, e.g. with session.NewManual()
// for hosts that pump their own main loop.
func WithScheduler(s session.Scheduler) Option {
	return func(b *Bridge) {
		b.sched = s
	}
}

func WithValidator(v *utils.Validator) Option {
	return func(b *Bridge) {
		b.validator = v
	}
}

// WithDeepLinkPrefixes replaces the recognised OAuth callback prefixes.
func WithDeepLinkPrefixes(prefixes ...string) Option {
	return func(b *Bridge) {
		b.matcher = deeplink.NewMatcher(prefixes...)
	}
}
