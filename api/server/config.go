package server

import (
	"log/slog"
	"time"

	"github.com/sealtrust/nautilus-oracle/metrics"
)

// responseMargin is the time left for writing a response once a request
// has used up its RequestTimeout.
const responseMargin = 30 * time.Second

// Config holds the oracle HTTP server settings.
type Config struct {
	ListenAddr string

	// MetricsAddr is where the Prometheus endpoint listens. Empty disables it.
	MetricsAddr string

	// Metrics holds the collectors the handlers update. When nil a new one
	// is created for MetricsAddr.
	Metrics *metrics.MetricsServer

	EnablePprof bool

	// CORSOrigins lists the origins allowed to call the API from a browser.
	// Empty or "*" allows any origin.
	CORSOrigins []string

	Log *slog.Logger

	// DrainDuration is how long /readyz reports not ready before shutdown
	// starts, so load balancers stop routing to this instance.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds the wait for in-flight requests.
	GracefulShutdownDuration time.Duration

	ReadTimeout time.Duration

	// RequestTimeout is the longest a handler may spend on upstream work,
	// which for /process_data is the dataset fetch.
	RequestTimeout time.Duration

	// WriteTimeout defaults to RequestTimeout plus a margin and is never
	// allowed below it, so a slow fetch does not cut the signed response.
	WriteTimeout time.Duration
}

func (cfg *Config) writeTimeout() time.Duration {
	if cfg.RequestTimeout <= 0 {
		return cfg.WriteTimeout
	}
	if floor := cfg.RequestTimeout + responseMargin; cfg.WriteTimeout < floor {
		return floor
	}
	return cfg.WriteTimeout
}
