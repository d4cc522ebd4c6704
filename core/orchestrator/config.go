package orchestrator

import "time"

// Config holds sync execution settings.
type Config struct {
	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" default:"2m"`
	// ReconcileTimeout bounds the reconciliation transaction.
	ReconcileTimeout time.Duration `mapstructure:"reconcile_timeout" default:"1m"`
	// MaxAttempts is the number of fetch attempts for retryable failures.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// BackoffBase is the delay before the second attempt.
	BackoffBase time.Duration `mapstructure:"backoff_base" default:"2s"`
	// BackoffMultiplier grows the delay between consecutive attempts.
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" default:"2"`
	// BackoffMax caps the delay between attempts.
	BackoffMax time.Duration `mapstructure:"backoff_max" default:"1m"`
	// MaxParallel bounds the number of pairs executing at once.
	MaxParallel int `mapstructure:"max_parallel" default:"4"`
	// QueueOnBusy waits for a running pair instead of rejecting the request.
	QueueOnBusy bool `mapstructure:"queue_on_busy" default:"false"`
	// Schedule is a cron expression for periodic full syncs. Empty disables it.
	Schedule string `mapstructure:"schedule" default:""`
	// MaxErrorDetails caps the error details stored per run.
	MaxErrorDetails int `mapstructure:"max_error_details" default:"50"`
	// CacheTTL is how long ledger status lookups are cached.
	CacheTTL time.Duration `mapstructure:"cache_ttl" default:"30s"`
}

// withDefaults fills zero values so a hand built Config is usable.
func (c Config) withDefaults() Config {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 2 * time.Minute
	}
	if c.ReconcileTimeout <= 0 {
		c.ReconcileTimeout = time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 2 * time.Second
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 2
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = time.Minute
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
	return c
}

// Backoff returns the delay after the given failed attempt (1-based):
// BackoffBase * BackoffMultiplier^(attempt-1), capped at BackoffMax.
func (c Config) Backoff(attempt int) time.Duration {
	c = c.withDefaults()
	delay := float64(c.BackoffBase)
	for i := 1; i < attempt; i++ {
		delay *= c.BackoffMultiplier
		if delay >= float64(c.BackoffMax) {
			return c.BackoffMax
		}
	}
	return min(time.Duration(delay), c.BackoffMax)
}
