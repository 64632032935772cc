package scraper

import (
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-timetable/config"
)

// retryPolicy decides whether a failed teacher is fetched again. The backoff
// is fixed; MaxRetries of zero never gives up.
type retryPolicy struct {
	cfg     *config.Config
	metrics *Metrics

	mu           sync.Mutex
	totalRetries int
}

func newRetryPolicy(cfg *config.Config, metrics *Metrics) *retryPolicy {
	return &retryPolicy{
		cfg:     cfg,
		metrics: metrics,
	}
}

// Allow reports whether another attempt may follow the given number of
// completed attempts, counting the retry when it does.
func (rp *retryPolicy) Allow(attempts int) bool {
	if rp.cfg.MaxRetries > 0 && attempts > rp.cfg.MaxRetries {
		return false
	}

	rp.mu.Lock()
	rp.totalRetries++
	rp.mu.Unlock()
	if rp.metrics != nil {
		rp.metrics.IncRetries()
	}
	return true
}

func (rp *retryPolicy) Backoff() time.Duration {
	if rp.cfg.RetryBackoff < 0 {
		return 0
	}
	return rp.cfg.RetryBackoff
}

func (rp *retryPolicy) TotalRetries() int {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.totalRetries
}
