package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type CheckResult struct {
	Name       string `json:"name"`
	Healthy    bool   `json:"healthy"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

type CheckerFunc func(ctx context.Context) CheckResult

func (f CheckerFunc) Check(ctx context.Context) CheckResult { return f(ctx) }

// ProbeRunner runs every registered checker concurrently under a shared deadline.
type ProbeRunner struct {
	timeout      time.Duration
	checkTimeout time.Duration
	checkers     []Checker
}

func NewProbeRunner(timeout, checkTimeout time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if checkTimeout <= 0 || checkTimeout > timeout {
		checkTimeout = timeout
	}
	return &ProbeRunner{timeout: timeout, checkTimeout: checkTimeout, checkers: checkers}
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	results := make([]CheckResult, len(p.checkers))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range p.checkers {
		g.Go(func() error {
			cctx, ccancel := context.WithTimeout(gctx, p.checkTimeout)
			defer ccancel()
			start := time.Now()
			res := c.Check(cctx)
			res.DurationMS = time.Since(start).Milliseconds()
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	ready := true
	for _, res := range results {
		ready = ready && res.Healthy
	}
	return ready, results
}

func DBChecker(db *gorm.DB) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		res := CheckResult{Name: "db", Healthy: true}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			res.Healthy = false
			res.Error = err.Error()
		}
		return res
	})
}

func RedisChecker(client redis.UniversalClient) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		res := CheckResult{Name: "redis", Healthy: true}
		if err := client.Ping(ctx).Err(); err != nil {
			res.Healthy = false
			res.Error = err.Error()
		}
		return res
	})
}
