package mysql

import (
	"context"
	crand "crypto/rand"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// RetryPolicy bounds how transient failures are retried.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, first one included
	MaxDelay    time.Duration // cap for a single backoff sleep
}

var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, MaxDelay: 2 * time.Second}

const (
	erTooManyConnections = 1040
	erDupEntry           = 1062
	erLockWaitTimeout    = 1205
	erLockDeadlock       = 1213
	crServerGone         = 2006
	crServerLost         = 2013
)

// isTransient reports failures worth another attempt: dropped connections,
// lock contention and connection exhaustion.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erTooManyConnections, erLockWaitTimeout, erLockDeadlock, crServerGone, crServerLost:
			return true
		}
	}
	return false
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff returns an exponential delay (100ms, 200ms, 400ms...) with up to
// +50% jitter, capped at limit.
func backoff(i int, limit time.Duration) time.Duration {
	if i > 10 {
		i = 10
	}
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err == nil {
		f := float64(b[0]) / 255.0
		base += time.Duration(0.5 * f * float64(base))
	}
	if limit > 0 && base > limit {
		return limit
	}
	return base
}
