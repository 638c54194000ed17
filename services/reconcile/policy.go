package reconcile

import "time"

// Policy bounds a reconciliation: at most MaxAttempts store polls, with capped
// exponential sleeps between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultPolicy = Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

// Delay is the sleep after the given (1 based) attempt came back empty.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(delay, p.MaxDelay)
}

// Clock lets tests drive the sleeps between polls.
type Clock interface {
	NewTimer(d time.Duration) Timer
}

type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) NewTimer(d time.Duration) Timer { return realTimer{t: time.NewTimer(d)} }

func (r realTimer) C() <-chan time.Time { return r.t.C }

func (r realTimer) Stop() bool { return r.t.Stop() }

// RealClock is backed by time.NewTimer.
var RealClock Clock = realClock{}
