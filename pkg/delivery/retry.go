package delivery

import (
	"math/rand"
	"time"
)

const maxBackoffShift = 30

// RetryPolicy decides whether a transiently-failed delivery gets another
// attempt and when. Backoff doubles per attempt with up to one second of
// jitter so events that failed in the same cycle do not retry in lockstep.
type RetryPolicy struct {
	MaxAttempts int
	jitter      func() time.Duration
}

func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(time.Second)))
		},
	}
}

// NextAttemptAt computes now + 2^attemptCount seconds + jitter.
func (p *RetryPolicy) NextAttemptAt(now time.Time, attemptCount int) time.Time {
	shift := attemptCount
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	backoff := time.Duration(int64(1)<<uint(shift)) * time.Second
	return now.Add(backoff + p.jitter())
}

// Exhausted reports whether attemptCount has reached the retry ceiling.
func (p *RetryPolicy) Exhausted(attemptCount int) bool {
	return attemptCount >= p.MaxAttempts
}
