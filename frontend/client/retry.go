package client

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// ErrRetryable marks an error after which the attempt may be repeated.
var ErrRetryable = errors.New("retryable client error")

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }
func (e *retryableError) Is(target error) bool { return target == ErrRetryable }

// Retryable marks err so that a Retryer tries again.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// Retryer repeats retryFunc with exponential backoff while it fails with a
// retryable error, up to maxRetries times after the first try.
type Retryer struct {
	retryFunc    func(ctx context.Context) error
	interval     time.Duration
	backoffCoeff int
	maxRetries   int
}

func NewRetryer(retryFunc func(ctx context.Context) error, interval time.Duration, backoffCoeff, maxRetries int) *Retryer {
	return &Retryer{
		retryFunc:    retryFunc,
		interval:     interval,
		backoffCoeff: backoffCoeff,
		maxRetries:   maxRetries,
	}
}

// Run tries until retryFunc succeeds, returns a non-retryable error, the
// retries are exhausted or ctx is canceled.
func (r *Retryer) Run(ctx context.Context) error {
	for cnt := 0; ; cnt++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "retry aborted")
		}
		err := r.retryFunc(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRetryable) {
			return err
		}
		if cnt >= r.maxRetries {
			return errors.Wrapf(err, "giving up after %d attempts", cnt+1)
		}

		interval := retryInterval(r.interval, r.backoffCoeff, cnt)
		log.Warn("caught a retryable error, retrying in %v: %v", interval, err)
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "retry aborted")
		case <-time.After(interval):
		}
	}
}

func retryInterval(interval time.Duration, backoffCoeff, retryCount int) time.Duration {
	coeff := math.Pow(float64(backoffCoeff), float64(retryCount))
	intervalMilliSec := float64(interval.Milliseconds())
	return time.Duration(intervalMilliSec*coeff) * time.Millisecond
}
