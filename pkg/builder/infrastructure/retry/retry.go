package retry

import (
	"context"
	"time"
)

// Policy controls how Do reruns a failing task: Attempts guarded tries with
// a fixed Backoff between them, followed by one final unguarded try.
// Transient decides which errors are worth another attempt, a nil Transient
// retries every error. Sleep replaces the backoff wait in tests.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Transient func(error) bool
	Sleep     func(time.Duration)
}

// Do runs task under the policy. With Attempts of one or less the task runs
// exactly once and its error is returned as is. Otherwise an error the
// policy does not consider transient stops the retrying immediately, and
// once all guarded attempts failed the task runs one last time unguarded.
func Do(ctx context.Context, policy Policy, task func() error) error {
	if policy.Attempts <= 1 {
		return task()
	}
	transient := policy.Transient
	if transient == nil {
		transient = func(error) bool { return true }
	}
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		err := task()
		if err == nil {
			return nil
		}
		if !transient(err) {
			return err
		}
		if err = wait(ctx, policy); err != nil {
			return err
		}
	}
	return task()
}

func wait(ctx context.Context, policy Policy) error {
	if policy.Sleep != nil {
		policy.Sleep(policy.Backoff)
		return nil
	}
	timer := time.NewTimer(policy.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
