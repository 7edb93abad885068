// ABOUTME: Bounded refresh-and-retry policy for token-authenticated calls
// ABOUTME: Attempt, on 401 renew the token once, retry once, then give up

package services

import (
	"context"
	"fmt"
)

// refreshStage names the step of the retry policy that produced an error
type refreshStage int

const (
	stageInitial refreshStage = iota // first call with the current token
	stageRefresh                     // exchanging the refresh token
	stageRetry                       // single retry with the renewed token
)

func (s refreshStage) String() string {
	switch s {
	case stageInitial:
		return "initial"
	case stageRefresh:
		return "refresh"
	case stageRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// stageError records which step of the policy failed
type stageError struct {
	stage refreshStage
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

// retryOutcome is a successful result plus the token that produced it
type retryOutcome[T any] struct {
	Value     T
	Token     string
	Refreshed bool
}

// callWithRefresh runs call with token. If the call fails with an upstream
// 401 and renew is non-nil, renew runs exactly once and call is retried
// exactly once with the new token. The rejected token is never reused.
// Errors are always *stageError.
func callWithRefresh[T any](
	ctx context.Context,
	token string,
	call func(ctx context.Context, token string) (T, error),
	renew func(ctx context.Context) (string, error),
) (retryOutcome[T], error) {
	var zero retryOutcome[T]

	stage := stageInitial
	current := token
	for {
		switch stage {
		case stageInitial:
			value, err := call(ctx, current)
			if err == nil {
				return retryOutcome[T]{Value: value, Token: current}, nil
			}
			if renew == nil || !IsUnauthorized(err) {
				return zero, &stageError{stage: stageInitial, err: err}
			}
			stage = stageRefresh

		case stageRefresh:
			renewed, err := renew(ctx)
			if err != nil {
				return zero, &stageError{stage: stageRefresh, err: err}
			}
			current = renewed
			stage = stageRetry

		case stageRetry:
			value, err := call(ctx, current)
			if err != nil {
				return zero, &stageError{stage: stageRetry, err: err}
			}
			return retryOutcome[T]{Value: value, Token: current, Refreshed: true}, nil
		}
	}
}
