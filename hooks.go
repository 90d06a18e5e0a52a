package slackdispatch

import (
	"context"
	"time"
)

// OnDispatchFunc is called just before a handler executes. key is the command
// name for commands, the callback ID for submissions, and empty for messages.
type OnDispatchFunc func(ctx context.Context, kind Kind, key string)

// OnSuccessFunc is called after a handler returns without error.
type OnSuccessFunc func(ctx context.Context, kind Kind, key string, duration time.Duration)

// OnFailureFunc is called after a handler returns an error. The error is
// still returned to the caller of Dispatch.
type OnFailureFunc func(ctx context.Context, kind Kind, key string, err error, duration time.Duration)

// OnUnmatchedFunc is called when a payload reaches no handler: no predicate
// matched, no command was registered under the name, or no dialog is pending
// for the callback ID. The payload is still dropped.
type OnUnmatchedFunc func(ctx context.Context, kind Kind, key string)

// OnExpiredFunc is called when a pending dialog continuation is evicted
// because its TTL elapsed before a submission arrived.
type OnExpiredFunc func(callbackID string)

// hooks holds all configured hook functions.
type hooks struct {
	onDispatch  []OnDispatchFunc
	onSuccess   []OnSuccessFunc
	onFailure   []OnFailureFunc
	onUnmatched []OnUnmatchedFunc
	onExpired   []OnExpiredFunc
}

// WithOnDispatch adds a hook called just before each handler executes.
// Multiple hooks are called in order.
//
// Example:
//
//	slackdispatch.WithOnDispatch(func(ctx context.Context, kind slackdispatch.Kind, key string) {
//	    logger.DebugContext(ctx, "dispatching", "kind", kind, "key", key)
//	})
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onDispatch = append(d.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after a handler completes successfully.
// Multiple hooks are called in order.
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onSuccess = append(d.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after a handler fails.
// Multiple hooks are called in order.
//
// Example:
//
//	slackdispatch.WithOnFailure(func(ctx context.Context, kind slackdispatch.Kind, key string, err error, d time.Duration) {
//	    logger.ErrorContext(ctx, "handler failed", "kind", kind, "key", key, "error", err)
//	})
func WithOnFailure(fn OnFailureFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onFailure = append(d.hooks.onFailure, fn)
	}
}

// WithOnUnmatched adds a hook called when a payload matches no handler.
// Routing misses are never errors; this hook exists so they can be counted
// or logged. Multiple hooks are called in order.
//
// Example:
//
//	slackdispatch.WithOnUnmatched(func(ctx context.Context, kind slackdispatch.Kind, key string) {
//	    unmatched.Add(ctx, 1)
//	})
func WithOnUnmatched(fn OnUnmatchedFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onUnmatched = append(d.hooks.onUnmatched, fn)
	}
}

// WithOnExpired adds a hook called for each pending dialog evicted by Sweep.
// Multiple hooks are called in order.
func WithOnExpired(fn OnExpiredFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onExpired = append(d.hooks.onExpired, fn)
	}
}

func (d *Dispatcher) callOnDispatch(ctx context.Context, kind Kind, key string) {
	for _, fn := range d.hooks.onDispatch {
		fn(ctx, kind, key)
	}
}

func (d *Dispatcher) callOnSuccess(ctx context.Context, kind Kind, key string, duration time.Duration) {
	for _, fn := range d.hooks.onSuccess {
		fn(ctx, kind, key, duration)
	}
}

func (d *Dispatcher) callOnFailure(ctx context.Context, kind Kind, key string, err error, duration time.Duration) {
	for _, fn := range d.hooks.onFailure {
		fn(ctx, kind, key, err, duration)
	}
}

func (d *Dispatcher) callOnUnmatched(ctx context.Context, kind Kind, key string) {
	for _, fn := range d.hooks.onUnmatched {
		fn(ctx, kind, key)
	}
}

func (d *Dispatcher) callOnExpired(callbackID string) {
	for _, fn := range d.hooks.onExpired {
		fn(callbackID)
	}
}
