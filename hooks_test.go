package slackdispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type HooksSuite struct {
	suite.Suite
}

func TestHooksSuite(t *testing.T) {
	suite.Run(t, new(HooksSuite))
}

func (s *HooksSuite) TestOnDispatchCalledBeforeHandler() {
	var order []string

	d := New(nil, WithOnDispatch(func(ctx context.Context, kind Kind, key string) {
		order = append(order, "hook:"+kind.String())
	}))
	d.AddMessageFunc(Always(), func(ctx context.Context, m *Message, d *Dispatcher) error {
		order = append(order, "handler")
		return nil
	})

	err := d.DispatchMessage(context.Background(), message("hi"))

	s.NoError(err)
	s.Equal([]string{"hook:message", "handler"}, order)
}

func (s *HooksSuite) TestOnDispatchCalledPerHandler() {
	calls := 0

	d := New(nil, WithOnDispatch(func(ctx context.Context, kind Kind, key string) {
		calls++
	}))
	d.AddCommandFunc("/deploy", func(ctx context.Context, c *Command, d *Dispatcher) error { return nil })
	d.AddCommandFunc("/deploy", func(ctx context.Context, c *Command, d *Dispatcher) error { return nil })

	s.Require().NoError(d.DispatchCommand(context.Background(), command("/deploy")))
	s.Equal(2, calls)
}

func (s *HooksSuite) TestOnSuccessReceivesKey() {
	var gotKind Kind
	var gotKey string

	d := New(nil, WithOnSuccess(func(ctx context.Context, kind Kind, key string, duration time.Duration) {
		gotKind, gotKey = kind, key
		s.GreaterOrEqual(duration, time.Duration(0))
	}))
	d.AddCommandFunc("/weather", func(ctx context.Context, c *Command, d *Dispatcher) error { return nil })

	s.Require().NoError(d.DispatchCommand(context.Background(), command("/weather")))
	s.Equal(KindCommand, gotKind)
	s.Equal("/weather", gotKey)
}

func (s *HooksSuite) TestOnFailureReceivesHandlerError() {
	wantErr := errors.New("fail")
	var gotErr error
	successCalled := false

	d := New(nil,
		WithOnFailure(func(ctx context.Context, kind Kind, key string, err error, duration time.Duration) {
			gotErr = err
		}),
		WithOnSuccess(func(ctx context.Context, kind Kind, key string, duration time.Duration) {
			successCalled = true
		}),
	)
	d.AddMessageFunc(Always(), func(ctx context.Context, m *Message, d *Dispatcher) error {
		return wantErr
	})

	err := d.DispatchMessage(context.Background(), message("hi"))

	s.Error(err)
	s.Equal(wantErr, gotErr)
	s.False(successCalled)
}

func (s *HooksSuite) TestOnUnmatchedForEachKind() {
	var got []string

	d := New(nil, WithOnUnmatched(func(ctx context.Context, kind Kind, key string) {
		got = append(got, kind.String()+":"+key)
	}))
	d.AddMessageFunc(Equals("ping"), func(ctx context.Context, m *Message, d *Dispatcher) error { return nil })

	s.Require().NoError(d.DispatchMessage(context.Background(), message("pong")))
	s.Require().NoError(d.DispatchCommand(context.Background(), command("/forecast")))
	s.Require().NoError(d.DispatchSubmission(context.Background(), submission("cb-9", nil)))

	s.Equal([]string{"message:", "command:/forecast", "submission:cb-9"}, got)
}

func (s *HooksSuite) TestOnUnmatchedNotCalledOnMatch() {
	called := false

	d := New(nil, WithOnUnmatched(func(ctx context.Context, kind Kind, key string) {
		called = true
	}))
	d.AddMessageFunc(Equals("ping"), func(ctx context.Context, m *Message, d *Dispatcher) error { return nil })

	s.Require().NoError(d.DispatchMessage(context.Background(), message("ping")))
	s.False(called)
}

func (s *HooksSuite) TestMultipleHooksCalledInOrder() {
	var order []string

	d := New(nil,
		WithOnDispatch(func(ctx context.Context, kind Kind, key string) { order = append(order, "first") }),
		WithOnDispatch(func(ctx context.Context, kind Kind, key string) { order = append(order, "second") }),
	)
	d.AddMessageFunc(Always(), func(ctx context.Context, m *Message, d *Dispatcher) error { return nil })

	s.Require().NoError(d.DispatchMessage(context.Background(), message("hi")))
	s.Equal([]string{"first", "second"}, order)
}

func (s *HooksSuite) TestHooksSeeDispatchContext() {
	type key struct{}
	var got any

	d := New(nil, WithOnDispatch(func(ctx context.Context, kind Kind, k string) {
		got = ctx.Value(key{})
	}))
	d.AddMessageFunc(Always(), func(ctx context.Context, m *Message, d *Dispatcher) error { return nil })

	ctx := context.WithValue(context.Background(), key{}, "delivery-1")
	s.Require().NoError(d.DispatchMessage(ctx, message("hi")))
	s.Equal("delivery-1", got)
}
