package slackdispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Reply(t *testing.T) {
	t.Run("posts to the payload channel", func(t *testing.T) {
		client := &fakeClient{}
		d := New(client)

		reply, err := d.Reply(context.Background(), message("ping"), "pong").Wait(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "C1", reply.Channel)
		assert.NotEmpty(t, reply.Timestamp)
		assert.Equal(t, []fakePost{{Channel: "C1"}}, client.posts)
	})

	t.Run("ephemeral reply targets the payload user", func(t *testing.T) {
		client := &fakeClient{}
		d := New(client)

		_, err := d.ReplyEphemeral(context.Background(), command("/echo"), "hi").Wait(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []fakePost{{Channel: "C1", User: "U1", Ephemeral: true}}, client.posts)
	})

	t.Run("client failure is reported through the response", func(t *testing.T) {
		client := &fakeClient{postErr: errors.New("channel_not_found")}
		d := New(client)

		_, err := d.Post(context.Background(), "C9", "hi").Wait(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, client.postErr)
		assert.Contains(t, err.Error(), "C9")
	})

	t.Run("call outlives the dispatch context", func(t *testing.T) {
		client := &fakeClient{block: make(chan struct{})}
		d := New(client)

		ctx, cancel := context.WithCancel(context.Background())
		r := d.Reply(ctx, message("ping"), "pong")
		cancel()
		close(client.block)

		_, err := r.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, client.postCount())
	})

	t.Run("call timeout bounds a slow call", func(t *testing.T) {
		client := &fakeClient{block: make(chan struct{})}
		defer close(client.block)
		d := New(client, WithCallTimeout(10*time.Millisecond))

		_, err := d.Post(context.Background(), "C1", "hi").Wait(context.Background())

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("nil client fails every call", func(t *testing.T) {
		d := New(nil)

		r := d.Reply(context.Background(), message("ping"), "pong")

		assert.ErrorIs(t, r.Err(), ErrNoClient)
	})
}

func TestDispatcher_Close(t *testing.T) {
	t.Run("waits for calls in flight", func(t *testing.T) {
		client := &fakeClient{block: make(chan struct{})}
		d := New(client)
		r := d.Post(context.Background(), "C1", "hi")

		closed := make(chan error, 1)
		go func() { closed <- d.Close(context.Background()) }()

		select {
		case <-closed:
			t.Fatal("Close returned before the call settled")
		case <-time.After(20 * time.Millisecond):
		}

		close(client.block)
		require.NoError(t, <-closed)
		assert.NoError(t, r.Err())
	})

	t.Run("refuses calls afterwards", func(t *testing.T) {
		d := New(&fakeClient{})
		require.NoError(t, d.Close(context.Background()))

		r := d.Post(context.Background(), "C1", "hi")

		assert.ErrorIs(t, r.Err(), ErrClosed)
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		client := &fakeClient{block: make(chan struct{})}
		defer close(client.block)
		d := New(client, WithCallTimeout(0))
		d.Post(context.Background(), "C1", "hi")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
	})

	t.Run("dispatch keeps working", func(t *testing.T) {
		d := New(&fakeClient{})
		called := false
		d.AddMessageFunc(Always(), func(ctx context.Context, m *Message, d *Dispatcher) error {
			called = true
			return nil
		})
		require.NoError(t, d.Close(context.Background()))

		require.NoError(t, d.DispatchMessage(context.Background(), message("hi")))
		assert.True(t, called)
	})
}

func TestResponse(t *testing.T) {
	t.Run("Err is nil until settled", func(t *testing.T) {
		r := newResponse()
		assert.NoError(t, r.Err())

		r.settle(Reply{}, errors.New("late"))
		assert.EqualError(t, r.Err(), "late")
	})

	t.Run("Wait honours its context", func(t *testing.T) {
		r := newResponse()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Wait(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Done closes on settle", func(t *testing.T) {
		r := failedResponse(ErrClosed)
		select {
		case <-r.Done():
		default:
			t.Fatal("Done not closed")
		}
	})
}

