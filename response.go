package slackdispatch

import (
	"context"
)

// Reply describes what Slack returned for a successful outbound call.
// Timestamp is empty for dialog opens.
type Reply struct {
	Channel   string
	Timestamp string
}

// Response is the eventual result of an outbound call. It settles exactly
// once; handlers may ignore it, block on Wait, or select on Done.
type Response struct {
	done  chan struct{}
	reply Reply
	err   error
}

func newResponse() *Response {
	return &Response{done: make(chan struct{})}
}

// failedResponse returns a Response that has already settled with err.
func failedResponse(err error) *Response {
	r := newResponse()
	r.settle(Reply{}, err)
	return r
}

func (r *Response) settle(reply Reply, err error) {
	r.reply = reply
	r.err = err
	close(r.done)
}

// Done returns a channel closed once the call has settled.
func (r *Response) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the call settles or ctx is done.
func (r *Response) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-r.done:
		return r.reply, r.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Err returns the call's error once it has settled, and nil before that.
func (r *Response) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
