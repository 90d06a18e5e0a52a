package slackdispatch

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Client is the subset of the Slack Web API the dispatcher calls.
// *slack.Client satisfies it; tests substitute a fake.
type Client interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
	OpenDialogContext(ctx context.Context, triggerID string, dialog slack.Dialog) error
}

var _ Client = (*slack.Client)(nil)

// Reply posts text to the channel the payload came from.
func (d *Dispatcher) Reply(ctx context.Context, to Replyable, text string, opts ...slack.MsgOption) *Response {
	return d.Post(ctx, to.ReplyChannel(), text, opts...)
}

// ReplyEphemeral posts text visible only to the payload's user, in the
// channel the payload came from.
func (d *Dispatcher) ReplyEphemeral(ctx context.Context, to Replyable, text string, opts ...slack.MsgOption) *Response {
	return d.PostEphemeral(ctx, to.ReplyChannel(), to.ReplyUser(), text, opts...)
}

// Post posts text to channel. Extra options are applied after the text, so
// blocks or a thread timestamp can be added.
//
// Post returns immediately; the call runs in the background.
func (d *Dispatcher) Post(ctx context.Context, channel, text string, opts ...slack.MsgOption) *Response {
	if err := d.acquire(); err != nil {
		return failedResponse(err)
	}
	options := append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)

	return d.launch(ctx, func(ctx context.Context) (Reply, error) {
		ch, ts, err := d.client.PostMessageContext(ctx, channel, options...)
		if err != nil {
			return Reply{}, fmt.Errorf("post message to %s: %w", channel, err)
		}
		return Reply{Channel: ch, Timestamp: ts}, nil
	})
}

// PostEphemeral posts text to channel, visible only to user.
func (d *Dispatcher) PostEphemeral(ctx context.Context, channel, user, text string, opts ...slack.MsgOption) *Response {
	if err := d.acquire(); err != nil {
		return failedResponse(err)
	}
	options := append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)

	return d.launch(ctx, func(ctx context.Context) (Reply, error) {
		ts, err := d.client.PostEphemeralContext(ctx, channel, user, options...)
		if err != nil {
			return Reply{}, fmt.Errorf("post ephemeral to %s/%s: %w", channel, user, err)
		}
		return Reply{Channel: channel, Timestamp: ts}, nil
	})
}

// OpenDialog opens dialog in response to cmd and arranges for onSubmit to run
// when the dialog is submitted.
//
// The continuation is stored under dialog.CallbackID before the request is
// sent, so the submission can never arrive ahead of it. Opening another
// dialog with the same callback ID replaces the continuation. If the open
// request fails, the continuation is withdrawn again unless it has already
// been replaced.
//
// Example:
//
//	d.AddCommandFunc("/weather", func(ctx context.Context, cmd *slackdispatch.Command, d *slackdispatch.Dispatcher) error {
//	    d.OpenDialog(ctx, cmd, weatherDialog, func(ctx context.Context, sub *slackdispatch.Submission, d *slackdispatch.Dispatcher) error {
//	        d.Reply(ctx, sub, "Looking up "+sub.Value("city"))
//	        return nil
//	    })
//	    return nil
//	})
func (d *Dispatcher) OpenDialog(ctx context.Context, cmd *Command, dialog slack.Dialog, onSubmit SubmissionFunc) *Response {
	return d.OpenDialogWithTrigger(ctx, cmd.TriggerID, dialog, onSubmit)
}

// OpenDialogWithTrigger is OpenDialog for callers holding a trigger ID rather
// than the command that issued it. A nil onSubmit opens the dialog without
// waiting for its submission.
func (d *Dispatcher) OpenDialogWithTrigger(ctx context.Context, triggerID string, dialog slack.Dialog, onSubmit SubmissionFunc) *Response {
	id := dialog.CallbackID
	if id == "" {
		return failedResponse(ErrMissingCallbackID)
	}
	if triggerID == "" {
		return failedResponse(ErrMissingTriggerID)
	}
	if err := d.acquire(); err != nil {
		return failedResponse(err)
	}

	var p *pending
	if onSubmit != nil {
		p = d.pending.put(id, onSubmit)
	}

	return d.launch(ctx, func(ctx context.Context) (Reply, error) {
		if err := d.client.OpenDialogContext(ctx, triggerID, dialog); err != nil {
			if p != nil && d.pending.withdraw(id, p) {
				d.logger.Debug("pending dialog withdrawn", "callback_id", id)
			}
			return Reply{}, fmt.Errorf("open dialog %q: %w", id, err)
		}
		return Reply{}, nil
	})
}

// Close stops the dispatcher from starting new outbound calls and waits for
// the ones in flight to settle. Dispatching keeps working after Close; only
// outbound calls are refused, with ErrClosed.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.callMu.Lock()
	d.closed = true
	d.callMu.Unlock()

	done := make(chan struct{})
	go func() {
		d.calls.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for outbound calls: %w", ctx.Err())
	}
}

// acquire reserves a slot for one outbound call. It fails once Close has
// been called, or when there is no client to call.
func (d *Dispatcher) acquire() error {
	if d.client == nil {
		return ErrNoClient
	}

	d.callMu.Lock()
	defer d.callMu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.calls.Add(1)
	return nil
}

// launch runs call in the background on a context that survives the
// caller's cancellation, releasing the slot taken by acquire when done.
func (d *Dispatcher) launch(ctx context.Context, call func(context.Context) (Reply, error)) *Response {
	r := newResponse()

	go func() {
		defer d.calls.Done()

		callCtx := context.WithoutCancel(ctx)
		if d.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, d.callTimeout)
			defer cancel()
		}

		reply, err := call(callCtx)
		r.settle(reply, err)
	}()

	return r
}
