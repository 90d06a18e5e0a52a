package slackdispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPayload is returned by Dispatch for a value that is not a
	// *Message, *Command or *Submission.
	ErrUnsupportedPayload = errors.New("unsupported payload type")

	// ErrMissingCallbackID is reported by the Response of an OpenDialog call
	// whose dialog has no callback ID to correlate the submission with.
	ErrMissingCallbackID = errors.New("dialog has no callback ID")

	// ErrMissingTriggerID is reported by the Response of an OpenDialog call
	// without a trigger ID.
	ErrMissingTriggerID = errors.New("missing trigger ID")

	// ErrNoClient is reported by the Response of any outbound call made on a
	// dispatcher created without a client.
	ErrNoClient = errors.New("no Slack client configured")

	// ErrClosed is reported by the Response of any outbound call made after
	// Close.
	ErrClosed = errors.New("dispatcher closed")
)

// HandlerError wraps an error returned by an application handler. Routing
// misses never produce one.
type HandlerError struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *HandlerError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s handler: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s handler %q: %v", e.Kind, e.Key, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
