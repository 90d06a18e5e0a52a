package slackdispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultCallTimeout bounds each outbound Slack API call.
const DefaultCallTimeout = 10 * time.Second

type messageRoute struct {
	pred    Predicate
	handler MessageHandler
}

type commandRoute struct {
	name    string
	handler CommandHandler
}

// Dispatcher routes decoded Slack payloads to registered handlers and owns
// the table of dialogs awaiting submission.
//
// Usage:
//  1. Create a dispatcher with New
//  2. Register handlers with AddMessageHandler and AddCommandHandler
//  3. Feed it payloads with Dispatch (usually from the webhook package)
//  4. Call Close on shutdown to wait for outstanding outbound calls
//
// Dispatcher is safe for concurrent use. Registration may happen at any time,
// but a dispatch only sees handlers registered before it started.
type Dispatcher struct {
	client      Client
	logger      *slog.Logger
	hooks       hooks
	now         func() time.Time
	pendingTTL  time.Duration
	callTimeout time.Duration

	mu       sync.RWMutex
	messages []messageRoute
	commands []commandRoute

	pending *pendingTable

	callMu sync.Mutex
	closed bool
	calls  sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// New creates a Dispatcher that sends outbound calls through client. A nil
// client is allowed for dispatch-only use; outbound calls then fail with
// ErrNoClient.
//
// Example:
//
//	api := slack.New(botToken)
//	d := slackdispatch.New(api,
//	    slackdispatch.WithLogger(logger),
//	    slackdispatch.WithPendingTTL(time.Hour),
//	)
func New(client Client, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:      client,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pending = newPendingTable(d.pendingTTL, d.now)
	return d
}

// WithLogger sets the logger used for debug tracing of received payloads.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithPendingTTL bounds how long an opened dialog waits for its submission.
// Zero, the default, keeps entries until they are consumed.
func WithPendingTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		d.pendingTTL = ttl
	}
}

// WithCallTimeout bounds each outbound API call. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.callTimeout = timeout
	}
}

// WithClock replaces time.Now for TTL bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// AddMessageHandler registers h for every message whose text satisfies p.
// Handlers run in registration order and several may match one message.
func (d *Dispatcher) AddMessageHandler(p Predicate, h MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, messageRoute{pred: p, handler: h})
}

// AddMessageFunc is a convenience for registering a handler function.
//
// Example:
//
//	d.AddMessageFunc(slackdispatch.HasPrefix("ping"), func(ctx context.Context, m *slackdispatch.Message, d *slackdispatch.Dispatcher) error {
//	    d.Reply(ctx, m, "pong")
//	    return nil
//	})
func (d *Dispatcher) AddMessageFunc(p Predicate, fn func(ctx context.Context, msg *Message, d *Dispatcher) error) {
	d.AddMessageHandler(p, MessageHandlerFunc(fn))
}

// AddMessageListener registers a listener that carries its own predicate.
func (d *Dispatcher) AddMessageListener(l MessageListener) {
	d.AddMessageHandler(PredicateFunc(l.Responsible), l)
}

// AddCommandHandler registers h for the slash command named name, including
// the leading slash. Matching is exact and case sensitive. Registering the
// same name twice is allowed and both handlers run.
func (d *Dispatcher) AddCommandHandler(name string, h CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, commandRoute{name: name, handler: h})
}

// AddCommandFunc is a convenience for registering a handler function.
func (d *Dispatcher) AddCommandFunc(name string, fn func(ctx context.Context, cmd *Command, d *Dispatcher) error) {
	d.AddCommandHandler(name, CommandHandlerFunc(fn))
}

// AddCommandListener registers a listener under the name it reports.
func (d *Dispatcher) AddCommandListener(l CommandListener) {
	d.AddCommandHandler(l.Command(), l)
}

// Dispatch routes a decoded payload by its kind. payload must be a *Message,
// *Command or *Submission.
//
// A payload that reaches no handler is dropped and Dispatch returns nil. The
// first handler error stops the dispatch and is returned as a *HandlerError.
func (d *Dispatcher) Dispatch(ctx context.Context, payload any) error {
	switch p := payload.(type) {
	case *Message:
		return d.DispatchMessage(ctx, p)
	case *Command:
		return d.DispatchCommand(ctx, p)
	case *Submission:
		return d.DispatchSubmission(ctx, p)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

// DispatchMessage runs every message handler whose predicate matches the
// message text, in registration order.
func (d *Dispatcher) DispatchMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrUnsupportedPayload)
	}
	d.logger.DebugContext(ctx, "message received",
		"channel", msg.Channel, "user", msg.User, "text", msg.Text)

	d.mu.RLock()
	routes := d.messages
	d.mu.RUnlock()

	matched := false
	for _, r := range routes {
		if !r.pred.Match(msg.Text) {
			continue
		}
		matched = true

		err := d.invoke(ctx, KindMessage, "", func(ctx context.Context) error {
			return r.handler.HandleMessage(ctx, msg, d)
		})
		if err != nil {
			return err
		}
	}

	if !matched {
		d.callOnUnmatched(ctx, KindMessage, "")
	}
	return nil
}

// DispatchCommand runs every command handler registered under the command's
// exact name, in registration order. Unknown commands are dropped; Slack is
// responsible for telling the user.
func (d *Dispatcher) DispatchCommand(ctx context.Context, cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrUnsupportedPayload)
	}
	d.logger.DebugContext(ctx, "command received",
		"command", cmd.Command, "channel", cmd.ChannelID, "user", cmd.UserID, "text", cmd.Text)

	d.mu.RLock()
	routes := d.commands
	d.mu.RUnlock()

	matched := false
	for _, r := range routes {
		if r.name != cmd.Command {
			continue
		}
		matched = true

		err := d.invoke(ctx, KindCommand, cmd.Command, func(ctx context.Context) error {
			return r.handler.HandleCommand(ctx, cmd, d)
		})
		if err != nil {
			return err
		}
	}

	if !matched {
		d.callOnUnmatched(ctx, KindCommand, cmd.Command)
	}
	return nil
}

// DispatchSubmission resolves the dialog continuation stored under the
// submission's callback ID. The continuation is removed before it runs, so
// it fires at most once however many times the submission is delivered.
// Unknown, consumed and expired callback IDs are dropped.
func (d *Dispatcher) DispatchSubmission(ctx context.Context, sub *Submission) error {
	if sub == nil {
		return fmt.Errorf("%w: nil submission", ErrUnsupportedPayload)
	}
	d.logger.DebugContext(ctx, "submission received",
		"callback_id", sub.CallbackID, "user", sub.User.ID)

	fn, ok := d.pending.take(sub.CallbackID)
	if !ok {
		d.callOnUnmatched(ctx, KindSubmission, sub.CallbackID)
		return nil
	}

	return d.invoke(ctx, KindSubmission, sub.CallbackID, func(ctx context.Context) error {
		return fn(ctx, sub, d)
	})
}

// Pending returns the number of dialogs awaiting submission, including
// expired entries not yet swept.
func (d *Dispatcher) Pending() int {
	return d.pending.len()
}

// Sweep evicts pending dialogs older than the configured TTL and returns how
// many were evicted. It is a no-op without a TTL.
func (d *Dispatcher) Sweep() int {
	evicted := d.pending.sweep()
	for _, id := range evicted {
		d.logger.Debug("pending dialog expired", "callback_id", id)
		d.callOnExpired(id)
	}
	return len(evicted)
}

// invoke runs one handler between the dispatch hooks.
func (d *Dispatcher) invoke(ctx context.Context, kind Kind, key string, fn func(context.Context) error) error {
	d.callOnDispatch(ctx, kind, key)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		d.callOnFailure(ctx, kind, key, err, duration)
		return &HandlerError{Kind: kind, Key: key, Err: err}
	}

	d.callOnSuccess(ctx, kind, key, duration)
	return nil
}
