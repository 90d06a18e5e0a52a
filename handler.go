package slackdispatch

import (
	"context"
)

// MessageHandler handles a message event whose text satisfied the predicate
// it was registered with.
//
// The dispatcher is passed explicitly so handlers can reply without holding a
// reference of their own:
//
//	type pingHandler struct{}
//
//	func (pingHandler) HandleMessage(ctx context.Context, m *slackdispatch.Message, d *slackdispatch.Dispatcher) error {
//	    d.Reply(ctx, m, "pong")
//	    return nil
//	}
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *Message, d *Dispatcher) error
}

// MessageHandlerFunc is a function adapter for MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg *Message, d *Dispatcher) error

// HandleMessage implements the MessageHandler interface.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg *Message, d *Dispatcher) error {
	return f(ctx, msg, d)
}

// MessageListener is a handler that decides for itself which texts it is
// responsible for. Register it with Dispatcher.AddMessageListener.
type MessageListener interface {
	MessageHandler

	// Responsible reports whether the listener wants a message with this text.
	Responsible(text string) bool
}

// CommandHandler handles a slash command registered under its exact name.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd *Command, d *Dispatcher) error
}

// CommandHandlerFunc is a function adapter for CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cmd *Command, d *Dispatcher) error

// HandleCommand implements the CommandHandler interface.
func (f CommandHandlerFunc) HandleCommand(ctx context.Context, cmd *Command, d *Dispatcher) error {
	return f(ctx, cmd, d)
}

// CommandListener is a handler that carries the command name it answers to.
// Register it with Dispatcher.AddCommandListener.
type CommandListener interface {
	CommandHandler

	// Command returns the slash command name, including the leading slash.
	Command() string
}

// SubmissionFunc is the continuation stored when a dialog is opened. It runs
// at most once, when the submission carrying the dialog's callback ID arrives.
type SubmissionFunc func(ctx context.Context, sub *Submission, d *Dispatcher) error
