package slackdispatch

import (
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// Kind identifies which of the three inbound payload shapes a dispatch is
// handling.
type Kind int

const (
	// KindMessage is a message event from the Events API.
	KindMessage Kind = iota + 1
	// KindCommand is a slash command invocation.
	KindCommand
	// KindSubmission is a dialog submission from the interactivity endpoint.
	KindSubmission
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindCommand:
		return "command"
	case KindSubmission:
		return "submission"
	default:
		return "unknown"
	}
}

// Replyable is implemented by every inbound payload that can be answered.
// It is the only contract the dispatcher relies on across payload kinds.
type Replyable interface {
	// ReplyChannel returns the channel a reply should be posted to.
	ReplyChannel() string

	// ReplyUser returns the user an ephemeral reply should be visible to.
	ReplyUser() string
}

// Message is a message event delivered through the Events API.
type Message struct {
	slackevents.MessageEvent
}

// NewMessage wraps a decoded message event.
func NewMessage(ev slackevents.MessageEvent) *Message {
	return &Message{MessageEvent: ev}
}

func (m *Message) ReplyChannel() string { return m.Channel }
func (m *Message) ReplyUser() string    { return m.User }

// Command is a slash command invocation. Its TriggerID is what allows a
// handler to open a dialog in response, and it is only valid for a few
// seconds after Slack issues it.
type Command struct {
	slack.SlashCommand
}

// NewCommand wraps a parsed slash command.
func NewCommand(cmd slack.SlashCommand) *Command {
	return &Command{SlashCommand: cmd}
}

func (c *Command) ReplyChannel() string { return c.ChannelID }
func (c *Command) ReplyUser() string    { return c.UserID }

// Submission is a dialog submission. CallbackID echoes the callback ID of the
// dialog that was opened, and the submitted values are keyed by element name.
type Submission struct {
	slack.InteractionCallback
}

// NewSubmission wraps a decoded interaction callback.
func NewSubmission(cb slack.InteractionCallback) *Submission {
	return &Submission{InteractionCallback: cb}
}

func (s *Submission) ReplyChannel() string { return s.Channel.ID }
func (s *Submission) ReplyUser() string    { return s.User.ID }

// Value returns the submitted value for the named dialog element.
func (s *Submission) Value(name string) string {
	return s.DialogSubmissionCallback.Submission[name]
}

// Values returns all submitted values keyed by element name.
func (s *Submission) Values() map[string]string {
	return s.DialogSubmissionCallback.Submission
}

var (
	_ Replyable = (*Message)(nil)
	_ Replyable = (*Command)(nil)
	_ Replyable = (*Submission)(nil)
)
