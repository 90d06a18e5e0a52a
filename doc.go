// Package slackdispatch routes Slack webhook payloads to application handlers.
//
// Slack delivers three kinds of payload this package cares about: message
// events from the Events API, slash command invocations, and dialog
// submissions from the interactivity endpoint. A Dispatcher classifies each
// decoded payload and invokes the handlers registered for it, and it
// correlates dialogs it opened with the submissions Slack later sends back.
//
// # Quick Start
//
//	api := slack.New(botToken)
//	d := slackdispatch.New(api)
//
//	d.AddMessageFunc(slackdispatch.HasPrefix("ping"), func(ctx context.Context, m *slackdispatch.Message, d *slackdispatch.Dispatcher) error {
//	    d.Reply(ctx, m, "pong")
//	    return nil
//	})
//
//	d.AddCommandFunc("/weather", func(ctx context.Context, cmd *slackdispatch.Command, d *slackdispatch.Dispatcher) error {
//	    d.ReplyEphemeral(ctx, cmd, "Sunny")
//	    return nil
//	})
//
//	http.Handle("/", webhook.New(d, webhook.WithSigningSecret(secret)))
//
// The webhook package turns HTTP requests into payloads; anything else that
// can produce a *Message, *Command or *Submission can call Dispatch directly.
//
// # Routing
//
// Message handlers are registered with a Predicate over the message text.
// Every handler whose predicate matches runs, in registration order:
//
//	d.AddMessageHandler(slackdispatch.And(
//	    slackdispatch.HasPrefix("deploy"),
//	    slackdispatch.Not(slackdispatch.Contains("prod")),
//	), deployHandler)
//
// Composable predicates are provided:
//   - HasPrefix, HasSuffix, Contains, Equals, EqualFold, Matches
//   - And, Or, Not
//   - Always, PredicateFunc
//
// Command handlers are registered under the exact command name, including
// the leading slash. Names are case sensitive and may be registered more
// than once; every handler under the name runs.
//
// Payloads that reach no handler are dropped without error. Use
// WithOnUnmatched to observe them.
//
// # Dialogs
//
// OpenDialog stores a one-shot continuation under the dialog's callback ID,
// then asks Slack to open the dialog:
//
//	d.OpenDialog(ctx, cmd, dialog, func(ctx context.Context, sub *slackdispatch.Submission, d *slackdispatch.Dispatcher) error {
//	    d.Reply(ctx, sub, "Thanks, "+sub.Value("name"))
//	    return nil
//	})
//
// The continuation runs when the first submission carrying that callback ID
// is dispatched, and is removed before it runs. Opening a second dialog with
// the same callback ID replaces the continuation. Submissions for unknown or
// already consumed callback IDs are dropped.
//
// By default a continuation waits forever. WithPendingTTL bounds the wait;
// expired continuations are ignored on lookup and evicted by Sweep.
//
// # Outbound Calls
//
// Reply, ReplyEphemeral, Post, PostEphemeral and OpenDialog return a
// *Response immediately and make the Web API call in the background. A
// handler can ignore the Response or wait on it:
//
//	if _, err := d.Reply(ctx, m, "pong").Wait(ctx); err != nil {
//	    return err
//	}
//
// Calls run on a context detached from the dispatch context, so they outlive
// the webhook request that triggered them. Close waits for them to finish.
//
// # Hooks
//
// Hooks provide observability without coupling to specific logging or
// metrics systems:
//
//	d := slackdispatch.New(api,
//	    slackdispatch.WithOnFailure(func(ctx context.Context, kind slackdispatch.Kind, key string, err error, d time.Duration) {
//	        logger.Error("handler failed", "kind", kind, "key", key, "error", err)
//	    }),
//	    slackdispatch.WithOnUnmatched(func(ctx context.Context, kind slackdispatch.Kind, key string) {
//	        logger.Debug("dropped", "kind", kind, "key", key)
//	    }),
//	)
//
// Available hooks:
//   - WithOnDispatch: Called just before a handler executes
//   - WithOnSuccess: Called after a handler succeeds
//   - WithOnFailure: Called after a handler fails
//   - WithOnUnmatched: Called when a payload reaches no handler
//   - WithOnExpired: Called for each continuation evicted by Sweep
//
// The telemetry package builds these hooks on OpenTelemetry instruments.
//
// # Error Handling
//
// Handler errors are not retried. The first handler error stops the
// dispatch and is returned as a *HandlerError; the webhook package answers
// such deliveries with a server error. Failed outbound calls are reported
// only through their Response.
package slackdispatch
