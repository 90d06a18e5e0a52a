package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/bjaus/slackdispatch"
)

// DefaultMaxBodyBytes caps the size of a request body.
const DefaultMaxBodyBytes = 1 << 20

// Paths are the routes the Handler serves. An empty path disables its route.
type Paths struct {
	Events       string
	Commands     string
	Interactions string
}

// DefaultPaths returns the routes used when WithPaths is not given.
func DefaultPaths() Paths {
	return Paths{
		Events:       "/slack/events",
		Commands:     "/slack/commands",
		Interactions: "/slack/interactions",
	}
}

// Handler is an http.Handler that decodes Slack webhook deliveries and feeds
// them to a Dispatcher.
//
// Every route accepts POST only. When a signing secret is configured each
// request must carry a valid Slack signature. A delivery whose handlers fail
// is answered with 500 so Slack reports the failure to the user.
type Handler struct {
	dispatcher *slackdispatch.Dispatcher
	inspector  Inspector
	logger     *slog.Logger
	secret     string
	paths      Paths
	ignoreBots bool
	maxBody    int64

	mux *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithSigningSecret enables request signature verification.
func WithSigningSecret(secret string) Option {
	return func(h *Handler) {
		h.secret = secret
	}
}

// WithLogger sets the logger for request handling.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithPaths replaces the default routes.
func WithPaths(p Paths) Option {
	return func(h *Handler) {
		h.paths = p
	}
}

// WithIgnoreBotMessages drops message events posted by bots before they are
// dispatched. Without it a bot that answers every message will also answer
// its own replies.
func WithIgnoreBotMessages(ignore bool) Option {
	return func(h *Handler) {
		h.ignoreBots = ignore
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithInspector replaces the JSON inspector used to classify event bodies.
func WithInspector(i Inspector) Option {
	return func(h *Handler) {
		if i != nil {
			h.inspector = i
		}
	}
}

// New returns a Handler dispatching to d.
//
// Example:
//
//	h := webhook.New(d,
//	    webhook.WithSigningSecret(os.Getenv("SLACK_SIGNING_SECRET")),
//	    webhook.WithIgnoreBotMessages(true),
//	)
//	http.ListenAndServe(":3000", h)
func New(d *slackdispatch.Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: d,
		inspector:  JSONInspector(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		paths:      DefaultPaths(),
		maxBody:    DefaultMaxBodyBytes,
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.route(h.paths.Events, h.serveEvents)
	h.route(h.paths.Commands, h.serveCommands)
	h.route(h.paths.Interactions, h.serveInteractions)

	if h.secret == "" {
		h.logger.Warn("no signing secret configured, requests will not be verified")
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// delivery is one verified request.
type delivery struct {
	ctx    context.Context
	body   []byte
	logger *slog.Logger
}

func (h *Handler) route(path string, serve func(http.ResponseWriter, *http.Request, *delivery)) {
	if path == "" {
		return
	}
	h.mux.HandleFunc("POST "+path, func(w http.ResponseWriter, r *http.Request) {
		dl, ok := h.accept(w, r)
		if !ok {
			return
		}
		serve(w, r, dl)
	})
}

// accept reads and verifies the request body. It writes the error response
// itself and reports false when the request must not be processed.
func (h *Handler) accept(w http.ResponseWriter, r *http.Request) (*delivery, bool) {
	id := uuid.NewString()
	logger := h.logger.With("delivery_id", id, "path", r.URL.Path)
	ctx := WithDeliveryID(r.Context(), id)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "request body too large", "limit", tooLarge.Limit)
			http.Error(w, "request body too large", http.StatusBadRequest)
			return nil, false
		}
		logger.WarnContext(ctx, "read request body", "error", err)
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return nil, false
	}

	if err := h.verify(r.Header, body); err != nil {
		logger.WarnContext(ctx, "signature rejected", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return nil, false
	}

	// Slack's form parsers read the body again.
	r.Body = io.NopCloser(bytes.NewReader(body))

	return &delivery{ctx: ctx, body: body, logger: logger}, true
}

func (h *Handler) verify(header http.Header, body []byte) error {
	if h.secret == "" {
		return nil
	}
	sv, err := slack.NewSecretsVerifier(header, h.secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func (h *Handler) serveEvents(w http.ResponseWriter, r *http.Request, dl *delivery) {
	v, err := h.inspector.Inspect(dl.body)
	if err != nil {
		dl.logger.WarnContext(dl.ctx, "malformed event body", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case URLVerification.Match(v):
		challenge, _ := v.GetString("challenge")
		dl.logger.InfoContext(dl.ctx, "url verification")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, challenge)

	case MessageCallback.Match(v):
		if h.ignoreBots && BotMessage.Match(v) {
			dl.logger.DebugContext(dl.ctx, "bot message ignored")
			w.WriteHeader(http.StatusOK)
			return
		}

		ev, err := slackevents.ParseEvent(json.RawMessage(dl.body), slackevents.OptionNoVerifyToken())
		if err != nil {
			dl.logger.WarnContext(dl.ctx, "parse message event", "error", err)
			http.Error(w, "malformed event", http.StatusBadRequest)
			return
		}
		msg, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			dl.logger.DebugContext(dl.ctx, "unexpected inner event", "type", ev.InnerEvent.Type)
			w.WriteHeader(http.StatusOK)
			return
		}
		h.dispatch(w, dl, slackdispatch.NewMessage(*msg))

	default:
		eventType, _ := v.GetString("event.type")
		dl.logger.DebugContext(dl.ctx, "event ignored", "event_type", eventType)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) serveCommands(w http.ResponseWriter, r *http.Request, dl *delivery) {
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		dl.logger.WarnContext(dl.ctx, "parse slash command", "error", err)
		http.Error(w, "malformed command", http.StatusBadRequest)
		return
	}
	h.dispatch(w, dl, slackdispatch.NewCommand(cmd))
}

func (h *Handler) serveInteractions(w http.ResponseWriter, r *http.Request, dl *delivery) {
	cb, err := slack.InteractionCallbackParse(r)
	if err != nil {
		dl.logger.WarnContext(dl.ctx, "parse interaction", "error", err)
		http.Error(w, "malformed interaction", http.StatusBadRequest)
		return
	}
	if cb.Type != slack.InteractionTypeDialogSubmission {
		dl.logger.DebugContext(dl.ctx, "interaction ignored", "type", cb.Type)
		w.WriteHeader(http.StatusOK)
		return
	}
	h.dispatch(w, dl, slackdispatch.NewSubmission(cb))
}

func (h *Handler) dispatch(w http.ResponseWriter, dl *delivery, payload any) {
	if err := h.dispatcher.Dispatch(dl.ctx, payload); err != nil {
		dl.logger.ErrorContext(dl.ctx, "dispatch failed", "error", err)
		http.Error(w, "handler failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
