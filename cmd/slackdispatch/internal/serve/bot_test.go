package serve

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/slackdispatch"
	"github.com/bjaus/slackdispatch/internal/config"
)

type call struct {
	Method  string
	Channel string
	User    string
	Dialog  string
}

// recordingClient stands in for the Slack Web API.
type recordingClient struct {
	mu    sync.Mutex
	calls []call
}

func (c *recordingClient) record(cl call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, cl)
}

func (c *recordingClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	c.record(call{Method: "chat.postMessage", Channel: channelID})
	return channelID, "1700000000.000100", nil
}

func (c *recordingClient) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	c.record(call{Method: "chat.postEphemeral", Channel: channelID, User: userID})
	return "1700000000.000200", nil
}

func (c *recordingClient) OpenDialogContext(ctx context.Context, triggerID string, dialog slack.Dialog) error {
	c.record(call{Method: "dialog.open", Dialog: dialog.CallbackID})
}

func newTestServer(t *testing.T) (*slackdispatch.Dispatcher, http.Handler, *recordingClient) {
	t.Helper()
	cfg := config.Default()
	cfg.Slack.BotToken = "xoxb-test"

	client := &recordingClient{}
	d, h, err := build(cfg, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return d, h, client
}

func settle(t *testing.T, d *slackdispatch.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
}

func send(t *testing.T, h http.Handler, path, contentType, body string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func sendCommand(t *testing.T, h http.Handler, name, text string) int {
	form := url.Values{
		"command":    {name},
		"text":       {text},
		"channel_id": {"C1"},
		"user_id":    {"U1"},
		"trigger_id": {"T1"},
	}
	return send(t, h, "/slack/commands", "application/x-www-form-urlencoded", form.Encode())
}

func TestBot(t *testing.T) {
	t.Run("ping answers pong", func(t *testing.T) {
		d, h, client := newTestServer(t)

		code := send(t, h, "/slack/events", "application/json",
			`{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":"ping"}}`)
		settle(t, d)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []call{{Method: "chat.postMessage", Channel: "C1"}}, client.calls)
	})

	t.Run("echo replies privately", func(t *testing.T) {
		d, h, client := newTestServer(t)

		code := sendCommand(t, h, "/echo", "hello")
		settle(t, d)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []call{{Method: "chat.postEphemeral", Channel: "C1", User: "U1"}}, client.calls)
	})

	t.Run("weather with a city replies directly", func(t *testing.T) {
		d, h, client := newTestServer(t)

		sendCommand(t, h, "/weather", "Oslo")
		settle(t, d)

		assert.Equal(t, []call{{Method: "chat.postMessage", Channel: "C1"}}, client.calls)
		assert.Equal(t, 0, d.Pending())
	})

	t.Run("weather without a city opens a dialog", func(t *testing.T) {
		d, h, client := newTestServer(t)

		require.Equal(t, http.StatusOK, sendCommand(t, h, "/weather", ""))
		require.Eventually(t, func() bool {
			client.mu.Lock()
			defer client.mu.Unlock()
			return len(client.calls) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, d.Pending())

		payload := `{"type":"dialog_submission","callback_id":"` + weatherCallbackID + `","channel":{"id":"C1"},"user":{"id":"U1"},"submission":{"city":"Oslo"}}`
		code := send(t, h, "/slack/interactions", "application/x-www-form-urlencoded", url.Values{"payload": {payload}}.Encode())
		settle(t, d)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []call{
			{Method: "dialog.open", Dialog: weatherCallbackID},
			{Method: "chat.postMessage", Channel: "C1"},
		}, client.calls)
		assert.Equal(t, 0, d.Pending())
	})
}

func TestForecast(t *testing.T) {
	assert.Equal(t, "Weather for Oslo: sunny, 21°C", forecast(" Oslo "))
}
