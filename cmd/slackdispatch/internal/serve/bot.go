package serve

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/bjaus/slackdispatch"
)

const weatherCallbackID = "weather-city"

// register installs the demo handlers: "ping" answers "pong", /echo repeats
// its text privately, and /weather asks for a city in a dialog.
func register(d *slackdispatch.Dispatcher) {
	d.AddMessageFunc(slackdispatch.HasPrefix("ping"), ping)
	d.AddCommandFunc("/echo", echo)
	d.AddCommandListener(weather{})
}

func ping(ctx context.Context, m *slackdispatch.Message, d *slackdispatch.Dispatcher) error {
	d.Reply(ctx, m, "pong")
	return nil
}

func echo(ctx context.Context, cmd *slackdispatch.Command, d *slackdispatch.Dispatcher) error {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		text = "Nothing to echo."
	}
	d.ReplyEphemeral(ctx, cmd, text)
	return nil
}

type weather struct{}

func (weather) Command() string { return "/weather" }

func (weather) HandleCommand(ctx context.Context, cmd *slackdispatch.Command, d *slackdispatch.Dispatcher) error {
	if city := strings.TrimSpace(cmd.Text); city != "" {
		d.Reply(ctx, cmd, forecast(city))
		return nil
	}

	d.OpenDialog(ctx, cmd, weatherDialog(), func(ctx context.Context, sub *slackdispatch.Submission, d *slackdispatch.Dispatcher) error {
		d.Reply(ctx, sub, forecast(sub.Value("city")))
		return nil
	})
	return nil
}

func weatherDialog() slack.Dialog {
	city := slack.NewTextInput("city", "City", "")
	city.Placeholder = "Oslo"

	return slack.Dialog{
		CallbackID:  weatherCallbackID,
		Title:       "Weather",
		SubmitLabel: "Look up",
		Elements:    []slack.DialogElement{city},
	}
}

func forecast(city string) string {
	return fmt.Sprintf("Weather for %s: sunny, 21°C", strings.TrimSpace(city))
}
