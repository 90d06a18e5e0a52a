package webhook

import (
	"context"

	"github.com/slack-go/slack"
)

// stubClient accepts every outbound call.
type stubClient struct{}

func (stubClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	return channelID, "1700000000.000100", nil
}

func (stubClient) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	return "1700000000.000200", nil
}

func (stubClient) OpenDialogContext(ctx context.Context, triggerID string, dialog slack.Dialog) error {
	return nil
}

func slackCommand(name string) slack.SlashCommand {
	return slack.SlashCommand{Command: name, ChannelID: "C1", UserID: "U1", TriggerID: "T1"}
}

func weatherDialog(callbackID string) slack.Dialog {
	return slack.Dialog{
		CallbackID:  callbackID,
		Title:       "Weather",
		SubmitLabel: "Go",
		Elements:    []slack.DialogElement{slack.NewTextInput("city", "City", "")},
	}
}
