package slackdispatch

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
)

// fakeClient records outbound calls instead of talking to Slack.
type fakeClient struct {
	mu        sync.Mutex
	posts     []fakePost
	dialogs   []slack.Dialog
	postErr   error
	dialogErr error

	// block, when set, holds every call until it is closed.
	block chan struct{}
}

type fakePost struct {
	Channel   string
	User      string
	Ephemeral bool
}

func (c *fakeClient) wait(ctx context.Context) error {
	if c.block == nil {
		return nil
	}
	select {
	case <-c.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if err := c.wait(ctx); err != nil {
		return "", "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postErr != nil {
		return "", "", c.postErr
	}
	c.posts = append(c.posts, fakePost{Channel: channelID})
	return channelID, "1700000000.000100", nil
}

func (c *fakeClient) PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postErr != nil {
		return "", c.postErr
	}
	c.posts = append(c.posts, fakePost{Channel: channelID, User: userID, Ephemeral: true})
	return "1700000000.000200", nil
}

func (c *fakeClient) OpenDialogContext(ctx context.Context, triggerID string, dialog slack.Dialog) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialogErr != nil {
		return c.dialogErr
	}
	c.dialogs = append(c.dialogs, dialog)
	return nil
}

func (c *fakeClient) postCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.posts)
}

func (c *fakeClient) dialogCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dialogs)
}
