package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bjaus/slackdispatch/cmd/slackdispatch/internal/serve"
	"github.com/bjaus/slackdispatch/cmd/slackdispatch/internal/version"
)

func NewSlackdispatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "slackdispatch",
		Short:        "Slack webhook dispatcher",
		Example:      "slackdispatch serve --config slackdispatch.json",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewSlackdispatchCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
