package serve

import (
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	debug      bool
	addr       string
}

func NewServeCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the webhook server with the demo bot",
		Example: "SLACKDISPATCH_SLACK_BOT_TOKEN=xoxb-... slackdispatch serve --addr :3000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a JSON config file")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides config)")

	return cmd
}
