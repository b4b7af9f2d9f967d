package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "arbor",
		Short:         "Arbor gateway: device keys, telemetry ingest, commands and firmware push",
		Long:          "arbor is the trust boundary between the backend and field sensor nodes. It scores readings, manages per-device keys, decodes relay batches, dispatches encrypted commands and streams firmware over a confirmable datagram protocol.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(configPath, cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.arbor/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newScoreCmd(app),
		newKeysCmd(app),
		newIngestCmd(app),
		newCommandCmd(app),
		newOTACmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
