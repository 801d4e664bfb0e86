package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/contrast"
	"github.com/gogpu/contrast/settings"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	settingsPath string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "contrastlens",
		Short:         "Find low-contrast regions in screen captures",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				contrast.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			if opts.settingsPath == "" {
				p, err := settings.DefaultPath()
				if err != nil {
					return err
				}
				opts.settingsPath = p
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "settings file (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(newAnalyzeCmd(opts), newRatioCmd(), newSettingsCmd(opts))
	return cmd
}
