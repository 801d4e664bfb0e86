package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/contrast/settings"
)

func newSettingsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored analysis settings",
	}

	get := &cobra.Command{
		Use:       "get [KEY]",
		Short:     "Print one or all settings",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(root.settingsPath)
			if err != nil {
				return err
			}
			keys := settings.Keys()
			if len(args) == 1 {
				keys = args
			}
			for _, k := range keys {
				v, err := settings.Get(s, k)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, v)
				}
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set KEY VALUE",
		Short:     "Change a setting",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settings.Keys(),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := settings.Load(root.settingsPath)
			if err != nil {
				return err
			}
			if err := settings.Set(&s, args[0], args[1]); err != nil {
				return err
			}
			return settings.Save(root.settingsPath, s)
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), root.settingsPath)
		},
	}

	cmd.AddCommand(get, set, path)
	return cmd
}
