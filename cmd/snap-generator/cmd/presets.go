package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oshokin/snap-generator/internal/config"
	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/logger"
)

// newPresetsCommand lists built-in presets and exports them for customization.
func newPresetsCommand() *cobra.Command {
	presets := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in configuration versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			_, _ = fmt.Fprintln(w, "NAME\tPOLICY\tMAIN PART ARG\tPLATFORMS\tDESCRIPTION")

			for _, version := range preset.Versions() {
				p, err := preset.Builtin(version)
				if err != nil {
					return err
				}

				marker := ""
				if version == preset.DefaultVersion {
					marker = " (default)"
				}

				_, _ = fmt.Fprintf(w, "%s%s\t%s\t%t\t%s\t%s\n",
					p.Name, marker, p.Policy, p.MainPartArgument, p.PlatformStyle, p.Description)
			}

			return w.Flush()
		},
	}

	presets.AddCommand(&cobra.Command{
		Use:   "export <name> [path]",
		Short: "Write a preset as YAML, by default into the user config directory",
		Long: "Write a preset as YAML so it can be customized. Without a path the file is placed\n" +
			"where --preset looks for user presets, under the XDG config directory.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.ResolvePreset(args[0], "")
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 2 {
				path = args[1]
			} else if path, err = config.UserPresetPath(p.Name); err != nil {
				return err
			}

			if err = config.SavePreset(path, p); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Preset exported", "preset", p.Name, "path", path)

			return nil
		},
	})

	return presets
}
