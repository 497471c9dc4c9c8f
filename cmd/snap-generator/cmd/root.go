package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/snap-generator/internal/config"
	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/logger"
	"github.com/oshokin/snap-generator/internal/service/generator"
	"github.com/oshokin/snap-generator/internal/version"
)

const (
	// minArgs is the smallest positional argument count of any preset.
	minArgs = 4

	usageLine = "snap-generator <template> <output> [<main-part>] <version> <url> [<override>...]"
)

// ErrUsage indicates a wrong number of positional arguments.
var ErrUsage = errors.New("invalid usage")

// rootFlags holds the values bound to the root command flags.
type rootFlags struct {
	// presetName selects a built-in or user preset.
	presetName string
	// presetFile loads the preset from a YAML file.
	presetFile string
	// policy overrides the preset's conflict policy.
	policy preset.Policy
	// logLevel is applied before the run starts.
	logLevel levelValue
}

// Execute runs the snap-generator CLI and exits with non-zero status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := run(ctx, os.Args[1:])

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with args and logs a failure once.
func run(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "snap-generator failed", "error", err)
	}

	return err
}

// newRootCommand builds the command tree. A fresh tree per call keeps flag
// state out of package globals.
func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   usageLine,
		Short: "Generate a snapcraft manifest from a template and override fragments",
		Long: "Generate a snapcraft manifest from a template.\n\n" +
			"The template is merged with the \"pre\" phase of every override fragment, then package\n" +
			"repositories, the build matrix, lint settings, the version, the icon path and the main\n" +
			"part are injected, and finally the \"post\" phase of every fragment is merged on top.\n" +
			"The <main-part> argument is only taken by presets that require it.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, flags, args)
		},
	}

	root.Flags().StringVarP(&flags.presetName, "preset", "p", string(preset.DefaultVersion),
		"configuration version: a built-in preset or a preset saved in the user config directory")
	root.Flags().StringVar(&flags.presetFile, "preset-file", "", "load the preset from a YAML file")
	root.Flags().Var(&policyValue{policy: &flags.policy}, "conflicts",
		"conflict policy for override fragments (strict or permissive), defaults to the preset's policy")
	root.PersistentFlags().Var(&flags.logLevel, "log-level", "log level (debug, info, warn, error)")

	root.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		flags.logLevel.apply()
	}

	version.AttachCobraVersionCommand(root)
	root.AddCommand(newPresetsCommand())

	return root
}

// runGenerate splits positional arguments according to the preset and runs the generator.
func runGenerate(cmd *cobra.Command, flags *rootFlags, args []string) error {
	if len(args) < minArgs {
		return usageError(cmd, minArgs, len(args))
	}

	p, err := config.ResolvePreset(flags.presetName, flags.presetFile)
	if err != nil {
		return err
	}

	opts, err := parseArgs(p, args)
	if err != nil {
		_ = cmd.Usage()

		return err
	}

	opts.Preset = p
	opts.Policy = flags.policy

	return generator.Run(cmd.Context(), opts)
}

// parseArgs maps positional arguments onto generator options.
func parseArgs(p *preset.Preset, args []string) (*generator.Options, error) {
	required := minArgs
	if p.MainPartArgument {
		required++
	}

	if len(args) < required {
		return nil, fmt.Errorf("%w: preset %s needs at least %d arguments, got %d",
			ErrUsage, p.Name, required, len(args))
	}

	opts := &generator.Options{
		TemplatePath: args[0],
		OutputPath:   args[1],
	}

	rest := args[2:]

	if p.MainPartArgument {
		opts.MainPart = rest[0]
		rest = rest[1:]
	}

	opts.Version = rest[0]
	opts.SourceURL = rest[1]
	opts.Overrides = append([]string(nil), rest[2:]...)

	return opts, nil
}

func usageError(cmd *cobra.Command, want, got int) error {
	_ = cmd.Usage()

	return fmt.Errorf("%w: need at least %d arguments, got %d", ErrUsage, want, got)
}
