package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/snap-generator/internal/config"
	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/domain/tree"
	"github.com/oshokin/snap-generator/internal/logger"
	"github.com/oshokin/snap-generator/internal/repository/document"
	"github.com/oshokin/snap-generator/internal/service/merger"
	"github.com/oshokin/snap-generator/internal/service/synthesizer"
)

// Phase keys recognized at the top level of an override fragment.
const (
	PhasePre  = "pre"
	PhasePost = "post"
)

// Options contains inputs for the generator entry point.
type Options struct {
	// TemplatePath is the base snapcraft.yaml template.
	TemplatePath string
	// OutputPath is where the generated manifest is written.
	OutputPath string
	// MainPart is the part replaced by the prebuilt artifact.
	MainPart string
	// Version is written verbatim to the manifest.
	Version string
	// SourceURL points at the prebuilt artifact.
	SourceURL string
	// Overrides lists override fragments in application order.
	Overrides []string
	// Preset is used as is when set; PresetName and PresetFile are ignored then.
	Preset *preset.Preset
	// PresetName selects a built-in or user preset. Empty means the default preset.
	PresetName string
	// PresetFile loads the preset from a YAML file instead of by name.
	PresetFile string
	// Policy overrides the preset's conflict policy when not empty.
	Policy preset.Policy
}

// generator runs one manifest generation.
// It is unexported; callers should use Run, which encapsulates setup and validation.
type generator struct {
	// cfg holds the validated run configuration.
	cfg *config.Config
	// template reads the base template.
	template document.Repository
	// output writes the generated manifest.
	output document.Repository
}

// fragment is an override document split into its phases.
type fragment struct {
	// path is the file the fragment came from.
	path string
	// pre is merged before synthesis, nil when absent.
	pre *tree.Mapping
	// post is merged after synthesis, nil when absent.
	post *tree.Mapping
}

var (
	// errTemplateNotMapping indicates a template whose top level is not a mapping.
	errTemplateNotMapping = errors.New("template must be a mapping")
	// errFragmentNotMapping indicates an override whose top level is not a mapping.
	errFragmentNotMapping = errors.New("override fragment must be a mapping")
	// errPhaseNotMapping indicates a pre or post value that is not a mapping.
	errPhaseNotMapping = errors.New("override phase must be a mapping")
)

// Run executes the generation workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "snap-generator")

	var err error

	p := opts.Preset
	if p == nil {
		if p, err = config.ResolvePreset(opts.PresetName, opts.PresetFile); err != nil {
			return fmt.Errorf("resolve preset: %w", err)
		}
	}

	cfg := &config.Config{
		TemplatePath: opts.TemplatePath,
		OutputPath:   opts.OutputPath,
		MainPart:     opts.MainPart,
		Version:      opts.Version,
		SourceURL:    opts.SourceURL,
		Overrides:    opts.Overrides,
		Preset:       p,
		Policy:       opts.Policy,
	}
	if err = config.Validate(cfg); err != nil {
		return err
	}

	gen := newGenerator(cfg)

	if err = gen.Run(ctx); err != nil {
		return fmt.Errorf("generator failed: %w", err)
	}

	logger.InfoKV(ctx, "Manifest generated", "path", cfg.OutputPath, "version", cfg.Version)

	return nil
}

// newGenerator creates a generator backed by files on disk.
func newGenerator(cfg *config.Config) *generator {
	return &generator{
		cfg:      cfg,
		template: document.NewFileRepository(cfg.TemplatePath),
		output:   document.NewFileRepository(cfg.OutputPath),
	}
}

// Run loads, merges, synthesizes and writes the manifest. Nothing is
// written unless every stage succeeds.
func (g *generator) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Using preset",
		"preset", g.cfg.Preset.Name,
		"policy", g.cfg.Policy,
		"platform_style", g.cfg.Preset.PlatformStyle)

	base, err := g.loadTemplate(ctx)
	if err != nil {
		return err
	}

	fragments, err := g.loadFragments(ctx)
	if err != nil {
		return err
	}

	if err = g.mergePhase(ctx, base, fragments, PhasePre); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	logger.Debug(ctx, "Synthesizing generated fields")

	err = synthesizer.Apply(base, synthesizer.Params{
		Preset:       g.cfg.Preset,
		Version:      g.cfg.Version,
		SourceURL:    g.cfg.SourceURL,
		MainPart:     g.cfg.MainPart,
		TemplatePath: g.cfg.TemplatePath,
		OutputPath:   g.cfg.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("synthesize manifest: %w", err)
	}

	if err = g.mergePhase(ctx, base, fragments, PhasePost); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving manifest", "path", g.cfg.OutputPath)

	return g.output.Save(ctx, tree.FromMapping(base))
}

// loadTemplate reads the base template, which must be a mapping.
func (g *generator) loadTemplate(ctx context.Context) (*tree.Mapping, error) {
	logger.InfoKV(ctx, "Loading template", "path", g.cfg.TemplatePath)

	root, err := g.template.Load(ctx)
	if err != nil {
		return nil, err
	}

	if root.Kind() != tree.KindMapping {
		return nil, &document.LoadError{Path: g.cfg.TemplatePath, Err: errTemplateNotMapping}
	}

	return root.Mapping(), nil
}

// loadFragments reads every override fragment up front, so a broken
// fragment aborts the run before anything is merged.
func (g *generator) loadFragments(ctx context.Context) ([]fragment, error) {
	fragments := make([]fragment, 0, len(g.cfg.Overrides))

	for _, path := range g.cfg.Overrides {
		logger.DebugKV(ctx, "Loading override fragment", "path", path)

		root, err := document.NewFileRepository(path).Load(ctx)
		if err != nil {
			return nil, err
		}

		f, err := splitFragment(ctx, path, root)
		if err != nil {
			return nil, err
		}

		fragments = append(fragments, f)
	}

	return fragments, nil
}

// splitFragment separates the pre and post phases of an override document.
// An empty document is a no-op fragment.
func splitFragment(ctx context.Context, path string, root *tree.Node) (fragment, error) {
	f := fragment{path: path}

	switch root.Kind() {
	case tree.KindNull:
		return f, nil
	case tree.KindMapping:
	default:
		return f, &document.LoadError{Path: path, Err: errFragmentNotMapping}
	}

	for _, key := range root.Mapping().Keys() {
		value, _ := root.Mapping().Get(key)

		var target **tree.Mapping

		switch key {
		case PhasePre:
			target = &f.pre
		case PhasePost:
			target = &f.post
		default:
			logger.WarnKV(ctx, "Ignoring unknown override key", "path", path, "key", key)
			continue
		}

		switch value.Kind() {
		case tree.KindNull:
		case tree.KindMapping:
			*target = value.Mapping()
		default:
			return f, &document.LoadError{Path: path, Err: fmt.Errorf("%s: %w", key, errPhaseNotMapping)}
		}
	}

	return f, nil
}

// mergePhase merges one phase of every fragment into base, in argument order.
// Fragments without the phase keep their slot so errors report argument positions.
func (g *generator) mergePhase(ctx context.Context, base *tree.Mapping, fragments []fragment, phase string) error {
	sources := make([]*tree.Mapping, 0, len(fragments))

	for _, f := range fragments {
		src := f.pre
		if phase == PhasePost {
			src = f.post
		}

		if src != nil {
			logger.InfoKV(ctx, "Merging override", "phase", phase, "path", f.path)
		}

		sources = append(sources, src)
	}

	if _, err := merger.MergeAll(base, sources, g.cfg.Policy); err != nil {
		return fmt.Errorf("merge %s overrides: %w", phase, err)
	}

	return nil
}
