package synthesizer

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/domain/tree"
)

// Manifest keys written or read by the synthesizer.
const (
	KeyPackageRepositories = "package-repositories"
	KeyArchitectures       = "architectures"
	KeyPlatforms           = "platforms"
	KeyLint                = "lint"
	KeyVersion             = "version"
	KeyIcon                = "icon"
	KeyParts               = "parts"
	KeyPlugin              = "plugin"
	KeySource              = "source"
	KeyStagePackages       = "stage-packages"

	// dumpPlugin copies a prebuilt artifact into the snap unchanged.
	dumpPlugin = "dump"

	// snapDirName is skipped when resolving the project root from the template path.
	snapDirName = "snap"
)

var (
	errPresetRequired = errors.New("preset must be provided")
	errUnknownStyle   = errors.New("unknown platform style")
)

// SchemaError reports a required key that is missing or has the wrong shape.
type SchemaError struct {
	// Key is the dotted path of the offending key.
	Key string
	// Reason says what is wrong with it.
	Reason string
}

// Error implements error.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("template key %s: %s", e.Key, e.Reason)
}

// Params carries the per-run inputs of Apply.
type Params struct {
	// Preset supplies repositories, platforms, lint and qualifier constants.
	Preset *preset.Preset
	// Version is written verbatim to the version key.
	Version string
	// SourceURL is the prebuilt artifact the main part dumps.
	SourceURL string
	// MainPart is the key of the part to replace. When empty and the preset
	// does not take a main part argument, the first declared part is used.
	MainPart string
	// TemplatePath is the template location used to resolve the icon.
	TemplatePath string
	// OutputPath is the manifest location the icon is made relative to.
	OutputPath string
}

// Apply injects the generated fields into root.
//
// It validates everything before mutating, so on error root is untouched.
func Apply(root *tree.Mapping, params Params) error {
	if params.Preset == nil {
		return errPresetRequired
	}

	mainPart, partsNode, err := resolveMainPart(root, params)
	if err != nil {
		return err
	}

	packages, err := stagePackages(partsNode, mainPart, params.Preset)
	if err != nil {
		return err
	}

	icon, err := iconPath(root, params.TemplatePath, params.OutputPath)
	if err != nil {
		return err
	}

	var (
		platformKey string
		platforms   *tree.Node
	)

	switch params.Preset.PlatformStyle {
	case preset.StyleArchitectures:
		platformKey, platforms = KeyArchitectures, Architectures(params.Preset.Platforms)
	case preset.StylePlatforms:
		platformKey, platforms = KeyPlatforms, Platforms(params.Preset.Platforms)
	default:
		return fmt.Errorf("%w: %q", errUnknownStyle, params.Preset.PlatformStyle)
	}

	root.Set(KeyPackageRepositories, Repositories(params.Preset.Repositories))
	root.Set(platformKey, platforms)
	root.Set(KeyLint, tree.FromMapping(tree.NewMapping().
		Set("ignore", tree.Strings(params.Preset.LintIgnore...))))
	root.Set(KeyVersion, tree.String(params.Version))
	root.Set(KeyIcon, tree.String(icon))

	partsNode.Mapping().Set(mainPart, tree.FromMapping(tree.NewMapping().
		Set(KeyPlugin, tree.String(dumpPlugin)).
		Set(KeySource, tree.String(params.SourceURL)).
		Set(KeyStagePackages, packages)))

	return nil
}

// Repositories renders the package-repositories list.
func Repositories(repos []preset.Repository) *tree.Node {
	items := make([]*tree.Node, 0, len(repos))

	for _, repo := range repos {
		entry := tree.NewMapping().Set("type", tree.String(repo.Type))

		setList(entry, "formats", repo.Formats)
		setList(entry, "architectures", repo.Architectures)
		setList(entry, "components", repo.Components)
		setList(entry, "suites", repo.Suites)

		entry.Set("key-id", tree.String(repo.KeyID))
		entry.Set("url", tree.String(repo.URL))

		items = append(items, tree.FromMapping(entry))
	}

	return tree.Sequence(items...)
}

// Architectures renders the legacy list of build-on/build-for pairs.
func Architectures(platforms []preset.Platform) *tree.Node {
	items := make([]*tree.Node, 0, len(platforms))

	for _, platform := range platforms {
		items = append(items, buildPair(platform))
	}

	return tree.Sequence(items...)
}

// Platforms renders the label to build-on/build-for mapping.
func Platforms(platforms []preset.Platform) *tree.Node {
	result := tree.NewMapping()

	for _, platform := range platforms {
		result.Set(platform.Label, buildPair(platform))
	}

	return tree.FromMapping(result)
}

func buildPair(platform preset.Platform) *tree.Node {
	return tree.FromMapping(tree.NewMapping().
		Set("build-on", tree.Strings(platform.BuildOn...)).
		Set("build-for", tree.Strings(platform.BuildFor...)))
}

func setList(m *tree.Mapping, key string, values []string) {
	if len(values) == 0 {
		return
	}

	m.Set(key, tree.Strings(values...))
}

// resolveMainPart returns the main part key together with the parts node.
func resolveMainPart(root *tree.Mapping, params Params) (string, *tree.Node, error) {
	partsNode, ok := root.Get(KeyParts)
	if !ok {
		return "", nil, &SchemaError{Key: KeyParts, Reason: "missing"}
	}

	if partsNode.Kind() != tree.KindMapping {
		return "", nil, &SchemaError{Key: KeyParts, Reason: "must be a mapping, got " + partsNode.Kind().String()}
	}

	mainPart := params.MainPart
	if mainPart == "" && !params.Preset.MainPartArgument {
		keys := partsNode.Mapping().Keys()
		if len(keys) == 0 {
			return "", nil, &SchemaError{Key: KeyParts, Reason: "no parts declared"}
		}

		mainPart = keys[0]
	}

	if mainPart == "" {
		return "", nil, &SchemaError{Key: KeyParts, Reason: "main part is not specified"}
	}

	if _, ok = partsNode.Mapping().Get(mainPart); !ok {
		return "", nil, &SchemaError{Key: KeyParts + "." + mainPart, Reason: "missing"}
	}

	return mainPart, partsNode, nil
}

// stagePackages qualifies the main part's packages and appends the extra one.
func stagePackages(partsNode *tree.Node, mainPart string, p *preset.Preset) (*tree.Node, error) {
	var (
		part, _ = partsNode.Mapping().Get(mainPart)
		key     = KeyParts + "." + mainPart + "." + KeyStagePackages
		result  = tree.Sequence()
	)

	if part.Kind() == tree.KindMapping {
		existing, ok := part.Mapping().Get(KeyStagePackages)

		switch {
		case !ok || existing.IsNull():
		case existing.Kind() != tree.KindSequence:
			return nil, &SchemaError{Key: key, Reason: "must be a sequence, got " + existing.Kind().String()}
		default:
			for i, item := range existing.Items() {
				if item.Kind() != tree.KindScalar {
					return nil, &SchemaError{
						Key:    fmt.Sprintf("%s[%d]", key, i),
						Reason: "must be a package name, got " + item.Kind().String(),
					}
				}

				result.Append(tree.String(item.Value() + p.ArchQualifier))
			}
		}
	} else if !part.IsNull() {
		return nil, &SchemaError{Key: KeyParts + "." + mainPart, Reason: "must be a mapping, got " + part.Kind().String()}
	}

	if p.ExtraPackage != "" {
		result.Append(tree.String(p.ExtraPackage + p.ArchQualifier))
	}

	return result, nil
}

// iconPath resolves the template icon against the project root and makes it
// relative to the output directory. The project root is the template's
// directory, or its parent when the template lives in a snap/ directory.
func iconPath(root *tree.Mapping, templatePath, outputPath string) (string, error) {
	icon, ok := root.Get(KeyIcon)
	if !ok {
		return "", &SchemaError{Key: KeyIcon, Reason: "missing"}
	}

	if icon.Kind() != tree.KindScalar || icon.Value() == "" {
		return "", &SchemaError{Key: KeyIcon, Reason: "must be a non-empty path"}
	}

	projectRoot := filepath.Dir(templatePath)
	if filepath.Base(projectRoot) == snapDirName {
		projectRoot = filepath.Dir(projectRoot)
	}

	target, err := filepath.Abs(filepath.Join(projectRoot, icon.Value()))
	if err != nil {
		return "", fmt.Errorf("resolve icon: %w", err)
	}

	base, err := filepath.Abs(filepath.Dir(outputPath))
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}

	relative, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("relativize icon: %w", err)
	}

	return filepath.ToSlash(relative), nil
}
