package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/snap-generator/internal/domain/preset"
)

// Config holds the inputs of a single generator run.
type Config struct {
	// TemplatePath is the base snapcraft.yaml template.
	TemplatePath string
	// OutputPath is where the generated manifest is written.
	OutputPath string
	// MainPart is the part replaced by the prebuilt artifact. Only used by
	// presets that take it as an argument.
	MainPart string
	// Version is written verbatim to the manifest.
	Version string
	// SourceURL points at the prebuilt artifact.
	SourceURL string
	// Overrides lists override fragments in the order they are applied.
	Overrides []string
	// Preset is the configuration version in effect.
	Preset *preset.Preset
	// Policy is the conflict policy for override fragments. Empty means the
	// preset's own policy.
	Policy preset.Policy
}

const (
	// AppName is the directory name used under the XDG config directories.
	AppName = "snap-generator"

	// DefaultFilePermissions is the default file permission for preset files.
	DefaultFilePermissions = 0o600

	presetsDir = "presets"
	presetExt  = ".yaml"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errTemplateRequired is returned when the template path is missing.
	errTemplateRequired = errors.New("template path must be provided")
	// errOutputRequired is returned when the output path is missing.
	errOutputRequired = errors.New("output path must be provided")
	// errVersionRequired is returned when the version string is empty.
	errVersionRequired = errors.New("version must be provided")
	// errSourceRequired is returned when the artifact URL is empty.
	errSourceRequired = errors.New("source url must be provided")
	// errSourceNotAbsolute indicates a source url without a scheme.
	errSourceNotAbsolute = errors.New("source url must be absolute")
	// errPresetRequired is returned when no preset was resolved.
	errPresetRequired = errors.New("preset must be provided")
	// errMainPartRequired is returned when the preset needs a main part that was not given.
	errMainPartRequired = errors.New("main part must be provided for this preset")
	// errBadPresetName is returned for preset names that would escape the presets directory.
	errBadPresetName = errors.New("preset name must not contain path separators")
)

// Validate checks the run configuration and fills the policy default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.TemplatePath) == "" {
		return errTemplateRequired
	}

	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errOutputRequired
	}

	if cfg.Version == "" {
		return errVersionRequired
	}

	if cfg.SourceURL == "" {
		return errSourceRequired
	}

	source, err := url.ParseRequestURI(cfg.SourceURL)
	if err != nil {
		return fmt.Errorf("invalid source url: %w", err)
	}

	if source.Scheme == "" {
		return fmt.Errorf("%w: %q", errSourceNotAbsolute, cfg.SourceURL)
	}

	if cfg.Preset == nil {
		return errPresetRequired
	}

	if err = cfg.Preset.Validate(); err != nil {
		return fmt.Errorf("invalid preset %s: %w", cfg.Preset.Name, err)
	}

	if cfg.Preset.MainPartArgument && cfg.MainPart == "" {
		return errMainPartRequired
	}

	// Set the policy from the preset if not overridden.
	if cfg.Policy == "" {
		cfg.Policy = cfg.Preset.Policy
	}

	policy, err := preset.ParsePolicy(string(cfg.Policy))
	if err != nil {
		return err
	}

	cfg.Policy = policy

	return nil
}

// ResolvePreset returns the preset to use. An explicit file wins, then the
// built-in presets, then <name>.yaml in the user's XDG config presets directory.
func ResolvePreset(name, file string) (*preset.Preset, error) {
	if file != "" {
		return LoadPreset(file)
	}

	version := preset.ParseVersion(name)
	if version == "" {
		version = preset.DefaultVersion
	}

	if version.IsBuiltin() {
		return preset.Builtin(version)
	}

	if err := checkPresetName(string(version)); err != nil {
		return nil, err
	}

	found, err := xdg.SearchConfigFile(userPresetRelPath(version))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither built in nor found in the user config: %w",
			preset.ErrUnknownVersion, name, err)
	}

	return LoadPreset(found)
}

// UserPresetPath returns the location a user preset with the given name is
// stored at, creating the parent directories if needed.
func UserPresetPath(name preset.Version) (string, error) {
	if err := checkPresetName(string(name)); err != nil {
		return "", err
	}

	return xdg.ConfigFile(userPresetRelPath(name))
}

// LoadPreset reads a preset from a YAML file and validates it.
func LoadPreset(filename string) (*preset.Preset, error) {
	contents, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}

	var p preset.Preset
	if err = yaml.Unmarshal(contents, &p); err != nil {
		return nil, fmt.Errorf("unmarshal preset: %w", err)
	}

	if err = p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preset %s: %w", filename, err)
	}

	return &p, nil
}

// SavePreset writes a preset to filename in YAML.
func SavePreset(filename string, p *preset.Preset) error {
	if p == nil {
		return errPresetRequired
	}

	if err := p.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(filename), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}

	return nil
}

func userPresetRelPath(name preset.Version) string {
	return path.Join(AppName, presetsDir, string(name)+presetExt)
}

func checkPresetName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", errBadPresetName, name)
	}

	return nil
}
