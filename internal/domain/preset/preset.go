package preset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Version names a configuration version of the generator.
type Version string

const (
	// VersionNoble is the earliest layout: a single amd64 archive, a cross
	// build from arm64, and the first declared part as the main part.
	VersionNoble Version = "noble"
	// VersionStrict takes the main part as an argument, emits a platforms
	// mapping and rejects conflicting overrides.
	VersionStrict Version = "strict"
	// VersionPorts adds the ports mirror, builds amd64 and arm64 on either
	// host and lets later overrides win.
	VersionPorts Version = "ports"

	// DefaultVersion is used when no preset is requested explicitly.
	DefaultVersion = VersionPorts
)

// Policy selects how a merge resolves two different scalars at the same path.
type Policy string

const (
	// PolicyStrict fails the merge on any scalar disagreement.
	PolicyStrict Policy = "strict"
	// PolicyPermissive lets the source value win.
	PolicyPermissive Policy = "permissive"
)

// PlatformStyle selects how the build matrix is written to the manifest.
type PlatformStyle string

const (
	// StyleArchitectures writes a legacy "architectures" list of build-on/build-for pairs.
	StyleArchitectures PlatformStyle = "architectures"
	// StylePlatforms writes a "platforms" mapping keyed by platform label.
	StylePlatforms PlatformStyle = "platforms"
)

const (
	// UbuntuKeyID is the archive signing key shared by the built-in presets.
	UbuntuKeyID = "F6ECB3762474EDA9D21B7022871920D1991BC93C"

	ubuntuArchiveMirror = "http://de.archive.ubuntu.com/ubuntu"
	ubuntuArchive       = "http://archive.ubuntu.com/ubuntu"
	ubuntuPorts         = "http://ports.ubuntu.com/ubuntu-ports"
	suiteNoble          = "noble"
	extraPackage        = "shared-mime-info"
	literalQualifier    = ":amd64"
	craftQualifier      = ":${CRAFT_ARCH_BUILD_FOR}"
)

var (
	// ErrUnknownVersion is returned for a version name without a built-in preset.
	ErrUnknownVersion = errors.New("unknown preset")
	// ErrUnknownPolicy is returned when a conflict policy name cannot be parsed.
	ErrUnknownPolicy = errors.New("unknown conflict policy")

	errNameRequired         = errors.New("preset name must be provided")
	errRepositoriesRequired = errors.New("at least one package repository must be provided")
	errPlatformsRequired    = errors.New("at least one platform must be provided")
	errUnknownStyle         = errors.New("unknown platform style")
	errRepositoryURL        = errors.New("package repository url must be provided")
	errPlatformLabel        = errors.New("platform label must be provided")
	errPlatformArchs        = errors.New("platform needs both build-on and build-for architectures")
)

// Repository describes one entry of the package-repositories list.
type Repository struct {
	// Type is the repository kind, "apt" for the built-in presets.
	Type string `yaml:"type"`
	// Formats lists package formats, for example "deb".
	Formats []string `yaml:"formats,omitempty"`
	// Architectures restricts the repository to the listed architectures.
	Architectures []string `yaml:"architectures,omitempty"`
	// Components lists archive components such as main and universe.
	Components []string `yaml:"components,omitempty"`
	// Suites lists release suites.
	Suites []string `yaml:"suites,omitempty"`
	// KeyID is the fingerprint of the archive signing key.
	KeyID string `yaml:"key-id"`
	// URL is the archive location.
	URL string `yaml:"url"`
}

// Platform is one entry of the build matrix.
type Platform struct {
	// Label names the platform in the platforms mapping. Unused for the
	// architectures style.
	Label string `yaml:"label,omitempty"`
	// BuildOn lists hosts that may run the build.
	BuildOn []string `yaml:"build-on"`
	// BuildFor lists target architectures.
	BuildFor []string `yaml:"build-for"`
}

// Preset is the complete, immutable set of constants a configuration version injects.
type Preset struct {
	// Name identifies the preset on the command line.
	Name Version `yaml:"name"`
	// Description is shown by the presets subcommand.
	Description string `yaml:"description,omitempty"`
	// MainPartArgument tells whether the main part key is passed on the
	// command line. When false the first declared part is used.
	MainPartArgument bool `yaml:"main-part-argument"`
	// Policy is the conflict policy used for override fragments.
	Policy Policy `yaml:"policy"`
	// Repositories is written to package-repositories.
	Repositories []Repository `yaml:"repositories"`
	// PlatformStyle selects between the architectures list and the platforms mapping.
	PlatformStyle PlatformStyle `yaml:"platform-style"`
	// Platforms is the build matrix.
	Platforms []Platform `yaml:"platforms"`
	// LintIgnore lists the snap lints to suppress.
	LintIgnore []string `yaml:"lint-ignore"`
	// ArchQualifier is appended to every staged package of the main part.
	ArchQualifier string `yaml:"arch-qualifier"`
	// ExtraPackage is staged in addition to the template packages.
	ExtraPackage string `yaml:"extra-package"`
}

// Versions returns the built-in versions from oldest to newest.
func Versions() []Version {
	return []Version{VersionNoble, VersionStrict, VersionPorts}
}

// Builtin returns a fresh copy of the built-in preset for the version.
func Builtin(version Version) (*Preset, error) {
	switch version {
	case VersionNoble:
		return &Preset{
			Name:             VersionNoble,
			Description:      "single amd64 archive, cross-built on arm64, first part is the main part",
			MainPartArgument: false,
			Policy:           PolicyStrict,
			Repositories:     []Repository{archiveRepository(ubuntuArchiveMirror)},
			PlatformStyle:    StyleArchitectures,
			Platforms: []Platform{
				{BuildOn: []string{"arm64"}, BuildFor: []string{"amd64"}},
			},
			LintIgnore:    defaultLintIgnore(),
			ArchQualifier: literalQualifier,
			ExtraPackage:  extraPackage,
		}, nil
	case VersionStrict:
		return &Preset{
			Name:             VersionStrict,
			Description:      "single amd64 archive, cross-built on arm64, conflicting overrides are rejected",
			MainPartArgument: true,
			Policy:           PolicyStrict,
			Repositories:     []Repository{archiveRepository(ubuntuArchiveMirror)},
			PlatformStyle:    StylePlatforms,
			Platforms: []Platform{
				{Label: "amd64", BuildOn: []string{"arm64"}, BuildFor: []string{"amd64"}},
			},
			LintIgnore:    defaultLintIgnore(),
			ArchQualifier: literalQualifier,
			ExtraPackage:  extraPackage,
		}, nil
	case VersionPorts:
		archive := archiveRepository(ubuntuArchive)
		ports := archiveRepository(ubuntuPorts)
		ports.Architectures = []string{"arm64"}

		return &Preset{
			Name:             VersionPorts,
			Description:      "archive and ports mirrors, amd64 and arm64 built natively or cross, later overrides win",
			MainPartArgument: true,
			Policy:           PolicyPermissive,
			Repositories:     []Repository{archive, ports},
			PlatformStyle:    StylePlatforms,
			Platforms: []Platform{
				{Label: "amd64", BuildOn: []string{"amd64", "arm64"}, BuildFor: []string{"amd64"}},
				{Label: "arm64", BuildOn: []string{"amd64", "arm64"}, BuildFor: []string{"arm64"}},
			},
			LintIgnore:    defaultLintIgnore(),
			ArchQualifier: craftQualifier,
			ExtraPackage:  extraPackage,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownVersion, version, knownVersions())
	}
}

// Validate checks that a preset, typically one loaded from disk, is complete.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return errNameRequired
	}

	if _, err := ParsePolicy(string(p.Policy)); err != nil {
		return err
	}

	if len(p.Repositories) == 0 {
		return errRepositoriesRequired
	}

	for i, repo := range p.Repositories {
		if repo.URL == "" {
			return fmt.Errorf("repository %d: %w", i, errRepositoryURL)
		}
	}

	if len(p.Platforms) == 0 {
		return errPlatformsRequired
	}

	switch p.PlatformStyle {
	case StyleArchitectures, StylePlatforms:
	default:
		return fmt.Errorf("%w: %q", errUnknownStyle, p.PlatformStyle)
	}

	for i, platform := range p.Platforms {
		if p.PlatformStyle == StylePlatforms && platform.Label == "" {
			return fmt.Errorf("platform %d: %w", i, errPlatformLabel)
		}

		if len(platform.BuildOn) == 0 || len(platform.BuildFor) == 0 {
			return fmt.Errorf("platform %d: %w", i, errPlatformArchs)
		}
	}

	return nil
}

// ParseVersion converts a name into a Version without checking it is built in.
func ParseVersion(s string) Version {
	return Version(strings.ToLower(strings.TrimSpace(s)))
}

// IsBuiltin reports whether the version has a built-in preset.
func (v Version) IsBuiltin() bool {
	return slices.Contains(Versions(), v)
}

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyPermissive:
		return PolicyPermissive, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownPolicy, s, PolicyStrict, PolicyPermissive)
	}
}

func archiveRepository(url string) Repository {
	return Repository{
		Type:          "apt",
		Formats:       []string{"deb"},
		Architectures: []string{"amd64"},
		Components:    []string{"main", "universe"},
		Suites:        []string{suiteNoble},
		KeyID:         UbuntuKeyID,
		URL:           url,
	}
}

func defaultLintIgnore() []string {
	return []string{"classic", "library"}
}

func knownVersions() string {
	names := make([]string, 0, len(Versions()))
	for _, version := range Versions() {
		names = append(names, string(version))
	}

	return strings.Join(names, ", ")
}
