// Package config defines the inputs of a generator run and provides helpers
// to validate them and to resolve, load and save presets in YAML format.
//
// Presets that are not built in are looked up in the XDG config directories
// under snap-generator/presets/<name>.yaml.
package config
