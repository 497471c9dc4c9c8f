// Package synthesizer injects generated fields into a snapcraft manifest.
//
// Apply writes package repositories, the build matrix, lint settings, the
// version and the icon path, and turns the main part into a dump of a
// prebuilt artifact with architecture-qualified stage packages.
package synthesizer
