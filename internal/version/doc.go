// Package version exposes build metadata of snap-generator.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
package version
