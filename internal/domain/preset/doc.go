// Package preset holds the named configuration versions of the generator.
//
// Each Preset is a plain data record: the package repositories, build
// matrix, lint suppressions, architecture qualifier and conflict policy a
// run injects into the manifest. Callers pick one by Version and pass it on
// explicitly; nothing in here is global state.
package preset
