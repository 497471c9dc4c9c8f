// Package generator produces a snapcraft manifest from a template.
//
// One run loads the template and every override fragment, merges the "pre"
// phases, injects the generated fields, merges the "post" phases and writes
// the result atomically. The preset in effect decides the injected constants
// and how conflicting overrides are handled.
package generator
