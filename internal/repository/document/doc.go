// Package document loads and stores configuration documents.
//
// FileRepository turns a YAML or JSONC file into a tree.Node and writes a
// tree back out as YAML. Writes go through a temporary file and a rename, so
// readers never observe a half-written manifest.
package document
