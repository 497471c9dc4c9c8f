// Package tree contains the configuration tree used for manifest templates,
// override fragments and the generated output.
//
// A Node is a tagged union over four kinds (null, scalar, sequence and
// mapping). Mappings keep insertion order so the generated document lists
// keys in the same order as the template. Conversion to and from yaml.Node
// lives here as well.
package tree
