// Package merger combines configuration trees.
//
// Keys missing from the destination are added, nested mappings are merged
// recursively, sequences are concatenated and a null source value deletes
// the key. Scalars that disagree are resolved by the policy of the run.
package merger
