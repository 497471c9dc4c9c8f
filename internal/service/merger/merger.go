package merger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/domain/tree"
)

// errUnknownPolicy is returned when Merge is called with a policy it does not implement.
var errUnknownPolicy = errors.New("unsupported merge policy")

// ConflictError reports two different values at the same path under the strict policy.
type ConflictError struct {
	// Path is the dotted key path of the conflicting value.
	Path string
	// Destination is the value already present.
	Destination *tree.Node
	// Source is the value the override tried to set.
	Source *tree.Node
}

// Error implements error.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict at %s: %s != %s", e.Path, e.Destination, e.Source)
}

// Merge merges src into dst and returns dst.
//
// For every key of src: a key missing from dst is copied, two mappings are
// merged recursively, two sequences are concatenated, a null deletes the key
// and anything else is resolved by policy. Keys only present in dst are left
// alone. On error dst may already be partially merged.
func Merge(dst, src *tree.Mapping, policy preset.Policy) (*tree.Mapping, error) {
	switch policy {
	case preset.PolicyStrict, preset.PolicyPermissive:
	default:
		return dst, fmt.Errorf("%w: %q", errUnknownPolicy, policy)
	}

	if err := mergeAt(dst, src, policy, nil); err != nil {
		return dst, err
	}

	return dst, nil
}

// MergeAll merges every fragment into dst in order.
func MergeAll(dst *tree.Mapping, fragments []*tree.Mapping, policy preset.Policy) (*tree.Mapping, error) {
	for i, fragment := range fragments {
		if _, err := Merge(dst, fragment, policy); err != nil {
			return dst, fmt.Errorf("fragment %d: %w", i+1, err)
		}
	}

	return dst, nil
}

func mergeAt(dst, src *tree.Mapping, policy preset.Policy, path []string) error {
	for _, key := range src.Keys() {
		incoming, _ := src.Get(key)

		current, ok := dst.Get(key)
		if !ok {
			dst.Set(key, incoming.Clone()).SetKeyTag(key, src.KeyTag(key))
			continue
		}

		switch {
		case current.Kind() == tree.KindMapping && incoming.Kind() == tree.KindMapping:
			if err := mergeAt(current.Mapping(), incoming.Mapping(), policy, appendPath(path, key)); err != nil {
				return err
			}
		case current.Kind() == tree.KindSequence && incoming.Kind() == tree.KindSequence:
			for _, item := range incoming.Items() {
				current.Append(item.Clone())
			}
		case incoming.IsNull():
			dst.Delete(key)
		default:
			if err := resolveScalar(dst, key, current, incoming, policy, path); err != nil {
				return err
			}
		}
	}

	return nil
}

func resolveScalar(
	dst *tree.Mapping,
	key string,
	current, incoming *tree.Node,
	policy preset.Policy,
	path []string,
) error {
	switch policy {
	case preset.PolicyStrict:
		if current.Equal(incoming) {
			return nil
		}

		return &ConflictError{
			Path:        strings.Join(appendPath(path, key), "."),
			Destination: current,
			Source:      incoming,
		}
	case preset.PolicyPermissive:
		dst.Set(key, incoming.Clone())

		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownPolicy, policy)
	}
}

// appendPath returns a new slice so sibling recursions never share backing arrays.
func appendPath(path []string, key string) []string {
	next := make([]string, len(path)+1)
	copy(next, path)
	next[len(path)] = key

	return next
}
