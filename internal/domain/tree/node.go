package tree

import (
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Node holds.
type Kind uint8

const (
	// KindNull is an explicit null (or a missing value).
	KindNull Kind = iota
	// KindScalar is a string, number, boolean or any other tagged scalar.
	KindScalar
	// KindSequence is an ordered list of nodes.
	KindSequence
	// KindMapping is an ordered string-keyed mapping.
	KindMapping
)

// Well-known scalar tags, in the short form produced by yaml.v3.
const (
	TagString = "!!str"
	TagInt    = "!!int"
	TagFloat  = "!!float"
	TagBool   = "!!bool"
	TagNull   = "!!null"
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a single value of the configuration tree.
// A nil *Node behaves as a null node.
type Node struct {
	// kind selects which of the fields below is meaningful.
	kind Kind
	// tag is the resolved short YAML tag of a scalar.
	tag string
	// value is the literal text of a scalar.
	value string
	// items holds sequence elements.
	items []*Node
	// mapping holds mapping entries.
	mapping *Mapping
}

// Null returns a new null node.
func Null() *Node {
	return &Node{kind: KindNull}
}

// Scalar returns a scalar node with the given short tag and literal text.
// An empty tag is treated as a string.
func Scalar(tag, value string) *Node {
	if tag == "" {
		tag = TagString
	}

	if tag == TagNull {
		return Null()
	}

	return &Node{
		kind:  KindScalar,
		tag:   tag,
		value: value,
	}
}

// String returns a string scalar. The value is always emitted as a string,
// quoted if it would otherwise resolve to another type.
func String(value string) *Node {
	return Scalar(TagString, value)
}

// Int returns an integer scalar.
func Int(value int64) *Node {
	return Scalar(TagInt, strconv.FormatInt(value, 10))
}

// Bool returns a boolean scalar.
func Bool(value bool) *Node {
	return Scalar(TagBool, strconv.FormatBool(value))
}

// Sequence returns a sequence node holding the given items.
func Sequence(items ...*Node) *Node {
	return &Node{
		kind:  KindSequence,
		items: append([]*Node(nil), items...),
	}
}

// Strings returns a sequence of string scalars.
func Strings(values ...string) *Node {
	items := make([]*Node, 0, len(values))
	for _, value := range values {
		items = append(items, String(value))
	}

	return &Node{
		kind:  KindSequence,
		items: items,
	}
}

// FromMapping wraps a mapping into a node. A nil mapping becomes an empty one.
func FromMapping(m *Mapping) *Node {
	if m == nil {
		m = NewMapping()
	}

	return &Node{
		kind:    KindMapping,
		mapping: m,
	}
}

// Kind returns the node variant.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}

	return n.kind
}

// IsNull reports whether the node is null.
func (n *Node) IsNull() bool {
	return n.Kind() == KindNull
}

// Tag returns the short YAML tag of a scalar, or an empty string for other kinds.
func (n *Node) Tag() string {
	if n.Kind() != KindScalar {
		return ""
	}

	return n.tag
}

// Value returns the literal text of a scalar, or an empty string for other kinds.
func (n *Node) Value() string {
	if n.Kind() != KindScalar {
		return ""
	}

	return n.value
}

// Items returns the elements of a sequence. The slice must not be modified.
func (n *Node) Items() []*Node {
	if n.Kind() != KindSequence {
		return nil
	}

	return n.items
}

// Len returns the number of sequence items or mapping entries.
func (n *Node) Len() int {
	switch n.Kind() {
	case KindSequence:
		return len(n.items)
	case KindMapping:
		return n.mapping.Len()
	case KindNull, KindScalar:
		return 0
	default:
		return 0
	}
}

// Mapping returns the mapping of a mapping node, or nil for other kinds.
func (n *Node) Mapping() *Mapping {
	if n.Kind() != KindMapping {
		return nil
	}

	return n.mapping
}

// Append adds items to the end of a sequence node.
// It is a no-op for other kinds.
func (n *Node) Append(items ...*Node) {
	if n.Kind() != KindSequence {
		return
	}

	n.items = append(n.items, items...)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	switch n.Kind() {
	case KindNull:
		return Null()
	case KindScalar:
		return Scalar(n.tag, n.value)
	case KindSequence:
		items := make([]*Node, 0, len(n.items))
		for _, item := range n.items {
			items = append(items, item.Clone())
		}

		return &Node{
			kind:  KindSequence,
			items: items,
		}
	case KindMapping:
		return FromMapping(n.mapping.Clone())
	default:
		return Null()
	}
}

// Equal reports whether two nodes hold the same value.
// Mappings are compared without regard to key order.
func (n *Node) Equal(other *Node) bool {
	if n.Kind() != other.Kind() {
		return false
	}

	switch n.Kind() {
	case KindNull:
		return true
	case KindScalar:
		return scalarsEqual(n, other)
	case KindSequence:
		if len(n.items) != len(other.items) {
			return false
		}

		for i := range n.items {
			if !n.items[i].Equal(other.items[i]) {
				return false
			}
		}

		return true
	case KindMapping:
		return n.mapping.Equal(other.mapping)
	default:
		return false
	}
}

// String renders a short description of the node for diagnostics.
func (n *Node) String() string {
	switch n.Kind() {
	case KindNull:
		return "null"
	case KindScalar:
		return strconv.Quote(n.value) + " (" + n.tag + ")"
	case KindSequence:
		return "sequence of " + strconv.Itoa(len(n.items)) + " items"
	case KindMapping:
		return "mapping of " + strconv.Itoa(n.mapping.Len()) + " keys"
	default:
		return n.kind.String()
	}
}

// scalarsEqual compares two scalars by tag and value.
// Non-string scalars are decoded first, so 0x10 equals 16.
func scalarsEqual(a, b *Node) bool {
	if a.tag != b.tag {
		return false
	}

	if a.value == b.value {
		return true
	}

	if a.tag == TagString {
		return false
	}

	left, leftErr := decodeScalar(a)
	right, rightErr := decodeScalar(b)

	if leftErr != nil || rightErr != nil {
		return false
	}

	return reflect.DeepEqual(left, right)
}

func decodeScalar(n *Node) (any, error) {
	var decoded any

	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   n.tag,
		Value: n.value,
	}

	if err := node.Decode(&decoded); err != nil {
		return nil, err
	}

	// Integers may decode as int or int64 depending on magnitude.
	if i, ok := decoded.(int); ok {
		return int64(i), nil
	}

	return decoded, nil
}
