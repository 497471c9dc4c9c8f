package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// parse is a test helper that decodes YAML text into a node.
func parse(t *testing.T, text string) *Node {
	t.Helper()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &doc))

	node, err := FromYAML(&doc)
	require.NoError(t, err)

	return node
}

// TestMapping_Order verifies insertion order, in-place replacement and deletion.
func TestMapping_Order(t *testing.T) {
	t.Parallel()

	m := NewMapping().
		Set("b", Int(1)).
		Set("a", Int(2)).
		Set("c", Int(3))

	require.Equal(t, []string{"b", "a", "c"}, m.Keys())

	// Replacing keeps the position.
	m.Set("a", String("x"))
	require.Equal(t, []string{"b", "a", "c"}, m.Keys())

	value, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, "x", value.Value())

	require.True(t, m.Delete("b"))
	require.False(t, m.Delete("b"))
	require.Equal(t, []string{"a", "c"}, m.Keys())

	m.Set("b", Null())
	require.Equal(t, []string{"a", "c", "b"}, m.Keys())
	require.Equal(t, 3, m.Len())
}

// TestNode_NilIsNull checks that a nil node behaves as null everywhere.
func TestNode_NilIsNull(t *testing.T) {
	t.Parallel()

	var n *Node

	require.Equal(t, KindNull, n.Kind())
	require.True(t, n.IsNull())
	require.Nil(t, n.Mapping())
	require.Nil(t, n.Items())
	require.True(t, n.Equal(Null()))
	require.Equal(t, KindNull, n.Clone().Kind())
}

// TestNode_CloneIsDeep ensures clones do not share sequences or mappings.
func TestNode_CloneIsDeep(t *testing.T) {
	t.Parallel()

	original := FromMapping(NewMapping().
		Set("list", Strings("a", "b")).
		Set("nested", FromMapping(NewMapping().Set("k", String("v")))))

	cloned := original.Clone()
	require.True(t, original.Equal(cloned))

	list, _ := cloned.Mapping().Get("list")
	list.Append(String("c"))

	nested, _ := cloned.Mapping().Get("nested")
	nested.Mapping().Set("k", String("changed"))

	require.False(t, original.Equal(cloned))

	originalList, _ := original.Mapping().Get("list")
	require.Equal(t, 2, originalList.Len())
}

// TestNode_Equal covers scalar tag handling and order-insensitive mappings.
func TestNode_Equal(t *testing.T) {
	t.Parallel()

	require.True(t, Int(16).Equal(Scalar(TagInt, "0x10")))
	require.False(t, Int(1).Equal(String("1")))
	require.False(t, String("a").Equal(String("b")))
	require.True(t, Bool(true).Equal(Scalar(TagBool, "True")))
	require.False(t, Strings("a", "b").Equal(Strings("b", "a")))
	require.False(t, Strings("a").Equal(Strings("a", "a")))

	left := FromMapping(NewMapping().Set("x", Int(1)).Set("y", Int(2)))
	right := FromMapping(NewMapping().Set("y", Int(2)).Set("x", Int(1)))
	require.True(t, left.Equal(right))

	right.Mapping().Set("z", Null())
	require.False(t, left.Equal(right))
}

// TestFromYAML_Kinds checks tag resolution for plain and quoted scalars.
func TestFromYAML_Kinds(t *testing.T) {
	t.Parallel()

	node := parse(t, `
name: app
count: 3
ratio: 1.5
enabled: true
quoted: "true"
nothing: ~
empty:
list: [a, b]
`)
	require.Equal(t, KindMapping, node.Kind())

	m := node.Mapping()
	require.Equal(t, []string{"name", "count", "ratio", "enabled", "quoted", "nothing", "empty", "list"}, m.Keys())

	expected := map[string]string{
		"name":    TagString,
		"count":   TagInt,
		"ratio":   TagFloat,
		"enabled": TagBool,
		"quoted":  TagString,
	}
	for key, tag := range expected {
		value, ok := m.Get(key)
		require.True(t, ok, key)
		require.Equal(t, tag, value.Tag(), key)
	}

	for _, key := range []string{"nothing", "empty"} {
		value, ok := m.Get(key)
		require.True(t, ok)
		require.True(t, value.IsNull(), key)
	}

	list, _ := m.Get("list")
	require.True(t, list.Equal(Strings("a", "b")))
}

// TestFromYAML_AliasesAndMergeKeys verifies anchors are expanded and merge keys flattened.
func TestFromYAML_AliasesAndMergeKeys(t *testing.T) {
	t.Parallel()

	node := parse(t, `
base: &base
  plugin: nil
  source: .
copy: *base
derived:
  <<: *base
  source: ./src
  extra: yes
`)
	m := node.Mapping()

	base, _ := m.Get("base")
	copied, _ := m.Get("copy")
	require.True(t, base.Equal(copied))

	derived, _ := m.Get("derived")
	require.Equal(t, []string{"plugin", "source", "extra"}, derived.Mapping().Keys())

	source, _ := derived.Mapping().Get("source")
	require.Equal(t, "./src", source.Value())
}

// TestFromYAML_EmptyDocument returns null for an empty document.
func TestFromYAML_EmptyDocument(t *testing.T) {
	t.Parallel()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(""), &doc))

	node, err := FromYAML(&doc)
	require.NoError(t, err)
	require.True(t, node.IsNull())
}

// TestFromYAML_NonScalarKey rejects complex mapping keys.
func TestFromYAML_NonScalarKey(t *testing.T) {
	t.Parallel()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("? [a, b]\n: value\n"), &doc))

	_, err := FromYAML(&doc)
	require.ErrorIs(t, err, errNonScalarKey)
}

// TestToYAML_QuotesAmbiguousStrings ensures string scalars stay strings after encoding.
func TestToYAML_QuotesAmbiguousStrings(t *testing.T) {
	t.Parallel()

	node := FromMapping(NewMapping().
		Set("version", String("1.0")).
		Set("flag", String("true")).
		Set("count", Int(2)).
		Set("gone", Null()))

	out, err := yaml.Marshal(node.ToYAML())
	require.NoError(t, err)

	decoded := parse(t, string(out))
	require.True(t, node.Equal(decoded), string(out))
}

// TestToYAML_PreservesOrder ensures encoding follows insertion order, not sorted keys.
func TestToYAML_PreservesOrder(t *testing.T) {
	t.Parallel()

	node := FromMapping(NewMapping().
		Set("zeta", Int(1)).
		Set("alpha", Strings("x")))

	out, err := yaml.Marshal(node.ToYAML())
	require.NoError(t, err)
	require.Equal(t, "zeta: 1\nalpha:\n    - x\n", string(out))
}

// TestToYAML_KeepsKeyTags ensures non-string keys survive a load and encode cycle.
func TestToYAML_KeepsKeyTags(t *testing.T) {
	t.Parallel()

	node := parse(t, "1: one\n\"2\": two\ntrue: yes\n")

	m := node.Mapping()
	require.Equal(t, TagInt, m.KeyTag("1"))
	require.Equal(t, TagString, m.KeyTag("2"))
	require.Equal(t, TagBool, m.KeyTag("true"))
	require.Equal(t, TagInt, m.Clone().KeyTag("1"))

	out, err := yaml.Marshal(node.ToYAML())
	require.NoError(t, err)

	var decoded map[any]string
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, map[any]string{1: "one", "2": "two", true: "yes"}, decoded)

	m.Delete("1")
	m.Set("1", String("again"))
	require.Equal(t, TagString, m.KeyTag("1"))
}
