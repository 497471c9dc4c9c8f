package tree

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const tagMerge = "!!merge"

var (
	// errNonScalarKey is returned for mapping keys that are sequences or mappings.
	errNonScalarKey = errors.New("mapping keys must be scalars")
	// errBadMergeValue is returned when a "<<" key points at something other than mappings.
	errBadMergeValue = errors.New("merge key value must be a mapping or a sequence of mappings")
	// errUnknownNodeKind is returned for yaml.Node kinds that cannot be represented.
	errUnknownNodeKind = errors.New("unsupported YAML node kind")
)

// FromYAML converts a parsed yaml.Node into a tree node.
// Aliases are expanded and merge keys ("<<") are flattened. Comments,
// anchors and styles are discarded.
func FromYAML(value *yaml.Node) (*Node, error) {
	// A zero node is what yaml.Unmarshal leaves behind for empty input.
	if value == nil || value.Kind == 0 {
		return Null(), nil
	}

	switch value.Kind {
	case yaml.DocumentNode:
		if len(value.Content) == 0 {
			return Null(), nil
		}

		return FromYAML(value.Content[0])
	case yaml.AliasNode:
		return FromYAML(value.Alias)
	case yaml.ScalarNode:
		return Scalar(value.ShortTag(), value.Value), nil
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(value.Content))

		for _, child := range value.Content {
			item, err := FromYAML(child)
			if err != nil {
				return nil, err
			}

			items = append(items, item)
		}

		return &Node{kind: KindSequence, items: items}, nil
	case yaml.MappingNode:
		m, err := mappingFromYAML(value)
		if err != nil {
			return nil, err
		}

		return FromMapping(m), nil
	default:
		return nil, fmt.Errorf("line %d: %w", value.Line, errUnknownNodeKind)
	}
}

// mappingFromYAML builds an ordered mapping. Entries pulled in through merge
// keys come first, explicit entries then override them in place.
func mappingFromYAML(value *yaml.Node) (*Mapping, error) {
	var (
		result   = NewMapping()
		explicit = make([][2]*yaml.Node, 0, len(value.Content)/2)
	)

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		if key.Kind == yaml.ScalarNode && key.ShortTag() == tagMerge {
			if err := applyMergeKey(result, val); err != nil {
				return nil, fmt.Errorf("line %d: %w", key.Line, err)
			}

			continue
		}

		explicit = append(explicit, [2]*yaml.Node{key, val})
	}

	for _, pair := range explicit {
		key := pair[0]
		if key.Kind == yaml.AliasNode {
			key = key.Alias
		}

		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %w", key.Line, errNonScalarKey)
		}

		child, err := FromYAML(pair[1])
		if err != nil {
			return nil, err
		}

		result.Set(key.Value, child).SetKeyTag(key.Value, key.ShortTag())
	}

	return result, nil
}

// applyMergeKey copies entries of the merged mappings that are not set yet.
// With a sequence of mappings the earlier ones take precedence.
func applyMergeKey(dst *Mapping, value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		value = value.Alias
	}

	switch value.Kind {
	case yaml.MappingNode:
		merged, err := mappingFromYAML(value)
		if err != nil {
			return err
		}

		for _, key := range merged.Keys() {
			if dst.Has(key) {
				continue
			}

			child, _ := merged.Get(key)
			dst.Set(key, child).SetKeyTag(key, merged.KeyTag(key))
		}

		return nil
	case yaml.SequenceNode:
		for _, child := range value.Content {
			resolved := child
			if resolved.Kind == yaml.AliasNode {
				resolved = resolved.Alias
			}

			if resolved.Kind != yaml.MappingNode {
				return errBadMergeValue
			}

			if err := applyMergeKey(dst, resolved); err != nil {
				return err
			}
		}

		return nil
	default:
		return errBadMergeValue
	}
}

// ToYAML converts the node into a block-style yaml.Node ready for encoding.
func (n *Node) ToYAML() *yaml.Node {
	switch n.Kind() {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagNull, Value: "null"}
	case KindScalar:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: n.tag, Value: n.value}
	case KindSequence:
		out := &yaml.Node{
			Kind:    yaml.SequenceNode,
			Tag:     "!!seq",
			Content: make([]*yaml.Node, 0, len(n.items)),
		}

		for _, item := range n.items {
			out.Content = append(out.Content, item.ToYAML())
		}

		return out
	case KindMapping:
		out := &yaml.Node{
			Kind:    yaml.MappingNode,
			Tag:     "!!map",
			Content: make([]*yaml.Node, 0, 2*n.mapping.Len()),
		}

		for _, key := range n.mapping.keys {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: n.mapping.KeyTag(key), Value: key},
				n.mapping.values[key].ToYAML(),
			)
		}

		return out
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagNull, Value: "null"}
	}
}
