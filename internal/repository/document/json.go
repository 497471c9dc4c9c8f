package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/oshokin/snap-generator/internal/domain/tree"
)

// errTrailingJSON is returned when a JSON document has content after the top-level value.
var errTrailingJSON = errors.New("unexpected content after JSON value")

// decodeJSON walks the token stream so object keys keep their source order,
// which decoding into map[string]any would lose.
func decodeJSON(contents []byte) (*tree.Node, error) {
	if len(bytes.TrimSpace(contents)) == 0 {
		return tree.Null(), nil
	}

	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.UseNumber()

	root, err := decodeJSONValue(decoder)
	if err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	if _, err = decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse JSON: %w", errTrailingJSON)
	}

	return root, nil
}

func decodeJSONValue(decoder *json.Decoder) (*tree.Node, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch value := token.(type) {
	case json.Delim:
		switch value {
		case '{':
			return decodeJSONObject(decoder)
		case '[':
			return decodeJSONArray(decoder)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", value)
		}
	case nil:
		return tree.Null(), nil
	case bool:
		return tree.Bool(value), nil
	case string:
		return tree.String(value), nil
	case json.Number:
		if _, err = strconv.ParseInt(value.String(), 10, 64); err == nil {
			return tree.Scalar(tree.TagInt, value.String()), nil
		}

		return tree.Scalar(tree.TagFloat, value.String()), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", token)
	}
}

func decodeJSONObject(decoder *json.Decoder) (*tree.Node, error) {
	result := tree.NewMapping()

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", token)
		}

		value, err := decodeJSONValue(decoder)
		if err != nil {
			return nil, err
		}

		result.Set(key, value)
	}

	// Closing '}'.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return tree.FromMapping(result), nil
}

func decodeJSONArray(decoder *json.Decoder) (*tree.Node, error) {
	items := make([]*tree.Node, 0)

	for decoder.More() {
		item, err := decodeJSONValue(decoder)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	// Closing ']'.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return tree.Sequence(items...), nil
}
