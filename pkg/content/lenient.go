package content

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scene documents are hand-authored and only the rule battery decides what is a defect.
// The field types below never fail to decode: a value of an unexpected type is dropped
// and the rest of the document still loads.

// Text is a scalar field that keeps strings and numbers, in their literal form
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(jsonScalar(data, true))
	return nil
}

func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	*t = Text(yamlScalar(node, true))
	return nil
}

// StringValue is a scalar field that only keeps string values. Asset references
// use it, since a number there is never a usable key or path.
type StringValue string

func (s *StringValue) UnmarshalJSON(data []byte) error {
	*s = StringValue(jsonScalar(data, false))
	return nil
}

func (s *StringValue) UnmarshalYAML(node *yaml.Node) error {
	*s = StringValue(yamlScalar(node, false))
	return nil
}

// Number is a numeric field that remembers whether a non-null value was given and
// whether that value is truthy. Numeric strings are parsed; other types count as
// present with a zero Value.
type Number struct {
	Value   float64
	present bool
	truthy  bool
}

// NewNumber returns a present Number holding v
func NewNumber(v float64) Number {
	return Number{Value: v, present: true, truthy: v != 0}
}

// Present reports whether the field carried a non-null value
func (n Number) Present() bool { return n.present }

// Truthy reports whether the value is non-zero and non-empty
func (n Number) Truthy() bool { return n.truthy }

func (n *Number) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*n = Number{}
		return nil
	}
	*n = numberOf(v)
	return nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		*n = Number{}
		return nil
	}
	*n = numberOf(v)
	return nil
}

func numberOf(v any) Number {
	switch x := v.(type) {
	case nil:
		return Number{}
	case float64:
		return NewNumber(x)
	case int:
		return NewNumber(float64(x))
	case int64:
		return NewNumber(float64(x))
	case uint64:
		return NewNumber(float64(x))
	case bool:
		return Number{present: true, truthy: x}
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return Number{Value: f, present: true, truthy: x != ""}
	case []any:
		return Number{present: true, truthy: len(x) > 0}
	case map[string]any:
		return Number{present: true, truthy: len(x) > 0}
	default:
		return Number{present: true, truthy: true}
	}
}

// List is a sequence of T. A non-sequence value decodes as empty and elements
// that do not decode as T are skipped.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make(List[T], 0, len(raw))
	for _, r := range raw {
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func (l *List[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		*l = nil
		return nil
	}
	out := make(List[T], 0, len(node.Content))
	for _, item := range node.Content {
		if item.ShortTag() == "!!null" {
			continue
		}
		var v T
		if err := item.Decode(&v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// jsonScalar returns the text of a JSON string, or of a number when numbers are allowed
func jsonScalar(data []byte, numbers bool) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case numbers && (c == '-' || (c >= '0' && c <= '9')):
		return string(data)
	}
	return ""
}

func yamlScalar(node *yaml.Node, numbers bool) string {
	if node.Kind != yaml.ScalarNode {
		return ""
	}
	switch node.ShortTag() {
	case "!!str":
		return node.Value
	case "!!int", "!!float":
		if numbers {
			return node.Value
		}
	}
	return ""
}
