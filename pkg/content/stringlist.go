package content

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// StringList accepts either a single string or a list of strings. Numbers are kept
// in their literal form; anything else is ignored.
type StringList []string

// UnmarshalJSON implements custom JSON unmarshaling to support both string and array formats
func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = fromSingle(jsonScalar(data, true))
		return nil
	}

	var list StringList
	for _, r := range raw {
		if s := jsonScalar(r, true); s != "" {
			list = append(list, s)
		}
	}
	*l = list
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML scene documents
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = fromSingle(yamlScalar(node, true))
	case yaml.SequenceNode:
		var list StringList
		for _, item := range node.Content {
			if s := yamlScalar(item, true); s != "" {
				list = append(list, s)
			}
		}
		*l = list
	default:
		*l = nil
	}
	return nil
}

func fromSingle(s string) StringList {
	if s == "" {
		return nil
	}
	return StringList{s}
}
