package manifest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Encode writes m to w in the requested format.
func Encode(w io.Writer, m *Manifest, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		return &ConfigurationError{Field: "format", Value: string(format)}
	}
}

// MarshalJSON encodes entries as an object whose keys keep declaration order.
func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ep := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ep.Name)
		if err != nil {
			return nil, err
		}
		modules := ep.Modules
		if modules == nil {
			modules = []string{}
		}
		val, err := json.Marshal(modules)
		if err != nil {
			return nil, fmt.Errorf("failed to encode entry %s: %w", ep.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes entries as an ordered mapping.
func (e Entries) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, ep := range e {
		var val yaml.Node
		if err := val.Encode(ep.Modules); err != nil {
			return nil, fmt.Errorf("failed to encode entry %s: %w", ep.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ep.Name},
			&val,
		)
	}
	return node, nil
}
