package document

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

// ParseYAML decodes the first document of a YAML stream into an ordered
// [Value]. Every value records its source line. An empty stream yields null.
func ParseYAML(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if err == io.EOF {
			return &Value{Kind: KindNull, Line: 1}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode yaml")
	}
	c := &yamlConverter{
		done:    make(map[*yaml.Node]*Value),
		pending: make(map[*yaml.Node]bool),
	}
	return c.convert(&doc)
}

type yamlConverter struct {
	done    map[*yaml.Node]*Value
	pending map[*yaml.Node]bool
}

func (c *yamlConverter) convert(n *yaml.Node) (*Value, error) {
	if v, ok := c.done[n]; ok {
		return v, nil
	}
	if c.pending[n] {
		return nil, errors.New(errors.ErrCodeParse, "decode yaml: line %d: alias refers to its own anchor", n.Line)
	}
	c.pending[n] = true
	defer delete(c.pending, n)

	var (
		v   *Value
		err error
	)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Value{Kind: KindNull, Line: n.Line}, nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		v, err = c.convert(n.Alias)
	case yaml.SequenceNode:
		v = &Value{Kind: KindArray, Items: make([]*Value, 0, len(n.Content)), Line: n.Line}
		for _, item := range n.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, child)
		}
	case yaml.MappingNode:
		v = &Value{Kind: KindObject, Members: make([]Member, 0, len(n.Content)/2), Line: n.Line}
		seen := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := c.convert(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			key := n.Content[i].Value
			if j, dup := seen[key]; dup {
				v.Members[j].Value = child
				continue
			}
			seen[key] = len(v.Members)
			v.Members = append(v.Members, Member{Key: key, Value: child})
		}
	case yaml.ScalarNode:
		v, err = yamlScalar(n)
	default:
		return nil, errors.New(errors.ErrCodeParse, "decode yaml: line %d: unsupported node kind %d", n.Line, n.Kind)
	}
	if err != nil {
		return nil, err
	}
	c.done[n] = v
	return v, nil
}

func yamlScalar(n *yaml.Node) (*Value, error) {
	v := &Value{Line: n.Line}
	switch n.ShortTag() {
	case "!!null":
		v.Kind = KindNull
	case "!!bool":
		if err := n.Decode(&v.Bool); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode yaml: line %d", n.Line)
		}
		v.Kind = KindBoolean
	case "!!int", "!!float":
		v.Kind = KindNumber
		v.Text = n.Value
	default:
		v.Kind = KindString
		v.Text = n.Value
	}
	return v, nil
}
