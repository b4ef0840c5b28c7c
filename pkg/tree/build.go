package tree

import (
	"strconv"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/pointer"
)

type buildConfig struct {
	parentID    string
	startLine   int
	sourceLines bool
}

// BuildOption configures [Build].
type BuildOption func(*buildConfig)

// WithParentID sets the ID of the top node. The default is [RootID]; any
// other value must be a pointer, otherwise Build fails.
func WithParentID(id string) BuildOption {
	return func(c *buildConfig) { c.parentID = id }
}

// WithStartLine sets the line of the top node. The default is 1.
func WithStartLine(line int) BuildOption {
	return func(c *buildConfig) { c.startLine = line }
}

// WithSourceLines makes nodes use [document.Value.Line] when the parser
// recorded one, falling back to the estimate otherwise.
func WithSourceLines() BuildOption {
	return func(c *buildConfig) { c.sourceLines = true }
}

// buildFrame is a pending value on the walk stack.
type buildFrame struct {
	value *document.Value
	id    string
	key   string
	line  int
}

// Build walks v and returns its tree map.
//
// The walk is a pre-order depth-first traversal on an explicit stack, so
// document depth is limited by memory only. Children appear in document
// order and the map's insertion order equals the pre-order of the walk.
//
// A malformed parent ID (neither [RootID] nor a pointer) is a caller bug
// and is returned as an INVALID_POINTER error.
func Build(v *document.Value, opts ...BuildOption) (*Map, error) {
	cfg := buildConfig{parentID: RootID, startLine: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if v == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "build tree: nil document")
	}

	m := NewMap(v.Count())
	stack := []buildFrame{{value: v, id: cfg.parentID, key: rootKey(cfg.parentID), line: cfg.startLine}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		line := f.line
		if cfg.sourceLines && f.value.Line > 0 {
			line = f.value.Line
		}
		n := &Node{
			ID:   f.id,
			Data: Data{Line: line, Type: f.value.Kind},
		}
		if !f.value.Kind.IsContainer() {
			n.Label = f.key + ": " + f.value.Scalar()
			if err := m.Add(n); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build tree")
			}
			continue
		}

		n.Label = f.key
		if err := m.Add(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build tree")
		}

		atRoot := f.id == RootID
		count := f.value.Len()
		n.Children = make([]string, 0, count)
		children := make([]buildFrame, 0, count)
		next := f.line + 1

		for i := 0; i < count; i++ {
			var (
				key   string
				child *document.Value
			)
			if f.value.Kind == document.KindArray {
				key, child = strconv.Itoa(i), f.value.Items[i]
			} else {
				key, child = f.value.Members[i].Key, f.value.Members[i].Value
			}
			var id string
			if atRoot {
				id = pointer.MustBuild(pointer.Root, key)
			} else {
				id = pointer.Append(f.id, key)
			}
			n.Children = append(n.Children, id)
			children = append(children, buildFrame{value: child, id: id, key: key, line: next})
			if child.Kind.IsContainer() {
				next += child.Len() + 2
			} else {
				next++
			}
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return m, nil
}

func rootKey(id string) string {
	if id == RootID {
		return RootLabel
	}
	if last, ok := pointer.Last(id); ok {
		return last
	}
	return id
}
