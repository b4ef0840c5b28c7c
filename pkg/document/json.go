package document

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

// jsonFrame is an open container on the parse stack.
type jsonFrame struct {
	value   *Value
	key     string
	keyNext bool
	index   map[string]int
}

// ParseJSON decodes a single JSON document into an ordered [Value].
//
// Parsing uses an explicit stack, so nesting depth is bounded by memory
// rather than call depth. Trailing data after the first value is rejected.
func ParseJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		root  *Value
		stack []*jsonFrame
	)

	attach := func(v *Value) {
		if len(stack) == 0 {
			root = v
			return
		}
		top := stack[len(stack)-1]
		switch top.value.Kind {
		case KindArray:
			top.value.Items = append(top.value.Items, v)
		case KindObject:
			if i, dup := top.index[top.key]; dup {
				top.value.Members[i].Value = v
			} else {
				top.index[top.key] = len(top.value.Members)
				top.value.Members = append(top.value.Members, Member{Key: top.key, Value: v})
			}
			top.keyNext = true
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode json")
		}

		if n := len(stack); n > 0 && stack[n-1].value.Kind == KindObject && stack[n-1].keyNext {
			if d, ok := tok.(json.Delim); ok && d == '}' {
				stack = stack[:n-1]
				continue
			}
			key, ok := tok.(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeParse, "decode json: expected object key, got %v", tok)
			}
			stack[n-1].key = key
			stack[n-1].keyNext = false
			continue
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				v := Object()
				attach(v)
				stack = append(stack, &jsonFrame{value: v, keyNext: true, index: make(map[string]int)})
			case '[':
				v := Array()
				attach(v)
				stack = append(stack, &jsonFrame{value: v})
			case ']', '}':
				stack = stack[:len(stack)-1]
			}
		case json.Number:
			attach(Number(t.String()))
		case string:
			attach(String(t))
		case bool:
			attach(Bool(t))
		case nil:
			attach(Null())
		}

		if len(stack) == 0 && root != nil {
			break
		}
	}

	if root == nil {
		return nil, errors.New(errors.ErrCodeParse, "decode json: empty document")
	}
	if len(stack) != 0 {
		return nil, errors.New(errors.ErrCodeParse, "decode json: unexpected end of input")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeParse, "decode json: trailing data after document")
	}
	return root, nil
}
