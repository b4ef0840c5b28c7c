package document

import (
	"strconv"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

// Kind is the closed set of document value types.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindNumber:  "number",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsContainer reports whether values of this kind hold children.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindObject
}

// MarshalText encodes the kind as its lower-case name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindNull, errors.New(errors.ErrCodeInvalidInput, "unknown value type %q", s)
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value *Value
}

// Value is a node of the document model. Which fields are meaningful
// depends on Kind: Bool for booleans, Text for strings and numbers, Items
// for arrays, Members for objects.
type Value struct {
	Kind    Kind
	Bool    bool
	Text    string
	Items   []*Value
	Members []Member
	Line    int
}

// Null returns a new null value.
func Null() *Value { return &Value{Kind: KindNull} }

// Bool returns a new boolean value.
func Bool(b bool) *Value { return &Value{Kind: KindBoolean, Bool: b} }

// Number returns a new number value holding the literal text.
func Number(literal string) *Value { return &Value{Kind: KindNumber, Text: literal} }

// String returns a new string value.
func String(s string) *Value { return &Value{Kind: KindString, Text: s} }

// Array returns a new array value holding items.
func Array(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{Kind: KindArray, Items: items}
}

// Object returns a new object value holding members in order.
func Object(members ...Member) *Value {
	if members == nil {
		members = []Member{}
	}
	return &Value{Kind: KindObject, Members: members}
}

// Len returns the number of direct children: items for arrays, members for
// objects, zero for scalars.
func (v *Value) Len() int {
	switch v.Kind {
	case KindArray:
		return len(v.Items)
	case KindObject:
		return len(v.Members)
	}
	return 0
}

// Get returns the value of the first member named key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Scalar returns the display text of a scalar value: the raw string, the
// number literal, "true"/"false" or "null". Containers return "".
func (v *Value) Scalar() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindNumber, KindString:
		return v.Text
	}
	return ""
}

// Count returns the total number of values reachable from v, including v.
// Shared values are counted once per path that reaches them.
func (v *Value) Count() int {
	n := 0
	stack := []*Value{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		switch cur.Kind {
		case KindArray:
			stack = append(stack, cur.Items...)
		case KindObject:
			for _, m := range cur.Members {
				stack = append(stack, m.Value)
			}
		}
	}
	return n
}
