package pointer

import (
	"strings"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

// Root is the pointer addressing the whole document.
const Root = "/"

const separator = '/'

var (
	segmentEncoder = strings.NewReplacer("~", "~0", "/", "~1")
)

// EncodeSegment escapes a raw key so it can be embedded in a pointer.
// "~" becomes "~0" and "/" becomes "~1". The empty string encodes to itself.
func EncodeSegment(raw string) string {
	if !strings.ContainsAny(raw, "~/") {
		return raw
	}
	return segmentEncoder.Replace(raw)
}

// DecodeSegment reverses [EncodeSegment]: "~1" becomes "/", then "~0"
// becomes "~". It does not validate escapes; use [Parse] for that.
func DecodeSegment(encoded string) string {
	if !strings.Contains(encoded, "~") {
		return encoded
	}
	return strings.ReplaceAll(strings.ReplaceAll(encoded, "~1", "/"), "~0", "~")
}

// Build appends rawKey to parent. The parent must start with "/".
// Building from [Root] yields "/" + key; any other parent yields
// parent + "/" + key.
//
// A parent without a leading slash is a caller bug and returns an
// INVALID_POINTER error.
func Build(parent, rawKey string) (string, error) {
	if !strings.HasPrefix(parent, Root) {
		return "", errors.New(errors.ErrCodeInvalidPointer, "parent pointer %q must start with %q", parent, Root)
	}
	if parent == Root {
		return Root + EncodeSegment(rawKey), nil
	}
	return Append(parent, rawKey), nil
}

// Append joins rawKey under a node pointer. Unlike [Build] it always
// inserts a separator, so the empty key under "/" (itself the pointer to
// an empty key) yields "//". Use [Build] for children of the document root.
func Append(parent, rawKey string) string {
	enc := EncodeSegment(rawKey)
	var b strings.Builder
	b.Grow(len(parent) + 1 + len(enc))
	b.WriteString(parent)
	b.WriteByte(separator)
	b.WriteString(enc)
	return b.String()
}

// MustBuild is like [Build] but panics on a malformed parent.
// Builders use it where the parent was produced by this package.
func MustBuild(parent, rawKey string) string {
	p, err := Build(parent, rawKey)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse splits a pointer into its decoded segments. [Root] parses to an
// empty, non-nil slice. "/a/" parses to "a" followed by an empty segment.
//
// Parse fails when the pointer does not start with "/" or contains a "~"
// that is not followed by "0" or "1".
func Parse(p string) ([]string, error) {
	if !strings.HasPrefix(p, Root) {
		return nil, errors.New(errors.ErrCodeInvalidPointer, "pointer %q must start with %q", p, Root)
	}
	if p == Root {
		return []string{}, nil
	}
	if err := validateEscapes(p); err != nil {
		return nil, err
	}
	parts := strings.Split(p[1:], string(separator))
	for i, part := range parts {
		parts[i] = DecodeSegment(part)
	}
	return parts, nil
}

// Last returns the decoded final segment of p. It reports false for
// [Root] and for malformed pointers.
func Last(p string) (string, bool) {
	if p == Root || !strings.HasPrefix(p, Root) {
		return "", false
	}
	i := strings.LastIndexByte(p, separator)
	return DecodeSegment(p[i+1:]), true
}

// Parent returns the pointer p was built from. It reports false for
// [Root] and for malformed pointers. For every key k and valid parent q,
// Parent(MustBuild(q, k)) == q.
func Parent(p string) (string, bool) {
	if p == Root || !strings.HasPrefix(p, Root) {
		return "", false
	}
	i := strings.LastIndexByte(p, separator)
	if i == 0 {
		return Root, true
	}
	return p[:i], true
}

// Join builds a pointer from raw (unencoded) segments.
// Join() and Join with no segments return [Root].
func Join(segments ...string) string {
	p := Root
	for _, s := range segments {
		p = MustBuild(p, s)
	}
	return p
}

// Valid reports whether p parses without error.
func Valid(p string) bool {
	_, err := Parse(p)
	return err == nil
}

func validateEscapes(p string) error {
	for i := 0; i < len(p); i++ {
		if p[i] != '~' {
			continue
		}
		if i+1 >= len(p) || (p[i+1] != '0' && p[i+1] != '1') {
			return errors.New(errors.ErrCodeInvalidPointer, "pointer %q has unescaped '~' at offset %d", p, i)
		}
		i++
	}
	return nil
}
