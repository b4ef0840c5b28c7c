package tree

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jsonviz/jsonviz/pkg/document"
	jverrors "github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/pointer"
)

func mustParse(t *testing.T, doc string) *document.Value {
	t.Helper()
	v, err := document.ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON(%s): %v", doc, err)
	}
	return v
}

func mustBuild(t *testing.T, doc string, opts ...BuildOption) *Map {
	t.Helper()
	m, err := Build(mustParse(t, doc), opts...)
	if err != nil {
		t.Fatalf("Build(%s): %v", doc, err)
	}
	return m
}

func TestBuild_NestedScenario(t *testing.T) {
	m := mustBuild(t, `{"a": [1, "x", {"b": true}]}`)

	wantIDs := []string{RootID, "/a", "/a/0", "/a/1", "/a/2", "/a/2/b"}
	if got := m.IDs(); !reflect.DeepEqual(got, wantIDs) {
		t.Fatalf("IDs() = %v, want %v", got, wantIDs)
	}

	tests := []struct {
		id       string
		label    string
		kind     document.Kind
		line     int
		children []string
	}{
		{RootID, "root", document.KindObject, 1, []string{"/a"}},
		{"/a", "a", document.KindArray, 2, []string{"/a/0", "/a/1", "/a/2"}},
		{"/a/0", "0: 1", document.KindNumber, 3, nil},
		{"/a/1", "1: x", document.KindString, 4, nil},
		{"/a/2", "2", document.KindObject, 5, []string{"/a/2/b"}},
		{"/a/2/b", "b: true", document.KindBoolean, 6, nil},
	}
	for _, tt := range tests {
		n, ok := m.Node(tt.id)
		if !ok {
			t.Errorf("missing node %s", tt.id)
			continue
		}
		if n.Label != tt.label {
			t.Errorf("%s label = %q, want %q", tt.id, n.Label, tt.label)
		}
		if n.Data.Type != tt.kind {
			t.Errorf("%s type = %v, want %v", tt.id, n.Data.Type, tt.kind)
		}
		if n.Data.Line != tt.line {
			t.Errorf("%s line = %d, want %d", tt.id, n.Data.Line, tt.line)
		}
		if len(n.Children) != len(tt.children) || (len(tt.children) > 0 && !reflect.DeepEqual(n.Children, tt.children)) {
			t.Errorf("%s children = %v, want %v", tt.id, n.Children, tt.children)
		}
	}

	// Every content id parses back through the pointer codec.
	for _, id := range m.IDs()[1:] {
		if _, err := pointer.Parse(id); err != nil {
			t.Errorf("pointer.Parse(%q): %v", id, err)
		}
	}
}

func TestBuild_EmptyObject(t *testing.T) {
	m := mustBuild(t, `{}`)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	n, _ := m.Node(RootID)
	if len(n.Children) != 0 {
		t.Errorf("root children = %v, want none", n.Children)
	}
	if n.Data.Type != document.KindObject {
		t.Errorf("root type = %v", n.Data.Type)
	}
}

func TestBuild_ScalarRoot(t *testing.T) {
	m := mustBuild(t, `"hello"`)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	n, _ := m.Node(RootID)
	if n.Label != "root: hello" || !n.IsLeaf() {
		t.Errorf("root = %+v", n)
	}
}

func TestBuild_EmptyKeyDoesNotCollideWithRoot(t *testing.T) {
	m := mustBuild(t, `{"": 1, "a/b": {"~": 2}}`)
	want := []string{RootID, "/", "/a~1b", "/a~1b/~0"}
	if got := m.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if strings.HasPrefix(RootID, "/") {
		t.Errorf("RootID %q starts with /", RootID)
	}

	nested := mustBuild(t, `{"": {"": 1, "a": 2}}`)
	want = []string{RootID, "/", "//", "//a"}
	if got := nested.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("nested IDs() = %v, want %v", got, want)
	}
	n, _ := nested.Node("/")
	if !reflect.DeepEqual(n.Children, []string{"//", "//a"}) {
		t.Errorf("children of / = %v", n.Children)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	doc := `{"z": {"y": [1, 2, {"x": null}]}, "a": [[], {}], "m": "s"}`
	a := mustBuild(t, doc)
	b := mustBuild(t, doc)
	if !reflect.DeepEqual(a.Nodes(), b.Nodes()) {
		t.Error("Build is not idempotent")
	}
	if !reflect.DeepEqual(a.IDs(), b.IDs()) {
		t.Error("insertion order differs between builds")
	}
}

func TestBuild_NoDanglingReferences(t *testing.T) {
	docs := []string{
		`{}`,
		`[]`,
		`null`,
		`{"a": [1, "x", {"b": true}]}`,
		`[[[[[]]]], {"a": {"b": {"c": [1, 2, 3]}}}]`,
		`{"": {"": {"": ""}}}`,
	}
	for _, doc := range docs {
		m := mustBuild(t, doc)
		if err := m.Validate(); err != nil {
			t.Errorf("Validate(%s): %v", doc, err)
		}
		root, err := FindRoot(m)
		if err != nil || root != RootID {
			t.Errorf("FindRoot(%s) = %q, %v", doc, root, err)
		}
	}
}

func TestBuild_WithParentID(t *testing.T) {
	v := mustParse(t, `{"k": [true]}`)
	m, err := Build(v, WithParentID("/outer"), WithStartLine(10))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"/outer", "/outer/k", "/outer/k/0"}
	if got := m.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	top, _ := m.Node("/outer")
	if top.Label != "outer" || top.Data.Line != 10 {
		t.Errorf("top = %+v", top)
	}
}

func TestBuild_MalformedParentID(t *testing.T) {
	_, err := Build(mustParse(t, `[1]`), WithParentID("outer"))
	if !jverrors.Is(err, jverrors.ErrCodeInvalidPointer) {
		t.Errorf("err = %v, want INVALID_POINTER", err)
	}
}

func TestBuild_LineHeuristic(t *testing.T) {
	m := mustBuild(t, `{"a": {"x": 1, "y": 2}, "b": 3, "c": [4]}`)
	lines := map[string]int{
		RootID: 1,
		"/a":   2,
		"/a/x": 3,
		"/a/y": 4,
		"/b":   6, // 2 + len(a)=2 + 2
		"/c":   7,
		"/c/0": 8,
	}
	for id, want := range lines {
		n, _ := m.Node(id)
		if n.Data.Line != want {
			t.Errorf("%s line = %d, want %d", id, n.Data.Line, want)
		}
	}
}

func TestBuild_SourceLines(t *testing.T) {
	v, err := document.ParseYAML([]byte("a:\n  - 1\n\n  - 2\n"))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	m, err := Build(v, WithSourceLines())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n, _ := m.Node("/a/1")
	if n.Data.Line != 4 {
		t.Errorf("line = %d, want 4", n.Data.Line)
	}
}

func TestBuild_DeepDocument(t *testing.T) {
	const depth = 50000
	doc := strings.Repeat("[", depth) + strings.Repeat("]", depth)
	m := mustBuild(t, doc)
	if m.Len() != depth {
		t.Errorf("Len() = %d, want %d", m.Len(), depth)
	}
}

func TestFindRoot_Ambiguous(t *testing.T) {
	m := NewMap(2)
	_ = m.Add(&Node{ID: "b"})
	_ = m.Add(&Node{ID: "a"})
	id, err := FindRoot(m)
	if !errors.Is(err, ErrAmbiguousRoot) {
		t.Errorf("err = %v, want ErrAmbiguousRoot", err)
	}
	if id != "b" {
		t.Errorf("fallback = %q, want first inserted %q", id, "b")
	}
}

func TestFindRoot_Cyclic(t *testing.T) {
	m := NewMap(2)
	_ = m.Add(&Node{ID: "x", Children: []string{"y"}})
	_ = m.Add(&Node{ID: "y", Children: []string{"x"}})
	id, err := FindRoot(m)
	if !errors.Is(err, ErrAmbiguousRoot) || id != "x" {
		t.Errorf("FindRoot = %q, %v", id, err)
	}
}

func TestFindRoot_Empty(t *testing.T) {
	if _, err := FindRoot(NewMap(0)); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("err = %v, want ErrEmptyTree", err)
	}
}

func TestFindRoot_LateralRelationsCount(t *testing.T) {
	m := mustBuild(t, `{"a": 1, "b": 2}`)
	extra := &Node{ID: "/extra", Label: "extra"}
	_ = m.Add(extra)
	if _, err := FindRoot(m); !errors.Is(err, ErrAmbiguousRoot) {
		t.Fatalf("expected ambiguity before relating, got %v", err)
	}
	if err := m.Relate(RelationSpouse, "/a", "/extra"); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if root, err := FindRoot(m); err != nil || root != RootID {
		t.Errorf("FindRoot = %q, %v", root, err)
	}
}

func TestMap_AddErrors(t *testing.T) {
	m := NewMap(0)
	if err := m.Add(&Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: err = %v", err)
	}
	_ = m.Add(&Node{ID: "a"})
	if err := m.Add(&Node{ID: "a"}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate: err = %v", err)
	}
}

func TestMap_RelateAndValidate(t *testing.T) {
	m := mustBuild(t, `{"a": 1, "b": 2}`)
	if err := m.Relate(RelationSibling, "/b", "/a"); err != nil {
		t.Fatalf("Relate: %v", err)
	}
	if err := m.Relate(RelationSpouse, "/a", "/missing"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Relate missing: err = %v", err)
	}
	n, _ := m.Node("/b")
	if !reflect.DeepEqual(n.Siblings, []string{"/a"}) {
		t.Errorf("siblings = %v", n.Siblings)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	n.Spouses = append(n.Spouses, "/ghost")
	if err := m.Validate(); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("Validate dangling: err = %v", err)
	}
}

func TestMap_Descendants(t *testing.T) {
	m := mustBuild(t, `{"a": [1, {"b": 2}], "c": 3}`)
	got := m.Descendants("/a")
	want := []string{"/a/0", "/a/1", "/a/1/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Descendants(/a) = %v, want %v", got, want)
	}
	if got := m.Descendants("/c"); len(got) != 0 {
		t.Errorf("Descendants(/c) = %v, want none", got)
	}
	if got := m.Descendants("/nope"); got != nil {
		t.Errorf("Descendants(/nope) = %v, want nil", got)
	}
}
