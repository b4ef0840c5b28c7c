package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/tree"
	"github.com/jsonviz/jsonviz/pkg/visibility"
)

func newTestBrowser(t *testing.T) BrowseModel {
	t.Helper()
	v, err := document.Parse(document.FormatJSON, []byte(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	m, err := tree.Build(v)
	if err != nil {
		t.Fatal(err)
	}
	return NewBrowseModel(m, tree.RootID, nil)
}

func press(m BrowseModel, keys ...tea.KeyMsg) BrowseModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(BrowseModel)
	}
	return m
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModel_Toggle(t *testing.T) {
	m := newTestBrowser(t)
	if len(m.Rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(m.Rows))
	}

	m = press(m, keyDown, keyEnter)
	if len(m.Rows) != 4 {
		t.Errorf("rows after collapsing /a = %d, want 4", len(m.Rows))
	}
	if !m.Collapsed.Has("/a") {
		t.Error("/a should be collapsed")
	}

	m = press(m, keyRight)
	if len(m.Rows) != 6 || m.Collapsed.Has("/a") {
		t.Errorf("right should expand /a again, rows = %d", len(m.Rows))
	}
}

func TestBrowseModel_LeftMovesToParent(t *testing.T) {
	m := newTestBrowser(t)

	m = press(m, keyDown, keyDown, keyLeft)
	if got := m.Rows[m.Cursor].ID; got != "/a" {
		t.Errorf("cursor on %q after left from a leaf, want /a", got)
	}

	m = press(m, keyLeft)
	if !m.Collapsed.Has("/a") {
		t.Error("left on an expanded container should collapse it")
	}
}

func TestBrowseModel_CollapseAndExpandAll(t *testing.T) {
	m := newTestBrowser(t)

	m = press(m, runes("c"))
	if len(m.Rows) != 3 {
		t.Errorf("rows after collapse all = %d, want 3", len(m.Rows))
	}

	m = press(m, runes("e"))
	if len(m.Rows) != 6 || m.Collapsed.Len() != 0 {
		t.Errorf("rows after expand all = %d, collapsed = %d", len(m.Rows), m.Collapsed.Len())
	}
}

func TestBrowseModel_CursorBounds(t *testing.T) {
	m := newTestBrowser(t)

	m = press(m, keyUp)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
	for range 10 {
		m = press(m, keyDown)
	}
	if m.Cursor != len(m.Rows)-1 {
		t.Errorf("cursor = %d, want %d", m.Cursor, len(m.Rows)-1)
	}
}

func TestBrowseModel_Select(t *testing.T) {
	m := newTestBrowser(t)

	next, cmd := press(m, keyDown).Update(runes("p"))
	m = next.(BrowseModel)
	if m.Selected != "/a" {
		t.Errorf("Selected = %q, want /a", m.Selected)
	}
	if cmd == nil {
		t.Error("selecting should quit")
	}
}

func TestBrowseModel_View(t *testing.T) {
	set := visibility.NewSet()
	m := newTestBrowser(t)
	m.Collapsed = set
	m = press(m, keyDown, keyEnter)

	view := m.View()
	for _, want := range []string{"Browse Tree", "/a", "[…]", "1 collapsed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "/a/0") {
		t.Error("view should not list hidden rows")
	}
}

func TestBrowseModel_Restore(t *testing.T) {
	m := newTestBrowser(t)

	m.Restore([]string{"/b", "/gone"}, "/b")
	if m.Collapsed.Len() != 1 || !m.Collapsed.Has("/b") {
		t.Errorf("collapsed = %v, want only /b", m.Collapsed.IDs())
	}
	if len(m.Rows) != 5 {
		t.Errorf("rows = %d, want 5", len(m.Rows))
	}
	if m.CurrentID() != "/b" {
		t.Errorf("cursor on %q, want /b", m.CurrentID())
	}
}
