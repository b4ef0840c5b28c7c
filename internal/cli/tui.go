package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/tree"
	"github.com/jsonviz/jsonviz/pkg/visibility"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// Markers drawn before container labels.
const (
	markerCollapsed = "▸"
	markerExpanded  = "▾"
	markerLeaf      = " "
)

// =============================================================================
// BrowseModel - Interactive tree browser
// =============================================================================

// BrowseModel is the bubbletea model for browsing a tree map with
// collapsible containers.
type BrowseModel struct {
	Tree      *tree.Map
	Root      string
	Collapsed *visibility.Set
	Rows      []visibility.Row
	Cursor    int
	Offset    int
	Height    int

	// Selected is the pointer chosen with "p", if any.
	Selected string
}

// NewBrowseModel creates a browser over m starting at root. A nil set
// starts fully expanded.
func NewBrowseModel(m *tree.Map, root string, collapsed *visibility.Set) BrowseModel {
	if collapsed == nil {
		collapsed = visibility.NewSet()
	}
	b := BrowseModel{
		Tree:      m,
		Root:      root,
		Collapsed: collapsed,
		Height:    15,
	}
	b.refresh()
	return b
}

// refresh recomputes the visible rows and keeps the cursor in range.
func (m *BrowseModel) refresh() {
	m.Rows = visibility.Visible(m.Tree, m.Root, m.Collapsed)
	if m.Cursor >= len(m.Rows) {
		m.Cursor = max(len(m.Rows)-1, 0)
	}
	m.scroll()
}

func (m *BrowseModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// current returns the row under the cursor.
func (m BrowseModel) current() (visibility.Row, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return visibility.Row{}, false
	}
	return m.Rows[m.Cursor], true
}

// Restore replaces the collapsed set with ids and moves the cursor to
// cursorID. IDs no longer in the tree are ignored.
func (m *BrowseModel) Restore(ids []string, cursorID string) {
	set := visibility.NewSet()
	for _, id := range ids {
		if m.Tree.Has(id) {
			set.Collapse(id)
		}
	}
	m.Collapsed = set
	m.Cursor = 0
	m.refresh()
	for i, r := range m.Rows {
		if r.ID == cursorID {
			m.Cursor = i
			m.scroll()
			break
		}
	}
}

// CurrentID returns the pointer of the row under the cursor.
func (m BrowseModel) CurrentID() string {
	row, _ := m.current()
	return row.ID
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.scroll()
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				m.scroll()
			}
		case "enter", " ":
			if row, ok := m.current(); ok && row.HasChildren {
				m.Collapsed.Toggle(row.ID)
				m.refresh()
			}
		case "right", "l":
			if row, ok := m.current(); ok && row.Collapsed {
				m.Collapsed.Expand(row.ID)
				m.refresh()
			}
		case "left", "h":
			m.collapseOrParent()
		case "e":
			m.Collapsed.Clear()
			m.refresh()
		case "c":
			m.Collapsed = visibility.CollapseToDepth(m.Tree, m.Root, 1)
			m.Cursor = 0
			m.refresh()
		case "p":
			if row, ok := m.current(); ok {
				m.Selected = row.ID
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
		m.scroll()
	}
	return m, nil
}

// collapseOrParent collapses the current container, or moves to the parent
// row when it is already collapsed or a leaf.
func (m *BrowseModel) collapseOrParent() {
	row, ok := m.current()
	if !ok {
		return
	}
	if row.HasChildren && !row.Collapsed {
		m.Collapsed.Collapse(row.ID)
		m.refresh()
		return
	}
	for i := m.Cursor - 1; i >= 0; i-- {
		if m.Rows[i].Depth == row.Depth-1 {
			m.Cursor = i
			m.scroll()
			return
		}
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  ←/→ collapse/expand  e expand all  c collapse all  p print pointer  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, rowLabel(r), r.Type.String(), r.ID, lineOf(m.Tree, r.ID)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Type", "Pointer", "Line").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case col >= 2:
				return listDimStyle
			case m.Rows[idx].Type.IsContainer():
				return listNormalStyle.Bold(true)
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d collapsed", m.Cursor+1, len(m.Rows), m.Collapsed.Len())))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// rowLabel indents a row by depth and marks containers.
func rowLabel(r visibility.Row) string {
	marker := markerLeaf
	switch {
	case r.Collapsed:
		marker = markerCollapsed
	case r.HasChildren:
		marker = markerExpanded
	}
	label := r.Label
	if r.Type.IsContainer() && r.Collapsed {
		label += " " + containerHint(r.Type)
	}
	return strings.Repeat("  ", r.Depth) + marker + " " + label
}

func containerHint(k document.Kind) string {
	if k == document.KindArray {
		return "[…]"
	}
	return "{…}"
}

func lineOf(m *tree.Map, id string) string {
	n, ok := m.Node(id)
	if !ok || n.Data.Line == 0 {
		return "—"
	}
	return strconv.Itoa(n.Data.Line)
}
