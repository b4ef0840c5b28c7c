package worker

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/pointer"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// Progress ranges of the three stages.
const (
	progressParse = 0
	progressNodes = 10
	progressEdges = 80
	progressDone  = 99
)

// frame is a pending value on the traversal stack.
type frame struct {
	value  *document.Value
	id     string
	key    string
	parent string
	depth  int
	line   int
}

var framePool = sync.Pool{New: func() any { return new(frame) }}

func getFrame() *frame { return framePool.Get().(*frame) }

func putFrame(f *frame) {
	*f = frame{}
	framePool.Put(f)
}

// decodePayload parses the document carried by p.
func decodePayload(p ProcessPayload, limit int) (*document.Value, error) {
	data := bytes.TrimSpace(p.JSONData)
	if err := errors.ValidateDocumentSize(len(data), limit); err != nil {
		return nil, err
	}
	if bytes.Equal(data, []byte("null")) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "jsonData is null")
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode jsonData string")
		}
		if strings.TrimSpace(text) == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "document is empty")
		}
		data = []byte(text)
	}
	format, err := document.ParseFormat(string(p.Format))
	if err != nil {
		return nil, err
	}
	return document.Parse(format, data)
}

// run executes the job and returns its terminal message.
func (s *session) run(p ProcessPayload) (Message, error) {
	if err := s.report(StageParse, progressParse, true); err != nil {
		return Message{}, err
	}
	doc, err := decodePayload(p, s.w.cfg.MaxDocumentBytes)
	if err != nil {
		return Message{}, err
	}
	if err := s.cancelled(); err != nil {
		return Message{}, err
	}

	total := doc.Count()
	if s.opts.Preallocate {
		s.nodes = make([]NodeRecord, 0, total)
		s.edges = make([]EdgeRecord, 0, max(total-1, 0))
	}

	if err := s.report(StageNodes, progressNodes, true); err != nil {
		return Message{}, err
	}
	if err := s.walk(doc, total); err != nil {
		return Message{}, err
	}

	if err := s.report(StageEdges, progressEdges, true); err != nil {
		return Message{}, err
	}
	if err := s.link(); err != nil {
		return Message{}, err
	}

	if err := s.flush(true); err != nil {
		return Message{}, err
	}
	return s.complete(), nil
}

// walk appends one record per node in pre-order.
func (s *session) walk(doc *document.Value, total int) error {
	spacing := s.opts.Spacing
	if spacing == 0 {
		spacing = layout.DefaultSpacing.Depth
	}
	horizontal := s.opts.Direction == Horizontal
	seen := make(map[*document.Value]struct{})

	root := getFrame()
	*root = frame{value: doc, id: tree.RootID, key: tree.RootLabel, line: 1}
	stack := []*frame{root}

	for len(stack) > 0 {
		if err := s.checkpoint(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(s.levels) <= f.depth {
			s.levels = append(s.levels, 0)
		}
		index := s.levels[f.depth]
		s.levels[f.depth]++
		pos := layout.Position{X: float64(index) * layout.DefaultSpacing.Sibling, Y: float64(f.depth) * spacing}
		if horizontal {
			pos.X, pos.Y = pos.Y, pos.X
		}

		rec := NodeRecord{
			ID:       f.id,
			Type:     f.value.Kind,
			Parent:   f.parent,
			Depth:    f.depth,
			Line:     f.line,
			Position: pos,
		}

		if !f.value.Kind.IsContainer() {
			rec.Value = s.truncate(f.value.Scalar())
			rec.Label = s.intern(f.key + ": " + rec.Value)
			s.nodes = append(s.nodes, rec)
			putFrame(f)
			if err := s.progressNodes(total); err != nil {
				return err
			}
			continue
		}

		rec.Label = s.intern(f.key)
		_, visited := seen[f.value]
		if visited {
			s.nodes = append(s.nodes, rec)
			putFrame(f)
			if err := s.progressNodes(total); err != nil {
				return err
			}
			continue
		}
		seen[f.value] = struct{}{}

		count := f.value.Len()
		rec.ChildCount = count
		s.nodes = append(s.nodes, rec)

		atRoot := f.id == tree.RootID
		next := f.line + 1
		mark := len(stack)
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
			c := getFrame()
			*c = frame{value: child, id: id, key: key, parent: f.id, depth: f.depth + 1, line: next}
			stack = append(stack, c)
			if child.Kind.IsContainer() {
				next += child.Len() + 2
			} else {
				next++
			}
		}
		slices.Reverse(stack[mark:])
		putFrame(f)

		if err := s.progressNodes(total); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) progressNodes(total int) error {
	if err := s.flush(false); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	pct := progressNodes + len(s.nodes)*(progressEdges-progressNodes)/total
	return s.report(StageNodes, pct, false)
}

// link appends one edge per non-root node, in node order.
func (s *session) link() error {
	n := len(s.nodes)
	for i := range s.nodes {
		if err := s.checkpoint(); err != nil {
			return err
		}
		rec := &s.nodes[i]
		if rec.Parent == "" {
			continue
		}
		s.edges = append(s.edges, EdgeRecord{
			ID:     layout.EdgeID(rec.Parent, rec.ID),
			Source: rec.Parent,
			Target: rec.ID,
		})
		if err := s.flush(false); err != nil {
			return err
		}
		pct := progressEdges + (i+1)*(progressDone-progressEdges)/n
		if err := s.report(StageEdges, pct, false); err != nil {
			return err
		}
	}
	return nil
}

// complete builds the terminal message.
func (s *session) complete() Message {
	nodes := s.nodes
	if limit := s.opts.MaxNodesToProcess; limit > 0 && len(nodes) > limit {
		nodes = slices.Clone(nodes)
		slices.SortStableFunc(nodes, func(a, b NodeRecord) int { return a.Depth - b.Depth })
	}
	m := Message{
		Type:           TypeComplete,
		ProcessingTime: float64(s.w.cfg.Now().Sub(s.start).Microseconds()) / 1000.0,
		NodesCount:     len(nodes),
	}
	if s.opts.Compact {
		m.Type = TypeCompleteCompact
		m.Compact = encodeCompact(nodes, s.edges)
	} else {
		m.Nodes, m.Edges = nodes, s.edges
	}
	return m
}

// truncate shortens scalar text for large-data jobs.
func (s *session) truncate(text string) string {
	limit := s.w.cfg.LargeDataLabelLimit
	if !s.opts.OptimizeForLargeData || limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return string(r[:limit]) + "…"
}
