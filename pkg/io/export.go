package io

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

type treeFile struct {
	Nodes []*tree.Node `json:"nodes"`
}

// WriteJSON encodes a tree map as JSON and writes it to w.
// Nodes are written in insertion order, so [ReadJSON] restores the same
// order.
func WriteJSON(m *tree.Map, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(treeFile{Nodes: m.Nodes()}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalMap returns the compact JSON encoding of a tree map.
func MarshalMap(m *tree.Map) ([]byte, error) {
	return json.Marshal(treeFile{Nodes: m.Nodes()})
}

// ExportJSON writes a tree map to a JSON file at path.
func ExportJSON(m *tree.Map, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}

// WriteLayout encodes a layout result as indented JSON.
func WriteLayout(res layout.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalLayout returns the compact JSON encoding of a layout result.
func MarshalLayout(res layout.Result) ([]byte, error) {
	return json.Marshal(res)
}

// ExportLayout writes a layout result to a JSON file at path.
func ExportLayout(res layout.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(res, f)
}
