package io

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// ReadJSON decodes a tree map from r.
//
// ReadJSON returns an error if the JSON is malformed, a node has an empty
// or duplicate ID, or a relation references an unknown ID. It does not
// close r.
func ReadJSON(r io.Reader) (*tree.Map, error) {
	var data treeFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	m := tree.NewMap(len(data.Nodes))
	for _, n := range data.Nodes {
		if n == nil {
			return nil, fmt.Errorf("decode: null node")
		}
		if err := m.Add(n); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalMap decodes a tree map from data.
func UnmarshalMap(data []byte) (*tree.Map, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ImportJSON reads a JSON file at path and returns the decoded tree map.
func ImportJSON(path string) (*tree.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadLayout decodes a layout result from r.
func ReadLayout(r io.Reader) (layout.Result, error) {
	var res layout.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return layout.Result{}, fmt.Errorf("decode: %w", err)
	}
	return res, nil
}

// UnmarshalLayout decodes a layout result from data.
func UnmarshalLayout(data []byte) (layout.Result, error) {
	return ReadLayout(bytes.NewReader(data))
}

// ImportLayout reads a layout JSON file at path.
func ImportLayout(path string) (layout.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return layout.Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}
