// Package io provides JSON import and export for tree maps and layouts.
//
// # Overview
//
// Tree maps and layouts are derived data: they can always be rebuilt from
// the source document. This package serializes them so they can be cached,
// written to files by the CLI, and handed to external tools.
//
// # Tree Map Format
//
// A tree map is written as its nodes in insertion order:
//
//	{
//	  "nodes": [
//	    {"id": "$root", "label": "root", "children": ["/a"], "data": {"line": 1, "type": "object"}},
//	    {"id": "/a", "label": "a: 1", "data": {"line": 2, "type": "number"}}
//	  ]
//	}
//
// Each node must have an "id". The optional "children", "siblings" and
// "spouses" arrays reference other node IDs; [ReadJSON] rejects references
// to IDs that are not present.
//
// # Layout Format
//
// Layouts are written exactly as [layout.Result] marshals: nodes with
// positions and handles, edges with their relation kind, and the bounds.
//
// # Usage
//
//	m, err := io.ImportJSON("tree.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := layout.Layout(m, tree.RootID, layout.TB, layout.EdgeSettings{})
//	err = io.ExportLayout(res, "layout.json")
//
// [layout.Result]: github.com/jsonviz/jsonviz/pkg/layout.Result
package io
