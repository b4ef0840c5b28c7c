package pipeline

import (
	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// Parse decodes a document in the format named by opts.
func Parse(data []byte, opts Options) (*document.Value, error) {
	if err := errors.ValidateDocumentSize(len(data), opts.MaxDocumentBytes); err != nil {
		return nil, err
	}
	return document.Parse(opts.Format, data)
}

// BuildTree builds the tree map of a decoded document.
func BuildTree(doc *document.Value, opts Options) (*tree.Map, error) {
	var buildOpts []tree.BuildOption
	if opts.SourceLines {
		buildOpts = append(buildOpts, tree.WithSourceLines())
	}
	return tree.Build(doc, buildOpts...)
}
