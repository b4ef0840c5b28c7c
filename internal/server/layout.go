package server

import (
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/jsonviz/jsonviz/pkg/buildinfo"
	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/layout"
	"github.com/jsonviz/jsonviz/pkg/pipeline"
)

// Response headers set by /v1/layout.
const (
	HeaderAlgorithm = "X-Jsonviz-Algorithm"
	HeaderNodes     = "X-Jsonviz-Nodes"
	HeaderCache     = "X-Jsonviz-Cache"
)

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.String(),
	})
}

// handleLayout runs the pipeline on the request body and responds with the
// single artifact named by the output parameter.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.layoutOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: "document too large",
				Code:  errors.ErrCodeInvalidInput,
			})
			return
		}
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	result, err := s.cfg.Runner.Execute(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := opts.Formats[0]
	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set(HeaderAlgorithm, string(result.Stats.Algorithm))
	h.Set(HeaderNodes, strconv.Itoa(result.Stats.VisibleNodes))
	h.Set(HeaderCache, cacheHeader(result.CacheInfo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// layoutOptions merges query parameters over the server defaults.
func (s *Server) layoutOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.cfg.Defaults
	opts.Collapsed = append([]string(nil), s.cfg.Defaults.Collapsed...)
	opts.Source = "http"

	format := q.Get("format")
	if format == "" {
		format = string(document.FormatFromContentType(r.Header.Get("Content-Type")))
	}
	if format != "" {
		f, err := document.ParseFormat(format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}

	if v := q.Get("direction"); v != "" {
		d, err := layout.ParseDirection(v)
		if err != nil {
			return opts, err
		}
		opts.Direction = d
	}
	if v := q.Get("edge_style"); v != "" {
		opts.EdgeStyle = layout.EdgeStyle(v)
	}

	output := q.Get("output")
	if output == "" {
		output = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(output); err != nil {
		return opts, err
	}
	opts.Formats = []string{output}

	var err error
	if opts.Threshold, err = intParam(q, "threshold", opts.Threshold); err != nil {
		return opts, err
	}
	if opts.CollapseDepth, err = intParam(q, "collapse_depth", opts.CollapseDepth); err != nil {
		return opts, err
	}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", v)
		}
	}
	for _, name := range []string{"arrow", "animated", "detailed", "source_lines", "refresh"} {
		if !q.Has(name) {
			continue
		}
		b, err := strconv.ParseBool(q.Get(name))
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, q.Get(name))
		}
		switch name {
		case "arrow":
			opts.Arrow = b
		case "animated":
			opts.Animated = b
		case "detailed":
			opts.Detailed = b
		case "source_lines":
			opts.SourceLines = b
		case "refresh":
			opts.Refresh = b
		}
	}
	opts.Collapsed = append(opts.Collapsed, q["collapsed"]...)
	return opts, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return n, nil
}

func cacheHeader(ci pipeline.CacheInfo) string {
	hit := func(b bool) string {
		if b {
			return "hit"
		}
		return "miss"
	}
	return "tree=" + hit(ci.TreeHit) + ", layout=" + hit(ci.LayoutHit) + ", render=" + hit(ci.RenderHit)
}

// statusOf maps an error code to an HTTP status.
func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPointer, errors.ErrCodeInvalidDirection,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeParse:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusOf(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("layout request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
