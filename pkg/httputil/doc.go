// Package httputil fetches remote documents.
//
// [Fetcher] downloads a JSON, YAML or TOML document over HTTP and guesses
// its format from the Content-Type header, falling back to the URL's file
// extension:
//
//	f := httputil.NewFetcher(nil)
//	doc, err := f.Fetch(ctx, "https://example.com/openapi.yaml")
//	// doc.Format == document.FormatYAML
//
// Network errors, 429 and 5xx responses are retried with exponential
// backoff by [Retry]. Other 4xx responses fail immediately: 404 maps to
// FILE_NOT_FOUND and the rest to INVALID_INPUT.
package httputil
