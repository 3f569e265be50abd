// Package http provides the HTTP client used for every remote document and
// artifact the launcher fetches.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-request timeouts
//   - JSON document decoding
//   - Streaming file downloads with progress tracking
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Fetch a JSON document
//	var doc map[string]any
//	err := client.GetJSON(ctx, "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json", &doc)
//
//	// Download file with progress callback
//	client.DownloadFile(ctx, jarURL, "/path/to/client.jar", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Errors
//
// Responses outside the 2xx range are reported as *StatusError, which also
// matches ErrStatus:
//
//	if errors.Is(err, http.ErrStatus) {
//	    // remote answered, but not with content
//	}
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
