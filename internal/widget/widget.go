// Package widget serves the self-installing review widget script.
package widget

import (
	"bytes"
	"crypto/sha1"
	_ "embed"
	"encoding/hex"
	"net/http"
	"time"
)

//go:embed assets/widget.js
var script []byte

var (
	etag    = func() string { s := sha1.Sum(script); return `"` + hex.EncodeToString(s[:]) + `"` }()
	modTime = time.Now()
)

// Handler serves widget.js as application/javascript. The response is
// cacheable for an hour and revalidated by ETag.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("ETag", etag)
		http.ServeContent(w, r, "widget.js", modTime, bytes.NewReader(script))
	})
}
