// Package web embeds the static dashboard served by the API server.
//
// The dashboard is a single page in out/ that calls /api/v1/analyze and
// listens on /api/v1/ws for progress.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:out
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded out/ directory, ready
// for http.FileServerFS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "out")
	if err != nil {
		// out/ is embedded at compile time, so this cannot fail at run time.
		panic("web: " + err.Error())
	}
	return sub
}
