// Package static embeds the default site served when no asset directory is
// configured.
package static

import (
	"embed"
	"io/fs"
)

//go:embed *.html
var files embed.FS

// FS returns the embedded pages rooted at the site root.
func FS() fs.FS {
	return files
}
