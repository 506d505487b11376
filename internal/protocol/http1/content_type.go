package http1

import "strings"

// ContentType pairs a file extension with the MIME type served for it.
type ContentType struct {
	Extension string
	MIMEType  string
}

var (
	ContentTypeHTML       = ContentType{Extension: ".html", MIMEType: "text/html;charset=utf-8"}
	ContentTypeCSS        = ContentType{Extension: ".css", MIMEType: "text/css;charset=utf-8"}
	ContentTypeJavaScript = ContentType{Extension: ".js", MIMEType: "application/javascript"}
	ContentTypeIcon       = ContentType{Extension: ".ico", MIMEType: "image/x-icon"}
	ContentTypeSVG        = ContentType{Extension: ".svg", MIMEType: "image/svg+xml"}
)

// contentTypes is searched in order; the first suffix match wins.
var contentTypes = []ContentType{
	ContentTypeHTML,
	ContentTypeCSS,
	ContentTypeJavaScript,
	ContentTypeIcon,
	ContentTypeSVG,
}

// ContentTypeFor resolves the content type of path by extension. Unknown
// extensions resolve to HTML.
func ContentTypeFor(path string) ContentType {
	for _, ct := range contentTypes {
		if strings.HasSuffix(path, ct.Extension) {
			return ct
		}
	}
	return ContentTypeHTML
}
