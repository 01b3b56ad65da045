package bfinal

import (
	"html"
	"strconv"
	"strings"
)

// body is the encoded error response together with its declared type.
type body struct {
	contentType string
	payload     []byte
}

// length is the Content-Length of the body in bytes.
func (b body) length() string { return strconv.Itoa(len(b.payload)) }

var htmlMessageReplacer = strings.NewReplacer("\n", "<br>", "  ", " &nbsp;")

// buildBody encodes msg in the representation selected by mediaType.
func buildBody(mediaType, msg string) body {
	if mediaType == MediaTypeText {
		return body{
			contentType: "text/plain; charset=utf-8",
			payload:     []byte(msg + "\n"),
		}
	}

	return body{
		contentType: "text/html; charset=utf-8",
		payload:     []byte(htmlDocument(msg)),
	}
}

// htmlDocument wraps the escaped message in a minimal static document. Line breaks become
// <br> and double spaces keep their indentation.
func htmlDocument(msg string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n")
	b.WriteString("<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>Error</title>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	b.WriteString("<pre>")
	b.WriteString(htmlMessageReplacer.Replace(html.EscapeString(msg)))
	b.WriteString("</pre>\n")
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.String()
}
