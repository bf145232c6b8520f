// package markdown renders note markup to sanitised HTML.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
	)
	policy = bluemonday.UGCPolicy()
)

// Render converts markdown source to HTML and strips any markup outside
// the user-generated-content policy.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return string(policy.SanitizeBytes(buf.Bytes())), nil
}
