// Package ingestion extracts plain text from uploaded document bytes.
package ingestion

import (
	"bytes"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// maxTextBytes caps extracted text so a pathological upload cannot balloon
// an LLM prompt.
const maxTextBytes = 1 << 20 // 1MB

var collapseWhitespace = regexp.MustCompile(`[ \t]{2,}`)
var collapseNewlines = regexp.MustCompile(`\n{3,}`)

// ErrUnsupportedFormat indicates a mime type the extractor cannot handle.
// PDF, image, audio, video and docx uploads are stored but not extracted.
type ErrUnsupportedFormat struct {
	MimeType string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("text extraction not supported for %s", e.MimeType)
}

// ErrNotText indicates content that claimed to be text but is not valid UTF-8.
type ErrNotText struct{}

func (e *ErrNotText) Error() string {
	return "content is not valid text"
}

// Extract returns the plain text of content for supported mime types.
func Extract(content []byte, mimeType string) (string, error) {
	mediaType := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}

	switch strings.ToLower(mediaType) {
	case "text/plain", "text/markdown", "text/csv":
		return extractPlain(content)
	case "text/html", "application/xhtml+xml":
		return extractHTML(content)
	default:
		return "", &ErrUnsupportedFormat{MimeType: mediaType}
	}
}

// Supported reports whether Extract can handle the mime type, letting
// callers reject before reading the blob.
func Supported(mimeType string) bool {
	mediaType := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}
	switch strings.ToLower(mediaType) {
	case "text/plain", "text/markdown", "text/csv", "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", &ErrNotText{}
	}
	return clampText(string(content)), nil
}

// extractHTML strips markup and non-content elements, keeping block
// boundaries as newlines.
func extractHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, noscript, head").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		blocks := body.Find("p, h1, h2, h3, h4, h5, h6, li, td, th, blockquote, pre, div")
		if blocks.Length() == 0 {
			sb.WriteString(body.Text())
			return
		}
		blocks.Each(func(_ int, block *goquery.Selection) {
			// Skip containers whose text is already covered by a nested block.
			if block.Find("p, h1, h2, h3, h4, h5, h6, li, td, th, blockquote, pre").Length() > 0 {
				return
			}
			text := strings.TrimSpace(block.Text())
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		})
	})

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		// Fragment without a body tag.
		text = doc.Text()
	}
	return clampText(text), nil
}

func clampText(text string) string {
	text = collapseWhitespace.ReplaceAllString(text, " ")
	text = collapseNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if len(text) > maxTextBytes {
		clipped := text[:maxTextBytes]
		// Do not cut a rune in half.
		for len(clipped) > 0 && !utf8.ValidString(clipped) {
			clipped = clipped[:len(clipped)-1]
		}
		text = clipped
	}
	return text
}
