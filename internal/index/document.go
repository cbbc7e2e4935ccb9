package index

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
)

// Document is a single searchable page: an opaque URL and its raw text.
type Document struct {
	URL     string `json:"url" yaml:"url"`
	Content string `json:"content" yaml:"content"`
}

func NewDocument(url, content string) *Document {
	return &Document{URL: url, Content: content}
}

// Validate reports an invalid-argument error when doc is nil or its URL or
// content is blank.
func Validate(doc *Document) error {
	if doc == nil {
		return apperrors.InvalidArgument("document must not be nil")
	}
	if isBlank(doc.URL) {
		return apperrors.InvalidArgument("document url must not be blank")
	}
	if isBlank(doc.Content) {
		return apperrors.InvalidArgument("document %q has blank content", doc.URL)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
