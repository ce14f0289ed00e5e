package service

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedDocument reports an upload the gateway cannot extract text
// from. Maps to 415 at the boundary.
var ErrUnsupportedDocument = errors.New("service: unsupported document type")

// Extractor turns an uploaded document into plain text. Binary formats (PDF,
// DOCX) would plug in here as additional implementations; the gateway itself
// only ships the plain-text one.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
}

// PlainTextExtractor accepts .txt and .md uploads whose content actually
// looks like text.
type PlainTextExtractor struct{}

var textExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

func (PlainTextExtractor) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := textExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, ext)
	}

	// Extension says text; make sure the bytes agree. Catches binaries
	// renamed to .txt.
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: content is not valid utf-8", ErrUnsupportedDocument)
	}
	if kind := http.DetectContentType(data); !strings.HasPrefix(kind, "text/") {
		return "", fmt.Errorf("%w: content sniffed as %s", ErrUnsupportedDocument, kind)
	}

	return string(data), nil
}
