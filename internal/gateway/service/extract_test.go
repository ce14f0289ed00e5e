package service_test

import (
	"testing"

	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/stretchr/testify/require"
)

func TestPlainTextExtractor(t *testing.T) {
	t.Parallel()

	var ex service.PlainTextExtractor

	text, err := ex.Extract("notes.txt", []byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	text, err = ex.Extract("README.MD", []byte("# heading\n\nbody"))
	require.NoError(t, err)
	require.Equal(t, "# heading\n\nbody", text)
}

func TestPlainTextExtractorRejectsExtensions(t *testing.T) {
	t.Parallel()

	var ex service.PlainTextExtractor

	for _, name := range []string{"report.pdf", "contract.docx", "archive.zip", "noextension"} {
		_, err := ex.Extract(name, []byte("whatever"))
		require.ErrorIs(t, err, service.ErrUnsupportedDocument, name)
	}
}

func TestPlainTextExtractorSniffsBinaries(t *testing.T) {
	t.Parallel()

	var ex service.PlainTextExtractor

	// A PDF renamed to .txt doesn't sneak past the extension check.
	_, err := ex.Extract("sneaky.txt", []byte("%PDF-1.4\n1 0 obj"))
	require.ErrorIs(t, err, service.ErrUnsupportedDocument)

	// Raw bytes that aren't utf-8 are rejected too.
	_, err = ex.Extract("garbage.txt", []byte{0xff, 0xfe, 0x00, 0x01})
	require.ErrorIs(t, err, service.ErrUnsupportedDocument)
}
