package convert

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedFormat(t *testing.T) {
	tests := []struct {
		path       string
		wantFormat string
		wantOK     bool
	}{
		{"report.docx", "docx", true},
		{"slides.PPTX", "pptx", true},
		{"book.epub", "epub", true},
		{"page.html", "html", true},
		{"page.htm", "html", true},
		{"doc.rst", "rst", true},
		{"paper.tex", "latex", true},
		{"notes.md", "markdown", true},
		{"archive.zip", "", false},
		{"binary", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, ok := SupportedFormat(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestOutputPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("docs", "report.md"), OutputPathFor(filepath.Join("docs", "report.docx")))
	assert.Equal(t, "page.md", OutputPathFor("page.html"))
}

func TestConvertErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported format", func(t *testing.T) {
		_, err := Convert(ctx, "archive.zip", Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported input format")
	})

	t.Run("missing converter binary", func(t *testing.T) {
		_, err := Convert(ctx, "report.docx", Options{Binary: "definitely-not-a-real-converter"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found on PATH")
	})
}
