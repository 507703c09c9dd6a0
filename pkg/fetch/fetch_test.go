package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("converts HTML to markdown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><script>evil()</script></head><body><h1>Hello</h1><p>World</p></body></html>`))
		}))
		defer server.Close()

		result, err := Fetch(ctx, server.URL)
		require.NoError(t, err)
		assert.Contains(t, result.Markdown, "# Hello")
		assert.Contains(t, result.Markdown, "World")
		assert.NotContains(t, result.Markdown, "evil")
	})

	t.Run("passes markdown through unchanged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/markdown")
			w.Write([]byte("# Already markdown\n"))
		}))
		defer server.Close()

		result, err := Fetch(ctx, server.URL)
		require.NoError(t, err)
		assert.Equal(t, "# Already markdown\n", result.Markdown)
	})

	t.Run("rejects binary content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
		}))
		defer server.Close()

		_, err := Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported content type")
	})

	t.Run("rejects HTTP error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP error: 500")
	})

	t.Run("rejects plain HTTP for external hosts", func(t *testing.T) {
		_, err := Fetch(ctx, "http://example.com/page")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only HTTPS is supported")
	})

	t.Run("follows same-domain redirects", func(t *testing.T) {
		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, server.URL+"/end", http.StatusFound)
		})
		mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("made it"))
		})

		result, err := Fetch(ctx, server.URL+"/start")
		require.NoError(t, err)
		assert.Equal(t, "made it", result.Markdown)
	})

	t.Run("refuses cross-domain redirects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://elsewhere.example/", http.StatusFound)
		}))
		defer server.Close()

		_, err := Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redirect to different domain not allowed")
	})
}

func TestValidateScheme(t *testing.T) {
	tests := []struct {
		rawURL  string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://localhost:8080/path", false},
		{"http://127.0.0.1/path", false},
		{"http://[::1]:3000", false},
		{"http://example.com", true},
		{"ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			require.NoError(t, err)
			err = validateScheme(u)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToMarkdownFallsBackOnBadHTML(t *testing.T) {
	// Conversion of even degenerate input should never panic or error out;
	// worst case the input comes back as-is.
	out := ToMarkdown(context.Background(), "just plain text, no tags")
	assert.Contains(t, out, "just plain text")
}
