package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectActivePage(t *testing.T) {
	tests := []struct {
		name    string
		infos   []TargetInfo
		wantID  string
		wantTop bool
		wantErr error
	}{
		{
			name:    "no targets at all",
			infos:   nil,
			wantErr: ErrNoActivePage,
		},
		{
			name: "single page",
			infos: []TargetInfo{
				{ID: "t1", Type: "page", URL: "https://example.com"},
			},
			wantID:  "t1",
			wantTop: true,
		},
		{
			name: "last page wins",
			infos: []TargetInfo{
				{ID: "t1", Type: "page"},
				{ID: "t2", Type: "page"},
				{ID: "t3", Type: "page"},
			},
			wantID:  "t3",
			wantTop: true,
		},
		{
			name: "iframe after the last page is ignored",
			infos: []TargetInfo{
				{ID: "t1", Type: "page"},
				{ID: "t2", Type: "page"},
				{ID: "f1", Type: "iframe"},
			},
			wantID:  "t2",
			wantTop: true,
		},
		{
			name: "only frames falls back to last entry",
			infos: []TargetInfo{
				{ID: "f1", Type: "iframe"},
				{ID: "f2", Type: "iframe"},
			},
			wantID:  "f2",
			wantTop: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := selectActivePage(tt.infos)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ref.TargetID)
			assert.Equal(t, tt.wantTop, ref.TopLevel)
		})
	}
}

func TestResolvePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/list", r.URL.Path)
		w.Write([]byte(`[
			{"id":"tab-1","type":"page","url":"https://one.example","title":"One"},
			{"id":"frame-1","type":"iframe","url":"https://ads.example","title":"Ad"},
			{"id":"tab-2","type":"page","url":"https://two.example","title":"Two"}
		]`))
	}))
	defer server.Close()

	s := &Session{Endpoint: endpointForServer(t, server)}
	ref, err := ResolvePage(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "tab-2", ref.TargetID)
	assert.Equal(t, "https://two.example", ref.URL)
	assert.Equal(t, "Two", ref.Title)
	assert.True(t, ref.TopLevel)
}

func TestListPagesProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	s := &Session{Endpoint: endpointForServer(t, server)}
	_, err := ListPages(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}
