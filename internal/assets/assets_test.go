package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStoreUploads(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/objects/` + header.Filename + `"}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "secret-key")

	url, err := store.Store(context.Background(), Upload{
		Filename: "pitch.pdf",
		Content:  []byte("pdf bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/objects/pitch.pdf", url)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestHTTPStoreErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "")

	_, err := store.Store(context.Background(), Upload{Filename: "pitch.pdf"})
	require.Error(t, err)
}

func TestHTTPStoreMissingURLInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "")

	_, err := store.Store(context.Background(), Upload{Filename: "pitch.pdf"})
	require.Error(t, err)
}
