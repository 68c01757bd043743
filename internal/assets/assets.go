// Package assets talks to the external binary asset store. The service
// accepts multipart uploads and answers with a JSON document containing the
// public URL of the stored object.
package assets

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Upload is a single file to hand to the asset store.
type Upload struct {
	Filename string
	Content  []byte
}

// Store persists a binary object and returns its public URL. Failures are
// surfaced to the caller; nothing is swallowed.
type Store interface {
	Store(ctx context.Context, upload Upload) (string, error)
}

// HTTPStore uploads to the asset service over HTTP.
type HTTPStore struct {
	client *resty.Client
}

func NewHTTPStore(baseURL, apiKey string) *HTTPStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey)
	return &HTTPStore{client: client}
}

func (s *HTTPStore) Store(ctx context.Context, upload Upload) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", upload.Filename, bytesReader(upload.Content)).
		Post("/files")
	if err != nil {
		return "", fmt.Errorf("uploading %q: %w", upload.Filename, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("asset store rejected %q: %s", upload.Filename, resp.Status())
	}

	url := gjson.GetBytes(resp.Body(), "url")
	if !url.Exists() || url.String() == "" {
		return "", fmt.Errorf("asset store response for %q has no url", upload.Filename)
	}
	return url.String(), nil
}
