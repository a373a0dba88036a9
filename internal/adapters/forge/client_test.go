package forge_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/internal/adapters/forge"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

func newClient(t *testing.T, handler http.HandlerFunc) *forge.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return forge.NewClient(forge.ClientConfig{
		BaseURL: srv.URL,
		Token:   "secret",
		Repo:    "acme/widget",
	}, srv.Client())
}

func TestCreateRelease(t *testing.T) {
	var got map[string]string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget/releases", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := client.CreateRelease(context.Background(), domain.Release{
		Tag:  "v1.2.0",
		Body: "### Added\n- user creation endpoint",
	})
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", got["tag_name"])
	assert.Contains(t, got["body"], "user creation")
}

func TestCreateReleaseDuplicateTag(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	err := client.CreateRelease(context.Background(), domain.Release{Tag: "v1.2.0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReleaseExists)
}

func TestUploadAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget")
	require.NoError(t, os.WriteFile(path, []byte("ELF binary bytes"), 0755))

	var body []byte
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget/releases/v1.2.0/assets", r.URL.Path)
		assert.Equal(t, "widget", r.URL.Query().Get("name"))
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.UploadAsset(context.Background(), "v1.2.0", path))
	assert.Equal(t, "ELF binary bytes", string(body))
}

func TestUploadAssetEscapesName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget v1.2&beta")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0755))

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget/releases/v1.2.0/assets", r.URL.Path)
		// The full name must survive as a single query value, "&" included.
		assert.Equal(t, "widget v1.2&beta", r.URL.Query().Get("name"))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.UploadAsset(context.Background(), "v1.2.0", path))
}

func TestReportStatus(t *testing.T) {
	var got map[string]string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget/statuses/abc123", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.ReportStatus(context.Background(), "abc123", ports.CommitFailure, "lint failed"))
	assert.Equal(t, "failure", got["state"])
	assert.Equal(t, "gantry", got["context"])
}

func TestAPIErrorIncludesBodySnippet(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"token lacks repo scope"}`))
	})

	err := client.CreateRelease(context.Background(), domain.Release{Tag: "v1.2.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "repo scope")
}
