package github

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithBase("dest4590/CollapseLoader", server.URL)
}

func TestLatestRelease(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/dest4590/CollapseLoader/releases/latest", r.URL.Path)
		assert.Equal(t, "CollapseUpdater", r.Header.Get("User-Agent"))

		w.Write([]byte(`{
			"tag_name": "v1.4.0",
			"prerelease": false,
			"assets": [
				{"name": "CollapseLoader.exe", "browser_download_url": "http://example.com/dl", "size": 1234},
				{"name": "CollapseLoader.exe.sha256", "browser_download_url": "http://example.com/sum", "size": 90}
			]
		}`))
	})

	release, err := client.LatestRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", release.TagName)

	asset, err := release.MainAsset()
	require.NoError(t, err)
	assert.Equal(t, "CollapseLoader.exe", asset.Name)
	assert.Equal(t, int64(1234), asset.Size)

	checksum := release.ChecksumAsset(asset.Name)
	require.NotNil(t, checksum)
	assert.Equal(t, "CollapseLoader.exe.sha256", checksum.Name)

	version, err := release.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", version.String())
}

func TestLatestPrerelease(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/dest4590/CollapseLoader/releases", r.URL.Path)

		w.Write([]byte(`[
			{"tag_name": "v1.4.0", "prerelease": false, "assets": []},
			{"tag_name": "v1.5.0-rc1", "prerelease": true,
			 "assets": [{"name": "CollapseLoader.exe", "browser_download_url": "u", "size": 7}]}
		]`))
	})

	release, err := client.LatestPrerelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.5.0-rc1", release.TagName)
	assert.True(t, release.Prerelease)
}

func TestLatestPrereleaseMissing(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"tag_name": "v1.4.0", "prerelease": false, "assets": []}]`))
	})

	_, err := client.LatestPrerelease(context.Background())
	assert.Error(t, err)
}

func TestErrorResponsesIncludeBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})

	_, err := client.LatestRelease(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "rate limit")
}

func TestReleaseWithoutAssets(t *testing.T) {
	release := &Release{TagName: "v1.0.0"}
	_, err := release.MainAsset()
	assert.Error(t, err)
}

func TestFetchAsset(t *testing.T) {
	payload := "binary payload"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	client := NewClientWithBase("dest4590/CollapseLoader", server.URL)
	asset := &Asset{Name: "CollapseLoader.exe", BrowserDownloadURL: server.URL + "/dl", Size: 99}

	body, length, err := client.FetchAsset(context.Background(), asset)
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, int64(len(payload)), length)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}
