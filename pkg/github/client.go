// Package github implements the small slice of the GitHub REST API the
// updater needs: listing releases and downloading their assets.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

const userAgent = "CollapseUpdater"

// Asset is one downloadable file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Release is a published GitHub release
type Release struct {
	TagName    string  `json:"tag_name"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// MainAsset returns the release's first asset, which is the one the loader
// publishes its binary as.
func (r *Release) MainAsset() (*Asset, error) {
	if len(r.Assets) == 0 {
		return nil, eris.New("No assets found in the release")
	}

	return &r.Assets[0], nil
}

// ChecksumAsset looks for a checksum file published next to the given asset
func (r *Release) ChecksumAsset(name string) *Asset {
	for idx, asset := range r.Assets {
		if asset.Name == name+".sha256" {
			return &r.Assets[idx]
		}
	}

	return nil
}

// Version parses the release tag as a semantic version ("v1.2.3" or "1.2.3")
func (r *Release) Version() (*semver.Version, error) {
	version, err := semver.NewVersion(strings.TrimPrefix(r.TagName, "v"))
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse release tag %s", r.TagName)
	}

	return version, nil
}

// Client talks to the GitHub API for a single repository
type Client struct {
	repo    string
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given "owner/name" repository
func NewClient(repo string) *Client {
	return &Client{
		repo:    repo,
		baseURL: "https://api.github.com",
		http: &http.Client{
			Timeout: time.Minute * 30,
		},
	}
}

// NewClientWithBase creates a client pointed at a different API endpoint.
// Only used by tests.
func NewClientWithBase(repo, baseURL string) *Client {
	client := NewClient(repo)
	client.baseURL = baseURL
	return client
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to build request for %s", url)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "Request for %s failed", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if readErr != nil {
			body = []byte("Failed to get response body")
		}

		return nil, eris.Errorf("API request failed with status code: %d. Response body: %s",
			resp.StatusCode, body)
	}

	return resp, nil
}

// LatestRelease fetches the latest stable release
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var release Release
	err = json.NewDecoder(resp.Body).Decode(&release)
	if err != nil {
		return nil, eris.Wrap(err, "Failed to parse release response")
	}

	return &release, nil
}

// LatestPrerelease fetches the most recent release marked as a pre-release
func (c *Client) LatestPrerelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", c.baseURL, c.repo)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var releases []Release
	err = json.NewDecoder(resp.Body).Decode(&releases)
	if err != nil {
		return nil, eris.Wrap(err, "Failed to parse release list response")
	}

	for idx, release := range releases {
		if release.Prerelease {
			return &releases[idx], nil
		}
	}

	return nil, eris.New("No pre-release found!")
}

// FetchAsset opens a download stream for the given asset. The caller has to
// close the returned reader.
func (c *Client) FetchAsset(ctx context.Context, asset *Asset) (io.ReadCloser, int64, error) {
	resp, err := c.get(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return nil, 0, err
	}

	length := resp.ContentLength
	if length < 0 {
		length = asset.Size
	}

	return resp.Body, length, nil
}
