package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/arobison203/autoortho/errors"
)

// HTTPClient is the HTTP transport interface, injectable for tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GitHubConfig configures the release publisher.
type GitHubConfig struct {
	// Owner and Repo identify the repository releases attach to.
	Owner string
	Repo  string

	// Token authenticates API calls.
	Token string

	// BaseURL overrides the API endpoint. Defaults to https://api.github.com.
	BaseURL string

	// UploadURL overrides the asset upload endpoint.
	// Defaults to https://uploads.github.com.
	UploadURL string
}

// GitHubReleaser implements Releaser against the GitHub Releases REST API.
type GitHubReleaser struct {
	cfg        GitHubConfig
	httpClient HTTPClient
	fs         billy.Filesystem
}

// NewGitHubReleaser creates a release publisher for the configured repository.
// Passing a nil httpClient selects http.DefaultClient.
func NewGitHubReleaser(cfg GitHubConfig, httpClient HTTPClient) (*GitHubReleaser, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "release owner and repo are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = "https://uploads.github.com"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GitHubReleaser{
		cfg:        cfg,
		httpClient: httpClient,
		fs:         osfs.New("/"),
	}, nil
}

// SetFilesystem substitutes the filesystem assets are read from. For tests.
func (g *GitHubReleaser) SetFilesystem(fsys billy.Filesystem) {
	g.fs = fsys
}

type githubRelease struct {
	ID      int64         `json:"id"`
	TagName string        `json:"tag_name"`
	Name    string        `json:"name"`
	Body    string        `json:"body"`
	HTMLURL string        `json:"html_url"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name string `json:"name"`
}

// Publish implements Releaser. The release for the tag is created on first
// use and reused by the sibling platform job; attaching an asset whose name
// already exists on the release is a conflict, so re-publishing the same tag
// fails instead of silently overwriting.
func (g *GitHubReleaser) Publish(ctx context.Context, tag, notes string, paths []string) (*ReleaseRecord, error) {
	if tag == "" {
		return nil, errors.New(errors.CodeInvalidTrigger, "release tag is required")
	}

	release, err := g.releaseByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if release == nil {
		release, err = g.createRelease(ctx, tag, notes)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range paths {
		name := path.Base(p)
		for _, asset := range release.Assets {
			if asset.Name == name {
				return nil, errors.Newf(errors.CodeAlreadyExists,
					"release %s already has asset %s", tag, name)
			}
		}
		if err := g.uploadAsset(ctx, release.ID, p); err != nil {
			return nil, err
		}
	}

	assets := make([]string, 0, len(paths))
	for _, p := range paths {
		assets = append(assets, path.Base(p))
	}

	return &ReleaseRecord{
		Tag:         tag,
		Assets:      assets,
		URL:         release.HTMLURL,
		PublishedAt: time.Now().UTC(),
	}, nil
}

// releaseByTag returns the existing release for tag, or nil when none exists.
func (g *GitHubReleaser) releaseByTag(ctx context.Context, tag string) (*githubRelease, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		g.cfg.BaseURL, g.cfg.Owner, g.cfg.Repo, url.PathEscape(tag))

	resp, err := g.doRequest(ctx, http.MethodGet, u, nil, "application/vnd.github+json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var release githubRelease
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return nil, errors.Wrap(errors.CodePublishFailed, err, "decoding release response")
		}
		return &release, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, errors.Newf(errors.CodePublishFailed,
			"looking up release for tag %s: unexpected status %d", tag, resp.StatusCode)
	}
}

func (g *GitHubReleaser) createRelease(ctx context.Context, tag, notes string) (*githubRelease, error) {
	payload, err := json.Marshal(map[string]string{
		"tag_name": tag,
		"name":     tag,
		"body":     notes,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "encoding release request")
	}

	u := fmt.Sprintf("%s/repos/%s/%s/releases", g.cfg.BaseURL, g.cfg.Owner, g.cfg.Repo)
	resp, err := g.doRequest(ctx, http.MethodPost, u, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, errors.Newf(errors.CodePublishFailed,
			"creating release for tag %s: unexpected status %d", tag, resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "decoding created release")
	}
	return &release, nil
}

func (g *GitHubReleaser) uploadAsset(ctx context.Context, releaseID int64, filePath string) error {
	f, err := g.fs.Open(filePath)
	if err != nil {
		return errors.Wrapf(errors.CodePublishFailed, err, "opening asset %s", filePath)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrapf(errors.CodePublishFailed, err, "reading asset %s", filePath)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		g.cfg.UploadURL, g.cfg.Owner, g.cfg.Repo, releaseID, url.QueryEscape(path.Base(filePath)))

	resp, err := g.doRequest(ctx, http.MethodPost, u, bytes.NewReader(data), "application/octet-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return errors.Newf(errors.CodePublishFailed,
			"uploading asset %s: unexpected status %d", path.Base(filePath), resp.StatusCode)
	}
	return nil
}

func (g *GitHubReleaser) doRequest(
	ctx context.Context,
	method, u string,
	body io.Reader,
	contentType string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "building request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", contentType)
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.CodePublishFailed, err, "%s %s", method, u)
	}
	return resp, nil
}
