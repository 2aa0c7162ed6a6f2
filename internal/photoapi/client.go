// Package photoapi is a deliberately thin HTTP/JSON adapter
// implementing internal/remote.Client. It carries a bearer token
// supplied by configuration and nothing else of the authentication
// handshake — §1 places that out of the core's scope.
package photoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/photomirror/photomirror/internal/remote"
)

// Client is a thin net/http-backed remote.Client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a Client against baseURL, authenticating every request
// with token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type contentRecordDTO struct {
	UUID        string `json:"id"`
	FileName    string `json:"originalFileName"`
	Size        int64  `json:"fileSizeInByte"`
	DownloadURL string `json:"downloadUrl"`
	Checksum    string `json:"checksum"`
}

type masterRecordDTO struct {
	UUID     string `json:"id"`
	ModTime  int64  `json:"modifiedAtUnix"`
	KindTag  string `json:"kind"`
}

type albumMemberRecordDTO struct {
	AssetUUID string `json:"assetId"`
	FileName  string `json:"originalFileName"`
}

type albumRecordDTO struct {
	UUID       string                 `json:"id"`
	Label      string                 `json:"albumName"`
	ParentUUID string                 `json:"parentId"`
	KindHint   string                 `json:"kind"`
	Members    []albumMemberRecordDTO `json:"assets"`
}

// FetchAllAssets implements remote.Client by joining two endpoints
// mirroring the spec's "content record" and "master record" streams.
func (c *Client) FetchAllAssets(ctx context.Context) ([]remote.ContentRecord, []remote.MasterRecord, error) {
	var contents []contentRecordDTO
	if err := c.getJSON(ctx, "/api/assets/content", &contents); err != nil {
		return nil, nil, err
	}
	var masters []masterRecordDTO
	if err := c.getJSON(ctx, "/api/assets/master", &masters); err != nil {
		return nil, nil, err
	}

	cr := make([]remote.ContentRecord, len(contents))
	for i, d := range contents {
		cr[i] = remote.ContentRecord{UUID: d.UUID, FileName: d.FileName, Size: d.Size, DownloadURL: d.DownloadURL, Checksum: d.Checksum}
	}
	mr := make([]remote.MasterRecord, len(masters))
	for i, d := range masters {
		mr[i] = remote.MasterRecord{UUID: d.UUID, ModTime: d.ModTime, KindTag: d.KindTag}
	}
	return cr, mr, nil
}

// FetchAllAlbums implements remote.Client.
func (c *Client) FetchAllAlbums(ctx context.Context) ([]remote.AlbumRecord, error) {
	var albums []albumRecordDTO
	if err := c.getJSON(ctx, "/api/albums", &albums); err != nil {
		return nil, err
	}
	out := make([]remote.AlbumRecord, len(albums))
	for i, d := range albums {
		members := make([]remote.AlbumMemberRecord, len(d.Members))
		for j, m := range d.Members {
			members[j] = remote.AlbumMemberRecord{AssetUUID: m.AssetUUID, FileName: m.FileName}
		}
		out[i] = remote.AlbumRecord{UUID: d.UUID, Label: d.Label, ParentUUID: d.ParentUUID, KindHint: d.KindHint, Members: members}
	}
	return out, nil
}

// RefreshSession implements remote.Client; it is idempotent and
// simply re-validates the bearer token against a lightweight
// endpoint.
func (c *Client) RefreshSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/validateToken", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", remote.ErrBadResponse, err)
	}
	defer resp.Body.Close()

	return c.classifyStatus(resp.StatusCode)
}

// Download implements remote.Client.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photoapi: download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := c.classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("photoapi: read body for %s: %w", url, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", remote.ErrBadResponse, err)
	}
	defer resp.Body.Close()

	if err := c.classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("photoapi: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}

// classifyStatus maps an HTTP status into the sentinel errors
// internal/remote.Classify recognizes.
func (c *Client) classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return remote.ErrAuthFailed
	case status >= 500:
		return fmt.Errorf("%w: status %d", remote.ErrBadResponse, status)
	case status >= 400:
		return fmt.Errorf("%w: status %d", remote.ErrBadRequest, status)
	default:
		return fmt.Errorf("photoapi: unexpected status %d", status)
	}
}
