package syncengine_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomirror/photomirror/internal/library"
	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/progress"
	"github.com/photomirror/photomirror/internal/remote"
	"github.com/photomirror/photomirror/internal/syncengine"
)

type testLogger struct{}

func (testLogger) OK(string, ...any)                            {}
func (testLogger) Info(string, ...any)                          {}
func (testLogger) Warning(string, ...any)                       {}
func (testLogger) Error(string, ...any)                         {}
func (testLogger) Debug(string, ...any)                         {}
func (testLogger) DebugObject(string, any)                      {}
func (testLogger) MessageContinue(logger.Level, string, ...any)  {}
func (testLogger) MessageTerminate(logger.Level, string, ...any) {}

// fakeClient implements remote.Client against fixed, mutable record
// sets so each scenario can rewrite the "remote" between Sync calls.
type fakeClient struct {
	mu        sync.Mutex
	contents  []remote.ContentRecord
	masters   []remote.MasterRecord
	albums    []remote.AlbumRecord
	blobs     map[string][]byte // keyed by download URL
	failFirst int               // number of Download calls to fail with ErrBadResponse before succeeding
	refreshed int
}

func (c *fakeClient) FetchAllAssets(context.Context) ([]remote.ContentRecord, []remote.MasterRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]remote.ContentRecord(nil), c.contents...), append([]remote.MasterRecord(nil), c.masters...), nil
}

func (c *fakeClient) FetchAllAlbums(context.Context) ([]remote.AlbumRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]remote.AlbumRecord(nil), c.albums...), nil
}

func (c *fakeClient) RefreshSession(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshed++
	return nil
}

func (c *fakeClient) Download(_ context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFirst > 0 {
		c.failFirst--
		return nil, fmt.Errorf("download %q: %w", url, remote.ErrBadResponse)
	}
	data, ok := c.blobs[url]
	if !ok {
		return nil, fmt.Errorf("download %q: no such blob", url)
	}
	return data, nil
}

func drainProgress(ch progress.Chan) {
	go func() {
		for range ch {
		}
	}()
}

func newEngine(t *testing.T, client remote.Client) (*syncengine.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	store := library.New(dir, testLogger{})
	sink, ch := progress.New()
	drainProgress(ch)
	eng := syncengine.New(client, store, testLogger{}, sink, syncengine.Config{
		DownloadThreads: 2,
		MaxRetries:      5,
	})
	return eng, dir
}

func TestSync_FreshRun(t *testing.T) {
	client := &fakeClient{
		contents: []remote.ContentRecord{
			{UUID: "a1", FileName: "a1.jpg", Size: 3, DownloadURL: "u1"},
			{UUID: "a2", FileName: "a2.jpg", Size: 3, DownloadURL: "u2"},
		},
		masters: []remote.MasterRecord{
			{UUID: "a1", ModTime: 10},
			{UUID: "a2", ModTime: 20},
		},
		albums: []remote.AlbumRecord{
			{UUID: "F1", Label: "F1", ParentUUID: "", KindHint: "FOLDER"},
			{UUID: "A1", Label: "A1", ParentUUID: "F1", KindHint: "ALBUM", Members: []remote.AlbumMemberRecord{
				{AssetUUID: "a1", FileName: "a1.jpg"},
			}},
		},
		blobs: map[string][]byte{"u1": []byte("aaa"), "u2": []byte("bbb")},
	}

	eng, dir := newEngine(t, client)
	res, err := eng.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Assets, 2)
	assert.Len(t, res.Albums, 2)

	_, err = os.Stat(filepath.Join(dir, library.AssetPoolDirName, "a1.jpg"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, library.AssetPoolDirName, "a2.jpg"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, library.AlbumTreeRootDirName, ".F1-F1"))
	require.NoError(t, err)

	linkPath := filepath.Join(dir, library.AlbumTreeRootDirName, ".F1-F1", ".A1-A1", "a1.jpg")
	target, err := os.Readlink(linkPath)
	require.NoError(t, err, "A1's a1.jpg member must be created as a symlink")
	resolved := filepath.Clean(filepath.Join(filepath.Dir(linkPath), target))
	assert.Equal(t, filepath.Join(dir, library.AssetPoolDirName, "a1.jpg"), resolved,
		"a1.jpg must resolve by relative path into the asset pool")
}

func TestSync_IdempotentSecondRun(t *testing.T) {
	client := &fakeClient{
		contents: []remote.ContentRecord{{UUID: "a1", FileName: "a1.jpg", Size: 3, DownloadURL: "u1"}},
		masters:  []remote.MasterRecord{{UUID: "a1", ModTime: 10}},
		blobs:    map[string][]byte{"u1": []byte("aaa")},
	}
	eng, dir := newEngine(t, client)

	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	poolFile := filepath.Join(dir, library.AssetPoolDirName, "a1.jpg")
	before, err := os.Stat(poolFile)
	require.NoError(t, err)

	_, err = eng.Sync(context.Background())
	require.NoError(t, err)

	after, err := os.Stat(poolFile)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "second run must not rewrite an unchanged asset")
}

func TestSync_AssetChangeRedownloads(t *testing.T) {
	client := &fakeClient{
		contents: []remote.ContentRecord{{UUID: "a1", FileName: "a1.jpg", Size: 3, DownloadURL: "u1"}},
		masters:  []remote.MasterRecord{{UUID: "a1", ModTime: 10}},
		blobs:    map[string][]byte{"u1": []byte("aaa")},
	}
	eng, dir := newEngine(t, client)

	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	client.mu.Lock()
	client.masters[0].ModTime = 11
	client.contents[0].Size = 4
	client.blobs["u1"] = []byte("aaaa")
	client.mu.Unlock()

	res, err := eng.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Assets["a1"].Size)

	data, err := os.ReadFile(filepath.Join(dir, library.AssetPoolDirName, "a1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(data))
}

func TestSync_RecoverableDownloadFailureRetriesThenSucceeds(t *testing.T) {
	client := &fakeClient{
		contents:  []remote.ContentRecord{{UUID: "a1", FileName: "a1.jpg", Size: 3, DownloadURL: "u1"}},
		masters:   []remote.MasterRecord{{UUID: "a1", ModTime: 10}},
		blobs:     map[string][]byte{"u1": []byte("aaa")},
		failFirst: 3,
	}
	eng, _ := newEngine(t, client)

	res, err := eng.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Assets, 1)
	assert.Equal(t, 3, client.refreshed)
}

func TestSync_DanglingParentOnDeletedFolderIsFatal(t *testing.T) {
	client := &fakeClient{
		albums: []remote.AlbumRecord{
			{UUID: "F1", Label: "F1", ParentUUID: "", KindHint: "FOLDER"},
			{UUID: "A1", Label: "A1", ParentUUID: "F1", KindHint: "ALBUM"},
		},
	}
	eng, _ := newEngine(t, client)
	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	client.mu.Lock()
	client.albums = []remote.AlbumRecord{
		{UUID: "A1", Label: "A1", ParentUUID: "F1", KindHint: "ALBUM"},
	}
	client.mu.Unlock()

	_, err = eng.Sync(context.Background())
	require.Error(t, err)
}
