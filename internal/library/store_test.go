package library_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/psanford/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomirror/photomirror/internal/library"
	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/model"
)

// testLogger implements logger.Logger minimally, recording warnings
// for assertions.
type testLogger struct{ warnings []string }

func (*testLogger) OK(string, ...any)       {}
func (*testLogger) Info(string, ...any)     {}
func (*testLogger) Error(string, ...any)    {}
func (*testLogger) Debug(string, ...any)    {}
func (*testLogger) DebugObject(string, any) {}
func (l *testLogger) Warning(format string, args ...any) {
	l.warnings = append(l.warnings, format)
}
func (*testLogger) MessageContinue(logger.Level, string, ...any)  {}
func (*testLogger) MessageTerminate(logger.Level, string, ...any) {}

func TestLoadAssetsFS(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.WriteFile("a1.jpg", []byte("hello"), 0o644))
	require.NoError(t, fsys.WriteFile("a2.mp4", []byte("world!"), 0o644))

	assets, err := library.LoadAssetsFS(fsys)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, int64(5), assets["a1"].Size)
	assert.Equal(t, "a1.jpg", assets["a1"].FileName)
	assert.Equal(t, int64(6), assets["a2"].Size)
}

func TestFreshRun_AddAssetAndAlbumTree(t *testing.T) {
	dir := t.TempDir()
	s := library.New(dir, &testLogger{})

	a1 := &model.Asset{UUID: "a1", FileName: "a1.jpg", Size: 3, ModTime: time.Unix(10, 0)}
	require.NoError(t, s.AddAsset(a1, []byte("abc")))

	f1 := &model.Album{UUID: "F1", Label: "F1", Kind: model.KindFolder, ParentUUID: ""}
	require.NoError(t, s.AddAlbum(f1))

	album1 := &model.Album{
		UUID: "A1", Label: "A1", Kind: model.KindAlbum, ParentUUID: "F1",
		Members: map[string]string{"a1": "a1.jpg"},
	}
	require.NoError(t, s.AddAlbum(album1))

	poolPath := filepath.Join(dir, library.AssetPoolDirName, "a1.jpg")
	data, err := os.ReadFile(poolPath)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	albums, err := s.LoadAlbums()
	require.NoError(t, err)
	require.Contains(t, albums, "F1")
	require.Contains(t, albums, "A1")
	assert.Equal(t, model.KindFolder, albums["F1"].Kind)
	assert.Equal(t, model.KindAlbum, albums["A1"].Kind)
	assert.Equal(t, "F1", albums["A1"].ParentUUID)
	assert.Equal(t, map[string]string{"a1": "a1.jpg"}, albums["A1"].Members)

	assets, err := s.LoadAssets()
	require.NoError(t, err)
	require.Contains(t, assets, "a1")
	assert.Equal(t, int64(3), assets["a1"].Size)
}

func TestAddAsset_IdempotentOnMatchingFingerprint(t *testing.T) {
	dir := t.TempDir()
	s := library.New(dir, &testLogger{})

	a1 := &model.Asset{UUID: "a1", FileName: "a1.jpg", Size: 3, ModTime: time.Unix(10, 0)}
	require.NoError(t, s.AddAsset(a1, []byte("abc")))

	poolPath := filepath.Join(dir, library.AssetPoolDirName, "a1.jpg")
	before, err := os.Stat(poolPath)
	require.NoError(t, err)

	// Re-adding the same fingerprint must not rewrite the file.
	require.NoError(t, s.AddAsset(a1, []byte("xyz")))
	data, err := os.ReadFile(poolPath)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data), "idempotent add must not touch a matching file")

	after, err := os.Stat(poolPath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestArchivedAlbum_PreservedAndFlagged(t *testing.T) {
	dir := t.TempDir()
	log := &testLogger{}
	s := library.New(dir, log)

	f1 := &model.Album{UUID: "F1", Label: "F1", Kind: model.KindFolder, ParentUUID: ""}
	require.NoError(t, s.AddAlbum(f1))

	f1Path := filepath.Join(dir, library.AlbumTreeRootDirName, ".F1-F1")
	require.NoError(t, os.WriteFile(filepath.Join(f1Path, "photo.jpg"), []byte("x"), 0o644))

	albums, err := s.LoadAlbums()
	require.NoError(t, err)
	assert.Equal(t, model.KindArchived, albums["F1"].Kind)

	err = s.RemoveAlbum("F1")
	require.Error(t, err)
	assert.ErrorIs(t, err, library.ErrArchivedAlbum)

	_, statErr := os.Stat(filepath.Join(f1Path, "photo.jpg"))
	assert.NoError(t, statErr, "archived file must survive a failed remove")
}

func TestRemoveAlbum_ChildFirstRequired(t *testing.T) {
	dir := t.TempDir()
	s := library.New(dir, &testLogger{})

	f1 := &model.Album{UUID: "F1", Label: "F1", Kind: model.KindFolder, ParentUUID: ""}
	require.NoError(t, s.AddAlbum(f1))
	a1 := &model.Album{UUID: "A1", Label: "A1", Kind: model.KindAlbum, ParentUUID: "F1", Members: map[string]string{}}
	require.NoError(t, s.AddAlbum(a1))

	err := s.RemoveAlbum("F1")
	require.Error(t, err, "removing a folder that still has a subdirectory must fail")

	require.NoError(t, s.RemoveAlbum("A1"))
	require.NoError(t, s.RemoveAlbum("F1"))

	_, statErr := os.Stat(filepath.Join(dir, library.AlbumTreeRootDirName, ".F1-F1"))
	assert.True(t, os.IsNotExist(statErr))
}
