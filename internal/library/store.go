// Package library owns the on-disk layout described in the external
// interfaces section of the spec: a flat asset pool and a recursively
// nested album tree of directories and symlinks. The filesystem is the
// sole source of truth — nothing here is cached across process runs.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/model"
)

const (
	// AssetPoolDirName is the flat directory holding one file per
	// asset, named {UUID}.{ext}.
	AssetPoolDirName = "assets"
	// AlbumTreeRootDirName is the root of the recursive album tree.
	AlbumTreeRootDirName = "albums"
)

// ErrArchivedAlbum is returned by RemoveAlbum when the target
// directory contains regular files — an ARCHIVED album, opaque to
// sync and never removed by it. Callers must treat this as fatal.
var ErrArchivedAlbum = errors.New("library: refusing to remove archived album")

// Store implements the Library Store: load the current local state
// into typed entity maps, and apply individual mutations.
type Store struct {
	dataDir string
	log     logger.Logger

	// albumPaths caches uuid -> absolute on-disk directory, populated
	// by LoadAlbums and kept current by AddAlbum/RemoveAlbum so that
	// later calls within the same run can resolve a parent's path
	// without re-walking the tree.
	albumPaths map[string]string
}

// New creates a Store rooted at dataDir.
func New(dataDir string, log logger.Logger) *Store {
	return &Store{
		dataDir:    dataDir,
		log:        log,
		albumPaths: map[string]string{"": filepath.Join(dataDir, AlbumTreeRootDirName)},
	}
}

// AssetPoolPath returns the asset pool's absolute directory.
func (s *Store) AssetPoolPath() string { return filepath.Join(s.dataDir, AssetPoolDirName) }

// AlbumRootPath returns the album tree root's absolute directory.
func (s *Store) AlbumRootPath() string { return filepath.Join(s.dataDir, AlbumTreeRootDirName) }

// LoadAssets enumerates the asset pool, parsing each filename into
// (UUID, extension) and statting it for size and modification time.
func (s *Store) LoadAssets() (map[string]*model.Asset, error) {
	if err := os.MkdirAll(s.AssetPoolPath(), 0o755); err != nil {
		return nil, fmt.Errorf("library: create asset pool: %w", err)
	}
	return LoadAssetsFS(os.DirFS(s.AssetPoolPath()))
}

// LoadAssetsFS is the pure fs.FS-based read used by LoadAssets and
// directly by tests against an in-memory filesystem.
func LoadAssetsFS(fsys fs.FS) (map[string]*model.Asset, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("library: read asset pool: %w", err)
	}

	out := make(map[string]*model.Asset, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		uuid, _, ok := splitPoolName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("library: stat %q: %w", e.Name(), err)
		}
		out[uuid] = &model.Asset{
			UUID:    uuid,
			FileName: e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}
	return out, nil
}

// LoadAlbums performs the recursive descent from the album tree root
// described in §4.1: subdirectories classify their parent as FOLDER,
// regular files with no subdirectories classify it as ARCHIVED, and
// everything else (symlinks or empty) classifies it as ALBUM.
func (s *Store) LoadAlbums() (map[string]*model.Album, error) {
	root := s.AlbumRootPath()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("library: create album root: %w", err)
	}

	s.albumPaths = map[string]string{"": root}
	out := make(map[string]*model.Album)
	if err := s.scanChildren(root, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

// scanChildren reads dir's direct subdirectories, classifies each as
// an Album keyed by its decoded UUID, and recurses into FOLDER
// children.
func (s *Store) scanChildren(dir, parentUUID string, out map[string]*model.Album) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("library: read %q: %w", dir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		uuid, label, err := decodeAlbumDirName(e.Name())
		if err != nil {
			s.log.Warning("library: skipping directory with unrecognized name %q: %s", e.Name(), err)
			continue
		}

		childPath := filepath.Join(dir, e.Name())
		s.albumPaths[uuid] = childPath

		kind, members, err := s.classify(childPath)
		if err != nil {
			return err
		}

		out[uuid] = &model.Album{
			UUID:       uuid,
			Label:      label,
			Kind:       kind,
			ParentUUID: parentUUID,
			Members:    members,
		}

		if kind == model.KindFolder {
			if err := s.scanChildren(childPath, uuid, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// classify inspects dir's direct entries and returns its AlbumKind
// and, for KindAlbum, its asset-UUID -> link-name member map.
func (s *Store) classify(dir string) (model.AlbumKind, map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("library: read %q: %w", dir, err)
	}

	var hasSubdir, hasRegular bool
	members := map[string]string{}
	for _, e := range entries {
		switch {
		case e.IsDir():
			hasSubdir = true
		case e.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(filepath.Join(dir, e.Name()))
			if err != nil {
				return "", nil, fmt.Errorf("library: readlink %q: %w", e.Name(), err)
			}
			base := filepath.Base(target)
			assetUUID, _, _ := splitPoolName(base)
			if assetUUID == "" {
				assetUUID = strings.TrimSuffix(base, filepath.Ext(base))
			}
			members[assetUUID] = e.Name()
		default:
			hasRegular = true
		}
	}

	switch {
	case hasSubdir:
		if hasRegular {
			s.log.Warning("library: album directory %q mixes subfolders and files, treating as FOLDER", dir)
		}
		return model.KindFolder, nil, nil
	case hasRegular:
		return model.KindArchived, nil, nil
	default:
		return model.KindAlbum, members, nil
	}
}

// AddAsset writes data atomically into the asset pool under
// {UUID}.{ext}, then sets its modification time to the remote-declared
// value. It is idempotent: a file already matching the equality
// fingerprint (size + mtime-as-seconds) is left untouched.
func (s *Store) AddAsset(asset *model.Asset, data []byte) error {
	pool := s.AssetPoolPath()
	if err := os.MkdirAll(pool, 0o755); err != nil {
		return fmt.Errorf("library: create asset pool: %w", err)
	}

	path := filepath.Join(pool, asset.PoolName())
	if info, err := os.Stat(path); err == nil {
		if info.Size() == asset.Size && sameSecond(info.ModTime(), asset.ModTime) {
			return nil
		}
	}

	tmp, err := os.CreateTemp(pool, ".tmp-"+asset.UUID+"-*")
	if err != nil {
		return fmt.Errorf("library: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed away

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("library: write %q: %w", asset.PoolName(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: close %q: %w", asset.PoolName(), err)
	}
	if err := os.Chtimes(tmpPath, asset.ModTime, asset.ModTime); err != nil {
		return fmt.Errorf("library: set mtime on %q: %w", asset.PoolName(), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("library: commit %q: %w", asset.PoolName(), err)
	}
	return nil
}

// RemoveAsset unlinks the asset's pool file; a no-op if absent.
func (s *Store) RemoveAsset(uuid string) error {
	path, err := s.poolFileFor(uuid)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("library: remove asset %q: %w", uuid, err)
	}
	return nil
}

// AddAlbum creates the directory for album at the path derived from
// its parent's on-disk location, and — for KindAlbum — one symlink per
// member pointing by relative path into the asset pool.
func (s *Store) AddAlbum(album *model.Album) error {
	parentPath, ok := s.albumPaths[album.ParentUUID]
	if !ok {
		return fmt.Errorf("library: unknown parent %q for album %q", album.ParentUUID, album.UUID)
	}

	dir := filepath.Join(parentPath, encodeAlbumDirName(album.UUID, album.Label))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("library: create album dir %q: %w", dir, err)
	}
	s.albumPaths[album.UUID] = dir

	if album.Kind != model.KindAlbum {
		return nil
	}
	for assetUUID, linkName := range album.Members {
		target, err := s.poolFileFor(assetUUID)
		if err != nil {
			return fmt.Errorf("library: album %q member %q: %w", album.UUID, assetUUID, err)
		}
		rel, err := filepath.Rel(dir, target)
		if err != nil {
			return fmt.Errorf("library: relative path from %q to %q: %w", dir, target, err)
		}
		linkPath := filepath.Join(dir, linkName)
		_ = os.Remove(linkPath) // retarget: drop any stale link first
		if err := os.Symlink(rel, linkPath); err != nil {
			return fmt.Errorf("library: link %q: %w", linkPath, err)
		}
	}
	return nil
}

// RemoveAlbum removes the directory for uuid. It is only permitted
// when the directory holds no subdirectories and no regular files;
// any symlinks are removed first. A non-empty directory containing
// regular files (ARCHIVED) yields ErrArchivedAlbum, which the caller
// must treat as fatal.
func (s *Store) RemoveAlbum(uuid string) error {
	dir, ok := s.albumPaths[uuid]
	if !ok {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			delete(s.albumPaths, uuid)
			return nil
		}
		return fmt.Errorf("library: read %q: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			return fmt.Errorf("library: album %q still has subdirectory %q", uuid, e.Name())
		}
		if e.Type()&fs.ModeSymlink == 0 {
			return fmt.Errorf("library: album %q contains regular file %q: %w", uuid, e.Name(), ErrArchivedAlbum)
		}
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("library: remove link %q: %w", e.Name(), err)
		}
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("library: remove album dir %q: %w", dir, err)
	}
	delete(s.albumPaths, uuid)
	return nil
}

func (s *Store) poolFileFor(assetUUID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.AssetPoolPath(), assetUUID+".*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("asset %q not found in pool", assetUUID)
	}
	return matches[0], nil
}

func sameSecond(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

func splitPoolName(name string) (uuid, ext string, ok bool) {
	idx := strings.IndexByte(name, '.')
	if idx <= 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func encodeAlbumDirName(uuid, label string) string {
	return "." + uuid + "-" + sanitizeLabel(label)
}

func decodeAlbumDirName(name string) (uuid, label string, err error) {
	if !strings.HasPrefix(name, ".") {
		return "", "", fmt.Errorf("missing leading '.'")
	}
	rest := name[1:]
	idx := strings.IndexByte(rest, '-')
	if idx < 0 {
		return "", "", fmt.Errorf("missing '-' separator")
	}
	return rest[:idx], rest[idx+1:], nil
}

var labelReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

func sanitizeLabel(label string) string {
	safe := labelReplacer.Replace(label)
	if safe == "" {
		safe = "untitled"
	}
	return safe
}
