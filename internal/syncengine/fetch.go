package syncengine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/photomirror/photomirror/internal/model"
	"github.com/photomirror/photomirror/internal/progress"
	"github.com/photomirror/photomirror/internal/remote"
)

// loadedState is the joined result of Fetch & load's four concurrent
// subtasks.
type loadedState struct {
	remoteAssets []*model.Asset
	remoteAlbums []*model.Album
	localAssets  map[string]*model.Asset
	localAlbums  map[string]*model.Album
}

// fetchAndLoad runs the four independent subtasks of §4.4 phase 1
// concurrently via errgroup, then applies the ignoreAlbums filter to
// the remote album list before anything downstream sees it (open
// question resolved in DESIGN.md: filter at the top of Fetch&Load).
func (e *Engine) fetchAndLoad(ctx context.Context) (loadedState, error) {
	var out loadedState

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		assets, err := e.fetchRemoteAssets(gctx)
		if err != nil {
			return fmt.Errorf("syncengine: fetch remote assets: %w", err)
		}
		out.remoteAssets = assets
		return nil
	})

	g.Go(func() error {
		albums, err := e.fetchRemoteAlbums(gctx)
		if err != nil {
			return fmt.Errorf("syncengine: fetch remote albums: %w", err)
		}
		out.remoteAlbums = filterIgnoredAlbums(albums, e.cfg.IgnoreAlbums)
		return nil
	})

	g.Go(func() error {
		assets, err := e.store.LoadAssets()
		if err != nil {
			return fmt.Errorf("syncengine: load local assets: %w", err)
		}
		out.localAssets = assets
		return nil
	})

	g.Go(func() error {
		albums, err := e.store.LoadAlbums()
		if err != nil {
			return fmt.Errorf("syncengine: load local albums: %w", err)
		}
		out.localAlbums = albums
		return nil
	})

	if err := g.Wait(); err != nil {
		return loadedState{}, err
	}

	e.prog <- progress.Event{Kind: progress.KindCounted, Label: "remote assets", Count: len(out.remoteAssets)}
	e.prog <- progress.Event{Kind: progress.KindCounted, Label: "remote albums", Count: len(out.remoteAlbums)}
	e.prog <- progress.Event{Kind: progress.KindCounted, Label: "local assets", Count: len(out.localAssets)}
	e.prog <- progress.Event{Kind: progress.KindCounted, Label: "local albums", Count: len(out.localAlbums)}

	return out, nil
}

// fetchRemoteAssets joins the content and master record streams by
// UUID into typed Asset projections (§6: "two parallel lists joinable
// by a shared identifier").
func (e *Engine) fetchRemoteAssets(ctx context.Context) ([]*model.Asset, error) {
	contents, masters, err := e.client.FetchAllAssets(ctx)
	if err != nil {
		return nil, err
	}

	byUUID := make(map[string]int, len(masters))
	for i, m := range masters {
		byUUID[m.UUID] = i
	}

	out := make([]*model.Asset, 0, len(contents))
	for _, c := range contents {
		a := &model.Asset{
			UUID:        c.UUID,
			FileName:    c.FileName,
			Size:        c.Size,
			DownloadURL: c.DownloadURL,
			Checksum:    c.Checksum,
			Kind:        model.KindOriginal,
		}
		if idx, ok := byUUID[c.UUID]; ok {
			m := masters[idx]
			a.ModTime = unixToTime(m.ModTime)
			if m.KindTag != "" {
				a.Kind = model.AssetKind(m.KindTag)
			}
		} else {
			e.log.Warning("syncengine: content record %q has no matching master record", c.UUID)
		}
		out = append(out, a)
	}
	return out, nil
}

func (e *Engine) fetchRemoteAlbums(ctx context.Context) ([]*model.Album, error) {
	records, err := e.client.FetchAllAlbums(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Album, 0, len(records))
	for _, r := range records {
		kind := albumKindFromHint(r.KindHint)
		out = append(out, &model.Album{
			UUID:       r.UUID,
			Label:      r.Label,
			ParentUUID: r.ParentUUID,
			Kind:       kind,
			Members:    albumMembersFromRecords(kind, r.Members),
		})
	}
	return out, nil
}

// albumMembersFromRecords builds the asset-UUID -> display-filename map
// an ALBUM directory's symlinks are created from (§3). FOLDER and
// ARCHIVED albums never carry membership of their own.
func albumMembersFromRecords(kind model.AlbumKind, records []remote.AlbumMemberRecord) map[string]string {
	if kind != model.KindAlbum || len(records) == 0 {
		return nil
	}
	members := make(map[string]string, len(records))
	for _, m := range records {
		members[m.AssetUUID] = m.FileName
	}
	return members
}

func albumKindFromHint(hint string) model.AlbumKind {
	switch model.AlbumKind(hint) {
	case model.KindFolder, model.KindAlbum, model.KindArchived:
		return model.AlbumKind(hint)
	default:
		return model.KindAlbum
	}
}

// filterIgnoredAlbums drops any remote album whose label is in
// ignore, before it is ever diffed against local state.
func filterIgnoredAlbums(albums []*model.Album, ignore map[string]bool) []*model.Album {
	if len(ignore) == 0 {
		return albums
	}
	out := albums[:0:0]
	for _, a := range albums {
		if ignore[a.Label] {
			continue
		}
		out = append(out, a)
	}
	return out
}
