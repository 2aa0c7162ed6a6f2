// Package remote defines the collaborator contract the sync engine
// requires from the transport layer (§6's "remote collaborator
// contract") and the error taxonomy (§7) used to decide whether a
// failure is worth retrying.
//
// This mirrors the teacher's narrow, hand-written iClient interface
// in cmdupload/upload.go: the engine depends on a small capability
// set, not on a concrete HTTP client.
package remote

import "context"

// ContentRecord and MasterRecord are the two joinable remote streams
// FetchAllAssets combines (§6: "two parallel lists joinable by a
// shared identifier").
type ContentRecord struct {
	UUID        string
	FileName    string
	Size        int64
	DownloadURL string
	Checksum    string
}

type MasterRecord struct {
	UUID     string
	ModTime  int64 // unix seconds
	KindTag  string
}

// AlbumMemberRecord is one asset's membership in a remote ALBUM: the
// asset's UUID plus the display filename the member link should be
// created under (§3: "members mapping asset-UUID → filename").
type AlbumMemberRecord struct {
	AssetUUID string
	FileName  string
}

// AlbumRecord is one remote album entry (§6). Members is only
// meaningful when KindHint resolves to KindAlbum; FOLDER and ARCHIVED
// albums carry no membership of their own.
type AlbumRecord struct {
	UUID       string
	Label      string
	ParentUUID string
	KindHint   string
	Members    []AlbumMemberRecord
}

// Client is everything internal/syncengine needs from the transport.
// Implementations translate a concrete wire protocol into these typed
// shapes; internal/syncengine never sees raw JSON (design note:
// "loose-typed remote records → typed projections").
type Client interface {
	// FetchAllAssets returns the two joinable record streams used to
	// build model.Asset values.
	FetchAllAssets(ctx context.Context) ([]ContentRecord, []MasterRecord, error)
	// FetchAllAlbums returns one record per remote album.
	FetchAllAlbums(ctx context.Context) ([]AlbumRecord, error)
	// RefreshSession is idempotent; it blocks until the session is
	// usable again or returns a fatal error.
	RefreshSession(ctx context.Context) error
	// Download streams the bytes at url.
	Download(ctx context.Context, url string) ([]byte, error)
}
