package model

import "time"

// AssetKind tags the role a file plays in the remote library.
type AssetKind string

const (
	KindOriginal      AssetKind = "original"
	KindEdit          AssetKind = "edit"
	KindLivePhotoPart AssetKind = "live-photo-part"
)

// Asset is one photo or video file, identified by a stable remote
// UUID. Its bytes live exactly once, in the asset pool, named
// {UUID}.{ext}.
type Asset struct {
	UUID        string
	FileName    string // display name including extension
	Size        int64
	ModTime     time.Time
	Kind        AssetKind
	Checksum    string // optional, from the remote record
	DownloadURL string // only meaningful for remote-sourced assets
}

// GetUUID implements Entity.
func (a *Asset) GetUUID() string { return a.UUID }

// EqualTo implements Entity. Per spec, asset equality is size plus
// modification time truncated to the second — the same granularity a
// filesystem mtime survives a round trip through.
func (a *Asset) EqualTo(other Entity) bool {
	o, ok := other.(*Asset)
	if !ok || o == nil {
		return false
	}
	return a.Size == o.Size && a.ModTime.Truncate(time.Second).Equal(o.ModTime.Truncate(time.Second))
}

// Ext returns the filename's extension, without the leading dot.
func (a *Asset) Ext() string {
	dot := -1
	for i := len(a.FileName) - 1; i >= 0; i-- {
		if a.FileName[i] == '.' {
			dot = i
			break
		}
	}
	if dot == -1 || dot == len(a.FileName)-1 {
		return ""
	}
	return a.FileName[dot+1:]
}

// PoolName is the asset's filename inside the asset pool: {UUID}.{ext}.
func (a *Asset) PoolName() string {
	if ext := a.Ext(); ext != "" {
		return a.UUID + "." + ext
	}
	return a.UUID
}
