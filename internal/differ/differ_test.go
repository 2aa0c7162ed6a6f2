package differ_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomirror/photomirror/internal/differ"
	"github.com/photomirror/photomirror/internal/model"
)

func uuids[T model.Entity](items []T) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.GetUUID())
	}
	sort.Strings(out)
	return out
}

func TestDiffAssets_FreshRun(t *testing.T) {
	a1 := &model.Asset{UUID: "a1", Size: 100, ModTime: time.Unix(10, 0)}
	a2 := &model.Asset{UUID: "a2", Size: 200, ModTime: time.Unix(20, 0)}

	q := differ.Diff([]*model.Asset{a1, a2}, map[string]*model.Asset{})

	assert.Empty(t, q.ToKeep)
	assert.Empty(t, q.ToDelete)
	assert.Equal(t, []string{"a1", "a2"}, uuids(q.ToAdd))
}

func TestDiffAssets_Unchanged(t *testing.T) {
	a1 := &model.Asset{UUID: "a1", Size: 100, ModTime: time.Unix(10, 0)}
	local := map[string]*model.Asset{"a1": {UUID: "a1", Size: 100, ModTime: time.Unix(10, 0)}}

	q := differ.Diff([]*model.Asset{a1}, local)

	assert.Empty(t, q.ToAdd)
	assert.Empty(t, q.ToDelete)
	require.Len(t, q.ToKeep, 1)
	assert.Equal(t, "a1", q.ToKeep[0].GetUUID())
}

func TestDiffAssets_Changed(t *testing.T) {
	// scenario 3: a1 changes from (100B, t=10) to (100B, t=11)
	remote := &model.Asset{UUID: "a1", Size: 100, ModTime: time.Unix(11, 0)}
	local := map[string]*model.Asset{"a1": {UUID: "a1", Size: 100, ModTime: time.Unix(10, 0)}}

	q := differ.Diff([]*model.Asset{remote}, local)

	require.Len(t, q.ToAdd, 1)
	require.Len(t, q.ToDelete, 1)
	assert.Empty(t, q.ToKeep)
	assert.Equal(t, int64(11), q.ToAdd[0].ModTime.Unix())
}

func TestDiffAssets_RemovedRemotely(t *testing.T) {
	local := map[string]*model.Asset{"a1": {UUID: "a1", Size: 100, ModTime: time.Unix(10, 0)}}

	q := differ.Diff([]*model.Asset{}, local)

	assert.Empty(t, q.ToAdd)
	assert.Empty(t, q.ToKeep)
	require.Len(t, q.ToDelete, 1)
	assert.Equal(t, "a1", q.ToDelete[0].GetUUID())
}

func TestDiffAlbums_ReparentIsChange(t *testing.T) {
	remote := &model.Album{UUID: "A1", Kind: model.KindAlbum, Label: "A1", ParentUUID: ""}
	local := map[string]*model.Album{
		"A1": {UUID: "A1", Kind: model.KindAlbum, Label: "A1", ParentUUID: "F1"},
	}

	q := differ.Diff([]*model.Album{remote}, local)

	require.Len(t, q.ToAdd, 1)
	require.Len(t, q.ToDelete, 1)
	assert.Equal(t, "", q.ToAdd[0].ParentUUID)
	assert.Equal(t, "F1", q.ToDelete[0].ParentUUID)
}

func TestDiffPurity(t *testing.T) {
	// differ(R, L) must not depend on slice order.
	r1 := &model.Asset{UUID: "a1", Size: 1, ModTime: time.Unix(1, 0)}
	r2 := &model.Asset{UUID: "a2", Size: 2, ModTime: time.Unix(2, 0)}
	local := map[string]*model.Asset{}

	q1 := differ.Diff([]*model.Asset{r1, r2}, local)
	q2 := differ.Diff([]*model.Asset{r2, r1}, local)

	assert.ElementsMatch(t, uuids(q1.ToAdd), uuids(q2.ToAdd))
}
