package sidecar_test

import (
	"testing"

	"github.com/psanford/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomirror/photomirror/internal/sidecar"
)

func TestValidateTree_FlagsMalformedXMP(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.MkdirAll("archive", 0o755))
	require.NoError(t, fsys.WriteFile("archive/good.xmp", []byte(`<?xml version="1.0"?><x:xmpmeta xmlns:x="adobe:ns:meta/"></x:xmpmeta>`), 0o644))
	require.NoError(t, fsys.WriteFile("archive/bad.xmp", []byte(`<x:xmpmeta><unterminated>`), 0o644))
	require.NoError(t, fsys.WriteFile("archive/photo.jpg", []byte("not xml"), 0o644))

	issues, err := sidecar.ValidateTree(fsys, "archive")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "archive/bad.xmp", issues[0].Path)
}
