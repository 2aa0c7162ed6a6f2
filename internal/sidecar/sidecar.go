// Package sidecar implements doctor's read-only XMP sidecar
// well-formedness check. ARCHIVED albums are opaque to sync (§3), but
// doctor may still look at any .xmp files a user has dropped there —
// a pure read, never a mutation — and report ones that don't even
// parse as XML. It reuses mxj the way the teacher's own
// ForceSidecar/metadata.SideCar feature anticipates sidecar files
// without ever parsing one back.
package sidecar

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// Issue is one malformed sidecar found under an archived album
// directory.
type Issue struct {
	Path string
	Err  error
}

// ValidateTree walks root (an ARCHIVED album directory, or the whole
// album tree root) looking for *.xmp files and attempts to parse each
// as XML. It never writes anything.
func ValidateTree(fsys fs.FS, root string) ([]Issue, error) {
	var issues []Issue

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xmp") {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			issues = append(issues, Issue{Path: path, Err: fmt.Errorf("sidecar: read: %w", err)})
			return nil
		}

		if _, err := mxj.NewMapXml(data); err != nil {
			issues = append(issues, Issue{Path: path, Err: fmt.Errorf("sidecar: malformed XMP: %w", err)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sidecar: walk %q: %w", root, err)
	}

	return issues, nil
}
