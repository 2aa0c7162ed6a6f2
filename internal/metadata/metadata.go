// Package metadata is a diagnostic-only cross-check: after an asset is
// downloaded, it reads the EXIF DateTimeOriginal tag (when present)
// and compares it against the remote-declared modification time using
// the same 5-minute skew tolerance the teacher's compareDate applies
// when matching local files against server assets. A mismatch never
// changes the Differ's equality fingerprint (§4.2 is unchanged by
// this) — it is surfaced as a warning only.
package metadata

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// skewTolerance mirrors cmdupload/upload.go's compareDate 5-minute
// window.
const skewTolerance = 5 * time.Minute

// CheckSkew reads data's EXIF DateTimeOriginal tag, if any, and
// returns the absolute difference between it and declared; Exceeds
// compares that difference against the tolerance. ok is false when no
// EXIF date tag was found — callers should treat that as "nothing to
// check", not a mismatch.
func CheckSkew(data []byte, declared time.Time) (skew time.Duration, ok bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, false
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return 0, false
	}
	raw, err := tag.StringVal()
	if err != nil {
		return 0, false
	}

	taken, err := time.ParseInLocation("2006:01:02 15:04:05", raw, time.Local)
	if err != nil {
		return 0, false
	}

	diff := taken.Sub(declared)
	if diff < 0 {
		diff = -diff
	}
	return diff, true
}

// Exceeds reports whether skew is outside the tolerated window.
func Exceeds(skew time.Duration) bool {
	return skew > skewTolerance
}
