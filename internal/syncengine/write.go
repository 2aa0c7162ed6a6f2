package syncengine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/photomirror/photomirror/internal/metadata"
	"github.com/photomirror/photomirror/internal/model"
	"github.com/photomirror/photomirror/internal/progress"
	"github.com/photomirror/photomirror/internal/xsync"
)

func unixToTime(sec int64) time.Time { return time.Unix(sec, 0) }

// writeAssets executes the asset queue: deletes run serially on the
// driver task and complete before any add starts (§5 — avoids a
// changed asset's delete racing its re-add); adds dispatch to a
// bounded download pool sized by cfg.DownloadThreads.
func (e *Engine) writeAssets(ctx context.Context, q model.Queue[*model.Asset]) error {
	for _, a := range q.ToDelete {
		if err := e.store.RemoveAsset(a.UUID); err != nil {
			return fmt.Errorf("syncengine: delete asset %q: %w", a.UUID, err)
		}
		e.prog <- progress.Event{Kind: progress.KindWriteOp, Op: progress.OpDeleteAsset, Target: a.UUID}
	}

	var (
		mu      sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}
	hasErr := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	threads := e.cfg.DownloadThreads
	if threads <= 0 {
		threads = 1
	}
	worker := xsync.NewWorker[*model.Asset](uint(threads), func(a *model.Asset) {
		if err := e.addOneAsset(ctx, a); err != nil {
			recordErr(fmt.Errorf("syncengine: add asset %q: %w", a.UUID, err))
			return
		}
		e.prog <- progress.Event{Kind: progress.KindWriteOp, Op: progress.OpAddAsset, Target: a.UUID}
	})

	for _, a := range q.ToAdd {
		if hasErr() || ctx.Err() != nil {
			break
		}
		worker.Enqueue(a)
	}

	if hasErr() || ctx.Err() != nil {
		// Retry cleanup contract (§5): drop anything still queued,
		// await in-flight jobs (addAsset is the atomic unit, never
		// aborted mid-write).
		worker.Drain()
	} else {
		worker.Finish()
		worker.Wait()
	}

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// addOneAsset downloads, verifies, and commits one asset.
func (e *Engine) addOneAsset(ctx context.Context, a *model.Asset) error {
	data, err := e.client.Download(ctx, a.DownloadURL)
	if err != nil {
		return err
	}

	if int64(len(data)) != a.Size {
		return fmt.Errorf("size mismatch: advertised %d, got %d", a.Size, len(data))
	}

	if a.Checksum != "" {
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != a.Checksum {
			return fmt.Errorf("checksum mismatch for %q", a.FileName)
		}
	}

	if err := e.store.AddAsset(a, data); err != nil {
		return err
	}

	if skew, ok := metadata.CheckSkew(data, a.ModTime); ok && metadata.Exceeds(skew) {
		e.prog <- progress.Event{
			Kind:    progress.KindWarning,
			Message: fmt.Sprintf("%s: EXIF capture date differs from declared modification time by %s", a.FileName, skew),
		}
	}

	return nil
}

// writeAlbums executes the resolved album queue strictly serially:
// deletions in order, then additions in order (§4.4, §5).
func (e *Engine) writeAlbums(q model.Queue[*model.Album]) error {
	for _, a := range q.ToDelete {
		if err := e.store.RemoveAlbum(a.UUID); err != nil {
			return fmt.Errorf("syncengine: delete album %q: %w", a.UUID, err)
		}
		e.prog <- progress.Event{Kind: progress.KindWriteOp, Op: progress.OpDeleteAlbum, Target: a.UUID}
	}

	for _, a := range q.ToAdd {
		if err := e.store.AddAlbum(a); err != nil {
			return fmt.Errorf("syncengine: add album %q: %w", a.UUID, err)
		}
		e.prog <- progress.Event{Kind: progress.KindWriteOp, Op: progress.OpAddAlbum, Target: a.UUID}
	}

	return nil
}
