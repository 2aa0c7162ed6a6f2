// Package syncengine is the driver: it runs Fetch & load, Diff, and
// Write in sequence, wrapped in a retry loop that classifies failures
// and refreshes the remote session on anything recoverable.
//
// Per the design note on mixin composition, Engine holds its
// collaborators by field — a remote.Client, a *library.Store, a
// logger.Logger, a progress.Sink — instead of attaching helper
// functions to a host object the way the teacher's UpCmd does.
package syncengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/photomirror/photomirror/internal/differ"
	"github.com/photomirror/photomirror/internal/library"
	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/internal/model"
	"github.com/photomirror/photomirror/internal/progress"
	"github.com/photomirror/photomirror/internal/remote"
	"github.com/photomirror/photomirror/internal/resolver"
)

// Config is the engine's configuration surface (§6): download
// concurrency, the retry budget, and the set of remote album labels
// excluded before diffing.
type Config struct {
	DownloadThreads int
	MaxRetries      int // -1 means retry forever
	IgnoreAlbums    map[string]bool
}

// Engine is one sync() driver instance.
type Engine struct {
	client remote.Client
	store  *library.Store
	log    logger.Logger
	prog   progress.Sink
	cfg    Config
}

// New builds an Engine from its collaborators.
func New(client remote.Client, store *library.Store, log logger.Logger, prog progress.Sink, cfg Config) *Engine {
	return &Engine{client: client, store: store, log: log, prog: prog, cfg: cfg}
}

// Result is the final state sync() converges to.
type Result struct {
	Assets map[string]*model.Asset
	Albums map[string]*model.Album
}

// ErrRetryBudgetExceeded wraps the last recoverable cause when the
// configured retry budget runs out (§7: "Budget exhausted").
var ErrRetryBudgetExceeded = errors.New("syncengine: retry budget exceeded")

// Sync runs the Idle → Fetching → Diffing → Writing → Done state
// machine, looping back to Fetching on a recoverable error via the
// Writing → Retrying back-edge (§4.4).
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	e.log.Debug("sync: starting run %s", runID)

	failures := 0

	for {
		result, err := e.attempt(ctx)
		if err == nil {
			e.emitSummary(result)
			return result, nil
		}

		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		tier := remote.Classify(err)
		if tier == remote.TierFatal {
			return Result{}, fmt.Errorf("syncengine: fatal: %w", err)
		}

		failures++
		if e.cfg.MaxRetries >= 0 && failures > e.cfg.MaxRetries {
			return Result{}, fmt.Errorf("%w after %d attempt(s): %w", ErrRetryBudgetExceeded, failures, err)
		}

		e.prog <- progress.Event{Kind: progress.KindRetry, Phase: progress.PhaseRetrying, Attempt: failures, Err: err, Message: err.Error()}
		e.log.Warning("sync: run %s: recoverable error on attempt %d: %s, refreshing session and retrying", runID, failures, err)

		if refreshErr := e.client.RefreshSession(ctx); refreshErr != nil {
			return Result{}, fmt.Errorf("syncengine: refresh session: %w", refreshErr)
		}
	}
}

// attempt runs one Fetch&Load → Diff → Write pass.
func (e *Engine) attempt(ctx context.Context) (Result, error) {
	e.prog <- progress.Event{Kind: progress.KindPhaseChanged, Phase: progress.PhaseFetching}
	loaded, err := e.fetchAndLoad(ctx)
	if err != nil {
		return Result{}, err
	}

	e.prog <- progress.Event{Kind: progress.KindPhaseChanged, Phase: progress.PhaseDiffing}
	assetQueue, albumQueue, err := e.diff(loaded)
	if err != nil {
		return Result{}, err
	}

	e.prog <- progress.Event{Kind: progress.KindPhaseChanged, Phase: progress.PhaseWriting}
	if err := e.writeAssets(ctx, assetQueue); err != nil {
		return Result{}, err
	}
	if err := e.writeAlbums(albumQueue); err != nil {
		return Result{}, err
	}

	e.prog <- progress.Event{Kind: progress.KindPhaseChanged, Phase: progress.PhaseDone}

	return Result{
		Assets: queueToMap(assetQueue),
		Albums: queueToMap(albumQueue),
	}, nil
}

// diff runs the Differ on assets and albums independently, then the
// Resolver on the album queue (§4.2, §4.3).
func (e *Engine) diff(loaded loadedState) (model.Queue[*model.Asset], model.Queue[*model.Album], error) {
	assetQueue := differ.Diff[*model.Asset](loaded.remoteAssets, loaded.localAssets)

	rawAlbumQueue := differ.Diff[*model.Album](loaded.remoteAlbums, loaded.localAlbums)
	albumQueue, err := resolver.Resolve(rawAlbumQueue, loaded.localAlbums)
	if err != nil {
		return model.Queue[*model.Asset]{}, model.Queue[*model.Album]{}, fmt.Errorf("syncengine: resolve album queue: %w", err)
	}

	return assetQueue, albumQueue, nil
}

func (e *Engine) emitSummary(r Result) {
	e.prog <- progress.Event{Kind: progress.KindSummary, Count: len(r.Assets)}
	e.log.OK("sync: done, %d asset(s), %d album(s)", len(r.Assets), len(r.Albums))
}

// queueToMap flattens a resolved queue's surviving entities (kept plus
// newly added) into the final UUID-keyed state.
func queueToMap[T model.Entity](q model.Queue[T]) map[string]T {
	out := make(map[string]T, len(q.ToKeep)+len(q.ToAdd))
	for _, t := range q.ToKeep {
		out[t.GetUUID()] = t
	}
	for _, t := range q.ToAdd {
		out[t.GetUUID()] = t
	}
	return out
}
