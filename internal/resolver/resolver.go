// Package resolver post-processes an album processing queue so that
// applying its deletions in order and then its additions in order
// never violates hierarchy validity at any intermediate step.
//
// It does not materialize a parent-pointer graph (per the design note
// on cyclic references): parent UUIDs are resolved lazily against a
// UUID-keyed index built fresh for each pass.
package resolver

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/photomirror/photomirror/internal/model"
)

// CycleError reports a cycle among albums queued for addition.
type CycleError struct {
	UUID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("resolver: cycle detected in album dependency graph at %q", e.UUID)
}

// DanglingParentError reports an add whose parent does not, and will
// not, exist.
type DanglingParentError struct {
	UUID       string
	ParentUUID string
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("resolver: album %q references missing parent %q", e.UUID, e.ParentUUID)
}

// Resolve rewrites q so that:
//   - ToAdd is ordered parent-before-child.
//   - ToDelete is ordered child-before-parent.
//   - any local album slated for deletion whose on-disk descendant
//     would otherwise survive is "lifted": the descendant joins
//     ToDelete (child-first) and a freshly-queued copy of it joins
//     ToAdd (parent-first), so the descendant is torn down with its
//     doomed ancestor and rebuilt once the new parent exists.
//
// local is the pre-run local album map (the Library Store's
// loadAlbums result), used only to discover on-disk parent/child
// relationships for the lift step above.
func Resolve(q model.Queue[*model.Album], local map[string]*model.Album) (model.Queue[*model.Album], error) {
	out := q.Clone()

	if err := liftDescendants(&out, local); err != nil {
		return model.Queue[*model.Album]{}, err
	}

	addOrder, err := sortAdds(out.ToAdd, out.ToKeep)
	if err != nil {
		return model.Queue[*model.Album]{}, err
	}
	out.ToAdd = addOrder

	out.ToDelete = sortDeletes(out.ToDelete)

	return out, nil
}

// liftDescendants grows out.ToDelete/out.ToAdd (and shrinks
// out.ToKeep) until every local descendant of a doomed album is
// itself doomed and re-queued.
func liftDescendants(q *model.Queue[*model.Album], local map[string]*model.Album) error {
	children := make(map[string][]*model.Album, len(local))
	for _, a := range local {
		if a.IsRoot() {
			continue
		}
		children[a.ParentUUID] = append(children[a.ParentUUID], a)
	}

	deleted := make(map[string]*model.Album, len(q.ToDelete))
	for _, a := range q.ToDelete {
		deleted[a.UUID] = a
	}
	addedUUIDs := make(map[string]bool, len(q.ToAdd))
	for _, a := range q.ToAdd {
		addedUUIDs[a.UUID] = true
	}

	work := append([]*model.Album(nil), q.ToDelete...)
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]

		for _, child := range children[cur.UUID] {
			if _, already := deleted[child.UUID]; already {
				continue
			}
			// Lift: the child survives in the local map and is not yet
			// doomed — its containing directory is about to be removed,
			// so it must be torn down and rebuilt too.
			deleted[child.UUID] = child
			q.ToDelete = append(q.ToDelete, child)
			work = append(work, child)

			q.ToKeep = removeByUUID(q.ToKeep, child.UUID)

			if !addedUUIDs[child.UUID] {
				q.ToAdd = append(q.ToAdd, child)
				addedUUIDs[child.UUID] = true
			}
		}
	}

	return nil
}

func removeByUUID(albums []*model.Album, uuid string) []*model.Album {
	out := albums[:0:0]
	for _, a := range albums {
		if a.UUID != uuid {
			out = append(out, a)
		}
	}
	return out
}

// sortAdds returns toAdd ordered parent-before-child. An album whose
// parent is not in toAdd must have the root or an album in toKeep as
// its parent, otherwise a DanglingParentError is returned; such albums
// may appear in any position relative to each other — ties are broken
// lexicographically by UUID, layer by layer, for deterministic output.
func sortAdds(toAdd []*model.Album, toKeep []*model.Album) ([]*model.Album, error) {
	byUUID := make(map[string]*model.Album, len(toAdd))
	for _, a := range toAdd {
		byUUID[a.UUID] = a
	}

	satisfied := make(map[string]bool, len(toAdd)+len(toKeep)+1)
	satisfied[""] = true
	for _, a := range toKeep {
		satisfied[a.UUID] = true
	}

	remaining := append([]*model.Album(nil), toAdd...)
	out := make([]*model.Album, 0, len(toAdd))

	for len(remaining) > 0 {
		var ready []*model.Album
		var stuck []*model.Album
		for _, a := range remaining {
			if satisfied[a.ParentUUID] {
				ready = append(ready, a)
			} else if _, parentQueued := byUUID[a.ParentUUID]; parentQueued {
				stuck = append(stuck, a)
			} else {
				return nil, &DanglingParentError{UUID: a.UUID, ParentUUID: a.ParentUUID}
			}
		}

		if len(ready) == 0 {
			slices.SortFunc(stuck, func(a, b *model.Album) int {
				if a.UUID < b.UUID {
					return -1
				}
				if a.UUID > b.UUID {
					return 1
				}
				return 0
			})
			return nil, &CycleError{UUID: stuck[0].UUID}
		}

		slices.SortFunc(ready, func(a, b *model.Album) int {
			if a.UUID < b.UUID {
				return -1
			}
			if a.UUID > b.UUID {
				return 1
			}
			return 0
		})
		out = append(out, ready...)
		for _, a := range ready {
			satisfied[a.UUID] = true
		}
		remaining = stuck
	}

	return out, nil
}

// sortDeletes returns toDelete ordered child-before-parent: an album
// whose UUID is some other queued album's parent comes after all of
// its queued children. Ties are broken lexicographically by UUID.
func sortDeletes(toDelete []*model.Album) []*model.Album {
	inSet := make(map[string]bool, len(toDelete))
	for _, a := range toDelete {
		inSet[a.UUID] = true
	}

	// remainingChildren[uuid] counts how many of its queued children
	// have not yet been emitted.
	remainingChildren := make(map[string]int, len(toDelete))
	for _, a := range toDelete {
		if inSet[a.ParentUUID] {
			remainingChildren[a.ParentUUID]++
		}
	}

	byUUID := make(map[string]*model.Album, len(toDelete))
	for _, a := range toDelete {
		byUUID[a.UUID] = a
	}

	remaining := maps.Keys(byUUID)
	out := make([]*model.Album, 0, len(toDelete))

	for len(remaining) > 0 {
		var ready []string
		var stuck []string
		for _, uuid := range remaining {
			if remainingChildren[uuid] == 0 {
				ready = append(ready, uuid)
			} else {
				stuck = append(stuck, uuid)
			}
		}

		slices.Sort(ready)
		for _, uuid := range ready {
			a := byUUID[uuid]
			out = append(out, a)
			if inSet[a.ParentUUID] {
				remainingChildren[a.ParentUUID]--
			}
		}
		remaining = stuck
	}

	return out
}
