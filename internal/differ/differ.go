// Package differ implements the pure remote/local reconciliation step
// shared by assets and albums: given a remote entity list and a local
// entity map, it produces a processing queue of entities to keep, add,
// or delete. It performs no I/O and depends only on its inputs.
package differ

import "github.com/photomirror/photomirror/internal/model"

// Diff reconciles a remote entity list against a map of local entities
// keyed by UUID, per the contract in the library store design: a
// remote entity absent locally, or present but fingerprint-unequal,
// is queued to add (and, if it existed locally, also queued to
// delete); everything else local that the remote list doesn't confirm
// is queued to delete; matching entities are queued to keep.
func Diff[T model.Entity](remote []T, local map[string]T) model.Queue[T] {
	toDelete := make(map[string]T, len(local))
	for uuid, l := range local {
		toDelete[uuid] = l
	}

	q := model.Queue[T]{
		ToAdd:  make([]T, 0),
		ToKeep: make([]T, 0, len(local)),
	}

	for _, r := range remote {
		l, ok := local[r.GetUUID()]
		if !ok || !r.EqualTo(l) {
			q.ToAdd = append(q.ToAdd, r)
			continue
		}
		q.ToKeep = append(q.ToKeep, l)
		delete(toDelete, l.GetUUID())
	}

	q.ToDelete = make([]T, 0, len(toDelete))
	for _, l := range toDelete {
		q.ToDelete = append(q.ToDelete, l)
	}

	return q
}
