package proforma

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"
)

// Versions manages the version history of a pro forma: at most one editable
// draft plus an ordered list of locked, immutable versions.
//
// Every operation is atomic: it either succeeds or leaves the history
// unchanged. Identifiers are issued in strictly increasing order and never
// reused, so a caller holding the identifier of a discarded draft gets
// ErrConflict instead of silently editing a newer one.
type Versions struct {
	mu       sync.Mutex
	template Proforma          // seed of drafts created from nothing
	history  []ProformaVersion // locked, sorted by ID
	draft    *ProformaVersion
	issued   VersionID // greatest identifier ever issued
	retired  map[VersionID]struct{}
	now      func() time.Time
}

// NewVersions starts a history with a v1.0 draft seeded with seed.
func NewVersions(seed Proforma, opts ...Option) *Versions {
	o := newOptions(opts)
	v := &Versions{
		template: Empty(seed.Name(), seed.Currency()),
		retired:  make(map[VersionID]struct{}),
		now:      o.now,
	}
	first := V(1, 0)
	v.draft = &ProformaVersion{ID: first, CreatedAt: v.now(), Snapshot: seed}
	v.issued = first
	return v
}

// Record is a history as it is persisted: the versions, oldest first, and the
// greatest identifier ever issued. Issued is ahead of the last version when
// the most recent draft was discarded.
type Record struct {
	Versions []ProformaVersion
	Issued   VersionID
}

// RestoreVersions rebuilds a history from a record, its versions in any
// order, as read back from a persistence layer.
func RestoreVersions(rec Record, opts ...Option) (*Versions, error) {
	if len(rec.Versions) == 0 {
		return nil, fmt.Errorf("cannot restore an empty history: %w", ErrInvalidState)
	}
	list := slices.SortedFunc(slices.Values(rec.Versions), func(a, b ProformaVersion) int { return a.ID.Compare(b.ID) })

	o := newOptions(opts)
	first := list[0].Snapshot
	v := &Versions{
		template: Empty(first.Name(), first.Currency()),
		retired:  make(map[VersionID]struct{}),
		now:      o.now,
	}
	var errs error
	for i, ver := range list {
		if i > 0 && ver.ID == list[i-1].ID {
			errs = errors.Join(errs, fmt.Errorf("version %v appears twice", ver.ID))
			continue
		}
		if err := ver.Snapshot.Validate(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("version %v: %w", ver.ID, err))
			continue
		}
		if !ver.Locked {
			if i != len(list)-1 {
				errs = errors.Join(errs, fmt.Errorf("draft %v is not the most recent version", ver.ID))
				continue
			}
			d := ver
			v.draft = &d
			continue
		}
		v.history = append(v.history, ver)
	}
	if errs != nil {
		return nil, fmt.Errorf("cannot restore history: %w", errs)
	}
	v.issued = list[len(list)-1].ID
	if v.issued.Less(rec.Issued) {
		// the last issued identifier was a discarded draft.
		v.issued = rec.Issued
		v.retired[rec.Issued] = struct{}{}
	}
	return v, nil
}

// Issued returns the greatest identifier ever issued.
func (v *Versions) Issued() VersionID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.issued
}

// locked finds a locked version. The caller must hold the lock.
func (v *Versions) locked(id VersionID) (ProformaVersion, bool) {
	i, ok := slices.BinarySearchFunc(v.history, id, func(e ProformaVersion, t VersionID) int { return e.ID.Compare(t) })
	if !ok {
		return ProformaVersion{}, false
	}
	return v.history[i], true
}

// checkDraft returns nil if id is the current draft, or the reason why it is not.
// The caller must hold the lock.
func (v *Versions) checkDraft(id VersionID) error {
	if v.draft != nil && v.draft.ID == id {
		return nil
	}
	if _, ok := v.locked(id); ok {
		return fmt.Errorf("version %v: %w", id, ErrAlreadyLocked)
	}
	if _, ok := v.retired[id]; ok {
		return fmt.Errorf("draft %v is no longer the current draft: %w", id, ErrConflict)
	}
	return fmt.Errorf("draft %v: %w", id, ErrNotFound)
}

// CreateDraft opens a new draft seeded with the snapshot of from, or with an
// empty template if from is nil. It fails with ErrInvalidState if a draft
// already exists.
func (v *Versions) CreateDraft(from *ProformaVersion, b Bump) (ProformaVersion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.draft != nil {
		return ProformaVersion{}, fmt.Errorf("draft %v already exists: %w", v.draft.ID, ErrInvalidState)
	}
	seed := v.template
	if from != nil {
		seed = from.Snapshot
	}
	id := v.issued.Next(b)
	d := ProformaVersion{ID: id, CreatedAt: v.now(), Snapshot: seed}
	v.draft = &d
	v.issued = id
	return d, nil
}

// Lock freezes the draft named id and appends it to the history. The history
// has no draft afterwards.
//
// It fails with ErrAlreadyLocked if id is a locked version, ErrConflict if id
// is a draft that has since been replaced, and ErrNotFound otherwise.
func (v *Versions) Lock(id VersionID, notes string) (ProformaVersion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDraft(id); err != nil {
		return ProformaVersion{}, fmt.Errorf("cannot lock: %w", err)
	}
	locked := *v.draft
	locked.Locked = true
	locked.CreatedAt = v.now()
	if notes != "" {
		locked.Notes = notes
	}
	v.history = append(v.history, locked)
	v.draft = nil
	return locked, nil
}

// Update replaces the snapshot of the draft named id.
func (v *Versions) Update(id VersionID, snapshot Proforma) (ProformaVersion, error) {
	if err := snapshot.Validate(); err != nil {
		return ProformaVersion{}, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDraft(id); err != nil {
		return ProformaVersion{}, fmt.Errorf("cannot update: %w", err)
	}
	d := *v.draft
	d.Snapshot = snapshot
	v.draft = &d
	return d, nil
}

// Annotate replaces the notes of the draft named id.
func (v *Versions) Annotate(id VersionID, notes string) (ProformaVersion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDraft(id); err != nil {
		return ProformaVersion{}, fmt.Errorf("cannot annotate: %w", err)
	}
	d := *v.draft
	d.Notes = notes
	v.draft = &d
	return d, nil
}

// Discard drops the draft named id. Its identifier is never issued again.
//
// The draft of a history without locked versions cannot be discarded: a pro
// forma always has at least one version, it is deleted as a whole instead.
func (v *Versions) Discard(id VersionID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkDraft(id); err != nil {
		return fmt.Errorf("cannot discard: %w", err)
	}
	if len(v.history) == 0 {
		return fmt.Errorf("cannot discard %v, the only version, delete the pro forma instead: %w", id, ErrInvalidState)
	}
	v.retired[id] = struct{}{}
	v.draft = nil
	return nil
}

// Draft returns the current draft, if any.
func (v *Versions) Draft() (ProformaVersion, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft == nil {
		return ProformaVersion{}, false
	}
	return *v.draft, true
}

// Latest returns the most recent locked version, if any.
func (v *Versions) Latest() (ProformaVersion, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.history) == 0 {
		return ProformaVersion{}, false
	}
	return v.history[len(v.history)-1], true
}

// Get returns any version, the draft or a locked one.
func (v *Versions) Get(id VersionID) (ProformaVersion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft != nil && v.draft.ID == id {
		return *v.draft, nil
	}
	if ver, ok := v.locked(id); ok {
		return ver, nil
	}
	return ProformaVersion{}, fmt.Errorf("version %v: %w", id, ErrNotFound)
}

// List iterates over the versions, most recent first: the draft if any, then
// the locked versions. Each iteration reads the history as it is when the
// iteration starts.
func (v *Versions) List() iter.Seq[ProformaVersion] {
	return func(yield func(ProformaVersion) bool) {
		v.mu.Lock()
		// locked versions are never modified and the history is append only,
		// so this slice can be read without the lock.
		history := v.history[:len(v.history):len(v.history)]
		var draft *ProformaVersion
		if v.draft != nil {
			d := *v.draft
			draft = &d
		}
		v.mu.Unlock()

		if draft != nil && !yield(*draft) {
			return
		}
		for i := len(history) - 1; i >= 0; i-- {
			if !yield(history[i]) {
				return
			}
		}
	}
}

// Len returns the number of versions, draft included.
func (v *Versions) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.history)
	if v.draft != nil {
		n++
	}
	return n
}
