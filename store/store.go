// Package store persists pro forma histories.
//
// A history is saved as a whole, but locked versions are append only: a
// repository never rewrites a version once it has been saved locked.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bdebruin1014/proforma"
	"github.com/google/uuid"
)

// Repository persists the version history of pro formas by identifier.
type Repository interface {
	Save(ctx context.Context, id uuid.UUID, rec proforma.Record) error
	Load(ctx context.Context, id uuid.UUID) (proforma.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]uuid.UUID, error)
}

// LoadRegistry restores every pro forma of repo into a new registry.
//
// A pro forma that cannot be restored does not prevent loading the others: the
// registry holds every pro forma that could be restored, and the error lists
// the others. The registry is nil only when repo cannot be listed.
func LoadRegistry(ctx context.Context, repo Repository, opts ...proforma.Option) (*proforma.Registry, error) {
	ids, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot list pro formas: %w", err)
	}
	r := proforma.NewRegistry(opts...)
	var errs error
	for _, id := range ids {
		rec, err := repo.Load(ctx, id)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("cannot load %v: %w", id, err))
			continue
		}
		s, err := proforma.RestoreService(rec, opts...)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("cannot restore %v: %w", id, err))
			continue
		}
		if err := r.Add(id, s); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return r, errs
}

// SaveService persists the history of one pro forma.
func SaveService(ctx context.Context, repo Repository, id uuid.UUID, s *proforma.Service) error {
	return repo.Save(ctx, id, s.Record())
}

// SaveRegistry persists every pro forma of r.
func SaveRegistry(ctx context.Context, repo Repository, r *proforma.Registry) error {
	var errs error
	for id, s := range r.All() {
		if err := SaveService(ctx, repo, id, s); err != nil {
			errs = errors.Join(errs, fmt.Errorf("cannot save %q: %w", s.Name(), err))
		}
	}
	return errs
}

// checkRecord rejects a history without versions: a pro forma is deleted with
// Delete, never saved empty.
func checkRecord(id uuid.UUID, rec proforma.Record) error {
	if len(rec.Versions) == 0 {
		return fmt.Errorf("cannot save %v without versions: %w", id, proforma.ErrInvalidState)
	}
	return nil
}

// checkAppendOnly returns an error if next drops or changes a locked version of prev.
func checkAppendOnly(prev, next []proforma.ProformaVersion, equal func(a, b proforma.ProformaVersion) bool) error {
	byID := make(map[proforma.VersionID]proforma.ProformaVersion, len(next))
	for _, v := range next {
		byID[v.ID] = v
	}
	for _, old := range prev {
		if !old.Locked {
			continue
		}
		v, ok := byID[old.ID]
		if !ok || !v.Locked || !equal(old, v) {
			return fmt.Errorf("version %v cannot be rewritten: %w", old.ID, proforma.ErrAlreadyLocked)
		}
	}
	return nil
}
