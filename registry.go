package proforma

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry holds the pro formas of a workspace, each with its own history.
type Registry struct {
	mu       sync.Mutex
	services map[uuid.UUID]*Service
	opts     []Option
}

// NewRegistry creates an empty registry. Its options are passed to every
// service it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{services: make(map[uuid.UUID]*Service), opts: opts}
}

// Create starts a new pro forma named name from seed.
func (r *Registry) Create(name string, seed Proforma) (uuid.UUID, *Service) {
	id := uuid.New()
	s := NewService(seed.WithName(name), r.opts...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[id] = s
	return id, s
}

// Add registers a restored service under a known identifier.
func (r *Registry) Add(id uuid.UUID, s *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[id]; exists {
		return fmt.Errorf("pro forma %v already registered: %w", id, ErrInvalidState)
	}
	r.services[id] = s
	return nil
}

// Get returns the service of a pro forma.
func (r *Registry) Get(id uuid.UUID) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, fmt.Errorf("pro forma %v: %w", id, ErrNotFound)
	}
	return s, nil
}

// Lookup finds a pro forma by identifier, or by name when ref is not a valid
// identifier. Names are matched case insensitively and must be unambiguous.
func (r *Registry) Lookup(ref string) (uuid.UUID, *Service, error) {
	if id, err := uuid.Parse(ref); err == nil {
		s, err := r.Get(id)
		return id, s, err
	}
	var found []uuid.UUID
	for id, s := range r.All() {
		if strings.EqualFold(s.Name(), ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, nil, fmt.Errorf("pro forma %q: %w", ref, ErrNotFound)
	case 1:
		s, err := r.Get(found[0])
		return found[0], s, err
	default:
		return uuid.Nil, nil, fmt.Errorf("%d pro formas are named %q, use an identifier: %w", len(found), ref, ErrConflict)
	}
}

// Delete removes a pro forma and its whole history.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[id]; !ok {
		return fmt.Errorf("pro forma %v: %w", id, ErrNotFound)
	}
	delete(r.services, id)
	return nil
}

// Len returns the number of pro formas.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.services)
}

// All iterates over the pro formas sorted by name, then by identifier.
func (r *Registry) All() iter.Seq2[uuid.UUID, *Service] {
	return func(yield func(uuid.UUID, *Service) bool) {
		r.mu.Lock()
		services := maps.Clone(r.services)
		r.mu.Unlock()

		names := make(map[uuid.UUID]string, len(services))
		for id, s := range services {
			names[id] = s.Name()
		}
		ids := slices.SortedFunc(maps.Keys(services), func(a, b uuid.UUID) int {
			if c := cmp.Compare(names[a], names[b]); c != 0 {
				return c
			}
			return cmp.Compare(a.String(), b.String())
		})
		for _, id := range ids {
			if !yield(id, services[id]) {
				return
			}
		}
	}
}
