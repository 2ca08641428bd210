package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/domain"
)

const backend = "memory"

// Repo is the ephemeral backend: a mutex-guarded map, lost on restart.
// Hotels are stored and returned by value, so callers never share state
// with the map.
type Repo struct {
	mu     sync.RWMutex
	hotels map[uuid.UUID]domain.Hotel
}

func New() *Repo {
	return &Repo{hotels: make(map[uuid.UUID]domain.Hotel)}
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Hotel, bool, error) {
	defer observe("get_by_id", time.Now())
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hotels[id]
	return h, ok, nil
}

func (r *Repo) GetAll(ctx context.Context) ([]domain.Hotel, error) {
	defer observe("get_all", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Hotel, 0, len(r.hotels))
	for _, h := range r.hotels {
		out = append(out, h)
	}
	// same order as the mysql backend
	slices.SortFunc(out, func(a, b domain.Hotel) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return out, nil
}

func (r *Repo) Add(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	defer observe("add", time.Now())
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[h.ID()]; ok {
		return domain.Hotel{}, &domain.StoreError{Op: "add", Err: domain.ErrAlreadyExists}
	}
	r.hotels[h.ID()] = h
	return h, nil
}

func (r *Repo) Update(ctx context.Context, h domain.Hotel) error {
	defer observe("update", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hotels[h.ID()]; !ok {
		return &domain.NotFoundError{ID: h.ID()}
	}
	r.hotels[h.ID()] = h
	return nil
}

// Delete is a no-op for unknown ids.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	defer observe("delete", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hotels, id)
	return nil
}

func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe("exists", time.Now())
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.hotels[id]
	return ok, nil
}

func (r *Repo) ExistsByNameAndLocation(ctx context.Context, name string, lat, lng float64, excludeID uuid.NullUUID) (bool, error) {
	defer observe("exists_by_name_location", time.Now())
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, h := range r.hotels {
		if excludeID.Valid && id == excludeID.UUID {
			continue
		}
		if h.SameNameAndLocation(name, lat, lng) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hotels)
}

func observe(op string, start time.Time) {
	observability.ObserveStore(backend, op, nil, time.Since(start))
}

var _ domain.HotelRepository = (*Repo)(nil)
