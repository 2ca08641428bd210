package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"hotel_search/internal/app"
	"hotel_search/internal/domain"
	"hotel_search/internal/storage/memory"
)

func pf(f float64) *float64 { return &f }

func req(name string, price, lat, lng float64) app.HotelRequest {
	return app.HotelRequest{Name: name, Price: pf(price), Latitude: pf(lat), Longitude: pf(lng)}
}

// fakeCache keeps JSON blobs in a map, like the redis adapter does.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	dels int
	fail bool
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return false, errors.New("cache down")
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	if c.fail {
		return errors.New("cache down")
	}
	delete(c.data, key)
	return nil
}

// failingRepo fails every call with a store error.
type failingRepo struct{}

func storeErr(op string) error { return &domain.StoreError{Op: op, Err: errors.New("connection refused")} }

func (failingRepo) GetByID(context.Context, uuid.UUID) (domain.Hotel, bool, error) {
	return domain.Hotel{}, false, storeErr("get_by_id")
}
func (failingRepo) GetAll(context.Context) ([]domain.Hotel, error) { return nil, storeErr("get_all") }
func (failingRepo) Add(context.Context, domain.Hotel) (domain.Hotel, error) {
	return domain.Hotel{}, storeErr("add")
}
func (failingRepo) Update(context.Context, domain.Hotel) error      { return storeErr("update") }
func (failingRepo) Delete(context.Context, uuid.UUID) error         { return storeErr("delete") }
func (failingRepo) Exists(context.Context, uuid.UUID) (bool, error) { return false, storeErr("exists") }
func (failingRepo) ExistsByNameAndLocation(context.Context, string, float64, float64, uuid.NullUUID) (bool, error) {
	return false, storeErr("exists_by_name_location")
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(memory.New(), nil, 0)

	h, err := svc.Create(ctx, req("  Esplanade  ", 150, 45.8150, 15.9819))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.Name() != "Esplanade" || h.UpdatedAt() != nil || h.CreatedAt().IsZero() {
		t.Fatalf("unexpected hotel: %+v", h)
	}

	got, ok, err := svc.GetByID(ctx, h.ID())
	if err != nil || !ok || got.ID() != h.ID() {
		t.Fatalf("GetByID: ok=%v err=%v", ok, err)
	}

	_, ok, err = svc.GetByID(ctx, uuid.New())
	if err != nil || ok {
		t.Fatalf("missing id: ok=%v err=%v", ok, err)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc := app.NewHotelService(memory.New(), nil, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		in   app.HotelRequest
		want error
	}{
		{"blank name", req("  ", 10, 0, 0), domain.ErrValidation},
		{"negative price", req("x", -1, 0, 0), domain.ErrValidation},
		{"latitude out of range", req("x", 1, 91, 0), domain.ErrValidation},
		{"missing price", app.HotelRequest{Name: "x", Latitude: pf(0), Longitude: pf(0)}, domain.ErrNullArgument},
		{"missing location", app.HotelRequest{Name: "x", Price: pf(1)}, domain.ErrNullArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(memory.New(), nil, 0)

	if _, err := svc.Create(ctx, req("Esplanade", 150, 45.8150, 15.9819)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, req("ESPLANADE", 90, 45.8150+5e-7, 15.9819))
	var dup *domain.DuplicateError
	if !errors.As(err, &dup) || !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	// same name elsewhere is fine
	if _, err := svc.Create(ctx, req("Esplanade", 150, 43.5, 16.4)); err != nil {
		t.Fatalf("Create elsewhere: %v", err)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(memory.New(), nil, 0)

	a, _ := svc.Create(ctx, req("Alpha", 100, 45, 15))
	b, _ := svc.Create(ctx, req("Beta", 100, 46, 16))

	// unchanged name and location must not collide with itself
	up, err := svc.Update(ctx, a.ID(), req("alpha", 120, 45, 15))
	if err != nil {
		t.Fatalf("Update self: %v", err)
	}
	if up.Price() != 120 || up.UpdatedAt() == nil || up.CreatedAt() != a.CreatedAt() {
		t.Fatalf("unexpected update result: %+v", up)
	}

	// moving onto another hotel's name and location is a duplicate
	if _, err := svc.Update(ctx, b.ID(), req("Alpha", 1, 45, 15)); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	if _, err := svc.Update(ctx, uuid.New(), req("Gamma", 1, 0, 0)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// validation failure leaves the stored hotel untouched
	if _, err := svc.Update(ctx, a.ID(), req("", 1, 0, 0)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _, _ := svc.GetByID(ctx, a.ID())
	if got.Name() != "alpha" || got.Price() != 120 {
		t.Fatalf("stored hotel changed: %+v", got)
	}
}

func TestService_UpdatedAtNeverGoesBackwards(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(memory.New(), nil, 0)
	h, _ := svc.Create(ctx, req("Alpha", 100, 45, 15))

	orig := domain.Now
	t.Cleanup(func() { domain.Now = orig })
	domain.Now = func() time.Time { return h.CreatedAt().Add(-time.Hour) }

	up, err := svc.Update(ctx, h.ID(), req("Alpha", 90, 45, 15))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.UpdatedAt() == nil || up.UpdatedAt().Before(up.CreatedAt()) {
		t.Fatalf("updatedAt %v before createdAt %v", up.UpdatedAt(), up.CreatedAt())
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(memory.New(), nil, 0)
	h, _ := svc.Create(ctx, req("Alpha", 100, 45, 15))

	if err := svc.Delete(ctx, h.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, h.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if _, ok, _ := svc.GetByID(ctx, h.ID()); ok {
		t.Fatalf("hotel still present")
	}
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(memory.New(), nil, 0)
	_, _ = svc.Create(ctx, req("Far", 10, 0, 1))
	_, _ = svc.Create(ctx, req("Near", 100, 0, 0.009))

	res, err := svc.Search(ctx, domain.SearchQuery{Latitude: 0, Longitude: 0})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.PageNumber != 1 || res.PageSize != 10 || res.TotalCount != 2 || res.TotalPages != 1 {
		t.Fatalf("unexpected meta: %+v", res)
	}
	if res.Items[0].Name != "Near" {
		t.Fatalf("expected Near first, got %s", res.Items[0].Name)
	}

	if _, err := svc.Search(ctx, domain.SearchQuery{Latitude: 0, Longitude: 0, PageSize: 101}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Search(ctx, domain.SearchQuery{Latitude: -91}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	svc := app.NewHotelService(failingRepo{}, nil, 0)

	if _, err := svc.Create(ctx, req("Alpha", 1, 0, 0)); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("Create: expected store error, got %v", err)
	}
	if _, _, err := svc.GetByID(ctx, uuid.New()); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("GetByID: expected store error, got %v", err)
	}
	if _, err := svc.Update(ctx, uuid.New(), req("Alpha", 1, 0, 0)); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("Update: expected store error, got %v", err)
	}
	if err := svc.Delete(ctx, uuid.New()); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("Delete: expected store error, got %v", err)
	}
	if _, err := svc.Search(ctx, domain.SearchQuery{}); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("Search: expected store error, got %v", err)
	}
}

func TestService_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := app.NewHotelService(memory.New(), nil, 0)

	if _, err := svc.Create(ctx, req("Alpha", 1, 0, 0)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Create: expected canceled, got %v", err)
	}
	if _, err := svc.Search(ctx, domain.SearchQuery{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Search: expected canceled, got %v", err)
	}
	if err := svc.Delete(ctx, uuid.New()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Delete: expected canceled, got %v", err)
	}
}

func TestService_CacheReadThroughAndEviction(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	repo := memory.New()
	svc := app.NewHotelService(repo, cache, time.Minute, app.WithReevictDelay(0))

	h, _ := svc.Create(ctx, req("Alpha", 100, 45, 15))
	if _, ok, err := svc.GetByID(ctx, h.ID()); err != nil || !ok {
		t.Fatalf("GetByID: ok=%v err=%v", ok, err)
	}
	if !cache.has("hotel:" + h.ID().String()) {
		t.Fatalf("expected cache fill")
	}

	// served from cache even after the repo lost it
	if err := repo.Delete(ctx, h.ID()); err != nil {
		t.Fatalf("repo delete: %v", err)
	}
	got, ok, err := svc.GetByID(ctx, h.ID())
	if err != nil || !ok || got.Name() != "Alpha" || !got.CreatedAt().Equal(h.CreatedAt()) {
		t.Fatalf("expected cached hotel, got ok=%v err=%v %+v", ok, err, got)
	}

	// writes evict
	h2, _ := svc.Create(ctx, req("Beta", 100, 46, 16))
	_, _, _ = svc.GetByID(ctx, h2.ID())
	if _, err := svc.Update(ctx, h2.ID(), req("Beta", 80, 46, 16)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cache.has("hotel:" + h2.ID().String()) {
		t.Fatalf("update should evict")
	}
	got, _, _ = svc.GetByID(ctx, h2.ID())
	if got.Price() != 80 {
		t.Fatalf("stale read after update: %v", got.Price())
	}
	if err := svc.Delete(ctx, h2.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cache.has("hotel:" + h2.ID().String()) {
		t.Fatalf("delete should evict")
	}
}

func TestService_CacheFailureFallsBackToRepo(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.fail = true
	svc := app.NewHotelService(memory.New(), cache, time.Minute)

	h, err := svc.Create(ctx, req("Alpha", 100, 45, 15))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok, err := svc.GetByID(ctx, h.ID()); err != nil || !ok {
		t.Fatalf("GetByID with cache down: ok=%v err=%v", ok, err)
	}
	if err := svc.Delete(ctx, h.ID()); err != nil {
		t.Fatalf("Delete with cache down: %v", err)
	}
}

func TestService_StaleCacheFillAfterWriteIsEvictedAgain(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := app.NewHotelService(memory.New(), cache, time.Minute, app.WithReevictDelay(100*time.Millisecond))

	h, _ := svc.Create(ctx, req("Alpha", 100, 45, 15))
	stale, _, _ := svc.GetByID(ctx, h.ID())
	key := "hotel:" + h.ID().String()

	if _, err := svc.Update(ctx, h.ID(), req("Alpha", 80, 45, 15)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// a reader that loaded the row before the update fills the cache late
	if err := cache.Set(ctx, key, app.ToHotelResponse(stale), 60); err != nil {
		t.Fatalf("Set: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for cache.has(key) {
		if time.Now().After(deadline) {
			t.Fatalf("stale entry was never evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, _, _ := svc.GetByID(ctx, h.ID())
	if got.Price() != 80 {
		t.Fatalf("price = %v, want 80", got.Price())
	}
}
