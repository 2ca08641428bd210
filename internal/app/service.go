package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/domain"
)

const defaultReevictDelay = time.Second

// HotelService runs the CRUD and search operations over whichever
// repository it was built with. cache may be nil.
type HotelService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration

	// second eviction after a write; catches a concurrent GetByID that read
	// the old row before the write and cached it after the first eviction
	reevictDelay time.Duration
}

type ServiceOption func(*HotelService)

// WithReevictDelay sets how long after a write the cache entry is evicted a
// second time. Zero disables the second eviction.
func WithReevictDelay(d time.Duration) ServiceOption {
	return func(s *HotelService) { s.reevictDelay = d }
}

func NewHotelService(r domain.HotelRepository, c domain.Cache, ttl time.Duration, opts ...ServiceOption) *HotelService {
	s := &HotelService{repo: r, cache: c, cacheTTL: ttl, reevictDelay: defaultReevictDelay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HotelService) Create(ctx context.Context, req HotelRequest) (domain.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, err
	}
	price, loc, err := req.fields()
	if err != nil {
		return domain.Hotel{}, err
	}
	h, err := domain.NewHotel(req.Name, price, loc)
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := s.checkDuplicate(ctx, h.Name(), *loc, uuid.NullUUID{}); err != nil {
		return domain.Hotel{}, err
	}

	stored, err := s.repo.Add(ctx, h)
	if err != nil {
		return domain.Hotel{}, err
	}
	log.Info().Str("hotel_id", stored.ID().String()).Str("name", stored.Name()).Msg("hotel created")
	return stored, nil
}

// GetByID returns (hotel, false, nil) when the id is unknown.
func (s *HotelService) GetByID(ctx context.Context, id uuid.UUID) (domain.Hotel, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, false, err
	}
	key := hotelKey(id)
	if s.cache != nil {
		var hr HotelResponse
		ok, err := s.cache.Get(ctx, key, &hr)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		if ok && err == nil {
			if h, err := hr.toDomain(); err == nil {
				return h, true, nil
			}
		}
	}

	h, ok, err := s.repo.GetByID(ctx, id)
	if err != nil || !ok {
		return domain.Hotel{}, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ToHotelResponse(h), int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return h, true, nil
}

func (s *HotelService) Update(ctx context.Context, id uuid.UUID, req HotelRequest) (domain.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hotel{}, err
	}
	h, ok, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if !ok {
		return domain.Hotel{}, &domain.NotFoundError{ID: id}
	}

	price, loc, err := req.fields()
	if err != nil {
		return domain.Hotel{}, err
	}
	if err := h.Update(req.Name, price, loc); err != nil {
		return domain.Hotel{}, err
	}
	if err := s.checkDuplicate(ctx, h.Name(), *loc, uuid.NullUUID{UUID: id, Valid: true}); err != nil {
		return domain.Hotel{}, err
	}
	if err := s.repo.Update(ctx, h); err != nil {
		return domain.Hotel{}, err
	}
	s.evict(ctx, id)
	log.Info().Str("hotel_id", id.String()).Msg("hotel updated")
	return h, nil
}

func (s *HotelService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.NotFoundError{ID: id}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	log.Info().Str("hotel_id", id.String()).Msg("hotel deleted")
	return nil
}

func (s *HotelService) Search(ctx context.Context, q domain.SearchQuery) (domain.PagedResult[domain.SearchResultItem], error) {
	q, user, err := q.Normalize()
	if err != nil {
		return domain.PagedResult[domain.SearchResultItem]{}, err
	}
	hotels, err := s.repo.GetAll(ctx)
	if err != nil {
		return domain.PagedResult[domain.SearchResultItem]{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.PagedResult[domain.SearchResultItem]{}, err
	}

	res := Rank(user, hotels, q.PageNumber, q.PageSize)
	observability.ObserveSearch(res.TotalCount)
	log.Debug().
		Int("total", res.TotalCount).
		Int("page", res.PageNumber).
		Int("returned", len(res.Items)).
		Msg("search ranked")
	return res, nil
}

func (s *HotelService) checkDuplicate(ctx context.Context, name string, loc domain.GeoLocation, exclude uuid.NullUUID) error {
	dup, err := s.repo.ExistsByNameAndLocation(ctx, name, loc.Latitude(), loc.Longitude(), exclude)
	if err != nil {
		return err
	}
	if dup {
		return &domain.DuplicateError{Name: name, Latitude: loc.Latitude(), Longitude: loc.Longitude()}
	}
	return nil
}

// evict drops the cached copy after a successful write, and again after
// reevictDelay. Failures are logged; the entry still expires with its TTL.
func (s *HotelService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.del(ctx, id)
	if s.reevictDelay > 0 {
		time.AfterFunc(s.reevictDelay, func() { s.del(ctx, id) })
	}
}

func (s *HotelService) del(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Del(ctx, hotelKey(id)); err != nil {
		log.Warn().Err(err).Str("hotel_id", id.String()).Msg("cache eviction failed")
	}
}

func hotelKey(id uuid.UUID) string { return fmt.Sprintf("hotel:%s", id) }
