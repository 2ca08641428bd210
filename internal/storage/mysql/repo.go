package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/domain"
)

const backend = "mysql"

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct {
	db    *sql.DB
	retry RetryPolicy
}

type Option func(*Repo)

func WithRetry(p RetryPolicy) Option {
	return func(r *Repo) {
		if p.MaxAttempts < 1 {
			p.MaxAttempts = 1
		}
		r.retry = p
	}
}

func New(db *sql.DB, opts ...Option) *Repo {
	r := &Repo{db: db, retry: DefaultRetryPolicy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Hotel, bool, error) {
	var (
		h     domain.Hotel
		found bool
	)
	err := r.do(ctx, "get_by_id", func(ctx context.Context) error {
		var err error
		h, err = scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id.String()))
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return domain.Hotel{}, false, err
	}
	return h, true, nil
}

func (r *Repo) GetAll(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	err := r.do(ctx, "get_all", func(ctx context.Context) error {
		out = out[:0]
		rows, err := r.db.QueryContext(ctx, listHotelsSQL)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			h, err := scanHotel(rows)
			if err != nil {
				return err
			}
			out = append(out, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Add(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	loc := h.Location()
	attempts := 0
	err := r.do(ctx, "add", func(ctx context.Context) error {
		attempts++
		_, err := r.db.ExecContext(ctx, insertHotelSQL,
			h.ID().String(),
			h.Name(),
			h.Price(),
			loc.Latitude(),
			loc.Longitude(),
			h.CreatedAt(),
			valTime(h.UpdatedAt()),
		)
		if isDuplicateKey(err) {
			// an earlier attempt may have committed before its connection dropped
			if attempts > 1 {
				return nil
			}
			return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
		}
		return err
	})
	if err != nil {
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) Update(ctx context.Context, h domain.Hotel) error {
	loc := h.Location()
	return r.do(ctx, "update", func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, updateHotelSQL,
			h.Name(),
			h.Price(),
			loc.Latitude(),
			loc.Longitude(),
			valTime(h.UpdatedAt()),
			h.ID().String(),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		// zero rows also means "matched but unchanged"
		var exists bool
		if err := r.db.QueryRowContext(ctx, existsHotelSQL, h.ID().String()).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return &domain.NotFoundError{ID: h.ID()}
		}
		return nil
	})
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.do(ctx, "delete", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, deleteHotelSQL, id.String())
		return err
	})
}

func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.do(ctx, "exists", func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, existsHotelSQL, id.String()).Scan(&exists)
	})
	return exists, err
}

func (r *Repo) ExistsByNameAndLocation(ctx context.Context, name string, lat, lng float64, excludeID uuid.NullUUID) (bool, error) {
	var exists bool
	err := r.do(ctx, "exists_by_name_location", func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, existsByNameAndLocationSQL,
			name,
			lat, domain.CoordinateTolerance,
			lng, domain.CoordinateTolerance,
			excludeID, excludeID,
		).Scan(&exists)
	})
	return exists, err
}

// do runs fn, retrying transient failures per the retry policy, and maps
// the final error: cancellation and not-found pass through, anything else
// becomes a StoreError.
func (r *Repo) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	var err error
	for attempt := 0; ; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		err = fn(ctx)
		if err == nil || !isTransient(err) || attempt+1 >= r.retry.MaxAttempts {
			break
		}
		observability.ObserveStoreRetry(backend, op)
		log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("transient store failure, retrying")
		if !sleepCtx(ctx, backoff(attempt, r.retry.MaxDelay)) {
			err = ctx.Err()
			break
		}
	}
	observability.ObserveStore(backend, op, err, time.Since(start))
	return mapErr(ctx, op, err)
}

func mapErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(s rowScanner) (domain.Hotel, error) {
	var (
		id        uuid.UUID
		name      string
		price     float64
		lat, lng  float64
		createdAt time.Time
		updatedAt sql.NullTime
	)
	if err := s.Scan(&id, &name, &price, &lat, &lng, &createdAt, &updatedAt); err != nil {
		return domain.Hotel{}, err
	}
	loc, err := domain.NewGeoLocation(lat, lng)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("hotel %s: %w", id, err)
	}
	var upd *time.Time
	if updatedAt.Valid {
		upd = &updatedAt.Time
	}
	return domain.RestoreHotel(id, name, price, loc, createdAt, upd)
}

var _ domain.HotelRepository = (*Repo)(nil)
