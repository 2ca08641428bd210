package domain

import (
	"context"

	"github.com/google/uuid"
)

// HotelRepository is implemented by the in-memory and MySQL backends. Both
// behave the same from the caller's side; only durability differs.
type HotelRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Hotel, bool, error)
	GetAll(ctx context.Context) ([]Hotel, error)
	Add(ctx context.Context, h Hotel) (Hotel, error)
	Update(ctx context.Context, h Hotel) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// ExistsByNameAndLocation matches names case-insensitively and coordinates
	// within CoordinateTolerance. A valid excludeID never matches.
	ExistsByNameAndLocation(ctx context.Context, name string, lat, lng float64, excludeID uuid.NullUUID) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// FeedClient pages through a remote hotel catalog.
type FeedClient interface {
	FetchPage(ctx context.Context, page int) (FeedPage, error)
}

type FeedHotel struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type FeedPage struct {
	Items    []FeedHotel `json:"items"`
	NextPage *int        `json:"nextPage"`
}
