package app

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel_search/internal/domain"
)

/********** transport payloads **********/

// HotelRequest is the create/update payload. Pointers keep "absent" apart
// from zero, which is a valid price and coordinate.
type HotelRequest struct {
	Name      string   `json:"name" validate:"required"`
	Price     *float64 `json:"price" validate:"required,gte=0"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type HotelResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

/********** request -> domain **********/

// fields returns the validated price and location of a request. A missing
// coordinate means the location is absent.
func (r HotelRequest) fields() (float64, *domain.GeoLocation, error) {
	if r.Price == nil {
		return 0, nil, &domain.NullArgumentError{Arg: "price"}
	}
	if r.Latitude == nil || r.Longitude == nil {
		return 0, nil, &domain.NullArgumentError{Arg: "location"}
	}
	loc, err := domain.NewGeoLocation(*r.Latitude, *r.Longitude)
	if err != nil {
		return 0, nil, err
	}
	return *r.Price, &loc, nil
}

func requestFromFeed(f domain.FeedHotel) HotelRequest {
	return HotelRequest{
		Name:      strings.TrimSpace(f.Name),
		Price:     f.Price,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	}
}

/********** domain -> transport **********/

func ToHotelResponse(h domain.Hotel) HotelResponse {
	loc := h.Location()
	return HotelResponse{
		ID:        h.ID(),
		Name:      h.Name(),
		Price:     h.Price(),
		Latitude:  loc.Latitude(),
		Longitude: loc.Longitude(),
		CreatedAt: h.CreatedAt(),
		UpdatedAt: h.UpdatedAt(),
	}
}

// toDomain rebuilds a hotel from a cached response.
func (r HotelResponse) toDomain() (domain.Hotel, error) {
	loc, err := domain.NewGeoLocation(r.Latitude, r.Longitude)
	if err != nil {
		return domain.Hotel{}, err
	}
	return domain.RestoreHotel(r.ID, r.Name, r.Price, loc, r.CreatedAt, r.UpdatedAt)
}
