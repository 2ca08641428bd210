package domain

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
	MaxPageSize       = 100
)

// SearchQuery asks for hotels ranked against a user location. Zero page
// values mean "use the default".
type SearchQuery struct {
	Latitude   float64
	Longitude  float64
	PageNumber int
	PageSize   int
}

// Normalize applies defaults and validates the query.
func (q SearchQuery) Normalize() (SearchQuery, GeoLocation, error) {
	if q.PageNumber == 0 {
		q.PageNumber = DefaultPageNumber
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageNumber < 1 {
		return q, GeoLocation{}, &ValidationError{Field: "pageNumber", Reason: fmt.Sprintf("%d is less than 1", q.PageNumber)}
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return q, GeoLocation{}, &ValidationError{Field: "pageSize", Reason: fmt.Sprintf("%d is outside [1, %d]", q.PageSize, MaxPageSize)}
	}
	loc, err := NewGeoLocation(q.Latitude, q.Longitude)
	if err != nil {
		return q, GeoLocation{}, err
	}
	return q, loc, nil
}

type SearchResultItem struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	DistanceKm float64   `json:"distanceKm"`
}

type PagedResult[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}
