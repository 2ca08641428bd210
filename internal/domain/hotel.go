package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Limits shared by every backend; they match the hotels table columns
// (VARCHAR(200), DECIMAL(18,2)). Prices must stay below PriceLimit.
const (
	MaxNameLength = 200
	PriceLimit    = 1e16
)

// Hotel is the catalog entity. Fields are only changed through Update, which
// applies the same validation as NewHotel.
type Hotel struct {
	id        uuid.UUID
	name      string
	price     float64
	location  GeoLocation
	createdAt time.Time
	updatedAt time.Time // zero until the first Update
}

// Now is the clock used for timestamps. Stored values keep microsecond
// precision, matching DATETIME(6) in the durable store.
var Now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func NewHotel(name string, price float64, location *GeoLocation) (Hotel, error) {
	name, err := validateHotel(name, price, location)
	if err != nil {
		return Hotel{}, err
	}
	return Hotel{
		id:        uuid.New(),
		name:      name,
		price:     price,
		location:  *location,
		createdAt: Now(),
	}, nil
}

// RestoreHotel rebuilds a stored hotel. updatedAt may be nil.
func RestoreHotel(id uuid.UUID, name string, price float64, location GeoLocation, createdAt time.Time, updatedAt *time.Time) (Hotel, error) {
	if id == uuid.Nil {
		return Hotel{}, &NullArgumentError{Arg: "id"}
	}
	name, err := validateHotel(name, price, &location)
	if err != nil {
		return Hotel{}, err
	}
	h := Hotel{id: id, name: name, price: price, location: location, createdAt: createdAt.UTC()}
	if updatedAt != nil {
		h.updatedAt = updatedAt.UTC()
	}
	return h, nil
}

// Update replaces name, price and location and stamps UpdatedAt, even when
// the values are unchanged. Nothing is modified if validation fails.
func (h *Hotel) Update(name string, price float64, location *GeoLocation) error {
	name, err := validateHotel(name, price, location)
	if err != nil {
		return err
	}
	now := Now()
	if now.Before(h.createdAt) {
		now = h.createdAt
	}
	if now.Before(h.updatedAt) {
		now = h.updatedAt
	}
	h.name = name
	h.price = price
	h.location = *location
	h.updatedAt = now
	return nil
}

func (h Hotel) ID() uuid.UUID { return h.id }
func (h Hotel) Name() string { return h.name }
func (h Hotel) Price() float64 { return h.price }
func (h Hotel) Location() GeoLocation { return h.location }
func (h Hotel) CreatedAt() time.Time { return h.createdAt }

// UpdatedAt returns nil until the hotel has been updated once.
func (h Hotel) UpdatedAt() *time.Time {
	if h.updatedAt.IsZero() {
		return nil
	}
	t := h.updatedAt
	return &t
}

// SameNameAndLocation is the duplicate rule: case-insensitive name and
// locations equal within CoordinateTolerance.
func (h Hotel) SameNameAndLocation(name string, lat, lng float64) bool {
	return strings.EqualFold(h.name, strings.TrimSpace(name)) &&
		SameCoordinates(h.location.lat, h.location.lng, lat, lng)
}

func validateHotel(name string, price float64, location *GeoLocation) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("%d characters exceeds %d", n, MaxNameLength)}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "", &ValidationError{Field: "price", Reason: "must be a finite number"}
	}
	if price < 0 {
		return "", &ValidationError{Field: "price", Reason: fmt.Sprintf("%v is negative", price)}
	}
	if price >= PriceLimit {
		return "", &ValidationError{Field: "price", Reason: fmt.Sprintf("%v is not below %g", price, PriceLimit)}
	}
	if location == nil {
		return "", &NullArgumentError{Arg: "location"}
	}
	return name, nil
}
