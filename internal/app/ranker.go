package app

import (
	"math"
	"slices"

	"hotel_search/internal/domain"
)

type scored struct {
	hotel    domain.Hotel
	distance float64
	score    float64
}

// Rank orders hotels by normalized distance plus normalized price (lower is
// better) and returns the requested page. Normalization is against the
// maximum distance and price of the whole input, so scores are relative to
// the current catalog. Input order breaks ties.
func Rank(user domain.GeoLocation, hotels []domain.Hotel, pageNumber, pageSize int) domain.PagedResult[domain.SearchResultItem] {
	out := domain.PagedResult[domain.SearchResultItem]{
		Items:      []domain.SearchResultItem{},
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: len(hotels),
	}
	if len(hotels) == 0 {
		return out
	}

	rows := make([]scored, len(hotels))
	var maxDistance, maxPrice float64
	for i, h := range hotels {
		d := h.Location().DistanceTo(user)
		rows[i] = scored{hotel: h, distance: d}
		maxDistance = math.Max(maxDistance, d)
		maxPrice = math.Max(maxPrice, h.Price())
	}

	for i := range rows {
		var nd, np float64
		if maxDistance > 0 {
			nd = rows[i].distance / maxDistance
		}
		if maxPrice > 0 {
			np = rows[i].hotel.Price() / maxPrice
		}
		rows[i].score = nd + np
	}

	slices.SortStableFunc(rows, func(a, b scored) int {
		switch {
		case a.score < b.score:
			return -1
		case a.score > b.score:
			return 1
		}
		return 0
	})

	out.TotalPages = totalPages(len(rows), pageSize)
	start, end := pageBounds(len(rows), pageNumber, pageSize)
	for _, r := range rows[start:end] {
		loc := r.hotel.Location()
		out.Items = append(out.Items, domain.SearchResultItem{
			ID:         r.hotel.ID(),
			Name:       r.hotel.Name(),
			Price:      r.hotel.Price(),
			Latitude:   loc.Latitude(),
			Longitude:  loc.Longitude(),
			DistanceKm: roundTo2(r.distance),
		})
	}
	return out
}

func totalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// pageBounds clamps the page window to [0, total]; pages past the end are empty.
func pageBounds(total, page, size int) (int, int) {
	if page < 1 || size < 1 {
		return 0, 0
	}
	if page-1 >= totalPages(total, size) {
		return total, total
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

// roundTo2 rounds half away from zero.
func roundTo2(v float64) float64 { return math.Round(v*100) / 100 }
