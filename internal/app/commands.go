package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_search/internal/domain"
)

// ImportStats summarizes one import run.
type ImportStats struct {
	Pages   int
	Created int64
	Skipped int64
	Failed  int64
}

// ImportService walks a partner feed page by page and creates every hotel
// through HotelService, so feed rows get the same validation and duplicate
// checks as API writes.
type ImportService struct {
	feed   domain.FeedClient
	hotels *HotelService
}

func NewImportService(f domain.FeedClient, h *HotelService) *ImportService {
	return &ImportService{feed: f, hotels: h}
}

// Run imports until the feed reports no next page. Items within a page are
// created by up to workers goroutines. Invalid rows and duplicates are
// skipped; store failures are counted and the run continues. A feed error
// or cancellation stops the run and is returned along with the stats so far.
func (s *ImportService) Run(ctx context.Context, workers int) (ImportStats, error) {
	if workers < 1 {
		workers = 1
	}
	var (
		stats                    ImportStats
		created, skipped, failed atomic.Int64
		sem                      = semaphore.NewWeighted(int64(workers))
		wg                       sync.WaitGroup
		runErr                   error
		seen                     = runIndex{}
	)

	page := 1
	for {
		fp, err := s.feed.FetchPage(ctx, page)
		if err != nil {
			runErr = err
			break
		}
		stats.Pages++

		for _, item := range fp.Items {
			// concurrent creates can't see each other's duplicate check
			if seen.repeated(item) {
				skipped.Add(1)
				log.Debug().Str("name", item.Name).Msg("import skipped: repeated in feed")
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				runErr = err
				break
			}
			wg.Add(1)
			go func(item domain.FeedHotel) {
				defer wg.Done()
				defer sem.Release(1)

				h, err := s.hotels.Create(ctx, requestFromFeed(item))
				switch {
				case err == nil:
					created.Add(1)
					log.Debug().Str("hotel_id", h.ID().String()).Msg("import ok")
				case isSkippable(err):
					skipped.Add(1)
					log.Debug().Err(err).Str("name", item.Name).Msg("import skipped")
				default:
					failed.Add(1)
					log.Warn().Err(err).Str("name", item.Name).Msg("import failed")
				}
			}(item)
		}
		if runErr != nil || fp.NextPage == nil || len(fp.Items) == 0 {
			break
		}
		if *fp.NextPage <= page {
			log.Warn().Int("page", page).Int("next", *fp.NextPage).Msg("feed did not advance, stopping")
			break
		}
		page = *fp.NextPage
	}

	wg.Wait()
	stats.Created = created.Load()
	stats.Skipped = skipped.Load()
	stats.Failed = failed.Load()
	if runErr == nil {
		runErr = ctx.Err()
	}
	return stats, runErr
}

type runKey struct {
	name string
	cell [2]int64
}

// runIndex remembers the feed items dispatched in one run, by folded name and
// location cell.
type runIndex map[runKey]domain.GeoLocation

// repeated reports whether item matches an earlier item of the run (same
// folded name, Equal location) and records it otherwise. Equal locations can
// straddle a cell boundary, so the neighboring cells are checked too. Items
// without a valid location are left to Create to reject.
func (idx runIndex) repeated(item domain.FeedHotel) bool {
	if item.Latitude == nil || item.Longitude == nil {
		return false
	}
	loc, err := domain.NewGeoLocation(*item.Latitude, *item.Longitude)
	if err != nil {
		return false
	}
	name := strings.ToLower(strings.TrimSpace(item.Name))
	for _, cell := range loc.NeighborKeys() {
		if prev, ok := idx[runKey{name: name, cell: cell}]; ok && prev.Equal(loc) {
			return true
		}
	}
	k := runKey{name: name, cell: loc.Key()}
	if _, taken := idx[k]; !taken {
		idx[k] = loc
	}
	return false
}

func isSkippable(err error) bool {
	return errors.Is(err, domain.ErrDuplicate) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNullArgument)
}
