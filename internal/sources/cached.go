package sources

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/tripplanner/internal/cache"
	"github.com/Domenick1991/tripplanner/internal/domain"
)

// Cache is the slice of the redis cache the decorators need.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

type FlightSearcher interface {
	SearchRoundTrip(ctx context.Context, origin, destination string, depart, ret domain.Date) domain.FlightPair
}

type StaySearcher interface {
	Search(ctx context.Context, city string, checkIn, checkOut domain.Date, pref domain.AccommodationPreference, maxPricePerNight int) []domain.Accommodation
}

// CachedFlightSource memoizes provider answers. Synthetic fallbacks are
// never stored so a recovered provider is used on the next lookup.
type CachedFlightSource struct {
	next   FlightSearcher
	cache  Cache
	logger *slog.Logger
}

func NewCachedFlightSource(next FlightSearcher, c Cache, logger *slog.Logger) *CachedFlightSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFlightSource{next: next, cache: c, logger: logger}
}

func (s *CachedFlightSource) SearchRoundTrip(ctx context.Context, origin, destination string, depart, ret domain.Date) domain.FlightPair {
	key := cache.FlightsKey(origin, destination, depart.String(), ret.String())

	var cached domain.FlightPair
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn("flight cache read failed", "key", key, "err", err)
	} else if ok {
		return cached
	}

	pair := s.next.SearchRoundTrip(ctx, origin, destination, depart, ret)
	if cacheablePair(pair) {
		if err := s.cache.SetJSON(ctx, key, pair); err != nil {
			s.logger.Warn("flight cache write failed", "key", key, "err", err)
		}
	}
	return pair
}

func cacheablePair(p domain.FlightPair) bool {
	return p.Outbound != nil && p.Return != nil &&
		p.Outbound.Source != domain.SourceSynthetic && p.Return.Source != domain.SourceSynthetic
}

type CachedStaySource struct {
	next   StaySearcher
	cache  Cache
	logger *slog.Logger
}

func NewCachedStaySource(next StaySearcher, c Cache, logger *slog.Logger) *CachedStaySource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStaySource{next: next, cache: c, logger: logger}
}

func (s *CachedStaySource) Search(ctx context.Context, city string, checkIn, checkOut domain.Date, pref domain.AccommodationPreference, maxPricePerNight int) []domain.Accommodation {
	key := cache.StaysKey(city, checkIn.String(), checkOut.String(), string(pref), maxPricePerNight)

	var cached []domain.Accommodation
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn("stay cache read failed", "key", key, "err", err)
	} else if ok {
		return cached
	}

	stays := s.next.Search(ctx, city, checkIn, checkOut, pref, maxPricePerNight)
	if cacheableStays(stays) {
		if err := s.cache.SetJSON(ctx, key, stays); err != nil {
			s.logger.Warn("stay cache write failed", "key", key, "err", err)
		}
	}
	return stays
}

func cacheableStays(stays []domain.Accommodation) bool {
	if len(stays) == 0 {
		return false
	}
	for _, a := range stays {
		if a.Source == domain.SourceSynthetic {
			return false
		}
	}
	return true
}
