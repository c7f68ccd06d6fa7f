package domain

import (
	"regexp"
	"slices"
	"strconv"
)

// ByPrice returns a copy of opts ordered by unit price. Equal prices keep their
// insertion order, which is the tie-break rule used across the planner.
func ByPrice[T PricedOption](opts []T) []T {
	sorted := slices.Clone(opts)
	slices.SortStableFunc(sorted, func(a, b T) int {
		switch pa, pb := a.UnitPrice(), b.UnitPrice(); {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	return sorted
}

// Cheapest returns the lowest priced option, earliest first on ties.
func Cheapest[T PricedOption](opts []T) (T, bool) {
	var zero T
	if len(opts) == 0 {
		return zero, false
	}
	return ByPrice(opts)[0], true
}

// ValueScore favours high ratings and low nightly prices.
func (a Accommodation) ValueScore() float64 {
	return (a.Rating/5)*100 - a.PricePerNight/10
}

func BestValue(opts []Accommodation) (Accommodation, bool) {
	if len(opts) == 0 {
		return Accommodation{}, false
	}
	sorted := ByPrice(opts)
	slices.SortStableFunc(sorted, func(a, b Accommodation) int {
		switch sa, sb := a.ValueScore(), b.ValueScore(); {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return 0
	})
	return sorted[0], true
}

func Fastest(opts []TransportOption) (TransportOption, bool) {
	if len(opts) == 0 {
		return TransportOption{}, false
	}
	sorted := ByPrice(opts)
	slices.SortStableFunc(sorted, func(a, b TransportOption) int {
		return DurationMinutes(a.Duration) - DurationMinutes(b.Duration)
	})
	return sorted[0], true
}

var (
	hoursPattern   = regexp.MustCompile(`(\d+)h`)
	minutesPattern = regexp.MustCompile(`(\d+)m`)
)

// DurationMinutes parses strings like "12h 30m", "1h" or "45m".
func DurationMinutes(d string) int {
	total := 0
	if m := hoursPattern.FindStringSubmatch(d); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m := minutesPattern.FindStringSubmatch(d); m != nil {
		mins, _ := strconv.Atoi(m[1])
		total += mins
	}
	return total
}
