package planner

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Domenick1991/tripplanner/internal/domain"
)

var ErrInvalidPlan = errors.New("invalid plan")

const costTolerance = 0.01

// ValidatePlan checks the structure of an optimizer plan before it is
// trusted: a non-negative breakdown whose sum matches the reported total, an
// itinerary of exactly totalDays entries numbered 1..totalDays, and days that
// walk the requested cities in order as contiguous blocks covering each one.
func ValidatePlan(p *domain.Plan, totalDays int, cities []string) error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if !p.Breakdown.NonNegative() {
		return fmt.Errorf("%w: negative breakdown entry", ErrInvalidPlan)
	}
	if sum := p.Breakdown.Total(); math.Abs(sum-p.TotalEstimatedCost) > costTolerance {
		return fmt.Errorf("%w: total %.2f does not match breakdown %.2f", ErrInvalidPlan, p.TotalEstimatedCost, sum)
	}
	if len(p.DailyItinerary) == 0 {
		return fmt.Errorf("%w: empty itinerary", ErrInvalidPlan)
	}
	if len(p.DailyItinerary) != totalDays {
		return fmt.Errorf("%w: %d itinerary days for a %d day trip", ErrInvalidPlan, len(p.DailyItinerary), totalDays)
	}
	for i, e := range p.DailyItinerary {
		if e.Day != i+1 {
			return fmt.Errorf("%w: day %d at position %d", ErrInvalidPlan, e.Day, i+1)
		}
	}
	return validateCityOrder(p.DailyItinerary, cities)
}

// validateCityOrder accepts only a walk that starts in the first city, stays
// or steps to the next one each day, and ends in the last.
func validateCityOrder(days []domain.DailyItineraryEntry, cities []string) error {
	if len(cities) == 0 {
		return nil
	}
	idx := 0
	for i, e := range days {
		switch {
		case i > 0 && idx+1 < len(cities) && sameCity(e.City, cities[idx+1]):
			idx++
		case sameCity(e.City, cities[idx]):
		default:
			return fmt.Errorf("%w: day %d is in %q, expected %s", ErrInvalidPlan, e.Day, e.City, expectedCities(cities, idx))
		}
	}
	if idx != len(cities)-1 {
		return fmt.Errorf("%w: itinerary never reaches %q", ErrInvalidPlan, cities[idx+1])
	}
	return nil
}

func expectedCities(cities []string, idx int) string {
	if idx+1 < len(cities) {
		return fmt.Sprintf("%q or %q", cities[idx], cities[idx+1])
	}
	return fmt.Sprintf("%q", cities[idx])
}

func sameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
