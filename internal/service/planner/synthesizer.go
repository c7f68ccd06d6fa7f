package planner

import (
	"github.com/Domenick1991/tripplanner/internal/domain"
)

const (
	defaultStayRating   = 4.0
	defaultStayPrice    = 30
	defaultTransferCost = 25
)

// Synthesize builds a plan from the fetched options without any model. Days
// are split into contiguous city blocks of floor(totalDays/cities) days and
// the last city absorbs the remainder. The cheapest option wins every pick,
// ties going to the earlier entry, so equal inputs give equal plans.
//
// Accommodation is charged once per day spent in a city, not once per stay.
func Synthesize(tc domain.TripContext, data domain.SourceData) *domain.Plan {
	totalDays := tc.TotalDays()
	cities := tc.RequestedCities
	perCity := domain.DaysPerCity(totalDays, len(cities))
	lastCity := len(cities) - 1

	plan := &domain.Plan{
		Source:         domain.PlanSourceFallback,
		DailyItinerary: make([]domain.DailyItineraryEntry, 0, totalDays),
	}
	var breakdown domain.CostBreakdown

	cityIdx, dayInCity := 0, 0
	for day := 1; day <= totalDays && lastCity >= 0; day++ {
		city := cities[cityIdx]
		entry := domain.DailyItineraryEntry{
			Day:           day,
			Date:          tc.StartDate.AddDays(day - 1).String(),
			City:          city,
			Accommodation: pickStay(tc, data, city),
			Activities:    ActivitiesFor(city),
		}

		if dayInCity == perCity-1 && cityIdx < lastCity {
			leg := pickTransfer(data, city, cities[cityIdx+1])
			entry.Transportation = &leg
		}

		entry.TotalCost = entry.Accommodation.PricePerNight + entry.ActivitiesCost() + entry.TransportCost()

		breakdown.Accommodation += entry.Accommodation.PricePerNight
		breakdown.Activities += entry.ActivitiesCost()
		breakdown.Transportation += entry.TransportCost()
		plan.DailyItinerary = append(plan.DailyItinerary, entry)

		dayInCity++
		if dayInCity >= perCity && cityIdx < lastCity {
			cityIdx++
			dayInCity = 0
		}
	}

	breakdown.Flights = data.Flights.Cost()
	plan.Breakdown = breakdown
	plan.Reconcile(tc.Budget)
	return plan
}

func pickStay(tc domain.TripContext, data domain.SourceData, city string) domain.Accommodation {
	if stay, ok := domain.Cheapest(data.AccommodationsFor(city)); ok {
		return stay
	}
	return domain.Accommodation{
		Name:          city + " Accommodation",
		Type:          tc.AccommodationPreference.StayType(),
		Rating:        defaultStayRating,
		PricePerNight: defaultStayPrice,
		Source:        domain.SourceSynthetic,
	}
}

func pickTransfer(data domain.SourceData, from, to string) domain.TransportOption {
	if leg, ok := domain.Cheapest(data.TransportBetween(from, to)); ok {
		return leg
	}
	return domain.TransportOption{
		Type:      "bus",
		From:      from,
		To:        to,
		Departure: "08:00",
		Arrival:   "14:00",
		Duration:  "6h",
		Price:     defaultTransferCost,
		Source:    domain.SourceSynthetic,
	}
}
