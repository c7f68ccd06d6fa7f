package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TripStatus string

const (
	TripStatusPending    TripStatus = "pending"
	TripStatusProcessing TripStatus = "processing"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusFailed     TripStatus = "failed"
)

func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusFailed
}

// Predecessors lists the statuses a trip request may leave to enter s.
func (s TripStatus) Predecessors() []TripStatus {
	switch s {
	case TripStatusProcessing:
		return []TripStatus{TripStatusPending}
	case TripStatusCompleted:
		return []TripStatus{TripStatusProcessing}
	case TripStatusFailed:
		return []TripStatus{TripStatusPending, TripStatusProcessing}
	default:
		return nil
	}
}

func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	return slices.Contains(next.Predecessors(), s)
}

type AccommodationPreference string

const (
	AccommodationHostel    AccommodationPreference = "hostel"
	AccommodationHotel     AccommodationPreference = "hotel"
	AccommodationApartment AccommodationPreference = "apartment"
	AccommodationAny       AccommodationPreference = "any"
)

func (p AccommodationPreference) Valid() bool {
	switch p {
	case AccommodationHostel, AccommodationHotel, AccommodationApartment, AccommodationAny:
		return true
	}
	return false
}

// StayType is the concrete lodging type used when a stay has to be synthesized.
func (p AccommodationPreference) StayType() string {
	if p == AccommodationAny || p == "" {
		return string(AccommodationHostel)
	}
	return string(p)
}

type TravelStyle string

const (
	TravelStyleFast      TravelStyle = "fast"
	TravelStyleSlow      TravelStyle = "slow"
	TravelStyleAdventure TravelStyle = "adventure"
)

func (s TravelStyle) Valid() bool {
	switch s {
	case TravelStyleFast, TravelStyleSlow, TravelStyleAdventure:
		return true
	}
	return false
}

// TransportHint maps the travel style to the preferred inter-city transport type.
func (s TravelStyle) TransportHint() string {
	if s == TravelStyleFast {
		return "flight"
	}
	return "any"
}

const (
	MaxRequestedCities = 5
	MaxTripDays        = 30
)

type TripRequest struct {
	ID                      uuid.UUID               `json:"id"`
	UserID                  string                  `json:"user_id"`
	Origin                  string                  `json:"origin"`
	Destination             string                  `json:"destination"`
	StartDate               Date                    `json:"start_date"`
	EndDate                 Date                    `json:"end_date"`
	Budget                  float64                 `json:"budget"`
	RequestedCities         []string                `json:"requested_cities"`
	AccommodationPreference AccommodationPreference `json:"accommodation_preference"`
	TravelStyle             TravelStyle             `json:"travel_style"`
	Status                  TripStatus              `json:"status"`
	CreatedAt               time.Time               `json:"created_at"`
	UpdatedAt               time.Time               `json:"updated_at"`
}

func (t TripRequest) TotalDays() int {
	return t.StartDate.DaysUntil(t.EndDate)
}

func (t TripRequest) DaysPerCity() int {
	return DaysPerCity(t.TotalDays(), len(t.RequestedCities))
}

// DaysPerCity is floor(totalDays / cityCount), never below one so that every
// city still gets a rotation slot when there are more cities than days.
func DaysPerCity(totalDays, cityCount int) int {
	if cityCount <= 0 {
		return totalDays
	}
	if n := totalDays / cityCount; n > 0 {
		return n
	}
	return 1
}

// Validate checks the submission rules. Every failure wraps ErrValidation.
func (t TripRequest) Validate() error {
	if strings.TrimSpace(t.Origin) == "" || strings.TrimSpace(t.Destination) == "" ||
		t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	if len(t.RequestedCities) == 0 {
		return fmt.Errorf("%w: at least one city must be selected", ErrValidation)
	}
	if len(t.RequestedCities) > MaxRequestedCities {
		return fmt.Errorf("%w: maximum %d cities allowed", ErrValidation, MaxRequestedCities)
	}
	for _, c := range t.RequestedCities {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: city names must not be empty", ErrValidation)
		}
	}
	if t.Budget <= 0 {
		return fmt.Errorf("%w: budget must be greater than 0", ErrValidation)
	}
	if !t.StartDate.Before(t.EndDate.Time) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	days := t.TotalDays()
	if days < 1 {
		return fmt.Errorf("%w: trip must be at least 1 day long", ErrValidation)
	}
	if days > MaxTripDays {
		return fmt.Errorf("%w: maximum trip duration is %d days", ErrValidation, MaxTripDays)
	}
	if len(t.RequestedCities) > days {
		return fmt.Errorf("%w: cannot visit %d cities in %d days", ErrValidation, len(t.RequestedCities), days)
	}
	if !t.AccommodationPreference.Valid() {
		return fmt.Errorf("%w: unknown accommodation preference %q", ErrValidation, t.AccommodationPreference)
	}
	if !t.TravelStyle.Valid() {
		return fmt.Errorf("%w: unknown travel style %q", ErrValidation, t.TravelStyle)
	}
	return nil
}

// TripContext is the read-only view of a request handed to the optimizer and
// the fallback synthesizer.
type TripContext struct {
	Origin                  string                  `json:"origin"`
	Destination             string                  `json:"destination"`
	StartDate               Date                    `json:"startDate"`
	EndDate                 Date                    `json:"endDate"`
	Budget                  float64                 `json:"budget"`
	RequestedCities         []string                `json:"requestedCities"`
	AccommodationPreference AccommodationPreference `json:"accommodationPreference"`
	TravelStyle             TravelStyle             `json:"travelStyle"`
}

func (t TripRequest) TripContext() TripContext {
	return TripContext{
		Origin:                  t.Origin,
		Destination:             t.Destination,
		StartDate:               t.StartDate,
		EndDate:                 t.EndDate,
		Budget:                  t.Budget,
		RequestedCities:         slices.Clone(t.RequestedCities),
		AccommodationPreference: t.AccommodationPreference,
		TravelStyle:             t.TravelStyle,
	}
}

func (c TripContext) TotalDays() int {
	return c.StartDate.DaysUntil(c.EndDate)
}

// CityWindow returns the check-in and check-out dates of the i-th requested
// city. The last city runs until the end of the trip.
func (c TripContext) CityWindow(i int) (Date, Date) {
	perCity := DaysPerCity(c.TotalDays(), len(c.RequestedCities))
	checkIn := c.StartDate.AddDays(i * perCity)
	checkOut := checkIn.AddDays(perCity)
	if i == len(c.RequestedCities)-1 && checkOut.Before(c.EndDate.Time) {
		checkOut = c.EndDate
	}
	return checkIn, checkOut
}

// MaxNightlyPrice is the soft per-night ceiling passed to accommodation lookups.
func (c TripContext) MaxNightlyPrice() int {
	days := c.TotalDays()
	if days <= 0 {
		return 0
	}
	return int(c.Budget / float64(days) / 2)
}
