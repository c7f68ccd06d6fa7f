package domain

import (
	"time"

	"github.com/google/uuid"
)

type PlanSource string

const (
	PlanSourceOptimizer PlanSource = "optimizer"
	PlanSourceFallback  PlanSource = "fallback"
)

type CostBreakdown struct {
	Flights        float64 `json:"flights"`
	Accommodation  float64 `json:"accommodation"`
	Transportation float64 `json:"transportation"`
	Activities     float64 `json:"activities"`
}

func (b CostBreakdown) Total() float64 {
	return b.Flights + b.Accommodation + b.Transportation + b.Activities
}

func (b CostBreakdown) NonNegative() bool {
	return b.Flights >= 0 && b.Accommodation >= 0 && b.Transportation >= 0 && b.Activities >= 0
}

type Activity struct {
	Time          string  `json:"time"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
	Duration      string  `json:"duration,omitempty"`
}

type DailyItineraryEntry struct {
	Day            int              `json:"day"`
	Date           string           `json:"date"`
	City           string           `json:"city"`
	Accommodation  Accommodation    `json:"accommodation"`
	Activities     []Activity       `json:"activities"`
	Transportation *TransportOption `json:"transportation,omitempty"`
	TotalCost      float64          `json:"totalCost"`
}

func (e DailyItineraryEntry) ActivitiesCost() float64 {
	var total float64
	for _, a := range e.Activities {
		total += a.EstimatedCost
	}
	return total
}

func (e DailyItineraryEntry) TransportCost() float64 {
	if e.Transportation == nil {
		return 0
	}
	return e.Transportation.Price
}

type Plan struct {
	TripRequestID       uuid.UUID             `json:"requestId"`
	UserID              string                `json:"userId,omitempty"`
	Origin              string                `json:"origin"`
	Destination         string                `json:"destination"`
	StartDate           string                `json:"startDate"`
	EndDate             string                `json:"endDate"`
	TotalDays           int                   `json:"totalDays"`
	UserBudget          float64               `json:"userBudget"`
	TotalEstimatedCost  float64               `json:"totalEstimatedCost"`
	BudgetDifference    float64               `json:"budgetDifference"`
	Status              TripStatus            `json:"status,omitempty"`
	Source              PlanSource            `json:"source"`
	Breakdown           CostBreakdown         `json:"breakdown"`
	InternationalFlight FlightPair            `json:"internationalFlight"`
	DailyItinerary      []DailyItineraryEntry `json:"dailyItinerary"`
	CreatedAt           time.Time             `json:"createdAt,omitzero"`
}

// Reconcile makes the total equal the breakdown sum and recomputes the signed
// budget difference.
func (p *Plan) Reconcile(budget float64) {
	p.UserBudget = budget
	p.TotalEstimatedCost = p.Breakdown.Total()
	p.BudgetDifference = budget - p.TotalEstimatedCost
}
