package optimizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Domenick1991/tripplanner/internal/domain"
)

const outputSchema = `{
  "dailyItinerary": [
    {
      "day": 1,
      "date": "YYYY-MM-DD",
      "city": "City Name",
      "accommodation": {"name": "Hotel/Hostel Name", "type": "hostel|hotel|apartment", "rating": 4.2, "pricePerNight": 25},
      "activities": [
        {"time": "09:00", "title": "Activity Name", "description": "Brief description", "estimatedCost": 10, "duration": "2h"}
      ],
      "transportation": {"type": "bus|train|flight|ferry", "departure": "HH:MM", "arrival": "HH:MM", "price": 20},
      "totalCost": 100
    }
  ],
  "breakdown": {"flights": 500, "accommodation": 300, "transportation": 100, "activities": 200},
  "totalEstimatedCost": 1100
}`

// BuildPrompt renders the trip context and every fetched option into the
// instruction sent to the model.
func BuildPrompt(tc domain.TripContext, data domain.SourceData) string {
	days := tc.TotalDays()

	var b strings.Builder
	b.WriteString("You are a travel planning assistant. Create an optimized day-by-day travel itinerary.\n\n")

	b.WriteString("Trip context:\n")
	fmt.Fprintf(&b, "- Origin: %s\n", tc.Origin)
	fmt.Fprintf(&b, "- Destination: %s\n", tc.Destination)
	fmt.Fprintf(&b, "- Dates: %s to %s (%d days)\n", tc.StartDate, tc.EndDate, days)
	fmt.Fprintf(&b, "- Budget: $%.2f\n", tc.Budget)
	fmt.Fprintf(&b, "- Cities to visit, in order: %s\n", strings.Join(tc.RequestedCities, ", "))
	fmt.Fprintf(&b, "- Accommodation preference: %s\n", tc.AccommodationPreference)
	fmt.Fprintf(&b, "- Travel style: %s\n\n", tc.TravelStyle)

	b.WriteString("Available flights:\n")
	fmt.Fprintf(&b, "Outbound: %s\n", toJSON(data.Flights.Outbound))
	fmt.Fprintf(&b, "Return: %s\n\n", toJSON(data.Flights.Return))

	fmt.Fprintf(&b, "Available accommodations by city:\n%s\n\n", toJSON(data.Accommodations))
	fmt.Fprintf(&b, "Available inter-city transportation (key is \"from-to\"):\n%s\n\n", toJSON(data.Transport))

	b.WriteString("Task:\n")
	fmt.Fprintf(&b, "1. Stay within or close to the budget ($%.2f).\n", tc.Budget)
	b.WriteString("2. Include every requested city as one contiguous block, in the order given.\n")
	fmt.Fprintf(&b, "3. Optimize for %s travel (fast = more flights, slow = more ground transport, adventure = diverse experiences).\n", tc.TravelStyle)
	b.WriteString("4. Suggest 2-3 activities per day appropriate for each city.\n")
	b.WriteString("5. Add transportation only on the last day in a city when another city follows.\n")
	fmt.Fprintf(&b, "6. Return exactly %d itinerary entries with day numbers 1 to %d.\n", days, days)
	b.WriteString("7. The breakdown must cover flights, accommodation, transportation and activities, and totalEstimatedCost must equal their sum.\n\n")

	fmt.Fprintf(&b, "Output format (JSON only):\n%s\n\n", outputSchema)
	b.WriteString("Respond with only valid JSON, no markdown formatting or additional text.")
	return b.String()
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}
