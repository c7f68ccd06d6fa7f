package planner

import (
	"slices"
	"strings"

	"github.com/Domenick1991/tripplanner/internal/domain"
)

const maxActivitiesPerDay = 3

var activityCatalog = map[string][]domain.Activity{
	"bangkok": {
		{Time: "09:00", Title: "Grand Palace Visit", Description: "Explore the iconic Grand Palace and Wat Phra Kaew", EstimatedCost: 15, Duration: "3h"},
		{Time: "14:00", Title: "Floating Market Tour", Description: "Experience traditional Thai floating markets", EstimatedCost: 20, Duration: "2h"},
		{Time: "19:00", Title: "Street Food Tour", Description: "Sample delicious Thai street food", EstimatedCost: 10, Duration: "2h"},
	},
	"phuket": {
		{Time: "10:00", Title: "Beach Relaxation", Description: "Enjoy Patong or Kata Beach", EstimatedCost: 0, Duration: "3h"},
		{Time: "14:00", Title: "Island Hopping", Description: "Visit Phi Phi Islands", EstimatedCost: 35, Duration: "4h"},
		{Time: "19:00", Title: "Old Town Walk", Description: "Explore Phuket Old Town", EstimatedCost: 5, Duration: "2h"},
	},
	"chiang mai": {
		{Time: "08:00", Title: "Temple Tour", Description: "Visit Doi Suthep and other temples", EstimatedCost: 10, Duration: "3h"},
		{Time: "13:00", Title: "Elephant Sanctuary", Description: "Ethical elephant experience", EstimatedCost: 50, Duration: "4h"},
		{Time: "18:00", Title: "Night Bazaar", Description: "Shop at the famous night market", EstimatedCost: 15, Duration: "2h"},
	},
}

// ActivitiesFor returns the day's activities for city. The result depends on
// the city alone and is a fresh slice the caller may keep.
func ActivitiesFor(city string) []domain.Activity {
	key := strings.Join(strings.Fields(strings.ToLower(city)), " ")
	if list, ok := activityCatalog[key]; ok {
		return slices.Clone(list[:min(maxActivitiesPerDay, len(list))])
	}

	return []domain.Activity{
		{Time: "10:00", Title: "City Exploration", Description: "Explore " + city, EstimatedCost: 10, Duration: "3h"},
		{Time: "15:00", Title: "Local Market Visit", Description: "Visit local markets", EstimatedCost: 5, Duration: "2h"},
	}
}
