package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"github.com/Domenick1991/tripplanner/internal/domain"
)

const maxBookingResults = 10

type BookingAccommodationSource struct {
	client *RapidAPIClient
	host   string
	rand   *jitter
	logger *slog.Logger
}

type AccommodationSourceOption func(*BookingAccommodationSource)

func WithStayRand(r *rand.Rand) AccommodationSourceOption {
	return func(s *BookingAccommodationSource) { s.rand = newJitter(r) }
}

func WithStayLogger(l *slog.Logger) AccommodationSourceOption {
	return func(s *BookingAccommodationSource) { s.logger = l }
}

func NewBookingAccommodationSource(client *RapidAPIClient, host string, opts ...AccommodationSourceOption) *BookingAccommodationSource {
	s := &BookingAccommodationSource{
		client: client,
		host:   host,
		rand:   newJitter(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search lists stays in city for the given window. maxPricePerNight <= 0
// disables the price filter. The result may be empty once filters apply.
func (s *BookingAccommodationSource) Search(ctx context.Context, city string, checkIn, checkOut domain.Date, pref domain.AccommodationPreference, maxPricePerNight int) []domain.Accommodation {
	nights := max(checkIn.DaysUntil(checkOut), 1)

	if !s.client.Configured() {
		s.logger.Warn("rapidapi key not configured, using mock accommodations", "city", city)
		return s.mock(city, nights, pref)
	}

	params := url.Values{}
	params.Set("dest_type", "city")
	params.Set("dest_id", city)
	params.Set("search_type", "CITY")
	params.Set("arrival_date", checkIn.String())
	params.Set("departure_date", checkOut.String())
	params.Set("adults", "1")
	params.Set("room_qty", "1")
	params.Set("units", "metric")
	params.Set("languagecode", "en-us")
	params.Set("currency_code", "USD")

	var resp bookingResponse
	if err := s.client.Get(ctx, s.host, "/v1/hotels/search", params, &resp); err != nil {
		s.logger.Error("booking search failed, using mock accommodations", "city", city, "err", err)
		return s.mock(city, nights, pref)
	}
	if len(resp.Result) == 0 {
		s.logger.Warn("no stays in booking response, using mock accommodations", "city", city)
		return s.mock(city, nights, pref)
	}

	return parseBookingResults(resp.Result, nights, pref, maxPricePerNight)
}

type bookingResponse struct {
	Result []bookingHotel `json:"result"`
}

type bookingHotel struct {
	HotelName         string     `json:"hotel_name"`
	AccommodationType string     `json:"accommodation_type_name"`
	MinTotalPrice     flexNumber `json:"min_total_price"`
	ReviewScore       flexNumber `json:"review_score"`
	Address           string     `json:"address"`
	Amenities         []string   `json:"amenities"`
	Distance          flexNumber `json:"distance"`
}

func parseBookingResults(results []bookingHotel, nights int, pref domain.AccommodationPreference, maxPricePerNight int) []domain.Accommodation {
	if len(results) > maxBookingResults {
		results = results[:maxBookingResults]
	}

	out := make([]domain.Accommodation, 0, len(results))
	for _, h := range results {
		perNight := 50.0
		if total, ok := h.MinTotalPrice.Float(); ok && total > 0 {
			perNight = math.Round(total / float64(nights))
		}
		rating := 3.5
		if score, ok := h.ReviewScore.Float(); ok {
			rating = score / 2
		}
		acc := domain.Accommodation{
			Name:          orDefault(h.HotelName, "Unknown Hotel"),
			Type:          DetermineStayType(h.AccommodationType, pref),
			Rating:        rating,
			PricePerNight: perNight,
			TotalPrice:    perNight * float64(nights),
			Address:       h.Address,
			Amenities:     h.Amenities,
			Source:        domain.SourceAPI,
		}
		if d, ok := h.Distance.Float(); ok {
			acc.Distance = strconv.FormatFloat(d, 'f', -1, 64) + " km from center"
		}

		if pref != domain.AccommodationAny && pref != "" && acc.Type != string(pref) {
			continue
		}
		if maxPricePerNight > 0 && acc.PricePerNight > float64(maxPricePerNight) {
			continue
		}
		out = append(out, acc)
	}
	return out
}

// DetermineStayType maps a provider type name to hostel, apartment or hotel.
// An explicit hostel or apartment preference wins over the provider label.
func DetermineStayType(providerType string, pref domain.AccommodationPreference) string {
	lower := strings.ToLower(providerType)
	switch {
	case pref == domain.AccommodationHostel || strings.Contains(lower, "hostel") || strings.Contains(lower, "dorm"):
		return string(domain.AccommodationHostel)
	case pref == domain.AccommodationApartment || strings.Contains(lower, "apartment") || strings.Contains(lower, "condo"):
		return string(domain.AccommodationApartment)
	default:
		return string(domain.AccommodationHotel)
	}
}

func (s *BookingAccommodationSource) mock(city string, nights int, pref domain.AccommodationPreference) []domain.Accommodation {
	base := 40
	switch pref {
	case domain.AccommodationHostel:
		base = 15
	case domain.AccommodationHotel:
		base = 50
	}
	price := base + s.rand.IntN(20)
	stayType := pref.StayType()

	labels := map[string][2]string{
		"hostel":    {"Backpackers", "Hostel"},
		"apartment": {"Apartments", "Studio"},
		"hotel":     {"Hotel", "Inn"},
	}[stayType]

	stay := func(name string, rating float64, perNight int, address, distance string, amenities ...string) domain.Accommodation {
		return domain.Accommodation{
			Name:          name,
			Type:          stayType,
			Rating:        rating,
			PricePerNight: float64(perNight),
			TotalPrice:    float64(perNight * nights),
			Address:       address,
			Amenities:     amenities,
			Distance:      distance,
			Source:        domain.SourceSynthetic,
		}
	}

	return []domain.Accommodation{
		stay(fmt.Sprintf("%s Central %s", city, labels[0]), 4.2, price, city+" City Center", "0.5 km from center", "WiFi", "Air Conditioning", "Breakfast"),
		stay(fmt.Sprintf("Cozy %s %s", labels[1], city), 3.8, price-5, city, "1.2 km from center", "WiFi", "Shared Kitchen"),
		stay(city+" Budget Stay", 3.5, price-10, city, "2.0 km from center", "WiFi"),
	}
}

// flexNumber accepts a JSON number or a numeric string.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n.value, n.set = v, true
	return nil
}

func (n flexNumber) Float() (float64, bool) {
	return n.value, n.set
}
