package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
)

// kiwiLocations maps well known places to Kiwi location ids.
var kiwiLocations = map[string]string{
	"turkey":     "Country:TR",
	"istanbul":   "City:istanbul_tr",
	"thailand":   "Country:TH",
	"bangkok":    "City:bangkok_th",
	"phuket":     "City:phuket_th",
	"chiang mai": "City:chiang_mai_th",
	"krabi":      "City:krabi_th",
}

func KiwiLocation(place string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(place)), " ")
	if id, ok := kiwiLocations[normalized]; ok {
		return id
	}
	return "City:" + strings.ReplaceAll(normalized, " ", "_")
}

type KiwiFlightSource struct {
	client *RapidAPIClient
	host   string
	rand   *jitter
	logger *slog.Logger
}

type FlightSourceOption func(*KiwiFlightSource)

func WithFlightRand(r *rand.Rand) FlightSourceOption {
	return func(s *KiwiFlightSource) { s.rand = newJitter(r) }
}

func WithFlightLogger(l *slog.Logger) FlightSourceOption {
	return func(s *KiwiFlightSource) { s.logger = l }
}

func NewKiwiFlightSource(client *RapidAPIClient, host string, opts ...FlightSourceOption) *KiwiFlightSource {
	s := &KiwiFlightSource{
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

// SearchRoundTrip returns the best quoted round trip. Either leg may be nil
// when the provider returns a partial itinerary.
func (s *KiwiFlightSource) SearchRoundTrip(ctx context.Context, origin, destination string, depart, ret domain.Date) domain.FlightPair {
	if !s.client.Configured() {
		s.logger.Warn("rapidapi key not configured, using mock flights")
		return s.mockPair(depart, ret)
	}

	params := url.Values{}
	params.Set("source", KiwiLocation(origin))
	params.Set("destination", KiwiLocation(destination))
	params.Set("outboundDate", depart.String())
	params.Set("returnDate", ret.String())
	params.Set("currency", "USD")
	params.Set("locale", "en")
	params.Set("adults", "1")
	params.Set("children", "0")
	params.Set("infants", "0")
	params.Set("cabinClass", "ECONOMY")
	params.Set("sortBy", "QUALITY")
	params.Set("limit", "10")

	var resp kiwiResponse
	if err := s.client.Get(ctx, s.host, "/round-trip", params, &resp); err != nil {
		s.logger.Error("kiwi flight search failed, using mock flights", "origin", origin, "destination", destination, "err", err)
		return s.mockPair(depart, ret)
	}
	if len(resp.Data) == 0 {
		s.logger.Warn("no flights in kiwi response, using mock flights", "origin", origin, "destination", destination)
		return s.mockPair(depart, ret)
	}

	return resp.Data[0].pair()
}

type kiwiResponse struct {
	Data []kiwiTrip `json:"data"`
}

type kiwiTrip struct {
	Routes []kiwiRoute `json:"routes"`
}

type kiwiRoute struct {
	Flights         []kiwiSegment `json:"flights"`
	DurationMinutes int           `json:"durationMinutes"`
	Price           struct {
		Amount float64 `json:"amount"`
	} `json:"price"`
}

type kiwiSegment struct {
	Airline struct {
		Name string `json:"name"`
	} `json:"airline"`
	FlightNumber string    `json:"flightNumber"`
	Departure    kiwiPoint `json:"departure"`
	Arrival      kiwiPoint `json:"arrival"`
}

type kiwiPoint struct {
	Airport struct {
		Code string `json:"code"`
	} `json:"airport"`
	Time string `json:"time"`
}

func (t kiwiTrip) pair() domain.FlightPair {
	if len(t.Routes) < 2 {
		return domain.FlightPair{}
	}
	return domain.FlightPair{
		Outbound: t.Routes[0].option(),
		Return:   t.Routes[1].option(),
	}
}

// option collapses a multi-segment route into one leg: first departure, last
// arrival, one stop per extra segment.
func (r kiwiRoute) option() *domain.FlightOption {
	if len(r.Flights) == 0 {
		return nil
	}
	first, last := r.Flights[0], r.Flights[len(r.Flights)-1]

	return &domain.FlightOption{
		Airline:      orDefault(first.Airline.Name, "Unknown Airline"),
		FlightNumber: orDefault(first.FlightNumber, "N/A"),
		Departure:    first.Departure.endpoint(),
		Arrival:      last.Arrival.endpoint(),
		Duration:     FormatDuration(r.DurationMinutes),
		Price:        math.Round(r.Price.Amount),
		Stops:        len(r.Flights) - 1,
		Source:       domain.SourceAPI,
	}
}

func (p kiwiPoint) endpoint() domain.FlightEndpoint {
	ep := domain.FlightEndpoint{
		Airport: orDefault(p.Airport.Code, "Unknown"),
		Time:    "N/A",
		Date:    "N/A",
	}
	if ts, ok := parseTimestamp(p.Time); ok {
		ep.Time = ts.Format("15:04")
		ep.Date = ts.Format(domain.DateLayout)
	}
	return ep
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDuration renders minutes as "Xh Ym".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func (s *KiwiFlightSource) mockPair(depart, ret domain.Date) domain.FlightPair {
	base := float64(300 + s.rand.IntN(500))

	return domain.FlightPair{
		Outbound: &domain.FlightOption{
			Airline:      "Turkish Airlines",
			FlightNumber: "TK750",
			Departure:    domain.FlightEndpoint{Airport: "IST", Time: "10:30", Date: depart.String()},
			Arrival:      domain.FlightEndpoint{Airport: "BKK", Time: "02:15", Date: depart.AddDays(1).String()},
			Duration:     "10h 45m",
			Price:        base,
			Source:       domain.SourceSynthetic,
		},
		Return: &domain.FlightOption{
			Airline:      "Turkish Airlines",
			FlightNumber: "TK751",
			Departure:    domain.FlightEndpoint{Airport: "BKK", Time: "17:30", Date: ret.String()},
			Arrival:      domain.FlightEndpoint{Airport: "IST", Time: "00:15", Date: ret.AddDays(1).String()},
			Duration:     "11h 45m",
			Price:        base + 50,
			Source:       domain.SourceSynthetic,
		},
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
