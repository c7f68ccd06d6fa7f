package domain

import "strings"

// OptionSource records where a priced option came from.
type OptionSource string

const (
	SourceAPI       OptionSource = "api"
	SourceCurated   OptionSource = "curated"
	SourceSynthetic OptionSource = "synthetic"
)

// PricedOption is a single priced service unit: a flight leg, a night of
// lodging or an inter-city transfer. Options are never mutated once built.
type PricedOption interface {
	UnitPrice() float64
}

type FlightEndpoint struct {
	Airport string `json:"airport"`
	City    string `json:"city,omitempty"`
	Time    string `json:"time"`
	Date    string `json:"date"`
}

type FlightOption struct {
	Airline      string         `json:"airline"`
	FlightNumber string         `json:"flightNumber"`
	Departure    FlightEndpoint `json:"departure"`
	Arrival      FlightEndpoint `json:"arrival"`
	Duration     string         `json:"duration"`
	Price        float64        `json:"price"`
	Stops        int            `json:"stops"`
	Source       OptionSource   `json:"source,omitempty"`
}

func (f FlightOption) UnitPrice() float64 { return f.Price }

// FlightPair holds the international round trip. Either leg may be missing.
type FlightPair struct {
	Outbound *FlightOption `json:"outbound"`
	Return   *FlightOption `json:"return"`
}

// Cost sums both legs; a missing leg contributes nothing.
func (p FlightPair) Cost() float64 {
	var total float64
	if p.Outbound != nil {
		total += p.Outbound.Price
	}
	if p.Return != nil {
		total += p.Return.Price
	}
	return total
}

type Accommodation struct {
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	Rating        float64      `json:"rating"`
	PricePerNight float64      `json:"pricePerNight"`
	TotalPrice    float64      `json:"totalPrice,omitempty"`
	Address       string       `json:"address,omitempty"`
	Amenities     []string     `json:"amenities,omitempty"`
	Distance      string       `json:"distance,omitempty"`
	Source        OptionSource `json:"source,omitempty"`
}

func (a Accommodation) UnitPrice() float64 { return a.PricePerNight }

type TransportOption struct {
	Type      string       `json:"type"`
	Operator  string       `json:"operator,omitempty"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
	Departure string       `json:"departure"`
	Arrival   string       `json:"arrival"`
	Duration  string       `json:"duration,omitempty"`
	Price     float64      `json:"price"`
	Distance  string       `json:"distance,omitempty"`
	Source    OptionSource `json:"source,omitempty"`
}

func (t TransportOption) UnitPrice() float64 { return t.Price }

// SourceData bundles everything fetched for one request. It is built once by
// the orchestrator and only read afterwards.
type SourceData struct {
	Flights        FlightPair                   `json:"flights"`
	Accommodations map[string][]Accommodation   `json:"accommodations"`
	Transport      map[string][]TransportOption `json:"transport"`
}

func (d SourceData) AccommodationsFor(city string) []Accommodation {
	return d.Accommodations[city]
}

func (d SourceData) TransportBetween(from, to string) []TransportOption {
	return d.Transport[RouteKey(from, to)]
}

// RouteKey is the ordered, case-normalized "<from>-<to>" key of a city pair.
func RouteKey(from, to string) string {
	return normalizeCity(from) + "-" + normalizeCity(to)
}

func normalizeCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), "-")
}
