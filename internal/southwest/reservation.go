package southwest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	viewReservationPath = "mobile-air-booking/v1/mobile-air-booking/page/view-reservation/"
	checkinPath         = "mobile-air-operations/v1/mobile-air-operations/page/check-in/"
	operationsPrefix    = "mobile-air-operations"
)

// Handle identifies a reservation for every call tied to it. It is a value
// type and is never mutated after a run starts.
type Handle struct {
	Number    string
	FirstName string
	LastName  string
	Verbose   bool
}

func (h Handle) String() string {
	return fmt.Sprintf("%s %s (%s)", h.FirstName, h.LastName, h.Number)
}

func (h Handle) Validate() error {
	if strings.TrimSpace(h.Number) == "" {
		return fmt.Errorf("confirmation number required")
	}
	if strings.TrimSpace(h.FirstName) == "" || strings.TrimSpace(h.LastName) == "" {
		return fmt.Errorf("first and last name required")
	}
	return nil
}

type Airport struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Bound is one leg of the itinerary as the reservation page reports it.
// Date and time are local to the departure airport.
type Bound struct {
	DepartureAirport Airport `json:"departureAirport"`
	DepartureDate    string  `json:"departureDate"`
	DepartureTime    string  `json:"departureTime"`
}

func (b Bound) Validate() error {
	if b.DepartureAirport.Code == "" {
		return malformed("bound has no departure airport code")
	}
	if b.DepartureDate == "" || b.DepartureTime == "" {
		return malformed("bound from %s has no departure date/time", b.DepartureAirport.Code)
	}
	return nil
}

type ReservationPage struct {
	Bounds []Bound `json:"bounds"`
}

// CheckinAction is the descriptor the eligibility page links to.
type CheckinAction struct {
	Href string          `json:"href"`
	Body json.RawMessage `json:"body"`
}

type EligibilityPage struct {
	Links struct {
		CheckIn *CheckinAction `json:"checkIn"`
	} `json:"_links"`
}

type Passenger struct {
	Name             string `json:"name"`
	BoardingGroup    string `json:"boardingGroup"`
	BoardingPosition string `json:"boardingPosition"`
}

type ConfirmationPage struct {
	Flights []struct {
		Passengers []Passenger `json:"passengers"`
	} `json:"flights"`
}

func (c *Client) pageURL(path string, h Handle) string {
	q := url.Values{}
	q.Set("first-name", h.FirstName)
	q.Set("last-name", h.LastName)
	return c.base + path + url.PathEscape(h.Number) + "?" + q.Encode()
}

// LookupReservation fetches the itinerary for h.
func (c *Client) LookupReservation(ctx context.Context, h Handle) (*ReservationPage, error) {
	raw, err := c.requestPage(ctx, http.MethodGet, c.pageURL(viewReservationPath, h), nil, h.Verbose)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, malformed("reservation %s: no page in response", h.Number)
	}
	var p ReservationPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("reservation %s: %v", h.Number, err)
	}
	if p.Bounds == nil {
		return nil, malformed("reservation %s: page has no bounds", h.Number)
	}
	return &p, nil
}

// CheckinEligibility fetches the check-in page and returns its action descriptor.
func (c *Client) CheckinEligibility(ctx context.Context, h Handle) (*CheckinAction, error) {
	raw, err := c.requestPage(ctx, http.MethodGet, c.pageURL(checkinPath, h), nil, h.Verbose)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, malformed("check-in %s: no page in response", h.Number)
	}
	var p EligibilityPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("check-in %s: %v", h.Number, err)
	}
	a := p.Links.CheckIn
	if a == nil || a.Href == "" {
		return nil, malformed("check-in %s: page has no checkIn link", h.Number)
	}
	if len(a.Body) == 0 || string(a.Body) == "null" {
		return nil, malformed("check-in %s: checkIn link has no body", h.Number)
	}
	return a, nil
}

// SubmitCheckin posts the descriptor. An absent or unreadable confirmation is
// an error: a check-in is never assumed to have worked.
func (c *Client) SubmitCheckin(ctx context.Context, h Handle, a CheckinAction) ([]Passenger, error) {
	target := c.base + operationsPrefix + a.Href
	raw, err := c.requestPage(ctx, http.MethodPost, target, a.Body, h.Verbose)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, malformed("submit %s: no confirmation page", h.Number)
	}
	var p ConfirmationPage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("submit %s: %v", h.Number, err)
	}
	if p.Flights == nil {
		return nil, malformed("submit %s: confirmation has no flights", h.Number)
	}
	var out []Passenger
	for _, f := range p.Flights {
		out = append(out, f.Passengers...)
	}
	return out, nil
}
