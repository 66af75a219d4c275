// Package checkin holds the per-leg unit of work: the check-in window, the
// waiter that holds a leg until its window opens, and the task state machine.
package checkin

import (
	"fmt"
	"time"

	"github.com/example/checkin-scheduler/internal/southwest"
)

const (
	// OpensBefore is how long before departure check-in opens.
	OpensBefore = 24 * time.Hour

	DefaultEarlyMargin = 5 * time.Second
	DefaultTooEarly    = 300 * time.Second

	departureLayout = "2006-01-02 15:04"
)

// Leg is one departure on the reservation, resolved to an absolute instant.
type Leg struct {
	Index         int
	AirportCode   string
	AirportName   string
	AirportState  string
	DepartureDate string
	DepartureTime string
	Location      *time.Location
	Departure     time.Time
}

// NewLeg interprets the bound's naive local date and time in loc.
func NewLeg(index int, b southwest.Bound, loc *time.Location) (Leg, error) {
	if err := b.Validate(); err != nil {
		return Leg{}, err
	}
	dep, err := time.ParseInLocation(departureLayout, b.DepartureDate+" "+b.DepartureTime, loc)
	if err != nil {
		return Leg{}, fmt.Errorf("leg %d departure %q %q: %w", index, b.DepartureDate, b.DepartureTime, err)
	}
	return Leg{
		Index:         index,
		AirportCode:   b.DepartureAirport.Code,
		AirportName:   b.DepartureAirport.Name,
		AirportState:  b.DepartureAirport.State,
		DepartureDate: b.DepartureDate,
		DepartureTime: b.DepartureTime,
		Location:      loc,
		Departure:     dep,
	}, nil
}

// Airport is the "Name, State" label used in log lines.
func (l Leg) Airport() string {
	if l.AirportName == "" {
		return l.AirportCode
	}
	if l.AirportState == "" {
		return l.AirportName
	}
	return l.AirportName + ", " + l.AirportState
}

// Window is when check-in opens for a leg and when the task fires, a little
// ahead of the opening so the first call lands right on it.
type Window struct {
	OpensAt time.Time
	FiresAt time.Time
}

// WindowFor computes the window for a departure. FiresAt is always before
// departure as long as margin is not negative.
func WindowFor(departure time.Time, margin time.Duration) Window {
	if margin < 0 {
		margin = 0
	}
	opens := departure.Add(-OpensBefore)
	return Window{OpensAt: opens, FiresAt: opens.Add(-margin)}
}

type State int

const (
	Scheduled State = iota
	Waiting
	CallingAPI
	Completed
	Deferred
	Failed
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Waiting:
		return "waiting"
	case CallingAPI:
		return "calling_api"
	case Completed:
		return "completed"
	case Deferred:
		return "deferred"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == Completed || s == Deferred || s == Failed
}

// Outcome is what a task reports when it stops.
type Outcome struct {
	Leg    Leg
	Window Window
	State  State

	// Remaining is the time left until FiresAt when the waiter was consulted.
	// For deferred legs it says how far out the window still is.
	Remaining time.Duration

	Passes []southwest.Passenger
	Err    error

	StartedAt  time.Time
	FinishedAt time.Time
}
