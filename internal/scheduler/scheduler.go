package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/checkin-scheduler/internal/checkin"
	"github.com/example/checkin-scheduler/internal/ids"
	"github.com/example/checkin-scheduler/internal/southwest"
)

const DefaultSuperviseInterval = 5 * time.Second

// API is the reservation client surface a run needs.
type API interface {
	LookupReservation(ctx context.Context, h southwest.Handle) (*southwest.ReservationPage, error)
	checkin.API
}

type Zones interface {
	Resolve(ctx context.Context, airport string) (*time.Location, error)
}

// Sink receives every outcome as it arrives. Errors are logged and dropped.
type Sink interface {
	Record(ctx context.Context, runID string, h southwest.Handle, o checkin.Outcome) error
}

// Scheduler checks in every future leg of a reservation, one goroutine per leg.
type Scheduler struct {
	API   API
	Zones Zones
	Sink  Sink // optional

	EarlyMargin       *time.Duration // nil: checkin.DefaultEarlyMargin
	TooEarly          time.Duration
	SuperviseInterval time.Duration

	Log   zerolog.Logger
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

type Report struct {
	RunID       string
	Reservation string
	StartedAt   time.Time
	Legs        int
	Outcomes    []checkin.Outcome
	Interrupted bool
}

// Pending is the number of spawned legs that had not reported when Run
// returned. It is only non-zero for interrupted runs.
func (r Report) Pending() int {
	return r.Legs - len(r.Outcomes)
}

// Run enumerates the reservation and drives each future leg to a terminal
// state. The error is non-nil only when the reservation cannot be enumerated;
// per-leg failures live in the outcomes. Cancelling ctx stops supervision and
// returns what has been gathered with Interrupted set.
func (s *Scheduler) Run(ctx context.Context, h southwest.Handle) (Report, error) {
	rep := Report{RunID: ids.New("run"), Reservation: h.Number}
	if err := h.Validate(); err != nil {
		return rep, err
	}
	log := s.Log.With().Str("run_id", rep.RunID).Str("reservation", h.Number).Logger()

	page, err := s.API.LookupReservation(ctx, h)
	if err != nil {
		return rep, fmt.Errorf("look up reservation %s: %w", h.Number, err)
	}

	rep.StartedAt = s.now()
	legs, err := s.futureLegs(ctx, page.Bounds, rep.StartedAt)
	if err != nil {
		return rep, err
	}
	rep.Legs = len(legs)
	log.Info().
		Int("bounds", len(page.Bounds)).
		Int("legs", len(legs)).
		Msg("scheduling check-in")
	if len(legs) == 0 {
		return rep, nil
	}

	// Buffered so legs still running after an interrupt never block.
	results := make(chan checkin.Outcome, len(legs))
	for _, leg := range legs {
		task := &checkin.Task{
			Handle:      h,
			Leg:         leg,
			API:         s.API,
			Waiter:      checkin.Waiter{Threshold: s.TooEarly, Now: s.Now, Sleep: s.Sleep},
			EarlyMargin: s.earlyMargin(),
			Log:         log,
		}
		go func() { results <- task.Run(ctx) }()
	}

	t := time.NewTicker(s.superviseInterval())
	defer t.Stop()

	for len(rep.Outcomes) < len(legs) {
		select {
		case o := <-results:
			rep.Outcomes = append(rep.Outcomes, o)
			s.record(ctx, log, rep.RunID, h, o)
		case <-t.C:
			log.Debug().Int("pending", rep.Pending()).Msg("supervising")
		case <-ctx.Done():
			rep.Interrupted = true
			log.Warn().Int("pending", rep.Pending()).Msg("run interrupted")
			sortOutcomes(rep.Outcomes)
			return rep, nil
		}
	}

	sortOutcomes(rep.Outcomes)
	log.Info().Int("legs", rep.Legs).Msg("run finished")
	return rep, nil
}

// futureLegs resolves every bound and keeps those departing after start. Any
// zone failure aborts: a leg without a zone cannot be scheduled.
func (s *Scheduler) futureLegs(ctx context.Context, bounds []southwest.Bound, start time.Time) ([]checkin.Leg, error) {
	zones := map[string]*time.Location{}
	var legs []checkin.Leg
	for i, b := range bounds {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("bound %d: %w", i, err)
		}
		loc, ok := zones[b.DepartureAirport.Code]
		if !ok {
			var err error
			loc, err = s.Zones.Resolve(ctx, b.DepartureAirport.Code)
			if err != nil {
				return nil, err
			}
			zones[b.DepartureAirport.Code] = loc
		}
		leg, err := checkin.NewLeg(i, b, loc)
		if err != nil {
			return nil, err
		}
		if !leg.Departure.After(start) {
			s.Log.Debug().
				Int("leg", i).
				Str("airport", leg.AirportCode).
				Time("departure", leg.Departure).
				Msg("leg already departed, skipping")
			continue
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func (s *Scheduler) record(ctx context.Context, log zerolog.Logger, runID string, h southwest.Handle, o checkin.Outcome) {
	if s.Sink == nil {
		return
	}
	if err := s.Sink.Record(ctx, runID, h, o); err != nil {
		log.Error().Err(err).Int("leg", o.Leg.Index).Msg("recording outcome failed")
	}
}

func sortOutcomes(os []checkin.Outcome) {
	slices.SortFunc(os, func(a, b checkin.Outcome) int { return a.Leg.Index - b.Leg.Index })
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) earlyMargin() time.Duration {
	if s.EarlyMargin != nil {
		return *s.EarlyMargin
	}
	return checkin.DefaultEarlyMargin
}

func (s *Scheduler) superviseInterval() time.Duration {
	if s.SuperviseInterval > 0 {
		return s.SuperviseInterval
	}
	return DefaultSuperviseInterval
}
