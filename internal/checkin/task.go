package checkin

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"github.com/example/checkin-scheduler/internal/southwest"
)

// API is the part of the reservation client a task needs.
type API interface {
	CheckinEligibility(ctx context.Context, h southwest.Handle) (*southwest.CheckinAction, error)
	SubmitCheckin(ctx context.Context, h southwest.Handle, a southwest.CheckinAction) ([]southwest.Passenger, error)
}

// Task checks in one leg. It owns its Leg; the Handle is a shared read-only
// value.
type Task struct {
	Handle      southwest.Handle
	Leg         Leg
	API         API
	Waiter      Waiter
	EarlyMargin time.Duration
	Log         zerolog.Logger
}

// Run drives the leg to a terminal state. It never panics and never returns
// an error: failures are carried in the Outcome.
func (t *Task) Run(ctx context.Context) Outcome {
	log := t.Log.With().
		Int("leg", t.Leg.Index).
		Str("airport", t.Leg.AirportCode).
		Logger()

	out := &Outcome{Leg: t.Leg, State: Scheduled, StartedAt: t.Waiter.now()}

	var pc panics.Catcher
	pc.Try(func() { t.run(ctx, log, out) })
	if r := pc.Recovered(); r != nil {
		out.State = Failed
		out.Err = r.AsError()
		log.Error().Err(out.Err).Msg("check-in task panicked")
	}

	out.FinishedAt = t.Waiter.now()
	return *out
}

func (t *Task) run(ctx context.Context, log zerolog.Logger, out *Outcome) {
	out.Window = WindowFor(t.Leg.Departure, t.EarlyMargin)
	t.transition(log, out, Waiting)

	wait, err := t.Waiter.AwaitWindow(ctx, out.Window.FiresAt)
	out.Remaining = wait.Remaining
	if err != nil {
		t.fail(log, out, err)
		return
	}
	if !wait.Ready {
		t.transition(log, out, Deferred)
		log.Info().
			Dur("remaining", wait.Remaining).
			Time("fires_at", out.Window.FiresAt).
			Msg("too early to check in, re-run closer to the window")
		return
	}

	t.transition(log, out, CallingAPI)
	action, err := t.API.CheckinEligibility(ctx, t.Handle)
	if err != nil {
		t.fail(log, out, err)
		return
	}
	log.Info().Msg("attempting check-in")
	passes, err := t.API.SubmitCheckin(ctx, t.Handle, *action)
	if err != nil {
		t.fail(log, out, err)
		return
	}

	out.Passes = passes
	for _, p := range passes {
		log.Info().
			Str("passenger", p.Name).
			Str("boarding", p.BoardingGroup+p.BoardingPosition).
			Msg("checked in")
	}
	t.transition(log, out, Completed)
}

func (t *Task) transition(log zerolog.Logger, out *Outcome, to State) {
	log.Debug().Str("from", out.State.String()).Str("state", to.String()).Msg("leg state")
	out.State = to
}

func (t *Task) fail(log zerolog.Logger, out *Outcome, err error) {
	out.Err = err
	log.Error().Err(err).Str("during", out.State.String()).Msg("check-in failed")
	t.transition(log, out, Failed)
}
