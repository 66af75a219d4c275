// Package outcomes persists what each check-in run did, one row per leg.
package outcomes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/checkin-scheduler/internal/checkin"
	"github.com/example/checkin-scheduler/internal/db"
	"github.com/example/checkin-scheduler/internal/southwest"
)

type Record struct {
	ID          int64
	RunID       string
	Reservation string
	FirstName   string
	LastName    string
	LegIndex    int
	Airport     string
	DepartureAt time.Time
	FiresAt     time.Time
	State       string
	Remaining   time.Duration
	Passes      []southwest.Passenger
	Error       *string
	StartedAt   time.Time
	FinishedAt  time.Time
	CreatedAt   time.Time
}

// FromOutcome flattens a leg outcome into a storable record.
func FromOutcome(runID string, h southwest.Handle, o checkin.Outcome) Record {
	r := Record{
		RunID:       runID,
		Reservation: h.Number,
		FirstName:   h.FirstName,
		LastName:    h.LastName,
		LegIndex:    o.Leg.Index,
		Airport:     o.Leg.AirportCode,
		DepartureAt: o.Leg.Departure,
		FiresAt:     o.Window.FiresAt,
		State:       o.State.String(),
		Remaining:   o.Remaining,
		Passes:      o.Passes,
		StartedAt:   o.StartedAt,
		FinishedAt:  o.FinishedAt,
	}
	if o.Err != nil {
		msg := o.Err.Error()
		r.Error = &msg
	}
	return r
}

type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
}

type Repo struct{ db Store }

func NewRepo(d Store) *Repo { return &Repo{db: d} }

// Record stores one outcome. It satisfies scheduler.Sink.
func (r *Repo) Record(ctx context.Context, runID string, h southwest.Handle, o checkin.Outcome) error {
	return r.Insert(ctx, FromOutcome(runID, h, o))
}

func (r *Repo) Insert(ctx context.Context, rec Record) error {
	passes := rec.Passes
	if passes == nil {
		passes = []southwest.Passenger{}
	}
	b, err := json.Marshal(passes)
	if err != nil {
		return fmt.Errorf("outcomes: encode passes: %w", err)
	}
	err = r.db.Exec(ctx, `
INSERT INTO checkin_outcomes(run_id,reservation,first_name,last_name,leg_index,airport,departure_at,fires_at,state,remaining_seconds,boarding_passes,error,started_at,finished_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.RunID, rec.Reservation, rec.FirstName, rec.LastName, rec.LegIndex, rec.Airport, rec.DepartureAt, rec.FiresAt,
		rec.State, rec.Remaining.Seconds(), string(b), rec.Error, rec.StartedAt, rec.FinishedAt,
	)
	return db.WrapNotFound(err)
}

// ListByReservation returns the newest records first.
func (r *Repo) ListByReservation(ctx context.Context, reservation string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id,run_id,reservation,first_name,last_name,leg_index,airport,departure_at,fires_at,state,remaining_seconds,boarding_passes,error,started_at,finished_at,created_at
FROM checkin_outcomes
WHERE reservation=$1
ORDER BY created_at DESC, leg_index
LIMIT $2`, reservation, limit)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var remaining float64
		var passes []byte
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.Reservation, &rec.FirstName, &rec.LastName, &rec.LegIndex, &rec.Airport,
			&rec.DepartureAt, &rec.FiresAt, &rec.State, &remaining, &passes, &rec.Error,
			&rec.StartedAt, &rec.FinishedAt, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Remaining = time.Duration(remaining * float64(time.Second))
		if len(passes) > 0 {
			if err := json.Unmarshal(passes, &rec.Passes); err != nil {
				return nil, fmt.Errorf("outcomes: decode passes for %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
