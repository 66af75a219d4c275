package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type ReportView struct {
	RunID       string        `json:"run_id"`
	Reservation string        `json:"reservation"`
	StartedAt   time.Time     `json:"started_at"`
	Legs        int           `json:"legs"`
	Interrupted bool          `json:"interrupted"`
	Outcomes    []OutcomeView `json:"outcomes"`
}

type OutcomeView struct {
	Leg              int                   `json:"leg"`
	Airport          string                `json:"airport"`
	Departure        time.Time             `json:"departure"`
	FiresAt          time.Time             `json:"fires_at"`
	State            string                `json:"state"`
	RemainingSeconds float64               `json:"remaining_seconds"`
	Passes           []southwest.Passenger `json:"boarding_passes,omitempty"`
	Error            string                `json:"error,omitempty"`
}

func NewReportView(r scheduler.Report) ReportView {
	v := ReportView{
		RunID:       r.RunID,
		Reservation: r.Reservation,
		StartedAt:   r.StartedAt,
		Legs:        r.Legs,
		Interrupted: r.Interrupted,
		Outcomes:    make([]OutcomeView, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		ov := OutcomeView{
			Leg:              o.Leg.Index,
			Airport:          o.Leg.AirportCode,
			Departure:        o.Leg.Departure,
			FiresAt:          o.Window.FiresAt,
			State:            o.State.String(),
			RemainingSeconds: o.Remaining.Seconds(),
			Passes:           o.Passes,
		}
		if o.Err != nil {
			ov.Error = o.Err.Error()
		}
		v.Outcomes = append(v.Outcomes, ov)
	}
	return v
}
