package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/checkin-scheduler/internal/southwest"
)

// PrimingReservation is the reservation number warm-up pings carry.
const PrimingReservation = "Priming"

// Event is the trigger payload.
type Event struct {
	ReservationNumber string `json:"reservation_number"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Verbose           bool   `json:"verbose,omitempty"`
}

func (e Event) IsPriming() bool { return e.ReservationNumber == PrimingReservation }

func (e Event) Handle() southwest.Handle {
	return southwest.Handle{
		Number:    e.ReservationNumber,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Verbose:   e.Verbose,
	}
}

// push is the pub/sub push shape: {"message":{"data":"<base64>"}}, or the
// bare {"data":"<base64>"} some relays forward.
type push struct {
	Message *struct {
		Data string `json:"data"`
	} `json:"message"`
	Data *string `json:"data"`
}

// DecodeEvent accepts a push envelope with a base64 JSON event, or the JSON
// event itself.
func DecodeEvent(body []byte) (Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Event{}, errors.New("empty event")
	}

	var p push
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{}, fmt.Errorf("event is not a JSON object: %w", err)
	}
	switch {
	case p.Message != nil:
		return decodeData(p.Message.Data)
	case p.Data != nil:
		return decodeData(*p.Data)
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

func decodeData(data string) (Event, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(data); err != nil {
			return Event{}, fmt.Errorf("event data is not base64: %w", err)
		}
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event data: %w", err)
	}
	return ev, nil
}
