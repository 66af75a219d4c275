package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/checkin-scheduler/internal/auth"
	"github.com/example/checkin-scheduler/internal/checkin"
	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []southwest.Handle
	rep   scheduler.Report
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, h southwest.Handle) (scheduler.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, h)
	rep := f.rep
	rep.Reservation = h.Number
	return rep, f.err
}

func newTestServer(t *testing.T, runner Runner, authz func(http.Handler) http.Handler) *httptest.Server {
	t.Helper()
	s := &Server{Runner: runner, Auth: authz, Log: zerolog.Nop()}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, header map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTriggerPriming(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, nil)
	body := `{"message":{"data":"` + b64(`{"reservation_number":"Priming"}`) + `"}}`

	resp, out := post(t, srv.URL+"/trigger", body, nil)
	if resp.StatusCode != http.StatusOK || out["status"] != "primed" {
		t.Fatalf("status = %d body = %v", resp.StatusCode, out)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.calls) != 0 {
		t.Error("priming event started a run")
	}
}

func TestTriggerRunsScheduler(t *testing.T) {
	dep := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	runner := &fakeRunner{rep: scheduler.Report{
		RunID: "run_1",
		Legs:  2,
		Outcomes: []checkin.Outcome{
			{Leg: checkin.Leg{Index: 0, AirportCode: "OAK", Departure: dep}, State: checkin.Completed,
				Passes: []southwest.Passenger{{Name: "Barack Obama", BoardingGroup: "A", BoardingPosition: "21"}}},
			{Leg: checkin.Leg{Index: 1, AirportCode: "LAS"}, State: checkin.Failed, Err: errors.New("exhausted")},
		},
	}}
	srv := newTestServer(t, runner, nil)

	event := `{"reservation_number":"ABC123","first_name":"Barack","last_name":"Obama"}`
	bodies := map[string]string{
		"push":  `{"message":{"data":"` + b64(event) + `"}}`,
		"data":  `{"data":"` + b64(event) + `"}`,
		"plain": event,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			resp, out := post(t, srv.URL+"/trigger", body, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d body = %v", resp.StatusCode, out)
			}
			if out["run_id"] != "run_1" || out["reservation"] != "ABC123" {
				t.Errorf("body = %v", out)
			}
			outs, _ := out["outcomes"].([]any)
			if len(outs) != 2 {
				t.Fatalf("outcomes = %v", out["outcomes"])
			}
			second := outs[1].(map[string]any)
			if second["state"] != "failed" || second["error"] != "exhausted" {
				t.Errorf("second = %v", second)
			}
		})
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	last := runner.calls[len(runner.calls)-1]
	if last.Number != "ABC123" || last.FirstName != "Barack" || last.LastName != "Obama" {
		t.Errorf("handle = %+v", last)
	}
}

func TestTriggerBadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, nil)
	for name, body := range map[string]string{
		"empty":      ``,
		"array":      `[1,2]`,
		"bad base64": `{"message":{"data":"%%%"}}`,
		"no names":   `{"reservation_number":"ABC123"}`,
		"inner junk": `{"data":"` + b64("not json") + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, out := post(t, srv.URL+"/trigger", body, nil)
			if resp.StatusCode != http.StatusBadRequest || out["error"] == nil {
				t.Fatalf("status = %d body = %v", resp.StatusCode, out)
			}
		})
	}
}

func TestTriggerRunError(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{err: southwest.ErrMalformedResponse}, nil)
	resp, out := post(t, srv.URL+"/trigger", `{"reservation_number":"ABC123","first_name":"A","last_name":"B"}`, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d body = %v", resp.StatusCode, out)
	}
}

func TestTriggerRequiresToken(t *testing.T) {
	hash, err := auth.HashToken("trg_secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := auth.NewBearer(hash)
	if err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, b.Require)
	event := `{"reservation_number":"Priming"}`

	if resp, _ := post(t, srv.URL+"/trigger", event, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", resp.StatusCode)
	}
	resp, out := post(t, srv.URL+"/trigger", event, map[string]string{"Authorization": "Bearer trg_secret"})
	if resp.StatusCode != http.StatusOK || out["status"] != "primed" {
		t.Errorf("with token: status = %d body = %v", resp.StatusCode, out)
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("healthz should not need a token, got %d", health.StatusCode)
	}
}

func TestStartShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Start(ctx, "127.0.0.1:0", http.NotFoundHandler(), zerolog.Nop()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestTriggerDisabled(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, _ := post(t, srv.URL+"/trigger", `{"reservation_number":"Priming"}`, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStartReturnsWhenPortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	before := runtime.NumGoroutine()
	done := make(chan error, 1)
	go func() { done <- Start(context.Background(), ln.Addr().String(), http.NotFoundHandler(), zerolog.Nop()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected a listen error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start blocked on a taken port")
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > before {
		t.Errorf("shutdown goroutine still running: %d goroutines, started with %d", n, before)
	}
}
