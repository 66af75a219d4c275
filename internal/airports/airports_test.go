package airports

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("iata") != "OAK" || r.PostForm.Get("action") != "SEARCH" || r.PostForm.Get("db") != "airports" {
			t.Errorf("form = %v", r.PostForm)
		}
		_, _ = io.WriteString(w, `{"status":1,"airports":[{"iata":"OAK","name":"Metropolitan Oakland","tz_id":"America/Los_Angeles"}]}`)
	}))
	defer srv.Close()

	loc, err := New(srv.URL, srv.Client()).Resolve(context.Background(), "oak")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.String() != "America/Los_Angeles" {
		t.Errorf("loc = %s", loc)
	}
}

func TestResolveFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"no airports":  {200, `{"airports":[]}`},
		"missing tz":   {200, `{"airports":[{"iata":"XXX"}]}`},
		"unknown zone": {200, `{"airports":[{"tz_id":"Mars/Olympus_Mons"}]}`},
		"not json":     {200, `<b>rate limited</b>`},
		"server error": {500, `{"airports":[{"tz_id":"UTC"}]}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, srv.Client()).Resolve(context.Background(), "XXX")
			var le *LookupError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LookupError, got %v", err)
			}
			if le.Airport != "XXX" {
				t.Errorf("airport = %q", le.Airport)
			}
		})
	}
}

func TestResolveTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL, nil).Resolve(context.Background(), "DEN")
	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LookupError, got %v", err)
	}
}
