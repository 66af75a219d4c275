// Package airports resolves IATA airport codes to IANA time zones using the
// OpenFlights airport search.
package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"
)

const DefaultSearchURL = "https://openflights.org/php/apsearch.php"

// LookupError means an airport's zone could not be determined. Check-in
// timing is meaningless without it, so callers must not default.
type LookupError struct {
	Airport string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("timezone lookup for %s: %v", e.Airport, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type Resolver struct {
	hc  *http.Client
	url string
}

func New(searchURL string, hc *http.Client) *Resolver {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{hc: hc, url: searchURL}
}

type searchResponse struct {
	Airports []struct {
		IATA string `json:"iata"`
		Name string `json:"name"`
		TzID string `json:"tz_id"`
	} `json:"airports"`
}

// Zone returns the IANA zone name of the first airport matching code.
func (r *Resolver) Zone(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	fail := func(err error) (string, error) {
		return "", &LookupError{Airport: code, Err: err}
	}
	if code == "" {
		return fail(fmt.Errorf("empty airport code"))
	}

	form := url.Values{
		"iata":       {code},
		"country":    {"ALL"},
		"db":         {"airports"},
		"iatafilter": {"true"},
		"action":     {"SEARCH"},
		"offset":     {"0"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := r.hc.Do(req)
	if err != nil {
		return fail(err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fail(err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fail(fmt.Errorf("search http %d", res.StatusCode))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fail(fmt.Errorf("parse search response: %w", err))
	}
	if len(parsed.Airports) == 0 {
		return fail(fmt.Errorf("no matching airport"))
	}
	tz := strings.TrimSpace(parsed.Airports[0].TzID)
	if tz == "" {
		return fail(fmt.Errorf("airport record has no tz_id"))
	}
	return tz, nil
}

// Resolve is Zone followed by time.LoadLocation.
func (r *Resolver) Resolve(ctx context.Context, code string) (*time.Location, error) {
	name, err := r.Zone(ctx, code)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &LookupError{Airport: strings.ToUpper(strings.TrimSpace(code)), Err: err}
	}
	return loc, nil
}
