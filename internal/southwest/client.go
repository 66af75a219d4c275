package southwest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL       = "https://mobile.southwest.com/api/"
	DefaultConfigURL     = "https://mobile.southwest.com/js/config.js"
	DefaultMaxAttempts   = 40
	DefaultRetryInterval = 250 * time.Millisecond
)

// Client talks to the mobile reservation API. Every call fetches its own
// headers, so one Client is safe to share between leg goroutines.
type Client struct {
	hc          *http.Client
	base        string
	creds       CredentialProvider
	maxAttempts int
	interval    time.Duration
	log         zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

type Options struct {
	BaseURL       string
	HTTP          *http.Client
	MaxAttempts   int
	RetryInterval time.Duration
	Log           zerolog.Logger
}

func New(creds CredentialProvider, opts Options) *Client {
	c := &Client{
		hc:          opts.HTTP,
		base:        opts.BaseURL,
		creds:       creds,
		maxAttempts: opts.MaxAttempts,
		interval:    opts.RetryInterval,
		log:         opts.Log,
		sleep:       sleepCtx,
	}
	if c.hc == nil {
		c.hc = &http.Client{Timeout: 20 * time.Second}
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if !strings.HasSuffix(c.base, "/") {
		c.base += "/"
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.interval <= 0 {
		c.interval = DefaultRetryInterval
	}
	return c
}

// Request sends one logical call, retrying while the envelope carries a
// transient marker. A body that is not a JSON object yields (nil, nil).
func (c *Client) Request(ctx context.Context, method, rawURL string, body any) (*Envelope, error) {
	return c.request(ctx, method, rawURL, body, false)
}

// RequestPage is Request followed by Envelope.Page. Absent pages are nil.
func (c *Client) RequestPage(ctx context.Context, method, rawURL string, body any) (json.RawMessage, error) {
	return c.requestPage(ctx, method, rawURL, body, false)
}

func (c *Client) requestPage(ctx context.Context, method, rawURL string, body any, verbose bool) (json.RawMessage, error) {
	env, err := c.request(ctx, method, rawURL, body, verbose)
	if err != nil {
		return nil, err
	}
	page, ok := env.Page()
	if !ok {
		return nil, nil
	}
	return page, nil
}

func (c *Client) request(ctx context.Context, method, rawURL string, body any, verbose bool) (*Envelope, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("southwest: encode body: %w", err)
		}
		payload = b
	}

	var marker string
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		hdr, err := c.headers(ctx)
		if err != nil {
			return nil, err
		}
		status, respHdr, b, err := c.do(ctx, method, rawURL, hdr, payload)
		if err != nil {
			return nil, err
		}

		env := decodeEnvelope(b)
		if env == nil {
			c.log.Debug().Str("url", rawURL).Int("status", status).Msg("response is not a JSON object, treating as empty")
			return nil, nil
		}

		m, transient := env.transientMarker()
		if !transient {
			if verbose {
				c.log.Info().Str("url", rawURL).Int("status", status).
					Interface("headers", respHdr).RawJSON("body", b).Msg("response")
			}
			return env, nil
		}

		marker = m
		ev := c.log.Warn().Str("url", rawURL).Int("attempt", attempt).Str("marker", m).
			Str("correlation_id", hdr.Get("X-User-Experience-Id"))
		if verbose {
			ev = ev.Interface("headers", respHdr).RawJSON("body", b)
		} else {
			ev = ev.Str("message", env.Message())
		}
		ev.Msg("transient response")

		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, c.interval); err != nil {
			return nil, err
		}
	}
	return nil, &FatalAPIError{URL: rawURL, Attempts: c.maxAttempts, Marker: marker}
}

func (c *Client) headers(ctx context.Context) (http.Header, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("southwest: headers: %w", err)
	}
	id, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("southwest: correlation id: %w", err)
	}
	h := http.Header{}
	// Mirrors what the mobile web client sends.
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "*/*")
	h.Set("X-API-Key", key)
	h.Set("X-User-Experience-Id", strings.ToUpper(id.String()))
	h.Set("X-Channel-ID", "MWEB")
	return h, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, hdr http.Header, body []byte) (int, http.Header, []byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, r)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header = hdr

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("southwest: %s %s: %w", method, rawURL, err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, res.Header, nil, fmt.Errorf("southwest: read body: %w", err)
	}
	return res.StatusCode, res.Header, b, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
