package southwest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CredentialProvider hands out the short-lived key sent as X-API-Key.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a fixed key, for pinned deployments and tests.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	if k == "" {
		return "", ErrAPIKeyUnavailable
	}
	return string(k), nil
}

// ConfigScraper pulls the key out of the mobile web configuration script on
// every call. The key rotates, so nothing is cached.
type ConfigScraper struct {
	URL  string
	HTTP *http.Client
}

func (s ConfigScraper) APIKey(ctx context.Context) (string, error) {
	hc := s.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}
	res, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIKeyUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: config status=%d", ErrAPIKeyUnavailable, res.StatusCode)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIKeyUnavailable, err)
	}
	return ParseAPIKey(string(b))
}

// ParseAPIKey extracts the value following the API_KEY marker: everything
// between the first ':' and the next ',', without spaces or quotes.
func ParseAPIKey(text string) (string, error) {
	i := strings.Index(text, "API_KEY")
	if i < 0 {
		return "", fmt.Errorf("%w: marker not found", ErrAPIKeyUnavailable)
	}
	rest := text[i:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", fmt.Errorf("%w: no value after marker", ErrAPIKeyUnavailable)
	}
	rest = rest[colon+1:]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", fmt.Errorf("%w: unterminated value", ErrAPIKeyUnavailable)
	}
	key := strings.Trim(strings.TrimSpace(rest[:comma]), `"'`)
	if key == "" {
		return "", fmt.Errorf("%w: empty value", ErrAPIKeyUnavailable)
	}
	return key, nil
}
