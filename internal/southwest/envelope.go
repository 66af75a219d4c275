package southwest

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// transientMarkers are httpStatusCode values the API returns while a page is
// not yet available. They are retried, never surfaced as results.
var transientMarkers = map[string]bool{
	"NOT_FOUND":   true,
	"BAD_REQUEST": true,
	"FORBIDDEN":   true,
}

const pageSuffix = "Page"

// Envelope is a decoded top-level response object. Keys keep document order so
// Page can honour "first key wins".
type Envelope struct {
	fields []field
}

type field struct {
	key   string
	value json.RawMessage
}

// decodeEnvelope returns nil when b is not a single JSON object.
func decodeEnvelope(b []byte) *Envelope {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	env := &Envelope{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := kt.(string)
		if !ok {
			return nil
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		env.fields = append(env.fields, field{key: key, value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil
	}
	return env
}

// Get returns the raw value stored under key.
func (e *Envelope) Get(key string) (json.RawMessage, bool) {
	if e == nil {
		return nil, false
	}
	for _, f := range e.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// Keys lists the top-level keys in document order.
func (e *Envelope) Keys() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		out = append(out, f.key)
	}
	return out
}

// Page returns the first value whose key ends in "Page".
func (e *Envelope) Page() (json.RawMessage, bool) {
	if e == nil {
		return nil, false
	}
	for _, f := range e.fields {
		if strings.HasSuffix(f.key, pageSuffix) {
			return f.value, true
		}
	}
	return nil, false
}

// Message is the human readable message the API attaches to error envelopes.
func (e *Envelope) Message() string {
	return e.stringField("message")
}

func (e *Envelope) transientMarker() (string, bool) {
	code := e.stringField("httpStatusCode")
	if code == "" {
		return "", false
	}
	return code, transientMarkers[code]
}

func (e *Envelope) stringField(key string) string {
	raw, ok := e.Get(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
