package ids

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a sortable id such as run_01HV3K....
func New(prefix string) string {
	mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	mu.Unlock()
	return fmt.Sprintf("%s_%s", prefix, id.String())
}

// NewToken returns a random bearer token for the trigger endpoint.
func NewToken() (string, error) {
	return newToken(rand.Reader)
}

func newToken(r io.Reader) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	limit := big.NewInt(int64(len(charset)))
	b := make([]byte, 40)
	for i := range b {
		n, err := rand.Int(r, limit)
		if err != nil {
			return "", fmt.Errorf("ids: token entropy: %w", err)
		}
		b[i] = charset[n.Int64()]
	}
	return fmt.Sprintf("trg_%s", string(b)), nil
}
