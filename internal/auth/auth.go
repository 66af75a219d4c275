// Package auth guards the trigger endpoint with a bearer token whose bcrypt
// hash is configured out of band.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoHash = errors.New("auth: no token hash configured")

func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(b), err
}

func CheckToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// Bearer holds a bcrypt hash and checks Authorization headers against it.
type Bearer struct {
	hash string
}

func NewBearer(hash string) (*Bearer, error) {
	if hash == "" {
		return nil, ErrNoHash
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &Bearer{hash: hash}, nil
}

func (b *Bearer) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			deny(w, "missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			deny(w, "invalid authorization format, use: Bearer <token>")
			return
		}
		if !CheckToken(b.hash, strings.TrimSpace(token)) {
			deny(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
