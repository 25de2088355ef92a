package client

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// tokenExpiry extracts the expiry instant from a JWT by decoding its
// payload locally, without verifying the signature. The client only needs
// to know whether a stored token is worth sending; the server remains the
// authority on validity.
func tokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, errors.New("client: malformed token")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, errors.New("client: malformed token payload")
	}

	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, errors.New("client: malformed token claims")
	}
	if claims.Exp == 0 {
		return time.Time{}, errors.New("client: token has no expiry")
	}

	return time.Unix(claims.Exp, 0), nil
}

// tokenExpired reports whether the token is expired or undecodable. An
// undecodable token is treated as expired: it would be rejected
// server-side anyway, so it is never attached to a request.
func tokenExpired(token string) bool {
	expiry, err := tokenExpiry(token)
	if err != nil {
		return true
	}
	return !time.Now().Before(expiry)
}
