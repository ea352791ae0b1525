// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

// Package claims issues and verifies the short-lived signed claims services
// present to each other to authorize a single call. Claims are never
// persisted; they live only as signed tokens until expiry. The signing key
// is generated once per process and never rotated on a schedule: a restart
// invalidates outstanding claims, which the 60 second lifetime makes an
// acceptable availability tradeoff rather than an oversight.
package claims

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTTL is the claim lifetime added at signing.
const DefaultTTL = time.Minute

// ReservedKeys are the identity fields callers may never assert directly;
// they are only folded in through the validated asGroup/asRole pseudo-keys.
var ReservedKeys = []string{"group", "role", "username"}

// Result is the outcome of verifying a token. Exactly one field is set:
// Claims on success, Error for a malformed or forged token, Expired for a
// token that was valid but outlived its lifetime. The distinction lets
// callers re-sign instead of treating expiry as a security violation.
type Result struct {
	Claims  map[string]any `json:"claims,omitempty"`
	Error   string         `json:"error,omitempty"`
	Expired string         `json:"expired,omitempty"`
}

// Signer signs and verifies claim tokens with a process-lifetime symmetric
// key. The key is immutable after construction and safe for concurrent use.
type Signer struct {
	logger *slog.Logger
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption customizes a Signer.
type SignerOption func(*Signer)

// WithKey pins the signing key instead of generating a random one.
func WithKey(
	key []byte,
) SignerOption {
	return func(s *Signer) {
		s.key = key
	}
}

// WithTTL overrides the claim lifetime.
func WithTTL(
	ttl time.Duration,
) SignerOption {
	return func(s *Signer) {
		s.ttl = ttl
	}
}

// WithNowFunc overrides the clock used at signing, for tests.
func WithNowFunc(
	now func() time.Time,
) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner factory to create a new instance.
func NewSigner(
	logger *slog.Logger,
	opts ...SignerOption,
) (*Signer, error) {
	s := &Signer{
		logger: logger,
		ttl:    DefaultTTL,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.key == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		s.key = key
	}

	return s, nil
}

// HasReservedKeys reports whether the claim set tries to assert an identity
// field directly.
func HasReservedKeys(
	claimSet map[string]any,
) bool {
	for _, key := range ReservedKeys {
		if _, ok := claimSet[key]; ok {
			return true
		}
	}

	return false
}

// Sign adds the expiry and signs the claim set. Callers are expected to have
// validated the claim contents first.
func (s *Signer) Sign(
	claimSet map[string]any,
) (string, error) {
	mapped := jwt.MapClaims{}
	for k, v := range claimSet {
		mapped[k] = v
	}
	mapped["exp"] = s.now().Add(s.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapped)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign claims: %w", err)
	}

	return signed, nil
}

// Verify decodes a previously signed token.
func (s *Signer) Verify(
	tokenString string,
) Result {
	claimSet := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claimSet,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return s.key, nil
		},
	)
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return Result{Expired: "Request token has expired"}
		}
		return Result{Error: "Could not verify user"}
	}

	return Result{Claims: claimSet}
}
