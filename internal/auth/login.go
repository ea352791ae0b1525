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

package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mdstudio/mdauth/internal/identity"
	"github.com/mdstudio/mdauth/internal/scram"
)

// Login phases of the challenge-response exchange.
const (
	PhasePreChallenge = "preChallenge"
	PhaseChallenge    = "challenge"
)

// LoginDetails is the transport-provided context for one login call. The
// session id doubles as the server nonce of the exchange.
type LoginDetails struct {
	AuthMethod string `json:"authmethod"`
	AuthPhase  string `json:"authphase"`
	SessionID  string `json:"session"`
	// Signature is the hex-encoded client proof, present in the challenge
	// phase only.
	Signature string `json:"signature,omitempty"`
}

// AuthTicket is the reply to a login call. The preChallenge phase fills the
// credential fields so the client can compute its proof; the challenge phase
// fills AuthID, Success, and Extra.
type AuthTicket struct {
	Role       string            `json:"role,omitempty"`
	Iterations int               `json:"iterations,omitempty"`
	Salt       string            `json:"salt,omitempty"`
	Secret     string            `json:"secret,omitempty"`
	AuthID     string            `json:"authid,omitempty"`
	Success    bool              `json:"success,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Login runs one phase of the challenge-response exchange. The authid joins
// username and client nonce. A wrong proof returns (nil, nil), the caller's
// signal to reply false; an unknown user is an error. No per-attempt state is
// held between the two phases, every value is re-derived from the stored
// credential and the two nonces.
func (s *Service) Login(
	ctx context.Context,
	realm string,
	authid string,
	details LoginDetails,
) (*AuthTicket, error) {
	username, clientNonce, err := scram.SplitAuthID(strings.TrimSpace(authid))
	if err != nil {
		return nil, err
	}

	s.logger.Info(
		"authentication request",
		slog.String("realm", realm),
		slog.String("authid", username),
		slog.String("authmethod", details.AuthMethod),
		slog.String("authphase", details.AuthPhase),
	)

	user, err := s.repo.FindUser(ctx, identity.UserQuery{
		Username:           username,
		WithAuthentication: true,
	})
	if err != nil {
		return nil, err
	}
	if user == nil || user.Authentication == nil {
		s.metrics.RecordLogin(details.AuthPhase, "unknown_user")
		return nil, fmt.Errorf("No such user")
	}

	userAuth := user.Authentication
	storedKey, err := hex.DecodeString(userAuth.StoredKey)
	if err != nil {
		return nil, fmt.Errorf("decode stored key: %w", err)
	}
	serverKey, err := hex.DecodeString(userAuth.ServerKey)
	if err != nil {
		return nil, fmt.Errorf("decode server key: %w", err)
	}

	if details.AuthPhase == PhasePreChallenge {
		s.metrics.RecordLogin(details.AuthPhase, "ok")

		return &AuthTicket{
			Role:       "user",
			Iterations: userAuth.Iterations,
			Salt:       userAuth.Salt,
			Secret:     userAuth.StoredKey,
		}, nil
	}

	authMessage := scram.AuthMessage(clientNonce, details.SessionID)
	clientProof, err := hex.DecodeString(details.Signature)
	if err != nil {
		return nil, fmt.Errorf("decode client proof: %w", err)
	}

	if !scram.VerifyClientProof(clientProof, storedKey, authMessage) {
		s.metrics.RecordLogin(details.AuthPhase, "bad_proof")
		return nil, nil
	}

	if err := s.repo.StartSession(ctx, user.Handle, details.SessionID, ""); err != nil {
		return nil, err
	}

	s.logger.Info("access granted", slog.String("user", username))
	s.metrics.RecordLogin(details.AuthPhase, "ok")

	return &AuthTicket{
		AuthID:  username,
		Success: true,
		Extra: map[string]string{
			"serverProof": hex.EncodeToString(scram.ServerProof(serverKey, authMessage)),
		},
	}, nil
}

// Logout ends the caller's session and returns a confirmation message. An
// unknown user or absent session yields the fallback message rather than an
// error.
func (s *Service) Logout(
	ctx context.Context,
	authid string,
	sessionID string,
) (string, error) {
	user, err := s.repo.FindUser(ctx, identity.UserQuery{Username: authid})
	if err != nil {
		return "", err
	}

	if user != nil {
		s.logger.Info(
			"logout user",
			slog.String("username", user.Username),
			slog.String("handle", user.Handle),
		)

		ended, err := s.repo.EndSession(ctx, user.Handle, sessionID)
		if err != nil {
			return "", err
		}
		if ended {
			return fmt.Sprintf("%s you are now logged out", user.Username), nil
		}
	}

	return "Unknown user, unable to logout", nil
}
