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

package auth_test

import (
	"encoding/hex"

	"github.com/mdstudio/mdauth/internal/auth"
	"github.com/mdstudio/mdauth/internal/identity"
	"github.com/mdstudio/mdauth/internal/scram"
)

// login runs both phases of the exchange for alice with the given password
// and returns the challenge-phase ticket.
func (s *AuthPublicTestSuite) login(
	password string,
	sessionID string,
) (*auth.AuthTicket, error) {
	clientNonce := scram.Nonce()
	authid := scram.JoinAuthID("alice", clientNonce)

	pre, err := s.service.Login(s.ctx, "mdstudio", authid, auth.LoginDetails{
		AuthMethod: "ticket",
		AuthPhase:  auth.PhasePreChallenge,
		SessionID:  sessionID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(pre)
	s.Equal("user", pre.Role)
	s.NotEmpty(pre.Salt)
	s.NotEmpty(pre.Secret)

	salt, err := hex.DecodeString(pre.Salt)
	s.Require().NoError(err)

	salted := scram.SaltedPassword([]byte(password), salt, pre.Iterations)
	clientKey := scram.ClientKey(salted)
	authMessage := scram.AuthMessage(clientNonce, sessionID)
	signature := scram.ClientSignature(scram.StoredKey(clientKey), authMessage)
	proof := scram.ClientProof(clientKey, signature)

	ticket, err := s.service.Login(s.ctx, "mdstudio", authid, auth.LoginDetails{
		AuthMethod: "ticket",
		AuthPhase:  auth.PhaseChallenge,
		SessionID:  sessionID,
		Signature:  hex.EncodeToString(proof),
	})
	if err != nil || ticket == nil {
		return ticket, err
	}

	// Mutual authentication: the server proof must match the one the client
	// derives from its salted password.
	expected := hex.EncodeToString(scram.ServerProof(scram.ServerKey(salted), authMessage))
	s.Equal(expected, ticket.Extra["serverProof"])

	return ticket, nil
}

func (s *AuthPublicTestSuite) TestLogin() {
	ticket, err := s.login(alicePassword, "session-1")
	s.Require().NoError(err)
	s.Require().NotNil(ticket)

	s.True(ticket.Success)
	s.Equal("alice", ticket.AuthID)

	user, err := s.repo.FindUser(s.ctx, identity.UserQuery{Username: "alice"})
	s.Require().NoError(err)
	session, err := s.repo.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Require().NotNil(session)
	s.Equal(user.Handle, session.UserID)
}

func (s *AuthPublicTestSuite) TestLoginWrongPassword() {
	ticket, err := s.login("battery staple", "session-2")
	s.Require().NoError(err)
	s.Nil(ticket)
}

func (s *AuthPublicTestSuite) TestLoginUnknownUser() {
	_, err := s.service.Login(s.ctx, "mdstudio", "mallory:nonce", auth.LoginDetails{
		AuthPhase: auth.PhasePreChallenge,
		SessionID: "session-3",
	})
	s.Require().Error(err)
	s.Equal("No such user", err.Error())
}

func (s *AuthPublicTestSuite) TestLoginMalformedAuthID() {
	_, err := s.service.Login(s.ctx, "mdstudio", "no-nonce", auth.LoginDetails{
		AuthPhase: auth.PhasePreChallenge,
		SessionID: "session-4",
	})
	s.Error(err)
}

func (s *AuthPublicTestSuite) TestLogout() {
	_, err := s.login(alicePassword, "session-5")
	s.Require().NoError(err)

	message, err := s.service.Logout(s.ctx, "alice", "session-5")
	s.Require().NoError(err)
	s.Equal("alice you are now logged out", message)

	// The session is gone; a second logout falls through.
	message, err = s.service.Logout(s.ctx, "alice", "session-5")
	s.Require().NoError(err)
	s.Equal("Unknown user, unable to logout", message)

	message, err = s.service.Logout(s.ctx, "mallory", "session-5")
	s.Require().NoError(err)
	s.Equal("Unknown user, unable to logout", message)
}
