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

// Package scram implements the salted challenge-response primitives of the
// login protocol (SCRAM with SHA-256). Neither party ever transmits the
// plaintext password: the server persists only storedKey and serverKey, both
// irreversible derivations of the salted password, and each login attempt is
// verified from those plus the two session nonces. The exchange is stateless
// on the server between the two phases.
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 iteration count for new credentials.
const DefaultIterations = 4096

// saltLength is the random salt size in bytes for new credentials.
const saltLength = 16

// authIDSeparator joins username and client nonce in the transport authid.
const authIDSeparator = ":"

// Credential is the persisted verifier material for one user. Salt and
// iteration count are not secret; StoredKey doubles as the challenge-response
// secret handed to the client during preChallenge.
type Credential struct {
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
	StoredKey  string `json:"storedKey"`
	ServerKey  string `json:"serverKey"`
}

// NewCredential derives fresh verifier material for a password using a
// random salt.
func NewCredential(
	password string,
) (Credential, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("generate salt: %w", err)
	}

	salted := SaltedPassword([]byte(password), salt, DefaultIterations)

	return Credential{
		Salt:       hex.EncodeToString(salt),
		Iterations: DefaultIterations,
		StoredKey:  hex.EncodeToString(StoredKey(ClientKey(salted))),
		ServerKey:  hex.EncodeToString(ServerKey(salted)),
	}, nil
}

// SaltedPassword stretches the password with PBKDF2-HMAC-SHA-256.
func SaltedPassword(
	password []byte,
	salt []byte,
	iterations int,
) []byte {
	return pbkdf2.Key(password, salt, iterations, sha256.Size, sha256.New)
}

// ClientKey derives the client key from the salted password.
func ClientKey(
	saltedPassword []byte,
) []byte {
	return hmacSum(saltedPassword, []byte("Client Key"))
}

// StoredKey is the hash of the client key; it is what the server persists
// and what proof verification reduces to.
func StoredKey(
	clientKey []byte,
) []byte {
	sum := sha256.Sum256(clientKey)
	return sum[:]
}

// ServerKey derives the server key from the salted password; it signs the
// server proof for mutual authentication.
func ServerKey(
	saltedPassword []byte,
) []byte {
	return hmacSum(saltedPassword, []byte("Server Key"))
}

// AuthMessage binds the two session nonces into the message both signatures
// cover.
func AuthMessage(
	clientNonce string,
	serverNonce string,
) []byte {
	return []byte(clientNonce + "," + serverNonce)
}

// ClientSignature computes HMAC(storedKey, authMessage).
func ClientSignature(
	storedKey []byte,
	authMessage []byte,
) []byte {
	return hmacSum(storedKey, authMessage)
}

// ClientProof XORs the client key with the client signature. The operation
// is its own inverse, so it also recovers the client key from a proof.
func ClientProof(
	clientKey []byte,
	clientSignature []byte,
) []byte {
	if len(clientKey) != len(clientSignature) {
		return nil
	}
	out := make([]byte, len(clientKey))
	for i := range clientKey {
		out[i] = clientKey[i] ^ clientSignature[i]
	}

	return out
}

// ServerProof computes HMAC(serverKey, authMessage), returned to the client
// on success so it can authenticate the server in turn.
func ServerProof(
	serverKey []byte,
	authMessage []byte,
) []byte {
	return hmacSum(serverKey, authMessage)
}

// VerifyClientProof recovers the client key from the supplied proof and
// checks that it hashes to the stored key. A wrong password produces a
// mismatching key, never an error.
func VerifyClientProof(
	proof []byte,
	storedKey []byte,
	authMessage []byte,
) bool {
	signature := ClientSignature(storedKey, authMessage)
	clientKey := ClientProof(proof, signature)
	if clientKey == nil {
		return false
	}

	return hmac.Equal(StoredKey(clientKey), storedKey)
}

// SplitAuthID splits the transport authid into username and client nonce.
func SplitAuthID(
	authid string,
) (string, string, error) {
	username, nonce, found := strings.Cut(authid, authIDSeparator)
	if !found || username == "" || nonce == "" {
		return "", "", fmt.Errorf("malformed authid")
	}

	return username, nonce, nil
}

// JoinAuthID builds the transport authid from username and client nonce.
func JoinAuthID(
	username string,
	nonce string,
) string {
	return username + authIDSeparator + nonce
}

// Nonce returns a fresh random hex nonce.
func Nonce() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}

func hmacSum(
	key []byte,
	message []byte,
) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)

	return mac.Sum(nil)
}
