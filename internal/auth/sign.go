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
	"fmt"
	"strings"

	"github.com/mdstudio/mdauth/internal/authz"
	"github.com/mdstudio/mdauth/internal/claims"
	"github.com/mdstudio/mdauth/internal/identity"
)

// SignClaims validates the caller's identity assertions and issues a signed
// claim token. The claim set may not contain the reserved identity keys;
// group and role membership are asserted through the asGroup/asRole
// pseudo-keys, which are checked before being folded into the real claim.
// A denied user assertion returns ("", nil), a deliberate soft deny; an
// inconsistent assertion from an internal service role is a hard error since
// it indicates a programming mistake, not a forgery attempt.
func (s *Service) SignClaims(
	ctx context.Context,
	claimSet map[string]any,
	callerRole string,
	callerAuthID string,
) (string, error) {
	if claims.HasReservedKeys(claimSet) {
		return "", fmt.Errorf("illegal key detected in claims")
	}

	out := make(map[string]any, len(claimSet))
	for k, v := range claimSet {
		out[k] = v
	}

	asGroup, hasGroup, err := popString(out, "asGroup")
	if err != nil {
		return "", err
	}
	asRole, hasRole, err := popString(out, "asRole")
	if err != nil {
		return "", err
	}
	if hasRole && !hasGroup {
		return "", fmt.Errorf("cannot claim a role without the corresponding group")
	}

	switch {
	case authz.IsRing0Role(callerRole):
		out["username"] = callerRole

		if hasGroup {
			if asGroup != authz.Vendor {
				return "", fmt.Errorf("service role %s cannot claim group %s", callerRole, asGroup)
			}
			out["group"] = authz.Vendor
		}
		if hasRole {
			if asRole != callerRole {
				return "", fmt.Errorf("service role %s cannot claim role %s", callerRole, asRole)
			}
			out["role"] = callerRole
		}

	case callerRole == "user":
		user, err := s.repo.FindUser(ctx, identity.UserQuery{Username: callerAuthID})
		if err != nil {
			return "", err
		}
		if user == nil {
			return "", nil
		}

		out["username"] = user.Username

		if hasGroup {
			uri, _ := out["uri"].(string)
			action, _ := out["action"].(string)

			granted := s.authorizer.AuthorizeUser(uri, action)
			if !granted {
				parts := strings.SplitN(uri, ".", 4)
				if len(parts) == 4 && parts[0] == asGroup {
					granted, err = s.repo.CheckPermission(
						ctx,
						user.Username,
						asGroup,
						parts[1],
						parts[3],
						action,
						asRole,
					)
					if err != nil {
						return "", err
					}
				}
			}
			if !granted {
				return "", nil
			}

			out["group"] = asGroup
			if hasRole {
				out["role"] = asRole
			}
		}

	default:
		return "", fmt.Errorf("unsupported caller role %s", callerRole)
	}

	signed, err := s.signer.Sign(out)
	if err != nil {
		return "", err
	}
	s.metrics.RecordClaimsSigned()

	return signed, nil
}

// VerifyClaims decodes a previously signed claim token.
func (s *Service) VerifyClaims(
	tokenString string,
) claims.Result {
	result := s.signer.Verify(tokenString)

	switch {
	case result.Error != "":
		s.metrics.RecordClaimsVerified("error")
	case result.Expired != "":
		s.metrics.RecordClaimsVerified("expired")
	default:
		s.metrics.RecordClaimsVerified("ok")
	}

	return result
}

// popString removes a pseudo-key from the claim set. A key present with a
// non-string or empty value is an error: the caller asserted something
// unintelligible and must not fall through as an unasserted claim.
func popString(
	claimSet map[string]any,
	key string,
) (string, bool, error) {
	raw, ok := claimSet[key]
	if !ok {
		return "", false, nil
	}
	delete(claimSet, key)

	value, ok := raw.(string)
	if !ok || value == "" {
		return "", false, fmt.Errorf("claim %s must be a non-empty string", key)
	}

	return value, true, nil
}
