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

package authz

import (
	"log/slog"
)

// Vendor is the uri prefix and privileged group all internal components
// register under.
const Vendor = "mdstudio"

// Ring0Roles are the internal service roles trusted at the ring0 tier.
var Ring0Roles = []string{"db", "cache", "schema", "auth", "logger"}

// Decision is the verdict returned to the bus for an allowed action.
// Disclose controls whether the caller identity is revealed to the callee.
type Decision struct {
	Allow    bool `json:"allow"`
	Disclose bool `json:"disclose"`
}

// Authorizer evaluates the static rule sets for the privileged tiers. The
// regular user tier is decided against stored permissions elsewhere; only the
// small fixed allowlist for the auth endpoints themselves lives here.
type Authorizer struct {
	logger    *slog.Logger
	ring0     []Rule
	userRules []Rule
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
) *Authorizer {
	return &Authorizer{
		logger: logger,
		ring0: []Rule{
			NewPrefixRule(Vendor+"."+rolePlaceholder+".", "*"),
			NewPrefixRule(Vendor + ".auth.endpoint.oauth.registerscopes." + rolePlaceholder),
			NewRegexRule(`^`+Vendor+`\.\w+\.endpoint\.events\.\w+`, "subscribe"),
			NewRegexRule(`^` + Vendor + `\.db\.endpoint\.\w+`),
			NewExactRule(Vendor + ".auth.endpoint.oauth.client.getusername"),
			NewExactRule(Vendor + ".auth.endpoint.sign"),
			NewExactRule(Vendor + ".auth.endpoint.verify"),
			NewExactRule(Vendor + ".schema.endpoint.upload"),
			NewExactRule(Vendor + ".schema.endpoint.get"),
			NewExactRule(Vendor + ".logger.endpoint.log"),
			NewExactRule(Vendor + ".auth.endpoint.ring0.get-status"),
			NewExactRule(Vendor + ".auth.endpoint.ring0.set-status"),
		},
		userRules: []Rule{
			NewExactRule(Vendor + ".auth.endpoint.sign"),
			NewExactRule(Vendor + ".auth.endpoint.verify"),
			NewExactRule(Vendor + ".auth.endpoint.login"),
			NewExactRule(Vendor + ".auth.endpoint.logout"),
		},
	}
}

// IsRing0Role reports whether role is one of the trusted internal service
// roles.
func IsRing0Role(
	role string,
) bool {
	for _, r := range Ring0Roles {
		if r == role {
			return true
		}
	}

	return false
}

// AuthorizeRing0 checks an internal component action against the ring0 rule
// set. Internal callers are always disclosed to each other. A nil return
// means no rule matched and the action is denied.
func (a *Authorizer) AuthorizeRing0(
	uri string,
	action string,
	role string,
) *Decision {
	for _, rule := range a.ring0 {
		if rule.Match(uri, action, role) {
			return &Decision{Allow: true, Disclose: true}
		}
	}

	return nil
}

// AuthorizeUser checks the static user allowlist covering the auth endpoints
// every authenticated user may reach. Actions on other uris must pass the
// stored permission check instead.
func (a *Authorizer) AuthorizeUser(
	uri string,
	action string,
) bool {
	for _, rule := range a.userRules {
		if rule.Match(uri, action, "") {
			return true
		}
	}

	return false
}
