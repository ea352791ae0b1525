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

// Package authz holds the static URI rule engine and the tiered authorizers
// fronting the permission resolver.
package authz

import (
	"regexp"
	"strings"
)

// Rule decides whether a caller role may perform an action on a uri.
type Rule interface {
	Match(uri string, action string, role string) bool
}

// rolePlaceholder in a prefix is substituted with the caller role, letting
// one rule cover every internal component namespace.
const rolePlaceholder = "{role}"

func matchAction(
	actions []string,
	action string,
) bool {
	for _, a := range actions {
		if a == "*" || a == action {
			return true
		}
	}

	return false
}

// PrefixRule allows actions on any uri under a prefix.
type PrefixRule struct {
	Prefix  string
	Actions []string
}

// NewPrefixRule creates a prefix rule; with no actions it defaults to call.
func NewPrefixRule(
	prefix string,
	actions ...string,
) PrefixRule {
	if len(actions) == 0 {
		actions = []string{"call"}
	}

	return PrefixRule{Prefix: prefix, Actions: actions}
}

// Match implements Rule.
func (r PrefixRule) Match(
	uri string,
	action string,
	role string,
) bool {
	prefix := strings.ReplaceAll(r.Prefix, rolePlaceholder, role)

	return strings.HasPrefix(uri, prefix) && matchAction(r.Actions, action)
}

// RegexRule allows actions on uris matching a pattern.
type RegexRule struct {
	Pattern *regexp.Regexp
	Actions []string
}

// NewRegexRule creates a regex rule; with no actions it defaults to call.
func NewRegexRule(
	pattern string,
	actions ...string,
) RegexRule {
	if len(actions) == 0 {
		actions = []string{"call"}
	}

	return RegexRule{Pattern: regexp.MustCompile(pattern), Actions: actions}
}

// Match implements Rule.
func (r RegexRule) Match(
	uri string,
	action string,
	_ string,
) bool {
	return matchAction(r.Actions, action) && r.Pattern.MatchString(uri)
}

// ExactRule allows actions on a single uri.
type ExactRule struct {
	URI     string
	Actions []string
}

// NewExactRule creates an exact rule; with no actions it defaults to call.
func NewExactRule(
	uri string,
	actions ...string,
) ExactRule {
	if len(actions) == 0 {
		actions = []string{"call"}
	}

	return ExactRule{URI: uri, Actions: actions}
}

// Match implements Rule.
func (r ExactRule) Match(
	uri string,
	action string,
	_ string,
) bool {
	return r.URI == uri && matchAction(r.Actions, action)
}
