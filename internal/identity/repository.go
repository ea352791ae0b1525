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

package identity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mdstudio/mdauth/internal/document"
)

// Repository implements the identity and permission operations on top of the
// document store. Every create is an existence-filtered upsert, so re-running
// a create with identical arguments returns the already stored entity instead
// of failing; every multi-step mutation is a single conditional update
// against one group document.
type Repository struct {
	logger *slog.Logger
	store  document.Store

	now       func() time.Time
	newHandle func() string
}

// RepositoryOption customizes a Repository.
type RepositoryOption func(*Repository)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(
	now func() time.Time,
) RepositoryOption {
	return func(r *Repository) {
		r.now = now
	}
}

// WithHandleFunc overrides handle generation, for tests.
func WithHandleFunc(
	newHandle func() string,
) RepositoryOption {
	return func(r *Repository) {
		r.newHandle = newHandle
	}
}

// NewRepository factory to create a new instance.
func NewRepository(
	logger *slog.Logger,
	store document.Store,
	opts ...RepositoryOption,
) *Repository {
	r := &Repository{
		logger:    logger,
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		newHandle: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// resolveHandle maps a username to its stable handle, or "" when the user
// does not exist. Callers treat "" as not-authorized rather than an error.
func (r *Repository) resolveHandle(
	ctx context.Context,
	username string,
) (string, error) {
	user, err := r.FindUser(ctx, UserQuery{Username: username})
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}

	return user.Handle, nil
}
