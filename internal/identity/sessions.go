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
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mdstudio/mdauth/internal/document"
)

// StartSession opens a session record at login completion. At most one
// session exists per (userID, sessionID) pair; a second start for the same
// pair leaves the stored record untouched.
func (r *Repository) StartSession(
	ctx context.Context,
	userID string,
	sessionID string,
	accessToken string,
) error {
	session := &Session{
		UserID:      userID,
		SessionID:   sessionID,
		AccessToken: accessToken,
		CreatedAt:   r.now(),
	}

	_, err := r.store.FindOneAndUpdate(ctx, document.ColSessions,
		bson.M{
			"userId":    userID,
			"sessionId": sessionID,
		},
		bson.M{"$setOnInsert": session.Document()},
		document.UpdateOptions{Upsert: true},
	)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	return nil
}

// GetSession returns the session with the given transport session id, or nil.
func (r *Repository) GetSession(
	ctx context.Context,
	sessionID string,
) (*Session, error) {
	doc, err := r.store.FindOne(ctx, document.ColSessions,
		bson.M{"sessionId": sessionID},
		bson.M{"_id": false},
	)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return SessionFromDocument(doc), nil
}

// EndSession deletes the session at logout and reports whether one existed.
func (r *Repository) EndSession(
	ctx context.Context,
	userID string,
	sessionID string,
) (bool, error) {
	deleted, err := r.store.DeleteMany(ctx, document.ColSessions,
		bson.M{
			"userId":    userID,
			"sessionId": sessionID,
		},
	)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}

	return deleted > 0, nil
}
