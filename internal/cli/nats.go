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

// Package cli provides shared utilities for CLI startup commands.
package cli

import (
	"github.com/nats-io/nats.go"

	"github.com/mdstudio/mdauth/internal/config"
)

// ConnectNATS connects to the message bus using the configured url and
// client name.
func ConnectNATS(
	cfg config.NATS,
) (*nats.Conn, error) {
	opts := []nats.Option{}
	if cfg.ClientName != "" {
		opts = append(opts, nats.Name(cfg.ClientName))
	}

	return nats.Connect(cfg.URL, opts...)
}

// CloseNATS safely closes a NATS connection, draining pending messages
// first.
func CloseNATS(
	nc *nats.Conn,
) {
	if nc != nil {
		_ = nc.Drain()
	}
}
