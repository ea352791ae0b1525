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

package config_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mdstudio/mdauth/internal/config"
)

type ValidatePublicTestSuite struct {
	suite.Suite
}

func TestValidatePublicTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatePublicTestSuite))
}

func (s *ValidatePublicTestSuite) valid() config.Config {
	return config.Config{
		NATS: config.NATS{
			URL: "nats://localhost:4222",
		},
		Mongo: config.Mongo{
			URI:      "mongodb://localhost:27017",
			Database: "mdauth",
		},
	}
}

func (s *ValidatePublicTestSuite) TestValidate() {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{
			name:   "when the config is complete",
			mutate: func(_ *config.Config) {},
		},
		{
			name:    "when the nats url is missing",
			mutate:  func(c *config.Config) { c.NATS.URL = "" },
			wantErr: true,
		},
		{
			name:    "when the mongo uri is missing",
			mutate:  func(c *config.Config) { c.Mongo.URI = "" },
			wantErr: true,
		},
		{
			name:    "when the mongo database is missing",
			mutate:  func(c *config.Config) { c.Mongo.Database = "" },
			wantErr: true,
		},
		{
			name: "when a provisioned user lacks a password",
			mutate: func(c *config.Config) {
				c.Auth.Provisioning.Users = []config.ProvisionUser{
					{Username: "alice", Email: "alice@example.com"},
				}
			},
			wantErr: true,
		},
		{
			name: "when a provisioned group lacks an owner",
			mutate: func(c *config.Config) {
				c.Auth.Provisioning.Groups = []config.ProvisionGroup{
					{GroupName: "foogroup"},
				}
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			cfg := s.valid()
			tc.mutate(&cfg)

			err := config.Validate(&cfg)

			if tc.wantErr {
				s.Error(err)
				return
			}
			s.NoError(err)
		})
	}
}
