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

// Package config holds the service configuration schema.
package config

// Config represents the root structure of the YAML configuration file.
// This struct is used to unmarshal configuration data from Viper.
type Config struct {
	NATS    NATS    `mapstructure:"nats"`
	Mongo   Mongo   `mapstructure:"mongo"`
	Auth    Auth    `mapstructure:"auth"    mask:"struct"`
	Metrics Metrics `mapstructure:"metrics"`
	// ShutdownTimeout bounds graceful shutdown of the bus server, e.g. "30s".
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
	// Debug enable or disable debug option set from CLI.
	Debug bool `mapstructure:"debug"`
}

// NATS connection settings for the message bus.
type NATS struct {
	// URL the NATS server url.
	URL string `mapstructure:"url" validate:"required"`
	// ClientName the NATS client name for identification.
	ClientName string `mapstructure:"client_name"`
	// QueueGroup for load balancing multiple service instances.
	QueueGroup string `mapstructure:"queue_group"`
}

// Mongo connection settings for the identity store.
type Mongo struct {
	// URI the MongoDB connection string.
	URI string `mapstructure:"uri"      validate:"required"`
	// Database holding the identity collections.
	Database string `mapstructure:"database" validate:"required"`
}

// Auth service settings.
type Auth struct {
	// Realm the authentication realm announced to clients.
	Realm string `mapstructure:"realm"`
	// SigningKey optional hex-encoded claims signing key; a random
	// process-lifetime key is generated when empty.
	SigningKey string `mapstructure:"signing_key" mask:"password"`
	// ClaimTTL claim token lifetime, e.g. "60s".
	ClaimTTL string `mapstructure:"claim_ttl"`
	// Provisioning entities seeded idempotently at startup.
	Provisioning Provisioning `mapstructure:"provisioning,omitempty" mask:"struct"`
}

// Provisioning lists the users and groups seeded at startup.
type Provisioning struct {
	Users  []ProvisionUser  `mapstructure:"users"  validate:"dive"`
	Groups []ProvisionGroup `mapstructure:"groups" validate:"dive"`
}

// ProvisionUser is one seeded account.
type ProvisionUser struct {
	// Username for the user.
	Username string `mapstructure:"username" validate:"required"`
	// Password for the user; only its derived verifier is stored.
	Password string `mapstructure:"password" validate:"required" mask:"password"`
	// Email for the user.
	Email string `mapstructure:"email"    validate:"required"`
}

// ProvisionGroup is one seeded group with its adopted components.
type ProvisionGroup struct {
	// GroupName unique name of the group.
	GroupName string `mapstructure:"group_name" validate:"required"`
	// Owner username of the group creator.
	Owner string `mapstructure:"owner"      validate:"required"`
	// Components adopted by the group.
	Components []string `mapstructure:"components"`
}

// Metrics configuration settings for Prometheus metrics.
type Metrics struct {
	// ListenAddr address for the scrape endpoint; disabled when empty.
	ListenAddr string `mapstructure:"listen_addr"`
	// Path is the HTTP path for the Prometheus scrape endpoint.
	// Defaults to "/metrics" when empty.
	Path string `mapstructure:"path"`
}
