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

package cmd

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/spf13/cobra"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mdstudio/mdauth/internal/auth"
	"github.com/mdstudio/mdauth/internal/authz"
	"github.com/mdstudio/mdauth/internal/claims"
	"github.com/mdstudio/mdauth/internal/cli"
	"github.com/mdstudio/mdauth/internal/document"
	"github.com/mdstudio/mdauth/internal/identity"
)

// startCmd represents the top-level start command.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the auth service",
	Long: `Start the auth service: connect to MongoDB and NATS, provision the
configured identities, and serve the bus endpoints until SIGINT/SIGTERM.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		mongoClient, err := mongod.Connect(
			options.Client().ApplyURI(appConfig.Mongo.URI),
		)
		if err != nil {
			cli.LogFatal(logger, "failed to connect to mongodb", err)
		}

		store := document.NewMongo(
			mongoClient.Database(appConfig.Mongo.Database),
		)
		if err := store.Migrate(ctx); err != nil {
			cli.LogFatal(logger, "failed to migrate indexes", err)
		}

		nc, err := cli.ConnectNATS(appConfig.NATS)
		if err != nil {
			cli.LogFatal(logger, "failed to connect to nats", err)
		}

		repo := identity.NewRepository(logger.With("component", "identity"), store)

		signerOpts := []claims.SignerOption{}
		if appConfig.Auth.SigningKey != "" {
			key, err := hex.DecodeString(appConfig.Auth.SigningKey)
			if err != nil {
				cli.LogFatal(logger, "failed to decode signing key", err)
			}
			signerOpts = append(signerOpts, claims.WithKey(key))
		}
		if appConfig.Auth.ClaimTTL != "" {
			ttl, err := time.ParseDuration(appConfig.Auth.ClaimTTL)
			if err != nil {
				cli.LogFatal(logger, "failed to parse claim ttl", err)
			}
			signerOpts = append(signerOpts, claims.WithTTL(ttl))
		}

		signer, err := claims.NewSigner(logger.With("component", "claims"), signerOpts...)
		if err != nil {
			cli.LogFatal(logger, "failed to create signer", err)
		}

		service := auth.New(
			logger.With("component", "auth"),
			appConfig,
			repo,
			signer,
			authz.New(logger.With("component", "authz")),
			auth.NewMetrics(),
		)

		if err := service.Provision(ctx); err != nil {
			cli.LogFatal(logger, "failed to provision identities", err)
		}

		var shutdownTimeout time.Duration
		if appConfig.ShutdownTimeout != "" {
			shutdownTimeout, err = time.ParseDuration(appConfig.ShutdownTimeout)
			if err != nil {
				cli.LogFatal(logger, "failed to parse shutdown timeout", err)
			}
		}

		server := auth.NewServer(logger.With("component", "server"), service, nc)
		server.Start()

		cli.RunServer(ctx, server, shutdownTimeout, func() {
			cli.CloseNATS(nc)
			_ = mongoClient.Disconnect(context.Background())
		})
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
