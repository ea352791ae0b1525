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
	"encoding/json"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mdstudio/mdauth/internal/cli"
	"github.com/mdstudio/mdauth/internal/scram"
)

// credentialGenerateCmd represents the credentialGenerate command.
var credentialGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a password verifier",
	Long: `Derive the stored verifier material for a password, as persisted for a
provisioned user. The plaintext password never appears in the output.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		password, _ := cmd.Flags().GetString("password")
		output, _ := cmd.Flags().GetString("output")

		credential, err := scram.NewCredential(password)
		if err != nil {
			cli.LogFatal(logger, "failed to generate credential", err)
		}

		if output != "" {
			data, err := json.MarshalIndent(credential, "", "  ")
			if err != nil {
				cli.LogFatal(logger, "failed to marshal credential", err)
			}
			if err := afero.WriteFile(appFs, output, data, 0o600); err != nil {
				cli.LogFatal(logger, "failed to write credential", err)
			}

			logger.Info("wrote credential", slog.String("output", output))
			return
		}

		logger.Info(
			"generated credential",
			slog.String("salt", credential.Salt),
			slog.Int("iterations", credential.Iterations),
			slog.String("stored_key", credential.StoredKey),
			slog.String("server_key", credential.ServerKey),
		)
	},
}

func init() {
	credentialCmd.AddCommand(credentialGenerateCmd)

	credentialGenerateCmd.PersistentFlags().
		StringP("password", "p", "", "Password to derive the verifier from")
	credentialGenerateCmd.PersistentFlags().
		StringP("output", "o", "", "Write the credential as JSON to this file")

	_ = credentialGenerateCmd.MarkPersistentFlagRequired("password")
}
