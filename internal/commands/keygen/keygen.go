// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package keygen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/uri-agent/internal/auth"
	"github.com/tombee/uri-agent/internal/log"
)

// NewCommand creates the keygen command
func NewCommand() *cobra.Command {
	var (
		outPath string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random API key",
		Long: `Keygen prints a new random API key suitable for API_KEY, or writes it
to a file readable only by its owner.`,
		Example: `  uri-agent keygen
  uri-agent keygen --out /etc/uri-agent/api_key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}

			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			}

			if err := writeKey(outPath, key, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "API key %s written to %s\n", log.SanitizeAPIKey(key), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the key to this file (mode 0600)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func writeKey(path, key string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := f.WriteString(key + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
