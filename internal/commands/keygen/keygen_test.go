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
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^uak_[0-9a-f]{64}$`)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestKeygen_Stdout(t *testing.T) {
	first, err := execute(t)
	require.NoError(t, err)
	second, err := execute(t)
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, strings.TrimSpace(first))
	assert.NotEqual(t, first, second)
}

func TestKeygen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key")

	out, err := execute(t, "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out, "key is not echoed when written to a file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, strings.TrimSpace(string(data)))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestKeygen_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o600))

	_, err := execute(t, "--out", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\n", string(data))

	_, err = execute(t, "--out", path, "--force")
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, strings.TrimSpace(string(data)))
}
