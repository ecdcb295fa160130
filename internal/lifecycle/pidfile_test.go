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

package lifecycle

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquirePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "uri-agent.pid")

	p, err := AcquirePIDFile(path, 1234)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, path, p.Path())

	if runtime.GOOS != "windows" {
		pid, err := ReadPID(path)
		require.NoError(t, err)
		assert.Equal(t, 1234, pid)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestAcquirePIDFile_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uri-agent.pid")

	first, err := AcquirePIDFile(path, 1)
	require.NoError(t, err)
	defer first.Release()

	second, err := AcquirePIDFile(path, 2)
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrPIDFileLocked)
}

func TestAcquirePIDFile_TakesOverStaleFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ReadPID cannot read a locked file on Windows")
	}
	path := filepath.Join(t.TempDir(), "uri-agent.pid")
	require.NoError(t, os.WriteFile(path, []byte("999999999\nleftover"), 0o600))

	p, err := AcquirePIDFile(path, 42)
	require.NoError(t, err)
	defer p.Release()

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, 42, pid)
}

func TestPIDFile_Release(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uri-agent.pid")

	p, err := AcquirePIDFile(path, 7)
	require.NoError(t, err)

	require.NoError(t, p.Release())
	require.NoError(t, p.Release(), "second Release is a no-op")

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Released files can be acquired again.
	again, err := AcquirePIDFile(path, 8)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestAcquirePIDFile_UnsafeDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}

	dir := filepath.Join(t.TempDir(), "shared")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.Chmod(dir, 0o777))

	_, err := AcquirePIDFile(filepath.Join(dir, "uri-agent.pid"), 1)
	assert.ErrorIs(t, err, ErrUnsafeDirectory)
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int
		wantErr error
	}{
		{"valid", "1234\n", 1234, nil},
		{"padded", "  77  ", 77, nil},
		{"not a number", "abc", 0, ErrInvalidPID},
		{"zero", "0", 0, ErrInvalidPID},
		{"negative", "-5", 0, ErrInvalidPID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".pid")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			pid, err := ReadPID(path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, pid)
		})
	}

	_, err := ReadPID(filepath.Join(dir, "missing.pid"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
