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

// Package lifecycle manages process-level state for a running agent.
package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrPIDFileLocked is returned when another running agent holds the PID file.
	ErrPIDFileLocked = errors.New("PID file is locked by another process")

	// ErrInvalidPID is returned when the PID file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is world-writable.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// PIDFile is an exclusively locked file holding the agent's process id.
// A file left behind by a crashed agent is not locked and is taken over.
type PIDFile struct {
	path string
	f    *os.File
}

// AcquirePIDFile creates or takes over the file at path, locks it and writes
// pid. The lock is held until Release.
func AcquirePIDFile(path string, pid int) (*PIDFile, error) {
	dir := filepath.Dir(path)
	if err := verifyDirectorySafety(dir); err != nil {
		return nil, fmt.Errorf("unsafe PID file location: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create PID file directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open PID file: %w", err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.Truncate(0); err != nil {
		unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("failed to truncate PID file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("failed to write PID: %w", err)
	}
	if err := f.Sync(); err != nil {
		unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("failed to sync PID file: %w", err)
	}

	return &PIDFile{path: path, f: f}, nil
}

// Path returns the file location.
func (p *PIDFile) Path() string {
	return p.path
}

// Release removes the file and drops the lock. Safe to call more than once.
func (p *PIDFile) Release() error {
	if p.f == nil {
		return nil
	}

	// Remove while still locked so a concurrent starter cannot lock the
	// old inode and then lose it.
	err := os.Remove(p.path)
	unlockFile(p.f)
	p.f.Close()
	p.f = nil

	// Windows refuses to remove an open file.
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		err = os.Remove(p.path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// ReadPID returns the process id stored at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, pidStr)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}
	return pid, nil
}

func verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if mode := info.Mode(); mode&0o002 != 0 && mode&os.ModeSticky == 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}
	return nil
}
