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

package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is the maximum allowed secret file size (64KB).
	MaxFileSize = 64 * 1024
)

// FileProviderConfig controls file provider settings.
type FileProviderConfig struct {
	// MaxSize is the maximum file size in bytes.
	// Default: 64KB
	MaxSize int64

	// AllowRelative accepts relative paths. Relative paths are resolved
	// against the working directory, which is rarely what a supervised
	// service wants.
	// Default: false
	AllowRelative bool
}

// FileProvider implements secret resolution from files.
//
// Reference format:
//   - /etc/uri-agent/mongodb_uri
//
// The file contents are trimmed of surrounding whitespace. A missing or
// empty file counts as absent; a file that exists but cannot be read, is a
// directory, or exceeds MaxSize is an error.
type FileProvider struct {
	config FileProviderConfig
}

// NewFileProvider creates a new file secret provider.
func NewFileProvider(config FileProviderConfig) *FileProvider {
	if config.MaxSize == 0 {
		config.MaxSize = MaxFileSize
	}

	return &FileProvider{
		config: config,
	}
}

// Scheme returns the provider's identifier.
func (f *FileProvider) Scheme() string {
	return "file"
}

// Resolve retrieves a secret value from a file.
func (f *FileProvider) Resolve(ctx context.Context, reference string) (string, error) {
	if reference == "" {
		return "", notFound("file", reference, "no path configured")
	}

	if !f.config.AllowRelative && !filepath.IsAbs(reference) {
		return "", &ResolutionError{
			Scheme:    "file",
			Reference: reference,
			Reason:    "path must be absolute",
			Err:       fs.ErrInvalid,
		}
	}

	file, err := os.Open(filepath.Clean(reference))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("file", reference, "file does not exist")
		}
		return "", &ResolutionError{
			Scheme:    "file",
			Reference: reference,
			Reason:    "failed to open file",
			Err:       err,
		}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", &ResolutionError{Scheme: "file", Reference: reference, Reason: "failed to stat file", Err: err}
	}
	if info.IsDir() {
		return "", &ResolutionError{Scheme: "file", Reference: reference, Reason: "path is a directory", Err: fs.ErrInvalid}
	}
	if info.Size() > f.config.MaxSize {
		return "", &ResolutionError{
			Scheme:    "file",
			Reference: reference,
			Reason:    fmt.Sprintf("file exceeds %d bytes", f.config.MaxSize),
			Err:       fs.ErrInvalid,
		}
	}

	contents, err := io.ReadAll(io.LimitReader(file, f.config.MaxSize+1))
	if err != nil {
		return "", &ResolutionError{Scheme: "file", Reference: reference, Reason: "failed to read file", Err: err}
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", notFound("file", reference, "file is empty")
	}

	return value, nil
}
