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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// Process exit codes.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitTLSError    = 3
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCode picks the exit code for err. An explicit ExitError wins; otherwise
// configuration errors map to 2 and TLS material errors to 3.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var tlsErr *agenterrors.TLSError
	if errors.As(err, &tlsErr) {
		return ExitTLSError
	}

	var cfgErr *agenterrors.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	return ExitFailure
}

// Report writes err and any suggestion to w and returns the exit code.
func Report(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintln(w, "Error:", err.Error())
	printUserVisibleSuggestion(w, err)

	return ExitCode(err)
}

// HandleExitError reports err on stderr and exits with the matching code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err))
}

// printUserVisibleSuggestion walks the chain to the first UserVisibleError
// and prints its suggestion, if any.
func printUserVisibleSuggestion(w io.Writer, err error) {
	for err != nil {
		if userErr, ok := err.(agenterrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				if suggestion := userErr.Suggestion(); suggestion != "" {
					fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
				}
			}
			return
		}
		err = errors.Unwrap(err)
	}
}
