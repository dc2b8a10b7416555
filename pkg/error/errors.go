/*
Copyright © 2022 - 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package error

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a missing, malformed or contradictory option. It is
// always raised before any tool runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid option '%s': %s", e.Field, e.Reason)
}

// NewValidationError returns a ValidationError for the given field
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LaunchError reports a tool that could not be started or that was killed
// before completion (timeout or cancellation).
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed launching '%s': %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ToolError reports a tool that ran and exited with a nonzero status. Output holds
// the captured lines verbatim.
type ToolError struct {
	Command  string
	ExitCode int
	Output   []string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("'%s' exited with code %d", e.Command, e.ExitCode)
	if len(e.Output) > 0 {
		msg = fmt.Sprintf("%s:\n%s", msg, strings.Join(e.Output, "\n"))
	}
	return msg
}

// ResponseCode returns the TSS response code printed by the IBM TSS utilities
// on failure, the fourth token of the first output line, or an empty string
func (e *ToolError) ResponseCode() string {
	if len(e.Output) == 0 {
		return ""
	}
	fields := strings.Fields(e.Output[0])
	if len(fields) < 4 {
		return ""
	}
	return fields[3]
}

// ParseError reports tool output that does not have the expected shape
type ParseError struct {
	Field  string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("failed parsing %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("failed parsing %s at line %d '%s': %s", e.Field, e.Line, e.Text, e.Reason)
}

// UnsupportedHandleKindError reports a handle whose type tag can't be decommissioned
type UnsupportedHandleKindError struct {
	Handle uint32
}

func (e *UnsupportedHandleKindError) Error() string {
	return fmt.Sprintf("unknown handle type: %08x", e.Handle)
}

// ExitCodeFor returns the exit code matching the type of the given error
func ExitCodeFor(err error) int {
	var vErr *ValidationError
	var lErr *LaunchError
	var tErr *ToolError
	var pErr *ParseError
	var hErr *UnsupportedHandleKindError
	var aErr *TPMAdminError

	switch {
	case err == nil:
		return 0
	case errors.As(err, &aErr):
		return aErr.ExitCode()
	case errors.As(err, &vErr):
		return ValidationFailed
	case errors.As(err, &lErr):
		return LaunchFailed
	case errors.As(err, &tErr):
		return ToolFailed
	case errors.As(err, &pErr):
		return ParseFailed
	case errors.As(err, &hErr):
		return UnsupportedHandle
	default:
		return Unknown
	}
}
