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

package v1

import (
	"path/filepath"
	"strings"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
)

const maskedValue = "****"

// CommandSpec is a single invocation of an external TPM tool. It is built once
// by the tpm package builders and executed once; it is never modified after
// construction.
type CommandSpec struct {
	Path string
	Args []string
	// Env holds KEY=VALUE pairs appended to the inherited environment
	Env []string
	// Dir is the working directory of the tool, where it reads and writes key files
	Dir string
}

// Tool returns the base name of the tool
func (c CommandSpec) Tool() string {
	return filepath.Base(c.Path)
}

// Argv returns a copy of the full argument vector, tool path first
func (c CommandSpec) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// String renders the command line with any password value masked
func (c CommandSpec) String() string {
	masked := make([]string, 0, len(c.Args)+1)
	masked = append(masked, c.Path)
	secret := false
	for _, arg := range c.Args {
		if secret {
			masked = append(masked, maskedValue)
			secret = false
			continue
		}
		masked = append(masked, arg)
		for _, flag := range constants.GetPasswordFlags() {
			if arg == flag {
				secret = true
				break
			}
		}
	}
	return strings.Join(masked, " ")
}

// ExecutionResult is the outcome of a tool that could be started. A nonzero
// ExitCode is a regular result, not an error.
type ExecutionResult struct {
	ExitCode int
	// Lines are the stdout lines, trimmed, in emission order
	Lines []string
	// Stderr lines are kept only for diagnostics, parsers never look at them
	Stderr []string
}

// Success reports if the tool exited with status 0
func (r ExecutionResult) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout followed by stderr, used to report failures verbatim
func (r ExecutionResult) Output() []string {
	out := make([]string, 0, len(r.Lines)+len(r.Stderr))
	out = append(out, r.Lines...)
	return append(out, r.Stderr...)
}

// SplitLines splits tool output on newlines, trims every line and drops
// trailing empty lines. Inner empty lines are kept so line indexes match
// what the tool printed.
func SplitLines(out []byte) []string {
	raw := strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
