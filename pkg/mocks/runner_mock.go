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

package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

type FakeRunner struct {
	mu          sync.Mutex
	cmds        [][]string
	specs       []v1.CommandSpec
	ReturnValue *v1.ExecutionResult
	SideEffect  func(spec v1.CommandSpec) (*v1.ExecutionResult, error)
	ReturnError error
	Logger      v1.Logger
	CmdNotFound string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{cmds: [][]string{}, ReturnValue: &v1.ExecutionResult{}, SideEffect: nil, ReturnError: nil}
}

// Output returns a successful result holding the given stdout lines
func Output(lines ...string) *v1.ExecutionResult {
	return &v1.ExecutionResult{Lines: lines}
}

// Failure returns a result for a tool exiting with the given code and output
func Failure(code int, lines ...string) *v1.ExecutionResult {
	return &v1.ExecutionResult{ExitCode: code, Lines: lines}
}

func (r *FakeRunner) CommandExists(command string) bool {
	return command != r.CmdNotFound
}

func (r *FakeRunner) Run(_ context.Context, spec v1.CommandSpec) (*v1.ExecutionResult, error) {
	r.debug(fmt.Sprintf("Running cmd: '%s'", spec.String()))
	r.mu.Lock()
	r.cmds = append(r.cmds, spec.Argv())
	r.specs = append(r.specs, spec)
	r.mu.Unlock()

	if r.SideEffect != nil {
		return r.SideEffect(spec)
	}
	if r.ReturnError != nil {
		return nil, r.ReturnError
	}
	res := *r.ReturnValue
	return &res, nil
}

func (r *FakeRunner) ClearCmds() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = [][]string{}
	r.specs = nil
}

// CmdsMatch matches the commands list in order. Note HasPrefix is being used to evaluate the
// match, so expecting initial part of the command is enough to get a match.
// It facilitates testing commands with dynamic arguments (aka temporary files)
func (r *FakeRunner) CmdsMatch(cmdList [][]string) error {
	if len(cmdList) != len(r.cmds) {
		return fmt.Errorf("number of calls mismatch, expected %d calls but got %d", len(cmdList), len(r.cmds))
	}
	for i, cmd := range cmdList {
		expect := strings.Join(cmd[:], " ")
		got := strings.Join(r.cmds[i][:], " ")
		if !strings.HasPrefix(got, expect) {
			return fmt.Errorf("Expected command: '%s.*' got: '%s'", expect, got)
		}
	}
	return nil
}

// IncludesCmds checks the given commands were executed in any order.
// Note it uses HasPrefix to match commands, see CmdsMatch.
func (r *FakeRunner) IncludesCmds(cmdList [][]string) error {
	for _, cmd := range cmdList {
		expect := strings.Join(cmd[:], " ")
		found := false
		for _, rcmd := range r.cmds {
			got := strings.Join(rcmd[:], " ")
			if strings.HasPrefix(got, expect) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("command '%s.*' not found", expect)
		}
	}
	return nil
}

// MatchMilestones matches all the given commands were executed in the provided
// order. Note it uses HasPrefix to match commands, see CmdsMatch.
func (r *FakeRunner) MatchMilestones(cmdList [][]string) error {
	var match string
	for _, cmd := range r.cmds {
		if len(cmdList) == 0 {
			break
		}
		got := strings.Join(cmd[:], " ")
		match = strings.Join(cmdList[0][:], " ")
		if !strings.HasPrefix(got, match) {
			continue
		}

		cmdList = cmdList[1:]
	}

	if len(cmdList) > 0 {
		return fmt.Errorf("command '%s' not executed", match)
	}

	return nil
}

// GetCmds returns the list of commands recorded by this FakeRunner instance
// this is helpful to debug tests
func (r *FakeRunner) GetCmds() [][]string {
	return r.cmds
}

// GetSpecs returns the recorded command specs, including environment and working dir
func (r *FakeRunner) GetSpecs() []v1.CommandSpec {
	return r.specs
}

func (r *FakeRunner) GetLogger() v1.Logger {
	return r.Logger
}

func (r *FakeRunner) SetLogger(logger v1.Logger) {
	r.Logger = logger
}

func (r *FakeRunner) debug(msg string) {
	if r.Logger != nil {
		r.Logger.Debug(msg)
	}
}
