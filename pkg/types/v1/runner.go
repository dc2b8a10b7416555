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
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
)

// Runner executes TPM tools. It is the only place crossing the process boundary.
type Runner interface {
	Run(ctx context.Context, spec CommandSpec) (*ExecutionResult, error)
	CommandExists(command string) bool
	GetLogger() Logger
	SetLogger(logger Logger)
}

type RealRunner struct {
	Logger Logger
	// Timeout bounds every single tool run, zero means no bound
	Timeout time.Duration
}

func (r RealRunner) InitCmd(ctx context.Context, spec CommandSpec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setProcessGroup(cmd)
	return cmd
}

// Run executes the given command and captures its output. It fails only if the
// tool can't be started or is killed on timeout or cancellation, both reported
// as a LaunchError. A nonzero exit status is returned in the result.
func (r RealRunner) Run(ctx context.Context, spec CommandSpec) (*ExecutionResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := r.InitCmd(ctx, spec)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.debugf("Running cmd: '%s'", spec.String())
	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			r.debugf("Command '%s' aborted: %v", spec.Tool(), ctx.Err())
			return nil, &tpmError.LaunchError{Command: spec.String(), Err: ctx.Err()}
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			r.debugf("Command '%s' could not be started: %v", spec.Tool(), err)
			return nil, &tpmError.LaunchError{Command: spec.String(), Err: err}
		}
	}

	result := &ExecutionResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Lines:    SplitLines(stdout.Bytes()),
		Stderr:   SplitLines(stderr.Bytes()),
	}
	if !result.Success() {
		r.debugf("Command '%s' exited with code %d", spec.Tool(), result.ExitCode)
	}
	return result, nil
}

func (r RealRunner) CommandExists(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

func (r RealRunner) GetLogger() Logger {
	return r.Logger
}

func (r *RealRunner) SetLogger(logger Logger) {
	r.Logger = logger
}

func (r RealRunner) debugf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Debugf(format, args...)
	}
}
