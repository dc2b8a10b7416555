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

package action

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

type TPMActionOption func(t *TPMAction) error

// WithClock sets the time source used when setting the TPM clock
func WithClock(now func() time.Time) func(t *TPMAction) error {
	return func(t *TPMAction) error {
		t.now = now
		return nil
	}
}

// TPMAction runs administrative operations against the TPM through the
// external tool-suite. Every operation holds the device lock for its whole
// flow and releases any handle it acquired before returning.
type TPMAction struct {
	cfg     *v1.Config
	builder tpm.Builder
	now     func() time.Time
}

func NewTPMAction(cfg *v1.Config, opts ...TPMActionOption) *TPMAction {
	t := &TPMAction{cfg: cfg, builder: tpm.NewBuilder(cfg), now: time.Now}

	for _, o := range opts {
		err := o(t)
		if err != nil {
			cfg.Logger.Errorf("error applying config option: %s", err.Error())
			return nil
		}
	}
	return t
}

var errToolNotFound = errors.New("tool not found, check tools-dir and tool-prefix")

// Builder returns the command builder used by this action
func (t *TPMAction) Builder() tpm.Builder {
	return t.builder
}

func (t *TPMAction) lock() func() {
	if t.cfg.Device == nil {
		return func() {}
	}
	return t.cfg.Device.Lock(t.cfg.Logger)
}

// run executes a single tool. A nonzero exit status is returned as a ToolError
// together with the captured result.
func (t *TPMAction) run(ctx context.Context, cmd v1.CommandSpec) (*v1.ExecutionResult, error) {
	if !t.cfg.Runner.CommandExists(cmd.Path) {
		return nil, &tpmError.LaunchError{Command: cmd.String(), Err: errToolNotFound}
	}
	res, err := t.cfg.Runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return res, &tpmError.ToolError{Command: cmd.String(), ExitCode: res.ExitCode, Output: res.Output()}
	}
	return res, nil
}

// flush releases a handle acquired during a flow. It ignores the flow cancellation
// so handles are released even if the operation was aborted.
func (t *TPMAction) flush(ctx context.Context, h tpm.Handle) error {
	cmd, err := t.builder.FlushContext(tpm.Options{"ha": h.String()})
	if err != nil {
		return err
	}
	_, err = t.run(context.WithoutCancel(ctx), cmd)
	return err
}

// loadKey loads the key of the given label and registers its flush on the clean stack
func (t *TPMAction) loadKey(ctx context.Context, cleanup *utils.CleanStack, opts tpm.Options) (tpm.Handle, error) {
	cmd, err := t.builder.Load(opts)
	if err != nil {
		return 0, err
	}
	res, err := t.run(ctx, cmd)
	if err != nil {
		return 0, err
	}
	h, err := tpm.ParseLoadResponse(res.Lines)
	if err != nil {
		return 0, err
	}
	t.cfg.Logger.Debugf("Loaded key '%s' as %s", opts["label"], h)
	cleanup.Push(fmt.Sprintf("flush %s", h), func() error { return t.flush(ctx, h) })
	return h, nil
}

// scratchDir creates a scratch dir removed by the clean stack
func (t *TPMAction) scratchDir(cleanup *utils.CleanStack) (string, error) {
	dir, err := utils.ScratchDir(t.cfg.Fs, cleanup)
	if err != nil {
		return "", tpmError.NewFromError(err, tpmError.CreateTempDir)
	}
	return dir, nil
}

// pick returns the subset of the options with the given names
func pick(opts tpm.Options, names ...string) tpm.Options {
	sub := tpm.Options{}
	for _, n := range names {
		if v, ok := opts[n]; ok {
			sub[n] = v
		}
	}
	return sub
}

// checkOptions rejects options not consumed by any step of a flow
func checkOptions(opts tpm.Options, known ...string) error {
	unknown := []string{}
	for k := range opts {
		found := false
		for _, n := range known {
			if k == n {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return tpmError.NewValidationError(unknown[0], "unrecognized option")
	}
	return nil
}

// renameField reports a validation error of an internally derived option under
// the name of the operator option it comes from
func renameField(err error, from, to string) error {
	var vErr *tpmError.ValidationError
	if errors.As(err, &vErr) && vErr.Field == from {
		return &tpmError.ValidationError{Field: to, Reason: vErr.Reason}
	}
	return err
}
