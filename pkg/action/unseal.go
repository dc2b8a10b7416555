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
	"fmt"
	"path/filepath"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

// UnsealState is a step of the unseal flow
type UnsealState string

const (
	UnsealIdle           UnsealState = "idle"
	UnsealLoaded         UnsealState = "loaded"
	UnsealSessionStarted UnsealState = "session-started"
	UnsealPolicyAsserted UnsealState = "policy-asserted"
	UnsealUnsealed       UnsealState = "unsealed"
	UnsealCleaned        UnsealState = "cleaned"
	UnsealFailed         UnsealState = "failed"
)

// UnsealResult is the outcome of an unseal flow. States records every state the
// flow went through, it is returned even if the flow failed.
type UnsealResult struct {
	Object  tpm.Handle    `yaml:"object,omitempty"`
	Session tpm.Handle    `yaml:"session,omitempty"`
	Message string        `yaml:"message,omitempty"`
	States  []UnsealState `yaml:"states"`
}

func (r *UnsealResult) enter(s UnsealState) {
	r.States = append(r.States, s)
}

// State returns the last state reached by the flow
func (r *UnsealResult) State() UnsealState {
	if len(r.States) == 0 {
		return UnsealIdle
	}
	return r.States[len(r.States)-1]
}

// Unseal unseals a data blob sealed to PCR 16. The blob is loaded, a policy session
// is started and the PCR policy asserted in it before unsealing. The session and the
// blob are flushed on every path, session first, and a cleanup failure never
// replaces the error of the flow.
func (t *TPMAction) Unseal(ctx context.Context, opts tpm.Options) (res *UnsealResult, err error) {
	res = &UnsealResult{}
	res.enter(UnsealIdle)

	if err = checkOptions(opts, loadOptions...); err != nil {
		return res, err
	}
	if _, err = t.builder.Load(opts); err != nil {
		return res, err
	}

	defer t.lock()()
	cleanup := utils.NewCleanStack(t.cfg.Logger)
	defer func() {
		if err != nil {
			res.enter(UnsealFailed)
		}
		err = cleanup.Cleanup(err)
		if len(cleanup.Errors()) == 0 {
			res.enter(UnsealCleaned)
		}
	}()

	dir, err := t.scratchDir(cleanup)
	if err != nil {
		return res, err
	}
	outFile := filepath.Join(dir, constants.UnsealedFile)

	res.Object, err = t.loadKey(ctx, cleanup, opts)
	if err != nil {
		return res, err
	}
	res.enter(UnsealLoaded)

	out, err := t.run(ctx, t.builder.StartAuthSession())
	if err != nil {
		return res, err
	}
	session, err := tpm.ParseLoadResponse(out.Lines)
	if err != nil {
		return res, err
	}
	res.Session = session
	cleanup.Push(fmt.Sprintf("flush session %s", session), func() error { return t.flush(ctx, session) })
	res.enter(UnsealSessionStarted)

	cmd, err := t.builder.PolicyPCR(tpm.Options{"ha": session.String()})
	if err != nil {
		return res, err
	}
	if _, err = t.run(ctx, cmd); err != nil {
		return res, err
	}
	res.enter(UnsealPolicyAsserted)

	cmd, err = t.builder.Unseal(tpm.Options{"ha": res.Object.String(), "of": outFile, "se0": session.String()})
	if err != nil {
		return res, err
	}
	if _, err = t.run(ctx, cmd); err != nil {
		return res, err
	}
	data, err := t.cfg.Fs.ReadFile(outFile)
	if err != nil {
		return res, tpmError.NewFromError(err, tpmError.ReadFile)
	}
	res.Message = string(data)
	res.enter(UnsealUnsealed)
	t.cfg.Logger.Infof("Blob '%s' unsealed", opts["label"])
	return res, nil
}
