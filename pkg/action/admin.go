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
	"strconv"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

// HierarchyAuthResult reports a hierarchy authorization change
type HierarchyAuthResult struct {
	Hierarchy string `yaml:"hierarchy"`
	Changed   bool   `yaml:"changed"`
}

// ChangeHierarchyAuth changes the authorization value of a hierarchy. An empty new
// password runs nothing and reports no change.
func (t *TPMAction) ChangeHierarchyAuth(ctx context.Context, opts tpm.Options) (*HierarchyAuthResult, error) {
	res := &HierarchyAuthResult{Hierarchy: opts["hi"]}

	cmd, err := t.builder.HierarchyChangeAuth(opts)
	if errors.Is(err, tpm.ErrNothingToDo) {
		t.cfg.Logger.Infof("No new password given for hierarchy '%s', nothing to do", res.Hierarchy)
		return res, nil
	} else if err != nil {
		return nil, err
	}

	defer t.lock()()
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	t.cfg.Logger.Infof("Authorization of hierarchy '%s' changed", res.Hierarchy)
	res.Changed = true
	return res, nil
}

// ClockResult is the TPM clock after an update
type ClockResult struct {
	ClockMs uint64 `yaml:"clock-ms"`
}

// SetClock sets the TPM clock. When no clock value is given the current time is used.
func (t *TPMAction) SetClock(ctx context.Context, opts tpm.Options) (*ClockResult, error) {
	o := tpm.Options{}
	for k, v := range opts {
		o[k] = v
	}
	if o["clock"] == "" {
		o["clock"] = strconv.FormatInt(t.now().UnixMilli(), 10)
	}

	cmd, err := t.builder.ClockSet(o)
	if err != nil {
		return nil, err
	}
	ms, _ := strconv.ParseUint(o["clock"], 10, 64)

	defer t.lock()()
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	t.cfg.Logger.Infof("TPM clock set to %d ms", ms)
	return &ClockResult{ClockMs: ms}, nil
}

// HierarchyControlResult reports the new state of a hierarchy
type HierarchyControlResult struct {
	Hierarchy string `yaml:"hierarchy"`
	Enabled   bool   `yaml:"enabled"`
}

// HierarchyControl enables or disables the storage or endorsement hierarchy or the
// platform NV access
func (t *TPMAction) HierarchyControl(ctx context.Context, opts tpm.Options) (*HierarchyControlResult, error) {
	cmd, err := t.builder.HierarchyControl(opts)
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	res := &HierarchyControlResult{Hierarchy: opts["he"], Enabled: opts["state"] == "1"}
	t.cfg.Logger.Infof("Hierarchy '%s' enabled: %t", res.Hierarchy, res.Enabled)
	return res, nil
}

// StatusResult is the overview of the TPM state
type StatusResult struct {
	Properties       tpm.TPMProperties `yaml:"properties"`
	Clock            tpm.ClockInfo     `yaml:"clock"`
	HierarchyStatus  tpm.StatusWord    `yaml:"hierarchy-status"`
	CapabilityStatus tpm.StatusWord    `yaml:"capability-status"`
	Random           tpm.HexBytes      `yaml:"random"`
}

// Status gathers the TPM identification, its clock, the hierarchy and capability
// status words and a few random bytes
func (t *TPMAction) Status(ctx context.Context) (res *StatusResult, err error) {
	res = &StatusResult{}

	propsCmd, err := t.builder.GetCapability(tpm.Options{"cap": constants.CapTPMProperties})
	if err != nil {
		return nil, err
	}
	permanentCmd, err := t.builder.GetCapability(tpm.Options{"cap": constants.CapTPMProperties, "pr": constants.PropPermanent, "pc": "1"})
	if err != nil {
		return nil, err
	}
	startupCmd, err := t.builder.GetCapability(tpm.Options{"cap": constants.CapTPMProperties, "pr": constants.PropStartupClear, "pc": "1"})
	if err != nil {
		return nil, err
	}

	defer t.lock()()

	out, err := t.run(ctx, propsCmd)
	if err != nil {
		return nil, err
	}
	if res.Properties, err = tpm.ParseProperties(out.Lines); err != nil {
		return nil, err
	}

	out, err = t.run(ctx, t.builder.ReadClock())
	if err != nil {
		return nil, err
	}
	if res.Clock, err = tpm.ParseClockInfo(out.Lines); err != nil {
		return nil, err
	}

	out, err = t.run(ctx, permanentCmd)
	if err != nil {
		return nil, err
	}
	word, err := tpm.ParseCapabilityProperty(out.Lines)
	if err != nil {
		return nil, err
	}
	res.HierarchyStatus = tpm.DecodeHierarchyStatus(word)

	out, err = t.run(ctx, startupCmd)
	if err != nil {
		return nil, err
	}
	if word, err = tpm.ParseCapabilityProperty(out.Lines); err != nil {
		return nil, err
	}
	res.CapabilityStatus = tpm.DecodeCapabilityStatus(word)

	if res.Random, err = t.getRandom(ctx, constants.RandomBytes); err != nil {
		return nil, err
	}
	return res, nil
}
