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
	"strconv"
	"strings"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

// PCRValue is the digest of a PCR, Error is set if it could not be read
type PCRValue struct {
	Index  int          `yaml:"index"`
	Digest tpm.HexBytes `yaml:"digest,omitempty"`
	Error  string       `yaml:"error,omitempty"`
}

// PCRExtend extends a PCR with the given data
func (t *TPMAction) PCRExtend(ctx context.Context, opts tpm.Options) error {
	return t.runSingle(ctx, opts, t.builder.PCRExtend, "PCR %s extended")
}

// PCRReset resets a resettable PCR
func (t *TPMAction) PCRReset(ctx context.Context, opts tpm.Options) error {
	return t.runSingle(ctx, opts, t.builder.PCRReset, "PCR %s reset")
}

// pcrIndex returns the index of a PCR option already validated by the builder
func pcrIndex(value string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(value))
	return n
}

// PCRRead reads the digest of a PCR
func (t *TPMAction) PCRRead(ctx context.Context, opts tpm.Options) (*PCRValue, error) {
	cmd, err := t.builder.PCRRead(opts)
	if err != nil {
		return nil, err
	}
	index := pcrIndex(opts["ha"])

	defer t.lock()()
	digest, err := t.pcrRead(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return &PCRValue{Index: index, Digest: digest}, nil
}

// PCRReadAll reads every PCR. A PCR that can't be read is reported in its
// entry and does not stop the others.
func (t *TPMAction) PCRReadAll(ctx context.Context) ([]PCRValue, error) {
	defer t.lock()()

	values := make([]PCRValue, 0, constants.PCRCount)
	for i := 0; i < constants.PCRCount; i++ {
		value := PCRValue{Index: i}
		cmd, err := t.builder.PCRRead(tpm.Options{"ha": strconv.Itoa(i)})
		if err != nil {
			return nil, err
		}
		value.Digest, err = t.pcrRead(ctx, cmd)
		if err != nil {
			t.cfg.Logger.Warnf("Failed reading PCR %d: %s", i, err.Error())
			value.Error = err.Error()
		}
		values = append(values, value)
	}
	return values, nil
}

func (t *TPMAction) pcrRead(ctx context.Context, cmd v1.CommandSpec) (tpm.HexBytes, error) {
	out, err := t.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return tpm.ParsePCRRead(out.Lines)
}
