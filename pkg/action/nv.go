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
	"strings"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

// NVIndexResult is the public area of an NV index
type NVIndexResult struct {
	Handle tpm.Handle            `yaml:"handle"`
	Public tpm.PublicAreaSummary `yaml:"public"`
}

// NVDefine defines an NV index and returns its public area as read back from the TPM
func (t *TPMAction) NVDefine(ctx context.Context, opts tpm.Options) (*NVIndexResult, error) {
	cmd, err := t.builder.NVDefineSpace(opts)
	if err != nil {
		return nil, err
	}
	h, err := tpm.ParseHandle(opts["ha"])
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	t.cfg.Logger.Infof("NV index %s defined", h)
	return t.nvReadPublic(ctx, h)
}

// NVUndefine removes an NV index
func (t *TPMAction) NVUndefine(ctx context.Context, opts tpm.Options) error {
	return t.runSingle(ctx, opts, t.builder.NVUndefineSpace, "NV index %s undefined")
}

// NVWrite writes data to an NV index
func (t *TPMAction) NVWrite(ctx context.Context, opts tpm.Options) error {
	return t.runSingle(ctx, opts, t.builder.NVWrite, "NV index %s written")
}

// NVWriteLock locks an NV index for writing until the next TPM reset
func (t *TPMAction) NVWriteLock(ctx context.Context, opts tpm.Options) error {
	return t.runSingle(ctx, opts, t.builder.NVWriteLock, "NV index %s write locked")
}

// NVIncrement increments a counter NV index
func (t *TPMAction) NVIncrement(ctx context.Context, opts tpm.Options) error {
	return t.runSingle(ctx, opts, t.builder.NVIncrement, "NV index %s incremented")
}

// NVDataResult holds the data read from an NV index
type NVDataResult struct {
	Handle tpm.Handle   `yaml:"handle"`
	Size   int          `yaml:"size"`
	Data   tpm.HexBytes `yaml:"data"`
	ASCII  string       `yaml:"ascii"`
}

// NVRead reads the data of an NV index
func (t *TPMAction) NVRead(ctx context.Context, opts tpm.Options) (*NVDataResult, error) {
	cmd, err := t.builder.NVRead(opts)
	if err != nil {
		return nil, err
	}
	h, err := tpm.ParseHandle(opts["ha"])
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	out, err := t.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	data, err := tpm.ParseNVRead(out.Lines)
	if err != nil {
		return nil, err
	}
	return &NVDataResult{Handle: h, Size: len(data), Data: data, ASCII: printable(data)}, nil
}

// NVPublic reads the public area of an NV index
func (t *TPMAction) NVPublic(ctx context.Context, opts tpm.Options) (*NVIndexResult, error) {
	if _, err := t.builder.NVReadPublic(opts); err != nil {
		return nil, err
	}
	h, err := tpm.ParseHandle(opts["ha"])
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	return t.nvReadPublic(ctx, h)
}

// NVListEntry is an NV index of the listing, Error is set if its public area
// could not be read
type NVListEntry struct {
	Handle tpm.Handle             `yaml:"handle"`
	Public *tpm.PublicAreaSummary `yaml:"public,omitempty"`
	Error  string                 `yaml:"error,omitempty"`
}

// NVList lists every defined NV index with its public area. A failure reading
// one index is reported in its entry and does not stop the listing.
func (t *TPMAction) NVList(ctx context.Context) ([]NVListEntry, error) {
	defer t.lock()()

	listing, err := t.listHandles(ctx, constants.HandleListingNV)
	if err != nil {
		return nil, err
	}
	entries := []NVListEntry{}
	for _, item := range listing.Handles {
		h, err := tpm.ParseHandle(item)
		if err != nil {
			t.cfg.Logger.Warnf("Ignoring malformed NV handle '%s' in listing", item)
			continue
		}
		entry := NVListEntry{Handle: h}
		res, err := t.nvReadPublic(ctx, h)
		if err != nil {
			t.cfg.Logger.Warnf("Failed reading public area of NV index %s: %s", h, err.Error())
			entry.Error = err.Error()
		} else {
			entry.Public = &res.Public
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (t *TPMAction) nvReadPublic(ctx context.Context, h tpm.Handle) (*NVIndexResult, error) {
	cmd, err := t.builder.NVReadPublic(tpm.Options{"ha": h.String()})
	if err != nil {
		return nil, err
	}
	out, err := t.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	public, err := tpm.ParsePublicArea(out.Lines)
	if err != nil {
		return nil, err
	}
	return &NVIndexResult{Handle: h, Public: public}, nil
}

// runSingle runs an operation made of a single tool invocation on the handle given as 'ha'
func (t *TPMAction) runSingle(ctx context.Context, opts tpm.Options, build func(tpm.Options) (v1.CommandSpec, error), done string) error {
	cmd, err := build(opts)
	if err != nil {
		return err
	}

	defer t.lock()()
	if _, err = t.run(ctx, cmd); err != nil {
		return err
	}
	t.cfg.Logger.Infof(done, strings.TrimSpace(opts["ha"]))
	return nil
}

// printable renders data as text replacing non printable bytes with '.'
func printable(data []byte) string {
	var sb strings.Builder
	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
