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
	"path/filepath"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

// QuoteResult describes a quote made or verified with a loaded key. Digest is the
// value of the quoted PCR read right after quoting.
type QuoteResult struct {
	Key       tpm.Handle   `yaml:"key"`
	PCR       int          `yaml:"pcr"`
	Signature string       `yaml:"signature"`
	Attest    string       `yaml:"attest"`
	Digest    tpm.HexBytes `yaml:"digest,omitempty"`
	Verified  bool         `yaml:"verified,omitempty"`
}

// Quote quotes a PCR with the key of the given label and reads the quoted PCR. The
// key is flushed afterwards whatever the outcome.
func (t *TPMAction) Quote(ctx context.Context, opts tpm.Options) (res *QuoteResult, err error) {
	if err = checkOptions(opts, append(loadOptions, "hpcr", "quotename", "pwdk")...); err != nil {
		return nil, err
	}
	if _, err = t.builder.Load(pick(opts, loadOptions...)); err != nil {
		return nil, err
	}
	quoteOpts := pick(opts, "hpcr", "quotename", "pwdk")
	quoteOpts["hk"] = provisionalKey
	if _, err = t.builder.Quote(quoteOpts); err != nil {
		return nil, err
	}
	pcr := pcrIndex(quoteOpts["hpcr"])
	pcrCmd, err := t.builder.PCRRead(tpm.Options{"ha": quoteOpts["hpcr"]})
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	cleanup := utils.NewCleanStack(t.cfg.Logger)
	defer func() { err = cleanup.Cleanup(err) }()

	h, err := t.loadKey(ctx, cleanup, pick(opts, loadOptions...))
	if err != nil {
		return nil, err
	}
	quoteOpts["hk"] = h.String()
	cmd, err := t.builder.Quote(quoteOpts)
	if err != nil {
		return nil, err
	}
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	t.cfg.Logger.Infof("PCR %d quoted with key %s", pcr, h)

	res = t.quoteResult(h, opts["quotename"])
	res.PCR = pcr
	// The quote is done, failing to show the PCR does not fail it
	if res.Digest, err = t.pcrRead(ctx, pcrCmd); err != nil {
		t.cfg.Logger.Warnf("Failed reading quoted PCR %d: %s", pcr, err.Error())
		err = nil
	}
	return res, nil
}

// VerifyQuote verifies the signature of a quote attestation with the key of the
// given label. The key is flushed afterwards whatever the outcome.
func (t *TPMAction) VerifyQuote(ctx context.Context, opts tpm.Options) (res *QuoteResult, err error) {
	if err = checkOptions(opts, append(loadOptions, "quotename")...); err != nil {
		return nil, err
	}
	if _, err = t.builder.Load(pick(opts, loadOptions...)); err != nil {
		return nil, err
	}
	name := opts["quotename"]
	verifyOpts := tpm.Options{
		"hk":      provisionalKey,
		"halg":    t.builder.HashAlg,
		"sigfile": name,
		"if":      name + constants.AttestSuffix,
	}
	if _, err = t.builder.VerifySignature(verifyOpts); err != nil {
		return nil, renameField(err, "sigfile", "quotename")
	}

	defer t.lock()()
	cleanup := utils.NewCleanStack(t.cfg.Logger)
	defer func() { err = cleanup.Cleanup(err) }()

	h, err := t.loadKey(ctx, cleanup, pick(opts, loadOptions...))
	if err != nil {
		return nil, err
	}
	verifyOpts["hk"] = h.String()
	cmd, err := t.builder.VerifySignature(verifyOpts)
	if err != nil {
		return nil, err
	}
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	t.cfg.Logger.Infof("Quote '%s' verified with key %s", name, h)

	res = t.quoteResult(h, name)
	res.Verified = true
	return res, nil
}

func (t *TPMAction) quoteResult(h tpm.Handle, name string) *QuoteResult {
	return &QuoteResult{
		Key:       h,
		Signature: filepath.Join(t.builder.WorkDir, name+constants.SignatureSuffix),
		Attest:    filepath.Join(t.builder.WorkDir, name+constants.AttestSuffix),
	}
}
