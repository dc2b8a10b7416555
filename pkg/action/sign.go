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
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

// Options of a key loaded for the duration of a flow
var loadOptions = []string{"hp", "label", "pwdp"}

// provisionalKey stands for the handle of a key not loaded yet, so the whole flow
// is validated before any tool runs
const provisionalKey = constants.HandleListingTrans

// SignatureResult describes a signature made or verified with a loaded key
type SignatureResult struct {
	Key       tpm.Handle `yaml:"key"`
	Signature string     `yaml:"signature"`
	Verified  bool       `yaml:"verified,omitempty"`
}

// Sign signs a message with the key of the given label. The key is loaded under
// its parent and flushed afterwards whatever the outcome.
func (t *TPMAction) Sign(ctx context.Context, opts tpm.Options) (*SignatureResult, error) {
	if err := checkOptions(opts, append(loadOptions, "sigfile", "msg", "pwdk")...); err != nil {
		return nil, err
	}
	return t.signatureFlow(ctx, opts, func(h tpm.Handle, msgFile string) (*SignatureResult, error) {
		o := pick(opts, "sigfile", "pwdk")
		o["hk"] = h.String()
		o["if"] = msgFile
		cmd, err := t.builder.Sign(o)
		if err != nil {
			return nil, err
		}
		if _, err = t.run(ctx, cmd); err != nil {
			return nil, err
		}
		t.cfg.Logger.Infof("Message signed with key %s", h)
		return &SignatureResult{Key: h, Signature: t.signatureFile(opts["sigfile"])}, nil
	})
}

// VerifySignature verifies the signature of a message with the key of the given label.
// A signature that does not verify is reported as the tool failure.
func (t *TPMAction) VerifySignature(ctx context.Context, opts tpm.Options) (*SignatureResult, error) {
	if err := checkOptions(opts, append(loadOptions, "sigfile", "msg", "halg")...); err != nil {
		return nil, err
	}
	return t.signatureFlow(ctx, opts, func(h tpm.Handle, msgFile string) (*SignatureResult, error) {
		o := pick(opts, "sigfile", "halg")
		o["hk"] = h.String()
		o["if"] = msgFile
		cmd, err := t.builder.VerifySignature(o)
		if err != nil {
			return nil, err
		}
		if _, err = t.run(ctx, cmd); err != nil {
			return nil, err
		}
		t.cfg.Logger.Infof("Signature verified with key %s", h)
		return &SignatureResult{Key: h, Signature: t.signatureFile(opts["sigfile"]), Verified: true}, nil
	})
}

// signatureFlow writes the message to a scratch file, loads the key and runs the
// given step with it. The key is flushed and the message removed on every path.
func (t *TPMAction) signatureFlow(
	ctx context.Context, opts tpm.Options, step func(h tpm.Handle, msgFile string) (*SignatureResult, error),
) (res *SignatureResult, err error) {
	if _, err = t.builder.Load(pick(opts, loadOptions...)); err != nil {
		return nil, err
	}
	if err = required("msg", opts["msg"]); err != nil {
		return nil, err
	}
	// Validates the signature file name
	if _, err = t.builder.VerifySignature(tpm.Options{"hk": provisionalKey, "sigfile": opts["sigfile"], "if": constants.MessageFile, "halg": opts["halg"]}); err != nil {
		return nil, err
	}

	defer t.lock()()
	cleanup := utils.NewCleanStack(t.cfg.Logger)
	defer func() { err = cleanup.Cleanup(err) }()

	dir, err := t.scratchDir(cleanup)
	if err != nil {
		return nil, err
	}
	msgFile, err := utils.WriteScratchFile(t.cfg.Fs, dir, constants.MessageFile, []byte(opts["msg"]))
	if err != nil {
		return nil, tpmError.NewFromError(err, tpmError.WriteFile)
	}

	h, err := t.loadKey(ctx, cleanup, pick(opts, loadOptions...))
	if err != nil {
		return nil, err
	}
	return step(h, msgFile)
}

func (t *TPMAction) signatureFile(name string) string {
	return filepath.Join(t.builder.WorkDir, name+constants.SignatureSuffix)
}

func required(field, value string) error {
	if value == "" {
		return tpmError.NewValidationError(field, "must be specified")
	}
	return nil
}
