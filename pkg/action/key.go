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

// PrimaryKeyResult is the handle of a created primary key
type PrimaryKeyResult struct {
	Handle tpm.Handle `yaml:"handle"`
}

// CreatePrimary creates a primary storage key and returns its handle
func (t *TPMAction) CreatePrimary(ctx context.Context, opts tpm.Options) (*PrimaryKeyResult, error) {
	cmd, err := t.builder.CreatePrimary(opts)
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	out, err := t.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	h, err := tpm.ParseLoadResponse(out.Lines)
	if err != nil {
		return nil, err
	}
	t.cfg.Logger.Infof("Primary key created with handle %s", h)
	return &PrimaryKeyResult{Handle: h}, nil
}

// KeyResult describes the key files of a created key. Handle is set when the key
// was also loaded.
type KeyResult struct {
	Label      string      `yaml:"label"`
	PublicKey  string      `yaml:"public-key"`
	PrivateKey string      `yaml:"private-key"`
	Handle     *tpm.Handle `yaml:"handle,omitempty"`
}

// CreateKey creates a key, or a sealed data blob when the key type is 'bl', under
// the given parent. The message of a sealed blob goes through a scratch file that
// is removed on every path.
func (t *TPMAction) CreateKey(ctx context.Context, opts tpm.Options) (res *KeyResult, err error) {
	o := tpm.Options{}
	for k, v := range opts {
		o[k] = v
	}
	if _, err = t.builder.Create(o); err != nil {
		return nil, err
	}

	cleanup := utils.NewCleanStack(t.cfg.Logger)
	defer func() { err = cleanup.Cleanup(err) }()

	if o["keytype"] == tpm.KeyTypeSealedBlob {
		dir, err := t.scratchDir(cleanup)
		if err != nil {
			return nil, err
		}
		msgFile, err := utils.WriteScratchFile(t.cfg.Fs, dir, constants.MessageFile, []byte(o["msg"]))
		if err != nil {
			return nil, tpmError.NewFromError(err, tpmError.WriteFile)
		}
		o["msgfile"] = msgFile
	}
	cmd, err := t.builder.Create(o)
	if err != nil {
		return nil, err
	}

	defer t.lock()()
	out, err := t.run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	label := o["label"]
	res = &KeyResult{
		Label:      label,
		PublicKey:  filepath.Join(t.builder.WorkDir, tpm.PublicKeyFile(label)),
		PrivateKey: filepath.Join(t.builder.WorkDir, tpm.PrivateKeyFile(label)),
	}
	if cmd.Tool() == t.builder.ToolPrefix+constants.CreateLoadedTool {
		h, err := tpm.ParseLoadResponse(out.Lines)
		if err != nil {
			return nil, err
		}
		res.Handle = &h
		t.cfg.Logger.Infof("Key '%s' created and loaded with handle %s", label, h)
	} else {
		t.cfg.Logger.Infof("Key '%s' created", label)
	}
	return res, nil
}
