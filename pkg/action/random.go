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
	"strconv"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

// RandomResult holds random bytes generated by the TPM
type RandomResult struct {
	Size  int          `yaml:"size"`
	Bytes tpm.HexBytes `yaml:"bytes"`
}

// GetRandom returns n random bytes generated by the TPM
func (t *TPMAction) GetRandom(ctx context.Context, n int) (*RandomResult, error) {
	if n <= 0 {
		return nil, tpmError.NewValidationError("by", "'%d' is not a positive number of bytes", n)
	}
	defer t.lock()()
	b, err := t.getRandom(ctx, n)
	if err != nil {
		return nil, err
	}
	return &RandomResult{Size: len(b), Bytes: b}, nil
}

// getRandom has the tool write n random bytes to a scratch file and reads them back.
// The scratch file is removed on every path.
func (t *TPMAction) getRandom(ctx context.Context, n int) (b tpm.HexBytes, err error) {
	cleanup := utils.NewCleanStack(t.cfg.Logger)
	defer func() { err = cleanup.Cleanup(err) }()

	dir, err := t.scratchDir(cleanup)
	if err != nil {
		return nil, err
	}
	file := filepath.Join(dir, constants.RandomFile)

	cmd, err := t.builder.GetRandom(tpm.Options{"by": strconv.Itoa(n), "of": file})
	if err != nil {
		return nil, err
	}
	if _, err = t.run(ctx, cmd); err != nil {
		return nil, err
	}
	data, err := t.cfg.Fs.ReadFile(file)
	if err != nil {
		return nil, tpmError.NewFromError(err, tpmError.ReadFile)
	}
	if len(data) != n {
		return nil, &tpmError.ParseError{Field: "random bytes", Line: -1, Reason: "expected " + strconv.Itoa(n) + " bytes, got " + strconv.Itoa(len(data))}
	}
	return tpm.HexBytes(data), nil
}
