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

package tpm

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

// Options is the set of recognized option names and values of a single operation,
// as entered by the operator. Empty values are equivalent to missing ones.
type Options map[string]string

// ErrNothingToDo is returned by builders when the given options describe no change
var ErrNothingToDo = errors.New("nothing to do")

// decodeOptions decodes the option map into the given options struct. Unknown
// option names are rejected.
func decodeOptions(opts Options, target interface{}) error {
	var md mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           target,
	})
	if err != nil {
		return err
	}

	input := map[string]interface{}{}
	for k, v := range opts {
		input[k] = strings.TrimSpace(v)
	}
	if err = decoder.Decode(input); err != nil {
		var dErr *mapstructure.Error
		if errors.As(err, &dErr) && len(dErr.Errors) > 0 {
			return tpmError.NewValidationError("options", "%s", dErr.Errors[0])
		}
		return tpmError.NewValidationError("options", "%s", err.Error())
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return tpmError.NewValidationError(md.Unused[0], "unrecognized option")
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return tpmError.NewValidationError(field, "must be specified")
	}
	return nil
}

func oneOf(field, value string, valid ...string) error {
	if err := required(field, value); err != nil {
		return err
	}
	for _, v := range valid {
		if v == value {
			return nil
		}
	}
	return tpmError.NewValidationError(field, "'%s' is not one of %s", value, strings.Join(valid, ", "))
}

// handleArg validates a required handle option and returns its canonical rendering
func handleArg(field, value string) (string, error) {
	if err := required(field, value); err != nil {
		return "", err
	}
	h, err := ParseHandle(value)
	if err != nil {
		return "", tpmError.NewValidationError(field, "%s", err.Error())
	}
	return h.String(), nil
}

// pcrArg validates a required PCR index
func pcrArg(field, value string) (string, error) {
	if err := required(field, value); err != nil {
		return "", err
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > constants.MaxPCR {
		return "", tpmError.NewValidationError(field, "'%s' is not a PCR index between 0 and %d", value, constants.MaxPCR)
	}
	return strconv.Itoa(n), nil
}

// sizeArg validates an optional positive byte count
func sizeArg(field, value string) error {
	if value == "" {
		return nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil || n == 0 {
		return tpmError.NewValidationError(field, "'%s' is not a positive size", value)
	}
	return nil
}

// fileNameArg validates a required value used as a plain file name component
func fileNameArg(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	if !utils.IsPlainFileName(value) {
		return tpmError.NewValidationError(field, "'%s' must be a plain file name", value)
	}
	return nil
}

// args accumulates a tool argument vector
type args []string

func (a *args) add(values ...string) {
	*a = append(*a, values...)
}

// opt adds the flag and its value only when the value is not empty
func (a *args) opt(flag, value string) {
	if value != "" {
		*a = append(*a, flag, value)
	}
}

// flag adds the given flags only when cond holds
func (a *args) flag(cond bool, flags ...string) {
	if cond {
		*a = append(*a, flags...)
	}
}
