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

package error

import "errors"

// TPMAdminError is our custom error to pass around exit codes in the error
type TPMAdminError struct {
	err  error
	code int
}

func (e *TPMAdminError) Error() string {
	return e.err.Error()
}

func (e *TPMAdminError) ExitCode() int {
	return e.code
}

func (e *TPMAdminError) Unwrap() error {
	return e.err
}

// NewFromError generates a TPMAdminError from an existing error,
// maintaining its error message
func NewFromError(err error, code int) error {
	if err == nil {
		return nil
	}
	return &TPMAdminError{err: err, code: code}
}

// New generates a TPMAdminError from a string
func New(err string, code int) error {
	return &TPMAdminError{err: errors.New(err), code: code}
}

// NewFromTyped generates a TPMAdminError from an error of the tpm2-admin taxonomy
// choosing the exit code from its type
func NewFromTyped(err error) error {
	if err == nil {
		return nil
	}
	var aErr *TPMAdminError
	if errors.As(err, &aErr) {
		return err
	}
	return NewFromError(err, ExitCodeFor(err))
}
