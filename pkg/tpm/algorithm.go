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
	"fmt"

	"github.com/canonical/go-tpm2"

	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
)

var hashAlgorithms = []struct {
	name    string
	display string
	id      tpm2.HashAlgorithmId
}{
	{"sha1", "SHA-1", tpm2.HashAlgorithmSHA1},
	{"sha256", "SHA-256", tpm2.HashAlgorithmSHA256},
	{"sha384", "SHA-384", tpm2.HashAlgorithmSHA384},
}

// LookupHashAlgorithm returns the algorithm id of the given tool hash algorithm name
func LookupHashAlgorithm(name string) (tpm2.HashAlgorithmId, error) {
	for _, h := range hashAlgorithms {
		if h.name == name {
			return h.id, nil
		}
	}
	return 0, tpmError.NewValidationError("halg", "unsupported hash algorithm '%s'", name)
}

// NameAlgorithm is the name algorithm of a TPM object as reported by the tools
type NameAlgorithm tpm2.HashAlgorithmId

// Known reports if the algorithm is one of SHA-1, SHA-256 or SHA-384
func (a NameAlgorithm) Known() bool {
	for _, h := range hashAlgorithms {
		if h.id == tpm2.HashAlgorithmId(a) {
			return true
		}
	}
	return false
}

func (a NameAlgorithm) String() string {
	for _, h := range hashAlgorithms {
		if h.id == tpm2.HashAlgorithmId(a) {
			return h.display
		}
	}
	return fmt.Sprintf("%04x unknown", uint16(a))
}

func (a NameAlgorithm) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}
