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
	"strconv"
	"strings"

	"github.com/canonical/go-tpm2"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

// Handle is a 32 bit reference to a TPM resident object or session
type Handle uint32

// String renders the handle the way the TPM utilities print and expect it
func (h Handle) String() string {
	return fmt.Sprintf("%08x", uint32(h))
}

// MarshalYAML renders handles as hex strings
func (h Handle) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

// Kind returns the handle category encoded in its top byte
func (h Handle) Kind() Kind {
	return Classify(h)
}

// ParseHandle parses a hex handle as printed by the TPM utilities. A 0x prefix is accepted.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > 8 {
		return 0, fmt.Errorf("invalid handle '%s'", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid handle '%s': %w", s, err)
	}
	return Handle(v), nil
}

// Kind is the category of a handle
type Kind int

const (
	KindUnknown Kind = iota
	KindNVIndex
	KindLoadedSession
	KindSavedSession
	KindTransient
	KindPersistent
)

func (k Kind) String() string {
	switch k {
	case KindNVIndex:
		return "NV index"
	case KindLoadedSession:
		return "loaded session"
	case KindSavedSession:
		return "saved session"
	case KindTransient:
		return "transient object"
	case KindPersistent:
		return "persistent object"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// Classify returns the category of the given handle from its type tag. Unrecognized
// tags, PCR and permanent handles included, are KindUnknown.
func Classify(h Handle) Kind {
	switch tpm2.Handle(h).Type() {
	case tpm2.HandleTypeNVIndex:
		return KindNVIndex
	case tpm2.HandleTypeLoadedSession:
		return KindLoadedSession
	case tpm2.HandleTypeSavedSession:
		return KindSavedSession
	case tpm2.HandleTypeTransient:
		return KindTransient
	case tpm2.HandleTypePersistent:
		return KindPersistent
	default:
		return KindUnknown
	}
}

// Decommission returns the command releasing the given handle: NV indexes are
// undefined under owner authorization, sessions and transient objects are flushed
// and persistent objects are evicted under platform authorization.
func (b Builder) Decommission(h Handle) (v1.CommandSpec, error) {
	switch Classify(h) {
	case KindNVIndex:
		return b.command(constants.NVUndefineSpaceTool, "-hi", "o", "-ha", h.String()), nil
	case KindLoadedSession, KindSavedSession, KindTransient:
		return b.command(constants.FlushContextTool, "-ha", h.String()), nil
	case KindPersistent:
		return b.command(constants.EvictControlTool, "-hi", "p", "-ho", h.String(), "-hp", h.String()), nil
	default:
		return v1.CommandSpec{}, &tpmError.UnsupportedHandleKindError{Handle: uint32(h)}
	}
}
