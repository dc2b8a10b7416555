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
)

// Flag is the name of a single bit of an attribute word
type Flag string

// NV index attributes (TPMA_NV)
const (
	PlatformAuthWrite       Flag = "PlatformAuthWrite"
	OwnerAuthWrite          Flag = "OwnerAuthWrite"
	IndexAuthWrite          Flag = "IndexAuthWrite"
	PolicyAuthWrite         Flag = "PolicyAuthWrite"
	PolicyDelete            Flag = "PolicyDelete"
	WriteLocked             Flag = "WriteLocked"
	WriteAll                Flag = "WriteAll"
	WriteLockable           Flag = "WriteLockable"
	WriteLockableUntilClear Flag = "WriteLockableUntilClear"
	GlobalLockable          Flag = "GlobalLockable"
	PlatformAuthRead        Flag = "PlatformAuthRead"
	OwnerAuthRead           Flag = "OwnerAuthRead"
	IndexAuthRead           Flag = "IndexAuthRead"
	PolicyAuthRead          Flag = "PolicyAuthRead"
	NoDA                    Flag = "NoDA"
	Orderly                 Flag = "Orderly"
	WrittenClearedOnClear   Flag = "WrittenClearedOnClear"
	ReadLocked              Flag = "ReadLocked"
	Written                 Flag = "Written"
	PlatformCreated         Flag = "PlatformCreated"
	ReadLockableUntilClear  Flag = "ReadLockableUntilClear"
)

// Hierarchy status, the TPM_PT_PERMANENT property
const (
	OwnerAuthSet       Flag = "OwnerAuthSet"
	EndorsementAuthSet Flag = "EndorsementAuthSet"
	LockoutAuthSet     Flag = "LockoutAuthSet"
	DisableClear       Flag = "DisableClear"
	InLockout          Flag = "InLockout"
	TPMGeneratedEPS    Flag = "TPMGeneratedEPS"
)

// Capability status, the TPM_PT_STARTUP_CLEAR property
const (
	PlatformEnabled    Flag = "PhEnable"
	StorageEnabled     Flag = "ShEnable"
	EndorsementEnabled Flag = "EhEnable"
	PlatformNVEnabled  Flag = "PhEnableNV"
)

type flagDef struct {
	mask uint32
	flag Flag
	// set and clear describe the bit for operators, clear is empty for NV attributes
	set   string
	clear string
}

var nvAttributeTable = []flagDef{
	{uint32(tpm2.AttrNVPPWrite), PlatformAuthWrite, "Platform Authorization write", ""},
	{uint32(tpm2.AttrNVOwnerWrite), OwnerAuthWrite, "Owner Authorization write", ""},
	{uint32(tpm2.AttrNVAuthWrite), IndexAuthWrite, "Index Authorization write", ""},
	{uint32(tpm2.AttrNVPolicyWrite), PolicyAuthWrite, "Policy Authorization write", ""},
	{uint32(tpm2.AttrNVPolicyDelete), PolicyDelete, "Policy Authorization delete", ""},
	{uint32(tpm2.AttrNVWriteLocked), WriteLocked, "Write locked", ""},
	{uint32(tpm2.AttrNVWriteAll), WriteAll, "Write all", ""},
	{uint32(tpm2.AttrNVWriteDefine), WriteLockable, "Write lockable (write define)", ""},
	{uint32(tpm2.AttrNVWriteStClear), WriteLockableUntilClear, "Write lockable until ST Clear", ""},
	{uint32(tpm2.AttrNVGlobalLock), GlobalLockable, "Global lockable", ""},
	{uint32(tpm2.AttrNVPPRead), PlatformAuthRead, "Platform Authorization read", ""},
	{uint32(tpm2.AttrNVOwnerRead), OwnerAuthRead, "Owner Authorization read", ""},
	{uint32(tpm2.AttrNVAuthRead), IndexAuthRead, "Index Authorization read", ""},
	{uint32(tpm2.AttrNVPolicyRead), PolicyAuthRead, "Policy Authorization read", ""},
	{uint32(tpm2.AttrNVNoDA), NoDA, "No DA protection", ""},
	{uint32(tpm2.AttrNVOrderly), Orderly, "Orderly (hybrid) index", ""},
	{uint32(tpm2.AttrNVClearStClear), WrittenClearedOnClear, "Written cleared on ST Clear", ""},
	{uint32(tpm2.AttrNVReadLocked), ReadLocked, "Read locked", ""},
	{uint32(tpm2.AttrNVWritten), Written, "Written", ""},
	{uint32(tpm2.AttrNVPlatformCreate), PlatformCreated, "Platform created", ""},
	{uint32(tpm2.AttrNVReadStClear), ReadLockableUntilClear, "Read lockable until ST Clear", ""},
}

var hierarchyStatusTable = []flagDef{
	{uint32(tpm2.AttrOwnerAuthSet), OwnerAuthSet, "Owner auth set", "Owner auth clear"},
	{uint32(tpm2.AttrEndorsementAuthSet), EndorsementAuthSet, "Endorsement auth set", "Endorsement auth clear"},
	{uint32(tpm2.AttrLockoutAuthSet), LockoutAuthSet, "Lockout auth set", "Lockout auth clear"},
	{uint32(tpm2.AttrDisableClear), DisableClear, "TPM2_Clear disabled", "TPM2_Clear enabled"},
	{uint32(tpm2.AttrInLockout), InLockout, "In lockout", "Not in lockout"},
	{uint32(tpm2.AttrTPMGeneratedEPS), TPMGeneratedEPS, "TPM generated EPS", "EPS created outside TPM"},
}

var capabilityStatusTable = []flagDef{
	{uint32(tpm2.AttrPhEnable), PlatformEnabled, "Platform hierarchy enabled", "Platform hierarchy disabled"},
	{uint32(tpm2.AttrShEnable), StorageEnabled, "Storage hierarchy enabled", "Storage hierarchy disabled"},
	{uint32(tpm2.AttrEhEnable), EndorsementEnabled, "Endorsement hierarchy enabled", "Endorsement hierarchy disabled"},
	{uint32(tpm2.AttrPhEnableNV), PlatformNVEnabled, "phEnableNV set", "phEnableNV clear"},
}

// FlagSet is the ordered set of flags found set in an attribute word
type FlagSet []Flag

// Has reports if the given flag is set
func (s FlagSet) Has(f Flag) bool {
	for _, flag := range s {
		if flag == f {
			return true
		}
	}
	return false
}

func decodeFlags(word uint32, table []flagDef) FlagSet {
	flags := FlagSet{}
	for _, def := range table {
		if word&def.mask != 0 {
			flags = append(flags, def.flag)
		}
	}
	return flags
}

// describe returns the operator description of every bit in the table. Bits without a
// clear description are only listed when set.
func describe(word uint32, table []flagDef) []string {
	lines := []string{}
	for _, def := range table {
		switch {
		case word&def.mask != 0:
			lines = append(lines, def.set)
		case def.clear != "":
			lines = append(lines, def.clear)
		}
	}
	return lines
}

// NVTypeKind is the type of an NV index, bits 4 to 7 of its attributes
type NVTypeKind int

const (
	NVOrdinary NVTypeKind = iota
	NVCounter
	NVBits
	NVExtend
	NVPinFail
	NVPinPass
	NVUnknown
)

// NVIndexType is the decoded NV index type. Raw holds the full attribute word
// so an unknown type can be reported verbatim.
type NVIndexType struct {
	Kind NVTypeKind
	Raw  uint32
}

func (t NVIndexType) String() string {
	switch t.Kind {
	case NVOrdinary:
		return "Ordinary"
	case NVCounter:
		return "Counter"
	case NVBits:
		return "Bits"
	case NVExtend:
		return "Extend"
	case NVPinFail:
		return "Pin Fail"
	case NVPinPass:
		return "Pin Pass"
	default:
		return fmt.Sprintf("%08x unknown", t.Raw)
	}
}

func (t NVIndexType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// NVAttributes is a decoded TPMA_NV word
type NVAttributes struct {
	Word  uint32      `yaml:"word"`
	Type  NVIndexType `yaml:"type"`
	Flags FlagSet     `yaml:"flags"`
}

// Descriptions returns the operator description of every set attribute
func (a NVAttributes) Descriptions() []string {
	return describe(a.Word, nvAttributeTable)
}

// DecodeNVAttributes decodes a TPMA_NV word. It never fails, unknown types
// decode to NVUnknown.
func DecodeNVAttributes(word uint32) NVAttributes {
	kind := NVUnknown
	switch tpm2.NVAttributes(word).Type() {
	case tpm2.NVTypeOrdinary:
		kind = NVOrdinary
	case tpm2.NVTypeCounter:
		kind = NVCounter
	case tpm2.NVTypeBits:
		kind = NVBits
	case tpm2.NVTypeExtend:
		kind = NVExtend
	case tpm2.NVTypePinFail:
		kind = NVPinFail
	case tpm2.NVTypePinPass:
		kind = NVPinPass
	}
	return NVAttributes{
		Word:  word,
		Type:  NVIndexType{Kind: kind, Raw: word},
		Flags: decodeFlags(word, nvAttributeTable),
	}
}

// StatusWord is a decoded capability property word
type StatusWord struct {
	Word  uint32  `yaml:"word"`
	Flags FlagSet `yaml:"flags"`
	table []flagDef
}

// Descriptions describes every documented bit of the word, set or clear
func (s StatusWord) Descriptions() []string {
	return describe(s.Word, s.table)
}

// DecodeHierarchyStatus decodes the TPM_PT_PERMANENT word: which hierarchy
// authorizations are set, lockout and clear state
func DecodeHierarchyStatus(word uint32) StatusWord {
	return StatusWord{Word: word, Flags: decodeFlags(word, hierarchyStatusTable), table: hierarchyStatusTable}
}

// DecodeCapabilityStatus decodes the TPM_PT_STARTUP_CLEAR word: which hierarchies are enabled
func DecodeCapabilityStatus(word uint32) StatusWord {
	return StatusWord{Word: word, Flags: decodeFlags(word, capabilityStatusTable), table: capabilityStatusTable}
}
