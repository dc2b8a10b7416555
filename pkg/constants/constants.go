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

package constants

import (
	"os"
	"time"
)

const (
	ConfigDir        = "/etc/tpm2-admin"
	EnvPrefix        = "TPM2ADMIN"
	ToolsDir         = "/usr/bin"
	ToolPrefix       = "tss"
	WorkDir          = "/var/lib/tpm2-admin"
	PoliciesDirName  = "policies"
	ToolEnvFile      = "/etc/tpm2-admin/tools.env"
	DefaultHashAlg   = "sha256"
	DefaultTimeout   = 30 * time.Second
	DefaultOutput    = "text"
	TextOutput       = "text"
	YAMLOutput       = "yaml"
	DefaultDevice    = "tpm0"
	ScratchDirPrefix = "tpm2-admin-"

	// Scratch files created inside a per operation scratch dir
	MessageFile  = "message.tmp"
	RandomFile   = "rng.tmp"
	UnsealedFile = "unsealed.tmp"

	// Suffixes of the files the tools write in the work dir
	PublicKeySuffix  = "pub.key"
	PrivateKeySuffix = "priv.key"
	SignatureSuffix  = ".sig"
	AttestSuffix     = ".att"

	// Sealed data blobs are bound to PCR 16 (bitmask 0x10000) with this policy file
	SealPolicyPrefix = "policypcr16aaa"
	SealPolicyPCRMap = "10000"

	MaxPCR        = 23
	PCRCount      = 24
	RandomBytes   = 16
	DigestPerLine = 16

	DirPerm  = os.ModeDir | os.ModePerm
	FilePerm = 0666
	TempPerm = 0600

	// TSS response code reported when a context file is missing. Bulk flush ignores it
	// since context files may live in a different data directory.
	RCMissingFile = "000b0016"
)

// Names of the external TPM2 utilities
const (
	HierarchyChangeAuthTool = "hierarchychangeauth"
	ClockSetTool            = "clockset"
	ReadClockTool           = "readclock"
	HierarchyControlTool    = "hierarchycontrol"
	NVDefineSpaceTool       = "nvdefinespace"
	NVUndefineSpaceTool     = "nvundefinespace"
	NVWriteTool             = "nvwrite"
	NVWriteLockTool         = "nvwritelock"
	NVReadTool              = "nvread"
	NVIncrementTool         = "nvincrement"
	NVReadPublicTool        = "nvreadpublic"
	PCRExtendTool           = "pcrextend"
	PCRResetTool            = "pcrreset"
	PCRReadTool             = "pcrread"
	CreatePrimaryTool       = "createprimary"
	CreateTool              = "create"
	CreateLoadedTool        = "createloaded"
	LoadTool                = "load"
	SignTool                = "sign"
	VerifySignatureTool     = "verifysignature"
	QuoteTool               = "quote"
	StartAuthSessionTool    = "startauthsession"
	PolicyPCRTool           = "policypcr"
	UnsealTool              = "unseal"
	FlushContextTool        = "flushcontext"
	EvictControlTool        = "evictcontrol"
	GetCapabilityTool       = "getcapability"
	GetRandomTool           = "getrandom"
)

// Capability selectors and properties used by getcapability
const (
	CapHandles          = "1"
	CapTPMProperties    = "6"
	PropPermanent       = "200"
	PropStartupClear    = "201"
	PropManufacturer    = "TPM_PT_MANUFACTURER"
	PropVendorString1   = "TPM_PT_VENDOR_STRING_1"
	PropVendorString2   = "TPM_PT_VENDOR_STRING_2"
	PropRevision        = "TPM_PT_REVISION"
	PropFirmware1       = "TPM_PT_FIRMWARE_VERSION_1"
	PropFirmware2       = "TPM_PT_FIRMWARE_VERSION_2"
	TimeInfoMarker      = "TPMS_TIME_INFO"
	ClockInfoMarker     = "TPMS_CLOCK_INFO"
	PolicyMarker        = "policy"
	HandleListingNV     = "01000000"
	HandleListingLoaded = "02000000"
	HandleListingSaved  = "03000000"
	HandleListingTrans  = "80000000"
	HandleListingPers   = "81000000"
)

// GetHandleListings returns the capability ranges queried to list all TPM resident handles
func GetHandleListings() []string {
	return []string{HandleListingNV, HandleListingLoaded, HandleListingSaved, HandleListingTrans, HandleListingPers}
}

// GetHashAlgorithms returns the hash algorithm names accepted by the TPM utilities
func GetHashAlgorithms() []string {
	return []string{"sha1", "sha256", "sha384"}
}

// GetPasswordFlags returns the tool flags whose value is a secret
func GetPasswordFlags() []string {
	return []string{"-pwda", "-pwdn", "-pwdp", "-pwdk"}
}
