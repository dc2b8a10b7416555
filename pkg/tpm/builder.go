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
	"path/filepath"
	"strconv"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

// Builder turns validated operation options into TPM tool invocations. It runs
// nothing and holds no state other than the tool location and defaults.
type Builder struct {
	ToolsDir   string
	ToolPrefix string
	// WorkDir is the working directory of every tool, key blobs, signatures and quotes live there
	WorkDir   string
	PolicyDir string
	// HashAlg is the tool name of the hash algorithm, such as sha256
	HashAlg string
	Env     []string
}

// NewBuilder returns a Builder for the given configuration
func NewBuilder(cfg *v1.Config) Builder {
	policyDir := cfg.PolicyDir
	if policyDir == "" {
		policyDir = filepath.Join(cfg.WorkDir, constants.PoliciesDirName)
	}
	hashAlg := cfg.HashAlgorithm
	if hashAlg == "" {
		hashAlg = constants.DefaultHashAlg
	}
	return Builder{
		ToolsDir:   cfg.ToolsDir,
		ToolPrefix: cfg.ToolPrefix,
		WorkDir:    cfg.WorkDir,
		PolicyDir:  policyDir,
		HashAlg:    hashAlg,
		Env:        cfg.ToolEnv,
	}
}

func (b Builder) command(tool string, a ...string) v1.CommandSpec {
	var env []string
	if len(b.Env) > 0 {
		env = append(env, b.Env...)
	}
	return v1.CommandSpec{
		Path: filepath.Join(b.ToolsDir, b.ToolPrefix+tool),
		Args: a,
		Env:  env,
		Dir:  b.WorkDir,
	}
}

// PublicKeyFile returns the public area file name derived from a key label
func PublicKeyFile(label string) string {
	return label + constants.PublicKeySuffix
}

// PrivateKeyFile returns the private area file name derived from a key label
func PrivateKeyFile(label string) string {
	return label + constants.PrivateKeySuffix
}

// SealPolicyFile returns the PCR 16 policy used to seal data blobs for the given hash algorithm
func (b Builder) SealPolicyFile() string {
	return filepath.Join(b.PolicyDir, constants.SealPolicyPrefix+b.HashAlg+".bin")
}

type HierarchyChangeAuthOptions struct {
	Hierarchy       string `mapstructure:"hi"`
	Password        string `mapstructure:"pwda"`
	NewPassword     string `mapstructure:"pwdn"`
	ConfirmPassword string `mapstructure:"pwdn2"`
}

// HierarchyChangeAuth changes the authorization value of a hierarchy. An empty new
// password means no change and returns ErrNothingToDo.
func (b Builder) HierarchyChangeAuth(opts Options) (v1.CommandSpec, error) {
	var o HierarchyChangeAuthOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := oneOf("hi", o.Hierarchy, "p", "o", "e", "l"); err != nil {
		return v1.CommandSpec{}, err
	}
	if o.NewPassword != o.ConfirmPassword {
		return v1.CommandSpec{}, tpmError.NewValidationError("pwdn2", "new passwords do not match")
	}
	if o.NewPassword == "" {
		return v1.CommandSpec{}, ErrNothingToDo
	}

	var a args
	a.add("-hi", o.Hierarchy)
	a.opt("-pwda", o.Password)
	a.opt("-pwdn", o.NewPassword)
	return b.command(constants.HierarchyChangeAuthTool, a...), nil
}

type ClockSetOptions struct {
	Hierarchy string `mapstructure:"hi"`
	Clock     string `mapstructure:"clock"`
}

// ClockSet sets the TPM clock, in milliseconds
func (b Builder) ClockSet(opts Options) (v1.CommandSpec, error) {
	var o ClockSetOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := oneOf("hi", o.Hierarchy, "p", "o"); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := required("clock", o.Clock); err != nil {
		return v1.CommandSpec{}, err
	}
	if _, err := strconv.ParseUint(o.Clock, 10, 64); err != nil {
		return v1.CommandSpec{}, tpmError.NewValidationError("clock", "'%s' is not a time in milliseconds", o.Clock)
	}
	return b.command(constants.ClockSetTool, "-hi", o.Hierarchy, "-clock", o.Clock), nil
}

type HierarchyControlOptions struct {
	Hierarchy string `mapstructure:"he"`
	State     string `mapstructure:"state"`
}

// HierarchyControl enables or disables the storage or endorsement hierarchy, or
// the platform NV access (phEnableNV), under platform authorization
func (b Builder) HierarchyControl(opts Options) (v1.CommandSpec, error) {
	var o HierarchyControlOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := oneOf("he", o.Hierarchy, "o", "e", "n"); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := oneOf("state", o.State, "0", "1"); err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.HierarchyControlTool, "-hi", "p", "-he", o.Hierarchy, "-state", o.State), nil
}

type NVDefineSpaceOptions struct {
	Handle            string `mapstructure:"ha"`
	Password          string `mapstructure:"pwdn"`
	Type              string `mapstructure:"ty"`
	WriteDefine       bool   `mapstructure:"wd"`
	Hierarchy         string `mapstructure:"hid"`
	HierarchyPassword string `mapstructure:"pwdpd"`
	Size              string `mapstructure:"szd"`
}

// NVDefineSpace defines an NV index of type ordinary (o), counter (c), bits (b) or
// extend (e) under the platform or owner hierarchy
func (b Builder) NVDefineSpace(opts Options) (v1.CommandSpec, error) {
	var o NVDefineSpaceOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = oneOf("ty", o.Type, "o", "c", "b", "e"); err != nil {
		return v1.CommandSpec{}, err
	}
	if err = oneOf("hid", o.Hierarchy, "p", "o"); err != nil {
		return v1.CommandSpec{}, err
	}
	if err = sizeArg("szd", o.Size); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-ha", ha)
	a.opt("-pwdn", o.Password)
	a.add("-ty", o.Type)
	a.flag(o.WriteDefine, "+at", "wd")
	a.add("-hi", o.Hierarchy)
	a.opt("-pwdp", o.HierarchyPassword)
	a.opt("-sz", o.Size)
	return b.command(constants.NVDefineSpaceTool, a...), nil
}

type NVUndefineSpaceOptions struct {
	Handle            string `mapstructure:"ha"`
	Hierarchy         string `mapstructure:"hiu"`
	HierarchyPassword string `mapstructure:"pwdpu"`
}

func (b Builder) NVUndefineSpace(opts Options) (v1.CommandSpec, error) {
	var o NVUndefineSpaceOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = oneOf("hiu", o.Hierarchy, "p", "o"); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-ha", ha, "-hi", o.Hierarchy)
	a.opt("-pwdp", o.HierarchyPassword)
	return b.command(constants.NVUndefineSpaceTool, a...), nil
}

type NVWriteOptions struct {
	Handle   string `mapstructure:"ha"`
	Password string `mapstructure:"pwdn"`
	Data     string `mapstructure:"ic"`
}

func (b Builder) NVWrite(opts Options) (v1.CommandSpec, error) {
	var o NVWriteOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-ha", ha)
	a.opt("-pwdn", o.Password)
	a.opt("-ic", o.Data)
	return b.command(constants.NVWriteTool, a...), nil
}

type NVIndexAuthOptions struct {
	Handle   string `mapstructure:"ha"`
	Password string `mapstructure:"pwdn"`
}

func (b Builder) nvIndexAuth(tool string, opts Options) (v1.CommandSpec, error) {
	var o NVIndexAuthOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-ha", ha)
	a.opt("-pwdn", o.Password)
	return b.command(tool, a...), nil
}

func (b Builder) NVWriteLock(opts Options) (v1.CommandSpec, error) {
	return b.nvIndexAuth(constants.NVWriteLockTool, opts)
}

func (b Builder) NVIncrement(opts Options) (v1.CommandSpec, error) {
	return b.nvIndexAuth(constants.NVIncrementTool, opts)
}

type NVReadOptions struct {
	Handle   string `mapstructure:"ha"`
	Password string `mapstructure:"pwdn"`
	Size     string `mapstructure:"szr"`
}

func (b Builder) NVRead(opts Options) (v1.CommandSpec, error) {
	var o NVReadOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = sizeArg("szr", o.Size); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-ha", ha)
	a.opt("-pwdn", o.Password)
	a.opt("-sz", o.Size)
	return b.command(constants.NVReadTool, a...), nil
}

type HandleOptions struct {
	Handle string `mapstructure:"ha"`
}

func (b Builder) NVReadPublic(opts Options) (v1.CommandSpec, error) {
	var o HandleOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.NVReadPublicTool, "-ha", ha), nil
}

type PCRExtendOptions struct {
	PCR  string `mapstructure:"ha"`
	Data string `mapstructure:"ic"`
}

func (b Builder) PCRExtend(opts Options) (v1.CommandSpec, error) {
	var o PCRExtendOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	pcr, err := pcrArg("ha", o.PCR)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = required("ic", o.Data); err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.PCRExtendTool, "-halg", b.HashAlg, "-ha", pcr, "-ic", o.Data), nil
}

type PCROptions struct {
	PCR string `mapstructure:"ha"`
}

func (b Builder) PCRReset(opts Options) (v1.CommandSpec, error) {
	var o PCROptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	pcr, err := pcrArg("ha", o.PCR)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.PCRResetTool, "-ha", pcr), nil
}

func (b Builder) PCRRead(opts Options) (v1.CommandSpec, error) {
	var o PCROptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	pcr, err := pcrArg("ha", o.PCR)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.PCRReadTool, "-ha", pcr, "-halg", b.HashAlg), nil
}

type CreatePrimaryOptions struct {
	Hierarchy         string `mapstructure:"hi"`
	HierarchyPassword string `mapstructure:"pwdph"`
	KeyPassword       string `mapstructure:"pwdk"`
}

// CreatePrimary creates a primary storage key, the tool default hierarchy is used
// when none is given
func (b Builder) CreatePrimary(opts Options) (v1.CommandSpec, error) {
	var o CreatePrimaryOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	if o.Hierarchy != "" {
		if err := oneOf("hi", o.Hierarchy, "p", "o", "e", "n"); err != nil {
			return v1.CommandSpec{}, err
		}
	}

	var a args
	a.opt("-hi", o.Hierarchy)
	a.opt("-pwdp", o.HierarchyPassword)
	a.opt("-pwdk", o.KeyPassword)
	return b.command(constants.CreatePrimaryTool, a...), nil
}

// Key types accepted by create and createloaded
const (
	KeyTypeStorage       = "st"
	KeyTypeSigning       = "si"
	KeyTypeRestrictedSig = "sir"
	KeyTypeKeyedHash     = "kh"
	KeyTypeDecryptNone   = "den"
	KeyTypeDecryptOAEP   = "deo"
	KeyTypeDecryptSym    = "des"
	KeyTypeSealedBlob    = "bl"
	KeyTypeGeneric       = "gp"
)

func GetKeyTypes() []string {
	return []string{
		KeyTypeStorage, KeyTypeSigning, KeyTypeRestrictedSig, KeyTypeKeyedHash, KeyTypeDecryptNone,
		KeyTypeDecryptOAEP, KeyTypeDecryptSym, KeyTypeSealedBlob, KeyTypeGeneric,
	}
}

type CreateOptions struct {
	Parent         string `mapstructure:"hp"`
	Label          string `mapstructure:"label"`
	KeyType        string `mapstructure:"keytype"`
	Message        string `mapstructure:"msg"`
	FixedTPM       bool   `mapstructure:"fixedtpm"`
	FixedParent    bool   `mapstructure:"fixedparent"`
	DA             bool   `mapstructure:"da"`
	CreateLoaded   bool   `mapstructure:"cl"`
	ParentPassword string `mapstructure:"pwdpc"`
	KeyPassword    string `mapstructure:"pwdk"`
	// MessageFile is where the caller stores the message of a sealed data blob
	MessageFile string `mapstructure:"msgfile"`
}

// Create creates an ordinary key under the given parent, or a sealed data blob bound
// to PCR 16 when the key type is bl. Key files are named after the label.
func (b Builder) Create(opts Options) (v1.CommandSpec, error) {
	var o CreateOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	hp, err := handleArg("hp", o.Parent)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = fileNameArg("label", o.Label); err != nil {
		return v1.CommandSpec{}, err
	}
	if err = oneOf("keytype", o.KeyType, GetKeyTypes()...); err != nil {
		return v1.CommandSpec{}, err
	}
	sealed := o.KeyType == KeyTypeSealedBlob
	if sealed && o.Message == "" {
		return v1.CommandSpec{}, tpmError.NewValidationError("msg", "a sealed data blob requires a message")
	}
	if !sealed && o.Message != "" {
		return v1.CommandSpec{}, tpmError.NewValidationError("msg", "only a sealed data blob accepts a message")
	}

	tool := constants.CreateTool
	if o.CreateLoaded {
		tool = constants.CreateLoadedTool
	}

	var a args
	a.add("-hp", hp)
	a.flag(o.FixedTPM, "-kt", "f")
	a.flag(o.FixedParent, "-kt", "p")
	a.flag(o.DA, "-da")
	a.add("-" + o.KeyType)
	a.opt("-pwdp", o.ParentPassword)
	a.opt("-pwdk", o.KeyPassword)
	a.add("-opu", PublicKeyFile(o.Label), "-opr", PrivateKeyFile(o.Label))
	a.add("-nalg", b.HashAlg, "-halg", b.HashAlg)
	if sealed {
		msgFile := o.MessageFile
		if msgFile == "" {
			msgFile = constants.MessageFile
		}
		a.add("-if", msgFile, "-pol", b.SealPolicyFile())
	}
	return b.command(tool, a...), nil
}

type LoadOptions struct {
	Parent         string `mapstructure:"hp"`
	Label          string `mapstructure:"label"`
	ParentPassword string `mapstructure:"pwdp"`
}

// Load loads the key files of the given label under its parent
func (b Builder) Load(opts Options) (v1.CommandSpec, error) {
	var o LoadOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	hp, err := handleArg("hp", o.Parent)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = fileNameArg("label", o.Label); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-hp", hp, "-ipu", PublicKeyFile(o.Label), "-ipr", PrivateKeyFile(o.Label))
	a.opt("-pwdp", o.ParentPassword)
	return b.command(constants.LoadTool, a...), nil
}

type SignOptions struct {
	Key         string `mapstructure:"hk"`
	Signature   string `mapstructure:"sigfile"`
	Input       string `mapstructure:"if"`
	KeyPassword string `mapstructure:"pwdk"`
}

func (b Builder) Sign(opts Options) (v1.CommandSpec, error) {
	var o SignOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	hk, err := handleArg("hk", o.Key)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = fileNameArg("sigfile", o.Signature); err != nil {
		return v1.CommandSpec{}, err
	}
	if err = required("if", o.Input); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-hk", hk, "-os", o.Signature+constants.SignatureSuffix, "-if", o.Input)
	a.opt("-pwdk", o.KeyPassword)
	return b.command(constants.SignTool, a...), nil
}

type VerifySignatureOptions struct {
	Key       string `mapstructure:"hk"`
	Signature string `mapstructure:"sigfile"`
	Input     string `mapstructure:"if"`
	HashAlg   string `mapstructure:"halg"`
}

// VerifySignature verifies the signature file named sigfile over the input file
func (b Builder) VerifySignature(opts Options) (v1.CommandSpec, error) {
	var o VerifySignatureOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	hk, err := handleArg("hk", o.Key)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = fileNameArg("sigfile", o.Signature); err != nil {
		return v1.CommandSpec{}, err
	}
	if err = required("if", o.Input); err != nil {
		return v1.CommandSpec{}, err
	}
	if o.HashAlg != "" {
		if _, err = LookupHashAlgorithm(o.HashAlg); err != nil {
			return v1.CommandSpec{}, err
		}
	}

	var a args
	a.add("-hk", hk)
	a.opt("-halg", o.HashAlg)
	a.add("-is", o.Signature+constants.SignatureSuffix, "-if", o.Input)
	return b.command(constants.VerifySignatureTool, a...), nil
}

type QuoteOptions struct {
	Key         string `mapstructure:"hk"`
	PCR         string `mapstructure:"hpcr"`
	QuoteName   string `mapstructure:"quotename"`
	KeyPassword string `mapstructure:"pwdk"`
}

// Quote signs the given PCR with the key, writing the signature and the attestation
// structure to files named after quotename
func (b Builder) Quote(opts Options) (v1.CommandSpec, error) {
	var o QuoteOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	hk, err := handleArg("hk", o.Key)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	pcr, err := pcrArg("hpcr", o.PCR)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = fileNameArg("quotename", o.QuoteName); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-hk", hk, "-halg", b.HashAlg, "-hp", pcr)
	a.add("-os", o.QuoteName+constants.SignatureSuffix, "-oa", o.QuoteName+constants.AttestSuffix)
	a.opt("-pwdk", o.KeyPassword)
	return b.command(constants.QuoteTool, a...), nil
}

// StartAuthSession starts a policy session
func (b Builder) StartAuthSession() v1.CommandSpec {
	return b.command(constants.StartAuthSessionTool, "-se", "p", "-halg", b.HashAlg)
}

type PolicyPCROptions struct {
	Session string `mapstructure:"ha"`
	PCRMask string `mapstructure:"bm"`
}

// PolicyPCR asserts the PCR selection bitmask in the given policy session, PCR 16
// by default
func (b Builder) PolicyPCR(opts Options) (v1.CommandSpec, error) {
	var o PolicyPCROptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Session)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if o.PCRMask == "" {
		o.PCRMask = constants.SealPolicyPCRMap
	}
	if _, err = strconv.ParseUint(o.PCRMask, 16, 32); err != nil {
		return v1.CommandSpec{}, tpmError.NewValidationError("bm", "'%s' is not a hex PCR bitmask", o.PCRMask)
	}
	return b.command(constants.PolicyPCRTool, "-halg", b.HashAlg, "-bm", o.PCRMask, "-ha", ha), nil
}

type UnsealOptions struct {
	Object  string `mapstructure:"ha"`
	Output  string `mapstructure:"of"`
	Session string `mapstructure:"se0"`
}

// Unseal unseals the loaded blob into the output file, authorized by the policy session
func (b Builder) Unseal(opts Options) (v1.CommandSpec, error) {
	var o UnsealOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Object)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	if err = required("of", o.Output); err != nil {
		return v1.CommandSpec{}, err
	}
	se, err := handleArg("se0", o.Session)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.UnsealTool, "-ha", ha, "-of", o.Output, "-se0", se, "1"), nil
}

func (b Builder) FlushContext(opts Options) (v1.CommandSpec, error) {
	var o HandleOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.FlushContextTool, "-ha", ha), nil
}

// EvictControl evicts a persistent object under platform authorization
func (b Builder) EvictControl(opts Options) (v1.CommandSpec, error) {
	var o HandleOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	ha, err := handleArg("ha", o.Handle)
	if err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.EvictControlTool, "-hi", "p", "-ho", ha, "-hp", ha), nil
}

type GetCapabilityOptions struct {
	Capability string `mapstructure:"cap"`
	Property   string `mapstructure:"pr"`
	Count      string `mapstructure:"pc"`
}

func (b Builder) GetCapability(opts Options) (v1.CommandSpec, error) {
	var o GetCapabilityOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := required("cap", o.Capability); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := sizeArg("pc", o.Count); err != nil {
		return v1.CommandSpec{}, err
	}

	var a args
	a.add("-cap", o.Capability)
	a.opt("-pr", o.Property)
	a.opt("-pc", o.Count)
	return b.command(constants.GetCapabilityTool, a...), nil
}

type GetRandomOptions struct {
	Bytes  string `mapstructure:"by"`
	Output string `mapstructure:"of"`
}

func (b Builder) GetRandom(opts Options) (v1.CommandSpec, error) {
	var o GetRandomOptions
	if err := decodeOptions(opts, &o); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := required("by", o.Bytes); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := sizeArg("by", o.Bytes); err != nil {
		return v1.CommandSpec{}, err
	}
	if err := required("of", o.Output); err != nil {
		return v1.CommandSpec{}, err
	}
	return b.command(constants.GetRandomTool, "-by", o.Bytes, "-of", o.Output), nil
}

func (b Builder) ReadClock() v1.CommandSpec {
	return b.command(constants.ReadClockTool)
}
