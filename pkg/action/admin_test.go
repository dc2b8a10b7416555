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

package action_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sanity-io/litter"
	"github.com/twpayne/go-vfs/v4/vfst"

	"github.com/tpm2-admin/tpm2-admin/pkg/action"
	"github.com/tpm2-admin/tpm2-admin/pkg/config"
	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/mocks"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

var tpmProperties = []string{
	"TPM_PT 00000105 value 0000008a TPM_PT_REVISION",
	"TPM_PT 00000105 value 49424d00 TPM_PT_MANUFACTURER",
	"TPM_PT 00000106 value 53572020 TPM_PT_VENDOR_STRING_1",
	"TPM_PT 00000107 value 2054504d TPM_PT_VENDOR_STRING_2",
	"TPM_PT 0000010b value 20191023 TPM_PT_FIRMWARE_VERSION_1",
	"TPM_PT 0000010c value 00163636 TPM_PT_FIRMWARE_VERSION_2",
}

var nvPublic = []string{
	"nvreadpublic: name algorithm 000b",
	"nvreadpublic: data size 8",
	"nvreadpublic: attributes 00000012",
	"nvreadpublic: policy length 0",
}

var _ = Describe("TPM actions", Label("action"), func() {
	var runner *mocks.FakeRunner
	var fake *fakeTPM
	var fs *vfst.TestFS
	var cleanup func()
	var cfg *v1.Config
	var tpmAction *action.TPMAction
	var memLog *bytes.Buffer
	var ctx context.Context

	BeforeEach(func() {
		var err error
		var logger v1.Logger

		runner = mocks.NewFakeRunner()
		fake = newFakeTPM()
		runner.SideEffect = fake.run
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{})
		Expect(err).ToNot(HaveOccurred())
		logger, memLog = newBufferLogger()
		ctx = context.Background()

		cfg = config.NewConfig(
			config.WithFs(fs),
			config.WithLogger(logger),
			config.WithRunner(runner),
			config.WithDevice(v1.GetDevice("test-actions")),
		)
		tpmAction = action.NewTPMAction(cfg, action.WithClock(func() time.Time {
			return time.UnixMilli(1700000000000)
		}))
		Expect(tpmAction).ToNot(BeNil())
	})
	AfterEach(func() { cleanup() })

	Describe("Hierarchy", Label("hierarchy"), func() {
		It("changes the hierarchy password", func() {
			res, err := tpmAction.ChangeHierarchyAuth(ctx, tpm.Options{"hi": "o", "pwdn": "new", "pwdn2": "new"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Changed).To(BeTrue())
			Expect(runner.CmdsMatch([][]string{{tool(constants.HierarchyChangeAuthTool), "-hi", "o", "-pwdn", "new"}})).To(Succeed())
			Expect(memLog.String()).ToNot(ContainSubstring("new"))
		})
		It("runs nothing for an empty new password", func() {
			res, err := tpmAction.ChangeHierarchyAuth(ctx, tpm.Options{"hi": "o", "pwda": "old"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Changed).To(BeFalse())
			Expect(runner.GetCmds()).To(BeEmpty())
		})
		It("validates before running anything", func() {
			_, err := tpmAction.ChangeHierarchyAuth(ctx, tpm.Options{"hi": "x", "pwdn": "a", "pwdn2": "a"})
			expectValidationError(err, "hi")
			Expect(runner.GetCmds()).To(BeEmpty())
		})
		It("reports tool failures with the command and its output", func() {
			fake.on(constants.HierarchyChangeAuthTool, mocks.Failure(1, "hierarchychangeauth: failed, rc 000009a2"))
			_, err := tpmAction.ChangeHierarchyAuth(ctx, tpm.Options{"hi": "o", "pwda": "bad", "pwdn": "a", "pwdn2": "a"})
			tErr := expectToolError(err, tool(constants.HierarchyChangeAuthTool))
			Expect(tErr.ExitCode).To(Equal(1))
			Expect(tErr.Output).To(Equal([]string{"hierarchychangeauth: failed, rc 000009a2"}))
			Expect(err.Error()).ToNot(ContainSubstring("bad"))
		})
		It("sets the clock to the current time by default", func() {
			res, err := tpmAction.SetClock(ctx, tpm.Options{"hi": "o"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.ClockMs).To(Equal(uint64(1700000000000)))
			Expect(runner.CmdsMatch([][]string{{tool(constants.ClockSetTool), "-hi", "o", "-clock", "1700000000000"}})).To(Succeed())
		})
		It("sets the given clock", func() {
			_, err := tpmAction.SetClock(ctx, tpm.Options{"hi": "p", "clock": "42"})
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.CmdsMatch([][]string{{tool(constants.ClockSetTool), "-hi", "p", "-clock", "42"}})).To(Succeed())
		})
		It("disables the endorsement hierarchy", func() {
			res, err := tpmAction.HierarchyControl(ctx, tpm.Options{"he": "e", "state": "0"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Enabled).To(BeFalse())
			Expect(runner.CmdsMatch([][]string{{tool(constants.HierarchyControlTool), "-hi", "p", "-he", "e", "-state", "0"}})).To(Succeed())
		})
	})

	Describe("Status", Label("status"), func() {
		BeforeEach(func() {
			fake.writes(constants.GetRandomTool, fs, bytes.Repeat([]byte{0xab}, constants.RandomBytes))
			runner.SideEffect = func(spec v1.CommandSpec) (*v1.ExecutionResult, error) {
				if spec.Tool() == constants.ToolPrefix+constants.GetCapabilityTool {
					switch argValue(spec, "-pr") {
					case constants.PropPermanent:
						return mocks.Output("1 property", "", "TPM_PT 00000200 value 00000401"), nil
					case constants.PropStartupClear:
						return mocks.Output("1 property", "", "TPM_PT 00000201 value 80000003"), nil
					default:
						return mocks.Output(tpmProperties...), nil
					}
				}
				if spec.Tool() == constants.ToolPrefix+constants.ReadClockTool {
					return mocks.Output("TPMS_TIME_INFO time 5000", "TPMS_CLOCK_INFO clock 1700000000000"), nil
				}
				return fake.run(spec)
			}
		})
		It("gathers the TPM status", func() {
			res, err := tpmAction.Status(ctx)
			Expect(err).ToNot(HaveOccurred(), litter.Sdump(res))
			Expect(res.Properties.Manufacturer).To(Equal("IBM"))
			Expect(res.Clock.UptimeMs).To(Equal(uint64(5000)))
			Expect(res.HierarchyStatus.Flags.Has(tpm.OwnerAuthSet)).To(BeTrue())
			Expect(res.HierarchyStatus.Flags.Has(tpm.InLockout)).To(BeFalse())
			Expect(res.HierarchyStatus.Flags.Has(tpm.TPMGeneratedEPS)).To(BeTrue())
			Expect(res.CapabilityStatus.Flags.Has(tpm.PlatformEnabled)).To(BeTrue())
			Expect(res.CapabilityStatus.Flags.Has(tpm.StorageEnabled)).To(BeTrue())
			Expect(res.CapabilityStatus.Flags.Has(tpm.EndorsementEnabled)).To(BeFalse())
			Expect(res.Random).To(HaveLen(constants.RandomBytes))

			Expect(runner.CmdsMatch([][]string{
				{tool(constants.GetCapabilityTool), "-cap", "6"},
				{tool(constants.ReadClockTool)},
				{tool(constants.GetCapabilityTool), "-cap", "6", "-pr", "200", "-pc", "1"},
				{tool(constants.GetCapabilityTool), "-cap", "6", "-pr", "201", "-pc", "1"},
				{tool(constants.GetRandomTool), "-by", "16", "-of", filepath.Join(scratchDir, constants.RandomFile)},
			})).To(Succeed())
			exists, _ := utils.Exists(fs, scratchDir)
			Expect(exists).To(BeFalse())
		})
		It("fails closed on malformed status words", func() {
			runner.SideEffect = func(spec v1.CommandSpec) (*v1.ExecutionResult, error) {
				return mocks.Output(tpmProperties...), nil
			}
			_, err := tpmAction.Status(ctx)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Random", Label("random"), func() {
		It("reads back the random bytes and removes the scratch file", func() {
			fake.writes(constants.GetRandomTool, fs, []byte{0x01, 0x02, 0x03, 0x04})
			res, err := tpmAction.GetRandom(ctx, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Bytes.String()).To(Equal("01020304"))
			exists, _ := utils.Exists(fs, scratchDir)
			Expect(exists).To(BeFalse())
		})
		It("removes the scratch dir when the tool fails", func() {
			fake.on(constants.GetRandomTool, mocks.Failure(1, "getrandom: failed"))
			_, err := tpmAction.GetRandom(ctx, 4)
			expectToolError(err, tool(constants.GetRandomTool))
			exists, _ := utils.Exists(fs, scratchDir)
			Expect(exists).To(BeFalse())
		})
		It("fails if fewer bytes than requested are written", func() {
			fake.writes(constants.GetRandomTool, fs, []byte{0x01})
			_, err := tpmAction.GetRandom(ctx, 4)
			Expect(err).To(HaveOccurred())
		})
		It("rejects non positive sizes", func() {
			_, err := tpmAction.GetRandom(ctx, 0)
			expectValidationError(err, "by")
			Expect(runner.GetCmds()).To(BeEmpty())
		})
	})

	Describe("NV", Label("nv"), func() {
		It("defines an index and reads back its public area", func() {
			fake.on(constants.NVReadPublicTool, mocks.Output(nvPublic...))
			res, err := tpmAction.NVDefine(ctx, tpm.Options{"ha": "01000000", "ty": "o", "hid": "o", "szd": "8"})
			Expect(err).ToNot(HaveOccurred(), litter.Sdump(res))
			Expect(res.Public.Size).To(Equal(uint32(8)))
			Expect(res.Public.Attributes.Flags.Has(tpm.OwnerAuthWrite)).To(BeTrue())
			Expect(runner.CmdsMatch([][]string{
				{tool(constants.NVDefineSpaceTool), "-ha", "01000000", "-ty", "o", "-hi", "o", "-sz", "8"},
				{tool(constants.NVReadPublicTool), "-ha", "01000000"},
			})).To(Succeed())
		})
		It("does not read the public area if the definition fails", func() {
			fake.on(constants.NVDefineSpaceTool, mocks.Failure(1, "nvdefinespace: failed"))
			_, err := tpmAction.NVDefine(ctx, tpm.Options{"ha": "01000000", "ty": "o", "hid": "o"})
			expectToolError(err, tool(constants.NVDefineSpaceTool))
			Expect(runner.GetCmds()).To(HaveLen(1))
		})
		It("writes, locks, increments and undefines indexes", func() {
			Expect(tpmAction.NVWrite(ctx, tpm.Options{"ha": "01000000", "ic": "hello"})).To(Succeed())
			Expect(tpmAction.NVWriteLock(ctx, tpm.Options{"ha": "01000000"})).To(Succeed())
			Expect(tpmAction.NVIncrement(ctx, tpm.Options{"ha": "01000001", "pwdn": "pw"})).To(Succeed())
			Expect(tpmAction.NVUndefine(ctx, tpm.Options{"ha": "01000000", "hiu": "o"})).To(Succeed())
			Expect(runner.CmdsMatch([][]string{
				{tool(constants.NVWriteTool), "-ha", "01000000", "-ic", "hello"},
				{tool(constants.NVWriteLockTool), "-ha", "01000000"},
				{tool(constants.NVIncrementTool), "-ha", "01000001", "-pwdn", "pw"},
				{tool(constants.NVUndefineSpaceTool), "-ha", "01000000", "-hi", "o"},
			})).To(Succeed())
		})
		It("reads index data as bytes and text", func() {
			fake.on(constants.NVReadTool, mocks.Output("nvread: success", "68 65 6c 6c 6f 00"))
			res, err := tpmAction.NVRead(ctx, tpm.Options{"ha": "01000000", "szr": "6"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Size).To(Equal(6))
			Expect(res.ASCII).To(Equal("hello."))
		})
		It("lists indexes reporting the ones that can't be read", func() {
			runner.SideEffect = func(spec v1.CommandSpec) (*v1.ExecutionResult, error) {
				switch spec.Tool() {
				case constants.ToolPrefix + constants.GetCapabilityTool:
					return mocks.Output("2", "01000000", "01000001"), nil
				case constants.ToolPrefix + constants.NVReadPublicTool:
					if argValue(spec, "-ha") == "01000001" {
						return mocks.Failure(1, "nvreadpublic: failed"), nil
					}
					return mocks.Output(nvPublic...), nil
				}
				return mocks.Output(), nil
			}
			entries, err := tpmAction.NVList(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Public).ToNot(BeNil())
			Expect(entries[1].Public).To(BeNil())
			Expect(entries[1].Error).To(ContainSubstring("nvreadpublic: failed"))
			Expect(runner.CmdsMatch([][]string{
				{tool(constants.GetCapabilityTool), "-cap", "1", "-pr", "01000000"},
				{tool(constants.NVReadPublicTool), "-ha", "01000000"},
				{tool(constants.NVReadPublicTool), "-ha", "01000001"},
			})).To(Succeed())
		})
	})

	Describe("PCR", Label("pcr"), func() {
		It("extends, resets and reads a PCR", func() {
			fake.on(constants.PCRReadTool, mocks.Output("count 1 halg 000b", "digest length 32",
				"00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f",
				"10 11 12 13 14 15 16 17 18 19 1a 1b 1c 1d 1e 1f"))
			Expect(tpmAction.PCRExtend(ctx, tpm.Options{"ha": "16", "ic": "data"})).To(Succeed())
			Expect(tpmAction.PCRReset(ctx, tpm.Options{"ha": "16"})).To(Succeed())
			value, err := tpmAction.PCRRead(ctx, tpm.Options{"ha": "16"})
			Expect(err).ToNot(HaveOccurred())
			Expect(value.Index).To(Equal(16))
			Expect(value.Digest).To(HaveLen(32))
			Expect(runner.CmdsMatch([][]string{
				{tool(constants.PCRExtendTool), "-halg", "sha256", "-ha", "16", "-ic", "data"},
				{tool(constants.PCRResetTool), "-ha", "16"},
				{tool(constants.PCRReadTool), "-ha", "16", "-halg", "sha256"},
			})).To(Succeed())
		})
		It("reads every PCR reporting failures per PCR", func() {
			runner.SideEffect = func(spec v1.CommandSpec) (*v1.ExecutionResult, error) {
				if argValue(spec, "-ha") == "3" {
					return mocks.Failure(1, "pcrread: failed"), nil
				}
				return mocks.Output("count 1 halg 000b", "digest length 16", "00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f"), nil
			}
			values, err := tpmAction.PCRReadAll(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(values).To(HaveLen(constants.PCRCount))
			Expect(values[3].Error).ToNot(BeEmpty())
			Expect(values[3].Digest).To(BeEmpty())
			Expect(values[23].Digest).To(HaveLen(16))
			Expect(runner.GetCmds()).To(HaveLen(constants.PCRCount))
		})
		It("rejects out of range PCRs", func() {
			_, err := tpmAction.PCRRead(ctx, tpm.Options{"ha": "24"})
			expectValidationError(err, "ha")
			Expect(runner.GetCmds()).To(BeEmpty())
		})
		It("reports the index of a PCR given with surrounding blanks", func() {
			fake.on(constants.PCRReadTool, mocks.Output("count 1 halg 000b", "digest length 16",
				"00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f"))
			value, err := tpmAction.PCRRead(ctx, tpm.Options{"ha": " 5 "})
			Expect(err).ToNot(HaveOccurred())
			Expect(value.Index).To(Equal(5))
			Expect(runner.CmdsMatch([][]string{{tool(constants.PCRReadTool), "-ha", "5", "-halg", "sha256"}})).To(Succeed())
		})
		It("fails to launch a tool missing from the tools dir", func() {
			runner.CmdNotFound = tool(constants.PCRResetTool)
			err := tpmAction.PCRReset(ctx, tpm.Options{"ha": "16"})
			var lErr *tpmError.LaunchError
			Expect(errors.As(err, &lErr)).To(BeTrue())
			Expect(lErr.Command).To(ContainSubstring(tool(constants.PCRResetTool)))
			Expect(tpmError.ExitCodeFor(err)).To(Equal(tpmError.LaunchFailed))
			Expect(runner.GetCmds()).To(BeEmpty())
		})
	})

	Describe("Keys", Label("key"), func() {
		It("creates a primary key", func() {
			fake.on(constants.CreatePrimaryTool, mocks.Output("Handle 80000000"))
			res, err := tpmAction.CreatePrimary(ctx, tpm.Options{"hi": "o"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Handle).To(Equal(tpm.Handle(0x80000000)))
		})
		It("fails closed on an unexpected createprimary output", func() {
			fake.on(constants.CreatePrimaryTool, mocks.Output("created"))
			_, err := tpmAction.CreatePrimary(ctx, tpm.Options{})
			Expect(err).To(HaveOccurred())
		})
		It("creates a signing key", func() {
			res, err := tpmAction.CreateKey(ctx, tpm.Options{"hp": "80000000", "label": "sig", "keytype": "si"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Handle).To(BeNil())
			Expect(res.PublicKey).To(Equal(filepath.Join(constants.WorkDir, "sigpub.key")))
			Expect(runner.CmdsMatch([][]string{{
				tool(constants.CreateTool), "-hp", "80000000", "-si", "-opu", "sigpub.key", "-opr", "sigpriv.key",
				"-nalg", "sha256", "-halg", "sha256",
			}})).To(Succeed())
		})
		It("creates and loads a key", func() {
			fake.on(constants.CreateLoadedTool, mocks.Output("Handle 80000001"))
			res, err := tpmAction.CreateKey(ctx, tpm.Options{"hp": "80000000", "label": "st", "keytype": "st", "cl": "true"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Handle).ToNot(BeNil())
			Expect(*res.Handle).To(Equal(tpm.Handle(0x80000001)))
		})
		It("seals a message through a scratch file removed afterwards", func() {
			var sealed []byte
			runner.SideEffect = func(spec v1.CommandSpec) (*v1.ExecutionResult, error) {
				var err error
				sealed, err = fs.ReadFile(argValue(spec, "-if"))
				return mocks.Output(), err
			}
			_, err := tpmAction.CreateKey(ctx, tpm.Options{"hp": "80000000", "label": "blob", "keytype": "bl", "msg": "secret"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(sealed)).To(Equal("secret"))
			Expect(runner.IncludesCmds([][]string{{
				tool(constants.CreateTool), "-hp", "80000000", "-bl", "-opu", "blobpub.key", "-opr", "blobpriv.key",
				"-nalg", "sha256", "-halg", "sha256", "-if", filepath.Join(scratchDir, constants.MessageFile),
				"-pol", filepath.Join(constants.WorkDir, constants.PoliciesDirName, "policypcr16aaasha256.bin"),
			}})).To(Succeed())
			exists, _ := utils.Exists(fs, scratchDir)
			Expect(exists).To(BeFalse())
		})
		It("refuses a sealed blob without message", func() {
			_, err := tpmAction.CreateKey(ctx, tpm.Options{"hp": "80000000", "label": "blob", "keytype": "bl"})
			expectValidationError(err, "msg")
			Expect(runner.GetCmds()).To(BeEmpty())
		})
	})
})
