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

package tpm_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sanity-io/litter"

	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

func expectParseError(err error, field string) {
	var pErr *tpmError.ParseError
	ExpectWithOffset(1, errors.As(err, &pErr)).To(BeTrue(), "expected a parse error, got: %v", err)
	ExpectWithOffset(1, pErr.Field).To(Equal(field))
}

var nvPublicSHA256 = []string{
	"nvreadpublic: name algorithm 000b",
	"nvreadpublic: data size 8",
	"nvreadpublic: attributes 2006000a",
	"TPMA_NV_POLICYWRITE",
	"nvreadpublic: policy length 32",
	"00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f",
	"10 11 12 13 14 15 16 17 18 19 1a 1b 1c 1d 1e 1f",
}

var _ = Describe("Parser", Label("tpm", "parser"), func() {
	Describe("Capability listings", func() {
		It("parses the declared number of handles", func() {
			listing, err := tpm.ParseCapabilityListing([]string{"2", "01000000", "01000001"})
			Expect(err).ToNot(HaveOccurred())
			Expect(listing).To(Equal(tpm.CapabilityListing{Count: 2, Handles: []string{"01000000", "01000001"}}), litter.Sdump(listing))
		})
		It("accepts a count followed by text", func() {
			listing, err := tpm.ParseCapabilityListing([]string{"1 handles", "80000000"})
			Expect(err).ToNot(HaveOccurred())
			Expect(listing.Handles).To(Equal([]string{"80000000"}))
		})
		It("parses empty listings", func() {
			listing, err := tpm.ParseCapabilityListing([]string{"0"})
			Expect(err).ToNot(HaveOccurred())
			Expect(listing.Count).To(Equal(0))
			Expect(listing.Handles).To(BeEmpty())
		})
		It("fails closed when fewer handles than declared are printed", func() {
			_, err := tpm.ParseCapabilityListing([]string{"2", "01000000"})
			expectParseError(err, "handles")
		})
		It("fails on a malformed count", func() {
			_, err := tpm.ParseCapabilityListing([]string{"two", "01000000", "01000001"})
			expectParseError(err, "count")
			_, err = tpm.ParseCapabilityListing([]string{})
			expectParseError(err, "count")
		})
	})

	Describe("Load responses", func() {
		It("parses the handle of the first line", func() {
			h, err := tpm.ParseLoadResponse([]string{"Handle 80000001"})
			Expect(err).ToNot(HaveOccurred())
			Expect(h).To(Equal(tpm.Handle(0x80000001)))
		})
		It("fails on malformed handles", func() {
			_, err := tpm.ParseLoadResponse([]string{"Handle"})
			expectParseError(err, "handle")
			_, err = tpm.ParseLoadResponse([]string{"Handle 8000000x"})
			expectParseError(err, "handle")
			_, err = tpm.ParseLoadResponse([]string{"Handle 800001"})
			expectParseError(err, "handle")
		})
	})

	Describe("Public areas", func() {
		It("parses algorithm, size, attributes and policy", func() {
			summary, err := tpm.ParsePublicArea(nvPublicSHA256)
			Expect(err).ToNot(HaveOccurred(), litter.Sdump(summary))
			Expect(summary.NameAlgorithm.String()).To(Equal("SHA-256"))
			Expect(summary.Size).To(Equal(uint32(8)))
			Expect(summary.Attributes.Word).To(Equal(uint32(0x2006000a)))
			Expect(summary.Attributes.Flags).To(Equal(tpm.FlagSet{
				tpm.OwnerAuthWrite, tpm.PolicyAuthWrite, tpm.OwnerAuthRead, tpm.IndexAuthRead, tpm.Written,
			}))
			Expect(summary.HasPolicy()).To(BeTrue())
			Expect(summary.PolicyLength).To(Equal(32))
			Expect(summary.Policy).To(HaveLen(32))
			Expect(summary.Policy[31]).To(Equal(byte(0x1f)))
		})
		It("parses indexes without policy", func() {
			summary, err := tpm.ParsePublicArea([]string{
				"nvreadpublic: name algorithm 0004",
				"nvreadpublic: data size 16",
				"nvreadpublic: attributes 00020002",
				"nvreadpublic: policy length 0",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.NameAlgorithm.String()).To(Equal("SHA-1"))
			Expect(summary.HasPolicy()).To(BeFalse())
			Expect(summary.Policy).To(BeEmpty())
		})
		It("reads three digest lines for SHA-384 policies", func() {
			summary, err := tpm.ParsePublicArea([]string{
				"nvreadpublic: name algorithm 000c",
				"nvreadpublic: data size 4",
				"nvreadpublic: attributes 00000008",
				"nvreadpublic: policy length 48",
				"00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00",
				"00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00",
				"00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 ff",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.NameAlgorithm.Known()).To(BeTrue())
			Expect(summary.Policy).To(HaveLen(48))
			Expect(summary.Policy[47]).To(Equal(byte(0xff)))
		})
		It("reports unknown algorithms", func() {
			summary, err := tpm.ParsePublicArea([]string{
				"nvreadpublic: name algorithm 0012",
				"nvreadpublic: data size 4",
				"nvreadpublic: attributes 00000000",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.NameAlgorithm.Known()).To(BeFalse())
			Expect(summary.NameAlgorithm.String()).To(Equal("0012 unknown"))
		})
		It("fails closed on truncated policies", func() {
			_, err := tpm.ParsePublicArea(nvPublicSHA256[:6])
			expectParseError(err, "policy")
		})
		It("fails on malformed lines", func() {
			_, err := tpm.ParsePublicArea([]string{"nvreadpublic: name algorithm"})
			expectParseError(err, "name algorithm")
			_, err = tpm.ParsePublicArea([]string{"nvreadpublic: name algorithm 000b", "nvreadpublic: data size eight"})
			expectParseError(err, "data size")
			_, err = tpm.ParsePublicArea([]string{
				"nvreadpublic: name algorithm 000b", "nvreadpublic: data size 8", "nvreadpublic: attributes xyz",
			})
			expectParseError(err, "attributes")
		})
	})

	Describe("Clock", func() {
		It("parses uptime and clock", func() {
			info, err := tpm.ParseClockInfo([]string{
				"TPMS_TIME_INFO time 123456",
				"TPMS_CLOCK_INFO clock 1700000000000",
				"TPMS_CLOCK_INFO resetCount 2",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(info.UptimeMs).To(Equal(uint64(123456)))
			Expect(info.ClockMs).To(Equal(uint64(1700000000000)))
			Expect(info.WallClock().Unix()).To(Equal(int64(1700000000)))
		})
		It("fails if a marker is missing", func() {
			_, err := tpm.ParseClockInfo([]string{"TPMS_TIME_INFO time 1"})
			expectParseError(err, "clock")
		})
	})

	Describe("Hex data", func() {
		It("decodes hex groups in line order", func() {
			data, err := tpm.ParseHexBytes([]string{"68 65 6c", "6c 6f"}, 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("hello"))
			Expect(data.String()).To(Equal("68656c6c6f"))
		})
		It("fails on non hex characters and unexpected lengths", func() {
			_, err := tpm.ParseHexBytes([]string{"68 6g"}, 0)
			expectParseError(err, "data")
			_, err = tpm.ParseHexBytes([]string{"68 6"}, 0)
			expectParseError(err, "data")
			_, err = tpm.ParseHexBytes([]string{"68 65"}, 3)
			expectParseError(err, "data")
		})
		It("parses nvread data after the header line", func() {
			data, err := tpm.ParseNVRead([]string{"nvread: data length 2", "61 62"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("ab"))
		})
		It("parses pcrread digests", func() {
			digest, err := tpm.ParsePCRRead([]string{
				"count 1 halg 000b",
				"digest length 32",
				"00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00",
				"00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 01",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(digest).To(HaveLen(32))
			_, err = tpm.ParsePCRRead([]string{"count 1"})
			expectParseError(err, "pcr digest")
		})
	})

	Describe("Properties", func() {
		It("parses a single property word", func() {
			word, err := tpm.ParseCapabilityProperty([]string{
				"1 properties", "", "TPM_PT 00000200 value 00000405",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(word).To(Equal(uint32(0x405)))
		})
		It("fails on short output", func() {
			_, err := tpm.ParseCapabilityProperty([]string{"1 properties"})
			expectParseError(err, "property")
		})
		It("parses the TPM identification", func() {
			props, err := tpm.ParseProperties([]string{
				"TPM_PT 00000105 value 0000008a TPM_PT_REVISION",
				"TPM_PT 00000105 value 49424d00 TPM_PT_MANUFACTURER",
				"TPM_PT 00000106 value 53572020 TPM_PT_VENDOR_STRING_1",
				"TPM_PT 00000107 value 2054504d TPM_PT_VENDOR_STRING_2",
				"TPM_PT 0000010b value 20191023 TPM_PT_FIRMWARE_VERSION_1",
				"TPM_PT 0000010c value 00163636 TPM_PT_FIRMWARE_VERSION_2",
			})
			Expect(err).ToNot(HaveOccurred(), litter.Sdump(props))
			Expect(props.Manufacturer).To(Equal("IBM"))
			Expect(props.VendorString).To(Equal("SW   TPM"))
			Expect(props.Revision).To(Equal(uint64(138)))
			Expect(props.Firmware).To(Equal("20191023 00163636"))
		})
	})
})
