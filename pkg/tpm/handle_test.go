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

	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

var _ = Describe("Handles", Label("tpm", "handle"), func() {
	DescribeTable("classifies handles by their type tag",
		func(h uint32, kind tpm.Kind) {
			Expect(tpm.Classify(tpm.Handle(h))).To(Equal(kind))
		},
		Entry("NV index", uint32(0x01abcdef), tpm.KindNVIndex),
		Entry("loaded session", uint32(0x02000000), tpm.KindLoadedSession),
		Entry("saved session", uint32(0x03000001), tpm.KindSavedSession),
		Entry("transient object", uint32(0x80000001), tpm.KindTransient),
		Entry("persistent object", uint32(0x81000001), tpm.KindPersistent),
		Entry("unknown tag", uint32(0xffabcdef), tpm.KindUnknown),
		Entry("PCR handle", uint32(0x00000010), tpm.KindUnknown),
		Entry("permanent handle", uint32(0x40000001), tpm.KindUnknown),
	)
	It("is deterministic", func() {
		for _, h := range []tpm.Handle{0x01000000, 0x80000002, 0xffabcdef} {
			Expect(tpm.Classify(h)).To(Equal(tpm.Classify(h)))
			Expect(h.Kind()).To(Equal(tpm.Classify(h)))
		}
	})
	It("renders and parses handles as 8 hex digits", func() {
		Expect(tpm.Handle(0x1000000).String()).To(Equal("01000000"))
		h, err := tpm.ParseHandle("0x81000001")
		Expect(err).ToNot(HaveOccurred())
		Expect(h).To(Equal(tpm.Handle(0x81000001)))
		h, err = tpm.ParseHandle(" 80000001 ")
		Expect(err).ToNot(HaveOccurred())
		Expect(h).To(Equal(tpm.Handle(0x80000001)))
	})
	It("fails parsing invalid handles", func() {
		for _, s := range []string{"", "zz000000", "1234567890", "0x"} {
			_, err := tpm.ParseHandle(s)
			Expect(err).To(HaveOccurred(), s)
		}
	})
	Describe("Decommission", func() {
		var b tpm.Builder
		BeforeEach(func() {
			b = tpm.Builder{ToolsDir: "/usr/bin", ToolPrefix: "tss", WorkDir: "/work", HashAlg: "sha256"}
		})
		It("undefines NV indexes under owner authorization", func() {
			cmd, err := b.Decommission(0x01000000)
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.Argv()).To(Equal([]string{"/usr/bin/tssnvundefinespace", "-hi", "o", "-ha", "01000000"}))
		})
		It("flushes sessions and transient objects", func() {
			for _, h := range []tpm.Handle{0x02000000, 0x03000000, 0x80000001} {
				cmd, err := b.Decommission(h)
				Expect(err).ToNot(HaveOccurred())
				Expect(cmd.Argv()).To(Equal([]string{"/usr/bin/tssflushcontext", "-ha", h.String()}))
			}
		})
		It("evicts persistent objects under platform authorization", func() {
			cmd, err := b.Decommission(0x81000001)
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.Argv()).To(Equal([]string{
				"/usr/bin/tssevictcontrol", "-hi", "p", "-ho", "81000001", "-hp", "81000001",
			}))
		})
		It("fails on unknown handle kinds", func() {
			_, err := b.Decommission(0xffabcdef)
			var hErr *tpmError.UnsupportedHandleKindError
			Expect(errors.As(err, &hErr)).To(BeTrue())
			Expect(hErr.Handle).To(Equal(uint32(0xffabcdef)))
			Expect(err.Error()).To(ContainSubstring("ffabcdef"))
		})
	})
})
