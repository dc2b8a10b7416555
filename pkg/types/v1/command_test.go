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

package v1_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

var _ = Describe("CommandSpec", Label("types", "command"), func() {
	spec := v1.CommandSpec{
		Path: "/usr/bin/tsshierarchychangeauth",
		Args: []string{"-hi", "o", "-pwda", "old", "-pwdn", "new"},
	}

	It("returns the tool base name", func() {
		Expect(spec.Tool()).To(Equal("tsshierarchychangeauth"))
	})
	It("returns the argument vector with the tool path first", func() {
		argv := spec.Argv()
		Expect(argv).To(Equal([]string{"/usr/bin/tsshierarchychangeauth", "-hi", "o", "-pwda", "old", "-pwdn", "new"}))
		argv[1] = "-changed"
		Expect(spec.Args[0]).To(Equal("-hi"))
	})
	It("masks password values", func() {
		Expect(spec.String()).To(Equal("/usr/bin/tsshierarchychangeauth -hi o -pwda **** -pwdn ****"))
	})
	It("does not fail on a trailing password flag", func() {
		s := v1.CommandSpec{Path: "tssload", Args: []string{"-pwdp"}}
		Expect(s.String()).To(Equal("tssload -pwdp"))
	})

	Describe("SplitLines", func() {
		It("trims lines and drops the trailing empty ones", func() {
			Expect(v1.SplitLines([]byte(" a \r\n\n b\n\n\n"))).To(Equal([]string{"a", "", "b"}))
		})
		It("returns no lines for empty output", func() {
			Expect(v1.SplitLines(nil)).To(BeEmpty())
		})
	})

	Describe("ExecutionResult", func() {
		It("reports success only on a zero exit code", func() {
			Expect(v1.ExecutionResult{}.Success()).To(BeTrue())
			Expect(v1.ExecutionResult{ExitCode: 1}.Success()).To(BeFalse())
		})
	})
})
