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

package cmd

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

var _ = Describe("Operation options", Label("cmd", "options"), func() {
	var opts tpm.Options
	var root *cobra.Command

	BeforeEach(func() {
		opts = nil
		root = &cobra.Command{Use: "root"}
		root.PersistentFlags().Bool("quiet", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		child := &cobra.Command{
			Use: "extend",
			RunE: func(cmd *cobra.Command, _ []string) error {
				opts = optionsFromFlags(cmd, "output")
				return nil
			},
		}
		addStringFlags(child, map[string]string{"ha": "", "ic": "", "output": ""})
		addBoolFlags(child, map[string]string{"wd": ""})
		root.AddCommand(child)
	})

	It("maps the flags set by the operator to options", func() {
		_, _, err := executeCommandC(root, "extend", "--ha", "16", "--ic", "abc", "--wd", "--quiet", "--config-dir", "/tmp")
		Expect(err).ToNot(HaveOccurred())
		Expect(opts).To(Equal(tpm.Options{"ha": "16", "ic": "abc", "wd": "true"}))
	})
	It("ignores unset and excluded flags", func() {
		_, _, err := executeCommandC(root, "extend", "--ha", "0", "--output", "yaml")
		Expect(err).ToNot(HaveOccurred())
		Expect(opts).To(HaveKeyWithValue("ha", "0"))
		Expect(opts).ToNot(HaveKey("ic"))
		Expect(opts).ToNot(HaveKey("output"))
	})
})
