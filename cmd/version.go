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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/internal/version"
)

func NewVersionCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "version",
		Args:  cobra.ExactArgs(0),
		Short: "Print the tpm2-admin version",
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Get()
			if cmd.Flag("long").Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\nGitCommit: %s\nGoVersion: %s\n", v.Version, v.GitCommit, v.GoVersion)
				return
			}
			commit := v.GitCommit
			if len(commit) > 7 {
				commit = v.GitCommit[:7]
			}
			if commit == "" {
				fmt.Fprintln(cmd.OutOrStdout(), v.Version)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s+g%s\n", v.Version, commit)
		},
	}
	root.AddCommand(c)
	c.Flags().Bool("long", false, "Show long version info")
	return c
}

// register the subcommand into rootCmd
var _ = NewVersionCmd(rootCmd)
