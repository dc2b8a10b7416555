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
	"io"

	"github.com/spf13/cobra"
)

func NewUnsealCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "unseal",
		Short: "Unseal a data blob sealed to PCR 16",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.Unseal(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed unsealing, reached state '%s': %s", res.State(), err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Unsealed message: %s\n", res.Message)
			})
		},
	}
	root.AddCommand(c)
	addStringFlags(c, loadFlags)
	return c
}

// register the subcommand into rootCmd
var _ = NewUnsealCmd(rootCmd)
