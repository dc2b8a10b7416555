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

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
)

func NewRandomCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "random",
		Short: "Get random bytes from the TPM",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, _ := cmd.Flags().GetInt("by")
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.GetRandom(cmd.Context(), n)
			if err != nil {
				cfg.Logger.Errorf("Failed getting random bytes: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s\n", units.BytesSize(float64(res.Size)), res.Bytes)
			})
		},
	}
	root.AddCommand(c)
	c.Flags().Int("by", constants.RandomBytes, "Number of random bytes")
	return c
}

// register the subcommand into rootCmd
var _ = NewRandomCmd(rootCmd)
