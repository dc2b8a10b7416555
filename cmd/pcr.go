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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/pkg/action"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

func NewPCRCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "pcr",
		Short: "Extend, reset and read PCRs",
	}
	root.AddCommand(c)

	extend := newPCRCmd("extend", "Extend a PCR with data", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) error {
		return a.PCRExtend(ctx, opts)
	})
	addStringFlags(extend, map[string]string{"ha": "PCR index, 0 to 23", "ic": "Data to extend the PCR with"})
	c.AddCommand(extend)

	reset := newPCRCmd("reset", "Reset a resettable PCR", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) error {
		return a.PCRReset(ctx, opts)
	})
	addStringFlags(reset, map[string]string{"ha": "PCR index, 0 to 23"})
	c.AddCommand(reset)

	read := &cobra.Command{
		Use:   "read",
		Short: "Read a PCR, every PCR if none is given",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			var values []action.PCRValue
			if cmd.Flags().Changed("ha") {
				value, err := tpmAction.PCRRead(cmd.Context(), optionsFromFlags(cmd))
				if err != nil {
					cfg.Logger.Errorf("Failed reading PCR: %s", err.Error())
					return exitError(err)
				}
				values = append(values, *value)
			} else if values, err = tpmAction.PCRReadAll(cmd.Context()); err != nil {
				cfg.Logger.Errorf("Failed reading PCRs: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, values, func(w io.Writer) {
				for _, v := range values {
					if v.Error != "" {
						fmt.Fprintf(w, "PCR %02d: %s\n", v.Index, v.Error)
					} else {
						fmt.Fprintf(w, "PCR %02d: %s\n", v.Index, v.Digest)
					}
				}
			})
		},
	}
	addStringFlags(read, map[string]string{"ha": "PCR index, 0 to 23"})
	c.AddCommand(read)
	return c
}

func newPCRCmd(use, short string, run func(context.Context, *action.TPMAction, tpm.Options) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			if err = run(cmd.Context(), tpmAction, optionsFromFlags(cmd)); err != nil {
				cfg.Logger.Errorf("Failed running pcr %s: %s", use, err.Error())
				return exitError(err)
			}
			return nil
		},
	}
}

// register the subcommand into rootCmd
var _ = NewPCRCmd(rootCmd)
