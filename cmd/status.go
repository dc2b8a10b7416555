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
	"strings"

	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/pkg/action"
)

func NewStatusCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Show TPM information, clock and hierarchy status",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.Status(cmd.Context())
			if err != nil {
				cfg.Logger.Errorf("Failed reading TPM status: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) { printStatus(w, res) })
		},
	}
	root.AddCommand(c)
	return c
}

func printStatus(w io.Writer, res *action.StatusResult) {
	fmt.Fprintf(w, "Manufacturer: %s\n", res.Properties.Manufacturer)
	fmt.Fprintf(w, "Vendor: %s\n", strings.TrimSpace(res.Properties.VendorString))
	fmt.Fprintf(w, "Revision: %d\n", res.Properties.Revision)
	fmt.Fprintf(w, "Firmware: %s\n", res.Properties.Firmware)
	fmt.Fprintf(w, "Clock: %s\n", res.Clock.WallClock().UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Uptime: %s\n", res.Clock.Uptime())
	fmt.Fprintf(w, "Hierarchy status %08x:\n", res.HierarchyStatus.Word)
	for _, d := range res.HierarchyStatus.Descriptions() {
		fmt.Fprintf(w, "  %s\n", d)
	}
	fmt.Fprintf(w, "Capability status %08x:\n", res.CapabilityStatus.Word)
	for _, d := range res.CapabilityStatus.Descriptions() {
		fmt.Fprintf(w, "  %s\n", d)
	}
	fmt.Fprintf(w, "Random: %s\n", res.Random)
}

// register the subcommand into rootCmd
var _ = NewStatusCmd(rootCmd)
