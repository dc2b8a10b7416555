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
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/pkg/action"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

var kindNames = map[string]tpm.Kind{
	"nv":         tpm.KindNVIndex,
	"loaded":     tpm.KindLoadedSession,
	"saved":      tpm.KindSavedSession,
	"transient":  tpm.KindTransient,
	"persistent": tpm.KindPersistent,
}

func getKindNames() []string {
	names := []string{}
	for name := range kindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewHandlesCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "handles",
		Short: "List and flush TPM resident handles",
	}
	root.AddCommand(c)

	list := &cobra.Command{
		Use:   "list",
		Short: "List NV indexes, sessions, transient and persistent objects",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			groups, err := tpmAction.ListHandles(cmd.Context())
			if err != nil {
				cfg.Logger.Errorf("Failed listing handles: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, groups, func(w io.Writer) {
				for _, g := range groups {
					fmt.Fprintf(w, "%s handles: %d\n", g.Kind, len(g.Handles))
					for _, h := range g.Handles {
						fmt.Fprintf(w, "  %s\n", h)
					}
				}
			})
		},
	}
	c.AddCommand(list)

	flush := &cobra.Command{
		Use:   "flush HANDLE...",
		Short: "Flush, undefine or evict the given handles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			report := tpmAction.FlushHandles(cmd.Context(), args)
			return renderFlushReport(cmd, cfg, report)
		},
	}
	c.AddCommand(flush)

	flushAll := &cobra.Command{
		Use:   "flush-all",
		Short: "Flush, undefine or evict every resident handle",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, _ := cmd.Flags().GetStringSlice("kind")
			kinds := []tpm.Kind{}
			for _, name := range names {
				k, ok := kindNames[name]
				if !ok {
					return tpmError.NewFromTyped(tpmError.NewValidationError("kind", "invalid handle kind '%s', valid ones are %s", name, strings.Join(getKindNames(), ", ")))
				}
				kinds = append(kinds, k)
			}

			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			report, err := tpmAction.FlushAll(cmd.Context(), kinds...)
			if err != nil {
				cfg.Logger.Errorf("Failed listing handles: %s", err.Error())
				return exitError(err)
			}
			return renderFlushReport(cmd, cfg, report)
		},
	}
	flushAll.Flags().StringSlice("kind", []string{}, "Handle kinds to flush, all if not set: "+strings.Join(getKindNames(), ", "))
	c.AddCommand(flushAll)
	return c
}

// renderFlushReport prints the report and fails with PartialFailure if any handle
// failed or was skipped
func renderFlushReport(cmd *cobra.Command, cfg *v1.Config, report *action.FlushReport) error {
	err := render(cmd, cfg, report, func(w io.Writer) {
		for _, item := range report.Items {
			if item.Reason != "" {
				fmt.Fprintf(w, "%s (%s): %s, %s\n", item.Handle, item.Kind, item.Status, item.Reason)
			} else {
				fmt.Fprintf(w, "%s (%s): %s\n", item.Handle, item.Kind, item.Status)
			}
		}
		fmt.Fprintf(w, "%d flushed, %d ignored, %d skipped, %d failed\n",
			report.Count(action.Flushed), report.Count(action.Ignored),
			report.Count(action.Skipped), report.Count(action.Failed))
	})
	if err != nil {
		return err
	}
	if rErr := report.Err(); rErr != nil {
		return tpmError.NewFromError(rErr, tpmError.PartialFailure)
	}
	return nil
}

// register the subcommand into rootCmd
var _ = NewHandlesCmd(rootCmd)
