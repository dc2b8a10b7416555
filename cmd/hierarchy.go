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

func NewHierarchyCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "hierarchy",
		Short: "Manage hierarchy passwords, the TPM clock and hierarchy enablement",
	}
	root.AddCommand(c)

	passwd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the authorization of a hierarchy",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.ChangeHierarchyAuth(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed changing hierarchy password: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				if res.Changed {
					fmt.Fprintf(w, "Password of hierarchy %s changed\n", res.Hierarchy)
				} else {
					fmt.Fprintf(w, "Password of hierarchy %s unchanged\n", res.Hierarchy)
				}
			})
		},
	}
	addStringFlags(passwd, map[string]string{
		"hi":    "Hierarchy: p platform, o owner, e endorsement, l lockout",
		"pwda":  "Current password",
		"pwdn":  "New password, empty for no change",
		"pwdn2": "New password again",
	})
	c.AddCommand(passwd)

	clock := &cobra.Command{
		Use:   "clock",
		Short: "Set the TPM clock, to the current time by default",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.SetClock(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed setting the TPM clock: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "TPM clock set to %d ms\n", res.ClockMs)
			})
		},
	}
	addStringFlags(clock, map[string]string{
		"hi":    "Hierarchy authorizing the change: p platform, o owner",
		"clock": "Clock in milliseconds",
	})
	c.AddCommand(clock)

	for _, state := range []struct {
		use   string
		short string
		value string
	}{
		{"enable", "Enable a hierarchy", "1"},
		{"disable", "Disable a hierarchy", "0"},
	} {
		value := state.value
		control := &cobra.Command{
			Use:   state.use,
			Short: state.short,
			Args:  cobra.ExactArgs(0),
			RunE: func(cmd *cobra.Command, _ []string) error {
				tpmAction, cfg, err := newTPMAction(cmd)
				if err != nil {
					return err
				}
				opts := optionsFromFlags(cmd)
				opts["state"] = value
				res, err := tpmAction.HierarchyControl(cmd.Context(), opts)
				if err != nil {
					cfg.Logger.Errorf("Failed changing hierarchy state: %s", err.Error())
					return exitError(err)
				}
				return render(cmd, cfg, res, func(w io.Writer) {
					fmt.Fprintf(w, "Hierarchy %s enabled: %t\n", res.Hierarchy, res.Enabled)
				})
			},
		}
		addStringFlags(control, map[string]string{
			"he": "Hierarchy: o storage, e endorsement, n platform NV",
		})
		c.AddCommand(control)
	}
	return c
}

// register the subcommand into rootCmd
var _ = NewHierarchyCmd(rootCmd)
