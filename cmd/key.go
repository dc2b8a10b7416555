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

	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

func NewKeyCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "key",
		Short: "Create primary keys, keys and sealed data blobs",
	}
	root.AddCommand(c)

	primary := &cobra.Command{
		Use:   "primary",
		Short: "Create a primary storage key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.CreatePrimary(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed creating primary key: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Primary key handle: %s\n", res.Handle)
			})
		},
	}
	addStringFlags(primary, map[string]string{
		"hi":    "Hierarchy: p platform, o owner, e endorsement, n null",
		"pwdph": "Hierarchy password",
		"pwdk":  "Password of the new key",
	})
	c.AddCommand(primary)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a key or a sealed data blob under a parent key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.CreateKey(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed creating key: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Public area: %s\n", res.PublicKey)
				fmt.Fprintf(w, "Private area: %s\n", res.PrivateKey)
				if res.Handle != nil {
					fmt.Fprintf(w, "Loaded key handle: %s\n", res.Handle)
				}
			})
		},
	}
	addStringFlags(create, map[string]string{
		"hp":      "Parent key handle",
		"label":   "Key label, names the key files",
		"keytype": "Key type: " + strings.Join(tpm.GetKeyTypes(), ", "),
		"msg":     "Message to seal, sealed data blobs only",
		"pwdpc":   "Parent key password",
		"pwdk":    "Password of the new key",
	})
	addBoolFlags(create, map[string]string{
		"fixedtpm":    "Key can't be duplicated",
		"fixedparent": "Key can't be duplicated to another parent",
		"da":          "Key is subject to dictionary attack protection",
		"cl":          "Load the key once created",
	})
	c.AddCommand(create)
	return c
}

// register the subcommand into rootCmd
var _ = NewKeyCmd(rootCmd)
