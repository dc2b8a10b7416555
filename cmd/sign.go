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

var loadFlags = map[string]string{
	"hp":    "Parent key handle",
	"label": "Key label",
	"pwdp":  "Parent key password",
}

func NewSignCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with a stored key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.Sign(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed signing: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Signature written to %s\n", res.Signature)
			})
		},
	}
	root.AddCommand(c)
	addStringFlags(c, loadFlags)
	addStringFlags(c, map[string]string{
		"sigfile": "Signature name",
		"msg":     "Message to sign",
		"pwdk":    "Key password",
	})
	return c
}

func NewVerifyCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature of a message with a stored key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.VerifySignature(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed verifying signature: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Signature %s verified\n", res.Signature)
			})
		},
	}
	root.AddCommand(c)
	addStringFlags(c, loadFlags)
	addStringFlags(c, map[string]string{
		"sigfile": "Signature name",
		"msg":     "Signed message",
		"halg":    "Hash algorithm of the signature",
	})
	return c
}

// register the subcommands into rootCmd
var _ = NewSignCmd(rootCmd)
var _ = NewVerifyCmd(rootCmd)
