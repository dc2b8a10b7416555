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

func NewQuoteCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "quote",
		Short: "Quote a PCR with a stored key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.Quote(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed quoting: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Quote signature: %s\n", res.Signature)
				fmt.Fprintf(w, "Quote attestation: %s\n", res.Attest)
				if len(res.Digest) > 0 {
					fmt.Fprintf(w, "Quoted PCR %02d: %s\n", res.PCR, res.Digest)
				}
			})
		},
	}
	root.AddCommand(c)
	addStringFlags(c, loadFlags)
	addStringFlags(c, map[string]string{
		"hpcr":      "PCR index, 0 to 23",
		"quotename": "Quote name",
		"pwdk":      "Key password",
	})
	return c
}

func NewVerifyQuoteCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "verify-quote",
		Short: "Verify a quote with a stored key",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.VerifyQuote(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed verifying quote: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "Quote %s verified\n", res.Attest)
			})
		},
	}
	root.AddCommand(c)
	addStringFlags(c, loadFlags)
	addStringFlags(c, map[string]string{"quotename": "Quote name"})
	return c
}

// register the subcommands into rootCmd
var _ = NewQuoteCmd(rootCmd)
var _ = NewVerifyQuoteCmd(rootCmd)
