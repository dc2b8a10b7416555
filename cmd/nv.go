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
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/tpm2-admin/tpm2-admin/pkg/action"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

var nvAuthFlags = map[string]string{
	"ha":   "NV index handle",
	"pwdn": "NV index password",
}

func NewNVCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "nv",
		Short: "Manage NV indexes",
	}
	root.AddCommand(c)

	define := newNVIndexCmd("define", "Define an NV index", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) (*action.NVIndexResult, error) {
		return a.NVDefine(ctx, opts)
	})
	addStringFlags(define, map[string]string{
		"ha":    "NV index handle",
		"pwdn":  "NV index password",
		"ty":    "Index type: o ordinary, c counter, b bits, e extend",
		"hid":   "Hierarchy: p platform, o owner",
		"pwdpd": "Hierarchy password",
		"szd":   "Data size in bytes, ordinary indexes only",
	})
	addBoolFlags(define, map[string]string{"wd": "Write lockable (write define)"})
	c.AddCommand(define)

	undefine := newNVCmd("undefine", "Undefine an NV index", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) error {
		return a.NVUndefine(ctx, opts)
	})
	addStringFlags(undefine, map[string]string{
		"ha":    "NV index handle",
		"hiu":   "Hierarchy: p platform, o owner",
		"pwdpu": "Hierarchy password",
	})
	c.AddCommand(undefine)

	write := newNVCmd("write", "Write data to an NV index", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) error {
		return a.NVWrite(ctx, opts)
	})
	addStringFlags(write, nvAuthFlags)
	addStringFlags(write, map[string]string{"ic": "Data to write"})
	c.AddCommand(write)

	lock := newNVCmd("lock", "Lock an NV index for writing", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) error {
		return a.NVWriteLock(ctx, opts)
	})
	addStringFlags(lock, nvAuthFlags)
	c.AddCommand(lock)

	increment := newNVCmd("increment", "Increment a counter NV index", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) error {
		return a.NVIncrement(ctx, opts)
	})
	addStringFlags(increment, nvAuthFlags)
	c.AddCommand(increment)

	read := &cobra.Command{
		Use:   "read",
		Short: "Read the data of an NV index",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := tpmAction.NVRead(cmd.Context(), optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed reading NV index: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) {
				fmt.Fprintf(w, "NV index %s, %s\n", res.Handle, units.BytesSize(float64(res.Size)))
				fmt.Fprintf(w, "Data: %s\n", res.Data)
				fmt.Fprintf(w, "Text: %s\n", res.ASCII)
			})
		},
	}
	addStringFlags(read, nvAuthFlags)
	addStringFlags(read, map[string]string{"szr": "Number of bytes to read"})
	c.AddCommand(read)

	public := newNVIndexCmd("public", "Show the public area of an NV index", func(ctx context.Context, a *action.TPMAction, opts tpm.Options) (*action.NVIndexResult, error) {
		return a.NVPublic(ctx, opts)
	})
	addStringFlags(public, map[string]string{"ha": "NV index handle"})
	c.AddCommand(public)

	list := &cobra.Command{
		Use:   "list",
		Short: "List the defined NV indexes",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			entries, err := tpmAction.NVList(cmd.Context())
			if err != nil {
				cfg.Logger.Errorf("Failed listing NV indexes: %s", err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, entries, func(w io.Writer) {
				for _, e := range entries {
					if e.Public == nil {
						fmt.Fprintf(w, "%s: %s\n", e.Handle, e.Error)
						continue
					}
					printPublicArea(w, e.Handle, *e.Public)
				}
			})
		},
	}
	c.AddCommand(list)
	return c
}

func newNVCmd(use, short string, run func(context.Context, *action.TPMAction, tpm.Options) error) *cobra.Command {
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
				cfg.Logger.Errorf("Failed running nv %s: %s", use, err.Error())
				return exitError(err)
			}
			return nil
		},
	}
}

func newNVIndexCmd(use, short string, run func(context.Context, *action.TPMAction, tpm.Options) (*action.NVIndexResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpmAction, cfg, err := newTPMAction(cmd)
			if err != nil {
				return err
			}
			res, err := run(cmd.Context(), tpmAction, optionsFromFlags(cmd))
			if err != nil {
				cfg.Logger.Errorf("Failed running nv %s: %s", use, err.Error())
				return exitError(err)
			}
			return render(cmd, cfg, res, func(w io.Writer) { printPublicArea(w, res.Handle, res.Public) })
		},
	}
}

func printPublicArea(w io.Writer, h tpm.Handle, p tpm.PublicAreaSummary) {
	fmt.Fprintf(w, "NV index %s\n", h)
	fmt.Fprintf(w, "  Name algorithm: %s\n", p.NameAlgorithm)
	fmt.Fprintf(w, "  Size: %s\n", units.BytesSize(float64(p.Size)))
	fmt.Fprintf(w, "  Attributes: %08x\n", p.Attributes.Word)
	fmt.Fprintf(w, "  Type: %s\n", p.Attributes.Type)
	if d := p.Attributes.Descriptions(); len(d) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(d, "\n  "))
	}
	if p.HasPolicy() {
		fmt.Fprintf(w, "  Policy: %s\n", p.Policy)
	}
}

// register the subcommand into rootCmd
var _ = NewNVCmd(rootCmd)
