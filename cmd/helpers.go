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
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tpm2-admin/tpm2-admin/cmd/config"
	"github.com/tpm2-admin/tpm2-admin/pkg/action"
	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

// newTPMAction reads the configuration and returns the action to run
func newTPMAction(cmd *cobra.Command) (*action.TPMAction, *v1.Config, error) {
	cfg, err := config.ReadConfigRun(viper.GetString("config-dir"))
	if err != nil {
		cfg.Logger.Errorf("Error reading config: %s\n", err)
		return nil, cfg, err
	}
	cmd.SilenceUsage = true
	return action.NewTPMAction(cfg), cfg, nil
}

// optionsFromFlags returns the operation options, one per flag of the command itself
// set by the operator. Persistent flags of the root are never options.
func optionsFromFlags(cmd *cobra.Command, exclude ...string) tpm.Options {
	opts := tpm.Options{}
	local := cmd.LocalNonPersistentFlags()
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if local.Lookup(f.Name) == nil {
			return
		}
		for _, e := range exclude {
			if f.Name == e {
				return
			}
		}
		opts[f.Name] = f.Value.String()
	})
	return opts
}

// exitError attaches the exit code matching the error type
func exitError(err error) error {
	return tpmError.NewFromTyped(err)
}

// render writes the result as yaml or, by default, through the given text printer
func render(cmd *cobra.Command, cfg *v1.Config, res interface{}, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if cfg.Output == constants.YAMLOutput {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return tpmError.NewFromError(err, tpmError.RenderOutput)
		}
		return tpmError.NewFromError(enc.Close(), tpmError.RenderOutput)
	}
	text(w)
	return nil
}

// addStringFlags adds string flags without default, the operation option names
func addStringFlags(c *cobra.Command, flags map[string]string) {
	for name, usage := range flags {
		c.Flags().String(name, "", usage)
	}
}

// addBoolFlags adds boolean operation options
func addBoolFlags(c *cobra.Command, flags map[string]string) {
	for name, usage := range flags {
		c.Flags().Bool(name, false, usage)
	}
}
