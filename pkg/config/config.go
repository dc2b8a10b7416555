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

package config

import (
	"sort"

	"github.com/joho/godotenv"
	"github.com/twpayne/go-vfs/v4"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
	"github.com/tpm2-admin/tpm2-admin/pkg/utils"
)

type GenericOptions func(a *v1.Config) error

func WithFs(fs v1.FS) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Fs = fs
		return nil
	}
}

func WithLogger(logger v1.Logger) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Logger = logger
		return nil
	}
}

func WithRunner(runner v1.Runner) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Runner = runner
		return nil
	}
}

func WithDevice(device *v1.Device) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Device = device
		return nil
	}
}

func WithWorkDir(dir string) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.WorkDir = dir
		return nil
	}
}

func WithHashAlgorithm(alg string) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.HashAlgorithm = alg
		return nil
	}
}

// WithToolEnv appends KEY=VALUE pairs to the environment of every tool
func WithToolEnv(env ...string) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.ToolEnv = append(r.ToolEnv, env...)
		return nil
	}
}

func NewConfig(opts ...GenericOptions) *v1.Config {
	log := v1.NewLogger()

	c := &v1.Config{
		Fs:            vfs.OSFS,
		Logger:        log,
		ToolsDir:      constants.ToolsDir,
		ToolPrefix:    constants.ToolPrefix,
		WorkDir:       constants.WorkDir,
		HashAlgorithm: constants.DefaultHashAlg,
		Timeout:       constants.DefaultTimeout,
		ToolEnvFile:   constants.ToolEnvFile,
		Output:        constants.DefaultOutput,
	}
	for _, o := range opts {
		err := o(c)
		if err != nil {
			log.Errorf("error applying config option: %s", err.Error())
			return nil
		}
	}

	// delay runner creation after we have run over the options in case we use WithRunner
	if c.Runner == nil {
		c.Runner = &v1.RealRunner{Logger: c.Logger, Timeout: c.Timeout}
	}

	// Now check if the runner has a logger inside, otherwise point our logger into it
	// This can happen if we set the WithRunner option as that doesn't set a logger
	if c.Runner.GetLogger() == nil {
		c.Runner.SetLogger(c.Logger)
	}

	if c.Device == nil {
		c.Device = v1.GetDevice(constants.DefaultDevice)
	}

	return c
}

// LoadToolEnv reads the dotenv file configured as tool-env-file and appends its
// variables to the tool environment. A missing file is not an error.
func LoadToolEnv(c *v1.Config) error {
	if c.ToolEnvFile == "" {
		return nil
	}
	if ok, _ := utils.Exists(c.Fs, c.ToolEnvFile); !ok {
		c.Logger.Debugf("tool environment file %s not found, skipping", c.ToolEnvFile)
		return nil
	}
	f, err := c.Fs.Open(c.ToolEnvFile)
	if err != nil {
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.ToolEnv = append(c.ToolEnv, k+"="+vars[k])
	}
	c.Logger.Debugf("loaded %d tool environment variables from %s", len(vars), c.ToolEnvFile)
	return nil
}
