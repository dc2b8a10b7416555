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
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tpm2-admin/tpm2-admin/pkg/config"
	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

// setupLogger applies the debug, logfile and quiet settings to the logger. Logs go to
// stderr when the output is meant to be machine readable.
func setupLogger(cfg *v1.Config) {
	if viper.GetBool("debug") {
		cfg.Logger.SetLevel(v1.DebugLevel())
	}

	// Set formatter so both file and stdout format are equal
	cfg.Logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableColors:    false,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	var stdout io.Writer = os.Stdout
	if cfg.Output == constants.YAMLOutput {
		stdout = os.Stderr
	}

	logfile := viper.GetString("logfile")
	if logfile != "" {
		o, err := cfg.Fs.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fs.ModePerm)
		if err != nil {
			cfg.Logger.Errorf("Could not open %s for logging to file: %s", logfile, err.Error())
		}

		switch {
		case err != nil:
			cfg.Logger.SetOutput(stdout)
		case viper.GetBool("quiet"): // if quiet is set, only set the log to the file
			cfg.Logger.SetOutput(o)
		default: // else set it to both stdout and the file
			cfg.Logger.SetOutput(io.MultiWriter(stdout, o))
		}
	} else { // no logfile
		if viper.GetBool("quiet") { // quiet is enabled so discard all logging
			cfg.Logger.SetOutput(io.Discard)
		} else { // default to stdout
			cfg.Logger.SetOutput(stdout)
		}
	}
}

// ReadConfigRun reads the configuration from config.yaml and the config.d/ files of
// the given config dir, environment variables prefixed with TPM2ADMIN_ and the bound
// command line flags, in increasing order of precedence
func ReadConfigRun(configDir string) (*v1.Config, error) {
	cfg := config.NewConfig(
		config.WithLogger(v1.NewLogger()),
	)

	if configDir == "" {
		configDir = constants.ConfigDir
	}

	viper.AddConfigPath(configDir)
	viper.SetConfigType("yaml")
	viper.SetConfigName("config.yaml")
	// If a config file is found, read it in.
	_ = viper.MergeInConfig()

	// Load extra config files on configdir/config.d/ so we can override config values
	cfgExtra := fmt.Sprintf("%s/config.d/", strings.TrimSuffix(configDir, "/"))
	if _, err := os.Stat(cfgExtra); err == nil {
		viper.AddConfigPath(cfgExtra)
		err = filepath.WalkDir(cfgExtra, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(d.Name()) == ".yaml" {
				viper.SetConfigName(d.Name())
				return viper.MergeInConfig()
			}
			return nil
		})
		if err != nil {
			return cfg, tpmError.NewFromError(err, tpmError.ReadingRunConfig)
		}
	}

	// Set the prefix for vars so we get only the ones starting with TPM2ADMIN
	viper.SetEnvPrefix(constants.EnvPrefix)

	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)

	// AutomaticEnv only matches keys viper already knows of, bind the config keys explicitly
	for _, key := range []string{"tools-dir", "tool-prefix", "work-dir", "policy-dir", "hash-algorithm", "timeout", "tool-env-file", "output"} {
		_ = viper.BindEnv(key)
	}
	viper.AutomaticEnv() // read in environment variables that match

	// unmarshal all the vars into the config object
	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, tpmError.NewFromError(err, tpmError.ReadingRunConfig)
	}

	setupLogger(cfg)

	if err := cfg.Sanitize(); err != nil {
		return cfg, tpmError.NewFromError(err, tpmError.ReadingRunConfig)
	}
	if runner, ok := cfg.Runner.(*v1.RealRunner); ok {
		runner.Timeout = cfg.Timeout
	}
	if err := config.LoadToolEnv(cfg); err != nil {
		return cfg, tpmError.NewFromError(err, tpmError.ReadingRunConfig)
	}

	cfg.Logger.Debugf("Loaded config: tools %s, work dir %s, hash %s, timeout %s", cfg.ToolPath(""), cfg.WorkDir, cfg.HashAlgorithm, cfg.Timeout)
	return cfg, nil
}
