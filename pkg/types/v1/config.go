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

package v1

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
)

// Config is the runtime configuration shared by every action
type Config struct {
	Logger        Logger        `yaml:"-"`
	Fs            FS            `yaml:"-"`
	Runner        Runner        `yaml:"-"`
	Device        *Device       `yaml:"-"`
	ToolsDir      string        `yaml:"tools-dir,omitempty" mapstructure:"tools-dir"`
	ToolPrefix    string        `yaml:"tool-prefix,omitempty" mapstructure:"tool-prefix"`
	WorkDir       string        `yaml:"work-dir,omitempty" mapstructure:"work-dir"`
	PolicyDir     string        `yaml:"policy-dir,omitempty" mapstructure:"policy-dir"`
	HashAlgorithm string        `yaml:"hash-algorithm,omitempty" mapstructure:"hash-algorithm"`
	Timeout       time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	ToolEnvFile   string        `yaml:"tool-env-file,omitempty" mapstructure:"tool-env-file"`
	ToolEnv       []string      `yaml:"-" mapstructure:"-"`
	Output        string        `yaml:"output,omitempty" mapstructure:"output"`
}

// ToolPath returns the full path of the given TPM utility
func (c Config) ToolPath(tool string) string {
	return filepath.Join(c.ToolsDir, c.ToolPrefix+tool)
}

// Sanitize checks the configuration values and sets defaults for the unset ones
func (c *Config) Sanitize() error {
	if c.ToolsDir == "" {
		c.ToolsDir = constants.ToolsDir
	}
	if c.WorkDir == "" {
		c.WorkDir = constants.WorkDir
	}
	if c.PolicyDir == "" {
		c.PolicyDir = filepath.Join(c.WorkDir, constants.PoliciesDirName)
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = constants.DefaultHashAlg
	}
	if !isKnownHashAlgorithm(c.HashAlgorithm) {
		return fmt.Errorf("unsupported hash algorithm '%s', valid ones are %v", c.HashAlgorithm, constants.GetHashAlgorithms())
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid negative timeout %s", c.Timeout)
	}
	switch c.Output {
	case "":
		c.Output = constants.DefaultOutput
	case constants.TextOutput, constants.YAMLOutput:
	default:
		return fmt.Errorf("unsupported output format '%s'", c.Output)
	}
	if c.Device == nil {
		c.Device = GetDevice(constants.DefaultDevice)
	}
	return nil
}

func isKnownHashAlgorithm(alg string) bool {
	for _, h := range constants.GetHashAlgorithms() {
		if h == alg {
			return true
		}
	}
	return false
}

// Device represents the TPM the tools talk to. The tool-suite provides no
// isolation between concurrent invocations, so a flow holds the device lock
// from its first command to its last handle release.
type Device struct {
	mu   sync.Mutex
	Name string
}

// Lock acquires the device and returns the function releasing it
func (d *Device) Lock(log Logger) func() {
	if log != nil {
		log.Debugf("Waiting for TPM device '%s'", d.Name)
	}
	d.mu.Lock()
	if log != nil {
		log.Debugf("Got TPM device '%s'", d.Name)
	}
	return func() {
		d.mu.Unlock()
		if log != nil {
			log.Debugf("Released TPM device '%s'", d.Name)
		}
	}
}

var (
	devicesMu sync.Mutex
	devices   = map[string]*Device{}
)

// GetDevice returns the process wide Device registered under the given name
func GetDevice(name string) *Device {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	d, ok := devices[name]
	if !ok {
		d = &Device{Name: name}
		devices[name] = d
	}
	return d
}
