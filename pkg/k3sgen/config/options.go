/*
Copyright 2026 The k3sgen Authors

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
	"path/filepath"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// K3sgenOptions are options that are set by command line arguments not
// included in the config file itself
type K3sgenOptions struct {
	ConfigurationFile string
	SchemaFile        string
	Environment       string
	OutputDir         string
	Format            string
	JSON              bool

	// Overrides of the values resolved from the configuration file.
	Registry  string
	Ingress   string
	Host      string
	Domain    string
	TLS       *bool
	TLSSecret string
	Namespace string
}

// Env parses the target environment, local when none is set.
func (opts *K3sgenOptions) Env() (latest.Environment, error) {
	if opts.Environment == "" {
		return latest.Local, nil
	}
	return latest.ParseEnvironment(opts.Environment)
}

// BaseDir is the directory entry paths are relative to.
func (opts *K3sgenOptions) BaseDir() string {
	return filepath.Dir(opts.ConfigurationFile)
}

// Validate checks the values that can be checked before the configuration
// file is read.
func (opts *K3sgenOptions) Validate() error {
	if _, err := opts.Env(); err != nil {
		return err
	}
	switch opts.Format {
	case "", constants.FormatYAML, constants.FormatJSON:
	default:
		return fmt.Errorf("unknown output format %q, expected %s or %s", opts.Format, constants.FormatYAML, constants.FormatJSON)
	}
	switch opts.Ingress {
	case "", constants.IngressTraefik, constants.IngressHAProxy:
	default:
		return fmt.Errorf("unknown ingress controller %q, expected %s or %s", opts.Ingress, constants.IngressTraefik, constants.IngressHAProxy)
	}
	return nil
}
