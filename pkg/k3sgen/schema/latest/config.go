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

package latest

import (
	"fmt"
	"strings"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
)

// Version is the apps.yaml format version written by this package.
const Version string = "2"

// Environment is a target deployment environment.
type Environment string

const (
	Local = Environment("local")
	Dev   = Environment("dev")
	GCP   = Environment("gcp")
)

// Environments returns every known environment, in a stable order.
func Environments() []Environment {
	return []Environment{Local, Dev, GCP}
}

// ParseEnvironment converts s into an Environment.
func ParseEnvironment(s string) (Environment, error) {
	for _, env := range Environments() {
		if string(env) == strings.ToLower(s) {
			return env, nil
		}
	}
	return "", fmt.Errorf("unknown environment %q, expected one of %v", s, Environments())
}

func (e Environment) String() string { return string(e) }

// Config is the root of apps.yaml.
type Config struct {
	// Version of the configuration format.
	Version string `yaml:"version" json:"version"`

	// Defaults are the settings shared by every entry.
	Defaults Defaults `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// Environments holds per environment settings, keyed by environment name.
	Environments map[string]EnvironmentSettings `yaml:"environments,omitempty" json:"environments,omitempty"`

	Apps       []AppConfig        `yaml:"apps,omitempty" json:"apps,omitempty"`
	Compose    []ComposeConfig    `yaml:"compose,omitempty" json:"compose,omitempty"`
	Serverless []ServerlessConfig `yaml:"serverless,omitempty" json:"serverless,omitempty"`
	Gateway    *GatewayConfig     `yaml:"gateway,omitempty" json:"gateway,omitempty"`
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Defaults: Defaults{Namespace: constants.DefaultNamespace},
	}
}

// Defaults are the settings shared by every entry of apps.yaml.
type Defaults struct {
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// Registry maps an environment name to the container registry prefix.
	Registry map[string]string `yaml:"registry,omitempty" json:"registry,omitempty"`

	// Ingress maps an environment name to an ingress controller: traefik or haproxy.
	Ingress map[string]string `yaml:"ingress,omitempty" json:"ingress,omitempty"`
}

// EnvironmentSettings are global settings for one environment.
type EnvironmentSettings struct {
	Domain    string `yaml:"domain,omitempty" json:"domain,omitempty"`
	TLS       bool   `yaml:"tls,omitempty" json:"tls,omitempty"`
	TLSSecret string `yaml:"tls_secret,omitempty" json:"tls_secret,omitempty"`
	Debug     bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
}

// RegistryURL returns the registry configured for env, or "" when there is none.
func (c *Config) RegistryURL(env Environment) string {
	return c.Defaults.Registry[env.String()]
}

// IngressType returns the ingress controller used in env.
func (c *Config) IngressType(env Environment) string {
	if t, found := c.Defaults.Ingress[env.String()]; found && t != "" {
		return t
	}
	return constants.DefaultIngressType
}

// EnvironmentSettings returns the settings of env. An environment missing from
// the file has no domain and no TLS.
func (c *Config) EnvironmentSettings(env Environment) EnvironmentSettings {
	return c.Environments[env.String()]
}

// Namespace returns ns, or the default namespace when ns is empty.
func (c *Config) Namespace(ns string) string {
	if ns != "" {
		return ns
	}
	if c.Defaults.Namespace != "" {
		return c.Defaults.Namespace
	}
	return constants.DefaultNamespace
}

// ImageFor returns the image reference of name in registry.
func ImageFor(name, registry string) string {
	registry = strings.TrimRight(registry, "/")
	if registry == "" {
		return fmt.Sprintf("%s:latest", name)
	}
	return fmt.Sprintf("%s/%s:latest", registry, name)
}
