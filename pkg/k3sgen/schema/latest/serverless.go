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
	yaml "gopkg.in/yaml.v3"
)

// ServerlessConfig is one entry of the serverless list: a project of functions
// sharing one image.
type ServerlessConfig struct {
	Name string `yaml:"name" json:"name"`

	// Path is the function project directory. It holds functions.yaml.
	Path string `yaml:"path" json:"path"`

	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Enabled   bool   `yaml:"enabled" json:"enabled" override:"-"`

	// Image overrides the image derived from Name and the registry.
	Image string `yaml:"image,omitempty" json:"image,omitempty"`

	Local *ServerlessOverride `yaml:"local,omitempty" json:"local,omitempty" override:"-"`
	Dev   *ServerlessOverride `yaml:"dev,omitempty" json:"dev,omitempty" override:"-"`
	GCP   *ServerlessOverride `yaml:"gcp,omitempty" json:"gcp,omitempty" override:"-"`
}

// ServerlessOverride is a partial ServerlessConfig applied in one environment.
type ServerlessOverride struct {
	Enabled   *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty" override:"-"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// Registry replaces defaults.registry for this project.
	Registry *string `yaml:"registry,omitempty" json:"registry,omitempty"`

	// Ingress replaces defaults.ingress for this project.
	Ingress string `yaml:"ingress,omitempty" json:"ingress,omitempty"`

	// Host restricts the public routes to one host name.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`
}

func (s *ServerlessConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ServerlessConfig
	p := plain{Enabled: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = ServerlessConfig(p)
	return nil
}

// Override returns the override block of env, or nil.
func (s *ServerlessConfig) Override(env Environment) *ServerlessOverride {
	switch env {
	case Local:
		return s.Local
	case Dev:
		return s.Dev
	case GCP:
		return s.GCP
	}
	return nil
}
