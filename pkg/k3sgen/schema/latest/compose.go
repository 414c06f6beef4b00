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

// ComposeConfig is one entry of the compose list: a docker-compose project
// deployed as a set of Kubernetes workloads.
type ComposeConfig struct {
	Name string `yaml:"name" json:"name"`

	// Path is the directory holding the compose file.
	Path string `yaml:"path" json:"path"`

	// File is the compose file name inside Path.
	File string `yaml:"file" json:"file"`

	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Enabled   bool     `yaml:"enabled" json:"enabled" override:"-"`
	Security  Security `yaml:"security" json:"security"`

	// Secrets maps environment variable names to the secrets providing them.
	Secrets map[string]SecretRef `yaml:"secrets,omitempty" json:"secrets,omitempty"`

	// StorageClass of the claims generated for named volumes.
	StorageClass string `yaml:"storage_class,omitempty" json:"storage_class,omitempty"`

	Local *ComposeOverride `yaml:"local,omitempty" json:"local,omitempty" override:"-"`
	Dev   *ComposeOverride `yaml:"dev,omitempty" json:"dev,omitempty" override:"-"`
	GCP   *ComposeOverride `yaml:"gcp,omitempty" json:"gcp,omitempty" override:"-"`
}

// ComposeOverride is a partial ComposeConfig applied in one environment.
type ComposeOverride struct {
	Enabled   *bool     `yaml:"enabled,omitempty" json:"enabled,omitempty" override:"-"`
	Namespace string    `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Replicas  *int32    `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	Security  *Security `yaml:"security,omitempty" json:"security,omitempty"`

	// Resources are merged field by field over the values of every service.
	Resources *ComposeResources `yaml:"resources,omitempty" json:"resources,omitempty"`

	// Environment is merged key by key into the environment of every service.
	Environment map[string]string `yaml:"environment,omitempty" json:"environment,omitempty"`

	IngressPath string `yaml:"ingress_path,omitempty" json:"ingress_path,omitempty"`
}

// ComposeResources are container resources in Kubernetes notation.
// Empty fields are unset.
type ComposeResources struct {
	Memory      string `yaml:"memory,omitempty" json:"memory,omitempty"`
	CPU         string `yaml:"cpu,omitempty" json:"cpu,omitempty"`
	MemoryLimit string `yaml:"memory_limit,omitempty" json:"memory_limit,omitempty"`
	CPULimit    string `yaml:"cpu_limit,omitempty" json:"cpu_limit,omitempty"`
}

func (c *ComposeConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ComposeConfig
	p := plain{
		File:     "docker-compose.yaml",
		Enabled:  true,
		Security: DefaultSecurity(),
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = ComposeConfig(p)
	return nil
}

// Override returns the override block of env, or nil.
func (c *ComposeConfig) Override(env Environment) *ComposeOverride {
	switch env {
	case Local:
		return c.Local
	case Dev:
		return c.Dev
	case GCP:
		return c.GCP
	}
	return nil
}
