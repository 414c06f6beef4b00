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
	"sort"

	yaml "gopkg.in/yaml.v3"
)

// AppConfig is one entry of the apps list.
type AppConfig struct {
	// Name identifies the app and names its Kubernetes objects.
	Name string `yaml:"name" json:"name"`

	// Path is the source directory of the app, relative to apps.yaml.
	Path string `yaml:"path" json:"path"`

	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Enabled   bool   `yaml:"enabled" json:"enabled" override:"-"`

	// Image overrides the image name derived from Name.
	Image string `yaml:"image,omitempty" json:"image,omitempty"`

	Build       Build               `yaml:"build,omitempty" json:"build,omitempty"`
	Container   Container           `yaml:"container,omitempty" json:"container,omitempty"`
	Resources   Resources           `yaml:"resources" json:"resources"`
	Scaling     Scaling             `yaml:"scaling" json:"scaling"`
	Probes      Probes              `yaml:"probes,omitempty" json:"probes,omitempty"`
	Ingress     Ingress             `yaml:"ingress" json:"ingress"`
	Security    Security            `yaml:"security" json:"security"`
	Environment map[string]EnvValue `yaml:"environment,omitempty" json:"environment,omitempty"`
	EnvFrom     []EnvFrom           `yaml:"env_from,omitempty" json:"env_from,omitempty"`
	Volumes     []Volume            `yaml:"volumes,omitempty" json:"volumes,omitempty"`

	Local *AppOverride `yaml:"local,omitempty" json:"local,omitempty" override:"-"`
	Dev   *AppOverride `yaml:"dev,omitempty" json:"dev,omitempty" override:"-"`
	GCP   *AppOverride `yaml:"gcp,omitempty" json:"gcp,omitempty" override:"-"`
}

// AppOverride is a partial AppConfig applied in one environment.
// Unset fields inherit the base value.
type AppOverride struct {
	Enabled     *bool      `yaml:"enabled,omitempty" json:"enabled,omitempty" override:"-"`
	Namespace   string     `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Replicas    *int32     `yaml:"replicas,omitempty" json:"replicas,omitempty"`
	Resources   *Resources `yaml:"resources,omitempty" json:"resources,omitempty"`
	Scaling     *Scaling   `yaml:"scaling,omitempty" json:"scaling,omitempty"`
	Probes      *Probes    `yaml:"probes,omitempty" json:"probes,omitempty"`
	Ingress     *Ingress   `yaml:"ingress,omitempty" json:"ingress,omitempty"`
	Security    *Security  `yaml:"security,omitempty" json:"security,omitempty"`

	// Environment is merged key by key into the base environment.
	Environment map[string]EnvValue `yaml:"environment,omitempty" json:"environment,omitempty" override:"merge"`

	EnvFrom             []EnvFrom            `yaml:"env_from,omitempty" json:"env_from,omitempty"`
	Volumes             []Volume             `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	PodDisruptionBudget *PodDisruptionBudget `yaml:"pod_disruption_budget,omitempty" json:"pod_disruption_budget,omitempty"`
	IngressAnnotations  map[string]string    `yaml:"ingress_annotations,omitempty" json:"ingress_annotations,omitempty"`
}

func (a *AppConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain AppConfig
	p := plain{
		Enabled:   true,
		Resources: DefaultResources(),
		Scaling:   DefaultScaling(),
		Ingress:   DefaultIngress(),
		Security:  DefaultSecurity(),
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*a = AppConfig(p)
	return nil
}

// Override returns the override block of env, or nil.
func (a *AppConfig) Override(env Environment) *AppOverride {
	switch env {
	case Local:
		return a.Local
	case Dev:
		return a.Dev
	case GCP:
		return a.GCP
	}
	return nil
}

// SecretRefs returns the environment variables referencing a secret, sorted by name.
func SecretRefs(environment map[string]EnvValue) []NamedSecretRef {
	var refs []NamedSecretRef
	for name, value := range environment {
		if value.IsSecret() {
			refs = append(refs, NamedSecretRef{Name: name, Ref: *value.SecretRef})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

// NamedSecretRef is a SecretRef bound to an environment variable.
type NamedSecretRef struct {
	Name string
	Ref  SecretRef
}
