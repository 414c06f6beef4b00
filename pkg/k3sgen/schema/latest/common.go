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

	yaml "gopkg.in/yaml.v3"
)

// Resources are the compute requests and limits of a container.
type Resources struct {
	Memory string `yaml:"memory,omitempty" json:"memory,omitempty"`
	CPU    string `yaml:"cpu,omitempty" json:"cpu,omitempty"`

	// MemoryLimit defaults to Memory.
	MemoryLimit string `yaml:"memory_limit,omitempty" json:"memory_limit,omitempty"`

	// CPULimit is omitted unless set so that containers can burst.
	CPULimit string `yaml:"cpu_limit,omitempty" json:"cpu_limit,omitempty"`

	EphemeralStorage string `yaml:"ephemeral_storage,omitempty" json:"ephemeral_storage,omitempty"`
}

// DefaultResources returns the resources used when none are configured.
func DefaultResources() Resources {
	return Resources{Memory: "256Mi", CPU: "100m", MemoryLimit: "256Mi"}
}

func (r *Resources) UnmarshalYAML(value *yaml.Node) error {
	type plain Resources
	p := plain{Memory: "256Mi", CPU: "100m"}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Resources(p)
	if r.MemoryLimit == "" {
		r.MemoryLimit = r.Memory
	}
	return nil
}

// SecretProvider is a backend holding secret values.
type SecretProvider string

const (
	ProviderGCP   = SecretProvider("gcp")
	ProviderAWS   = SecretProvider("aws")
	ProviderVault = SecretProvider("vault")
	ProviderAzure = SecretProvider("azure")
)

// SecretRef points at a secret held by a SecretProvider.
type SecretRef struct {
	Secret   string         `yaml:"secret" json:"secret"`
	Provider SecretProvider `yaml:"provider,omitempty" json:"provider,omitempty"`
	Version  string         `yaml:"version,omitempty" json:"version,omitempty"`

	// Key selects a property of a multi-value (JSON) secret.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`
}

func (s *SecretRef) UnmarshalYAML(value *yaml.Node) error {
	type plain SecretRef
	p := plain{Provider: ProviderGCP, Version: "latest"}
	if err := value.Decode(&p); err != nil {
		return err
	}
	switch p.Provider {
	case ProviderGCP, ProviderAWS, ProviderVault, ProviderAzure:
	default:
		return fmt.Errorf("line %d: unknown secret provider %q", value.Line, p.Provider)
	}
	*s = SecretRef(p)
	return nil
}

// EnvValue is either a literal value or a secret reference.
type EnvValue struct {
	Value     string
	SecretRef *SecretRef
}

// IsSecret reports whether v references a secret.
func (v EnvValue) IsSecret() bool { return v.SecretRef != nil }

func (v *EnvValue) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*v = EnvValue{Value: value.Value}
		return nil
	case yaml.MappingNode:
		var ref SecretRef
		if err := value.Decode(&ref); err != nil {
			return err
		}
		if ref.Secret == "" {
			return fmt.Errorf("line %d: environment value must be a string or a secret reference", value.Line)
		}
		*v = EnvValue{SecretRef: &ref}
		return nil
	default:
		return fmt.Errorf("line %d: environment value must be a string or a secret reference", value.Line)
	}
}

func (v EnvValue) MarshalYAML() (interface{}, error) {
	if v.SecretRef != nil {
		return v.SecretRef, nil
	}
	return v.Value, nil
}

// AccessRule selects peers allowed to talk to, or be reached by, a workload.
type AccessRule struct {
	Namespace string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	PodLabels map[string]string `yaml:"pod_labels,omitempty" json:"pod_labels,omitempty"`
	CIDR      string            `yaml:"cidr,omitempty" json:"cidr,omitempty"`
}

// IsEmpty reports whether the rule selects nothing.
func (r AccessRule) IsEmpty() bool {
	return r.Namespace == "" && len(r.PodLabels) == 0 && r.CIDR == ""
}

// NetworkPolicy configures the NetworkPolicy generated for a workload.
type NetworkPolicy struct {
	Enabled   bool         `yaml:"enabled" json:"enabled"`
	AllowFrom []AccessRule `yaml:"allow_from,omitempty" json:"allow_from,omitempty"`
	AllowTo   []AccessRule `yaml:"allow_to,omitempty" json:"allow_to,omitempty"`
}

// PodSecurityContext is rendered onto the pod spec.
type PodSecurityContext struct {
	RunAsNonRoot bool   `yaml:"run_as_non_root" json:"run_as_non_root"`
	RunAsUser    *int64 `yaml:"run_as_user,omitempty" json:"run_as_user,omitempty"`
	RunAsGroup   *int64 `yaml:"run_as_group,omitempty" json:"run_as_group,omitempty"`
	FSGroup      *int64 `yaml:"fs_group,omitempty" json:"fs_group,omitempty"`
}

func (p *PodSecurityContext) UnmarshalYAML(value *yaml.Node) error {
	type plain PodSecurityContext
	c := plain{RunAsNonRoot: true}
	if err := value.Decode(&c); err != nil {
		return err
	}
	*p = PodSecurityContext(c)
	return nil
}

// Capabilities are Linux capabilities added to or dropped from a container.
type Capabilities struct {
	Add  []string `yaml:"add,omitempty" json:"add,omitempty"`
	Drop []string `yaml:"drop,omitempty" json:"drop,omitempty"`
}

// ContainerSecurityContext is rendered onto the container.
type ContainerSecurityContext struct {
	AllowPrivilegeEscalation bool         `yaml:"allow_privilege_escalation" json:"allow_privilege_escalation"`
	ReadOnlyRootFilesystem   bool         `yaml:"read_only_root_filesystem" json:"read_only_root_filesystem"`
	Capabilities             Capabilities `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
}

// Security configures network visibility and identity of a workload.
type Security struct {
	Visibility                Visibility                `yaml:"visibility" json:"visibility"`
	NetworkPolicy             NetworkPolicy             `yaml:"network_policy" json:"network_policy"`
	ServiceAccount            string                    `yaml:"service_account,omitempty" json:"service_account,omitempty"`
	CreateServiceAccount      bool                      `yaml:"create_service_account,omitempty" json:"create_service_account,omitempty"`
	ServiceAccountAnnotations map[string]string         `yaml:"service_account_annotations,omitempty" json:"service_account_annotations,omitempty"`
	PodSecurityContext        *PodSecurityContext       `yaml:"pod_security_context,omitempty" json:"pod_security_context,omitempty"`
	ContainerSecurityContext  *ContainerSecurityContext `yaml:"container_security_context,omitempty" json:"container_security_context,omitempty"`
}

// DefaultSecurity returns a private workload guarded by a NetworkPolicy.
func DefaultSecurity() Security {
	return Security{
		Visibility:    Private,
		NetworkPolicy: NetworkPolicy{Enabled: true},
	}
}

func (s *Security) UnmarshalYAML(value *yaml.Node) error {
	type plain Security
	p := plain(DefaultSecurity())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Security(p)
	return nil
}

// PathType mirrors networking/v1 path types.
type PathType string

const (
	PathPrefix                 = PathType("Prefix")
	PathExact                  = PathType("Exact")
	PathImplementationSpecific = PathType("ImplementationSpecific")
)

// TLS configures TLS termination on an ingress.
type TLS struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Secret  string   `yaml:"secret,omitempty" json:"secret,omitempty"`
	Hosts   []string `yaml:"hosts,omitempty" json:"hosts,omitempty"`
}

// Timeouts are ingress controller timeouts, as duration strings.
type Timeouts struct {
	Connect string `yaml:"connect" json:"connect"`
	Server  string `yaml:"server" json:"server"`
	Client  string `yaml:"client" json:"client"`
	Queue   string `yaml:"queue" json:"queue"`
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{Connect: "10s", Server: "180s", Client: "180s", Queue: "180s"}
}

func (t *Timeouts) UnmarshalYAML(value *yaml.Node) error {
	type plain Timeouts
	p := plain(DefaultTimeouts())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = Timeouts(p)
	return nil
}

// Ingress exposes a workload through the cluster ingress controller.
type Ingress struct {
	Enabled       bool              `yaml:"enabled" json:"enabled"`
	Class         string            `yaml:"class,omitempty" json:"class,omitempty"`
	Path          string            `yaml:"path" json:"path"`
	PathType      PathType          `yaml:"path_type" json:"path_type"`
	StripPrefix   bool              `yaml:"strip_prefix,omitempty" json:"strip_prefix,omitempty"`
	RewriteTarget string            `yaml:"rewrite_target,omitempty" json:"rewrite_target,omitempty"`
	Hosts         []string          `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	TLS           *TLS              `yaml:"tls,omitempty" json:"tls,omitempty"`
	Timeouts      Timeouts          `yaml:"timeouts" json:"timeouts"`
	Annotations   map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// DefaultIngress returns a disabled ingress on "/".
func DefaultIngress() Ingress {
	return Ingress{Path: "/", PathType: PathPrefix, Timeouts: DefaultTimeouts()}
}

func (i *Ingress) UnmarshalYAML(value *yaml.Node) error {
	type plain Ingress
	p := plain(DefaultIngress())
	if err := value.Decode(&p); err != nil {
		return err
	}
	switch p.PathType {
	case PathPrefix, PathExact, PathImplementationSpecific:
	default:
		return fmt.Errorf("line %d: unknown path type %q", value.Line, p.PathType)
	}
	*i = Ingress(p)
	return nil
}

// PodDisruptionBudget sets either MinAvailable or MaxUnavailable.
type PodDisruptionBudget struct {
	MinAvailable   *int32 `yaml:"min_available,omitempty" json:"min_available,omitempty"`
	MaxUnavailable *int32 `yaml:"max_unavailable,omitempty" json:"max_unavailable,omitempty"`
}

// EnvFrom injects every key of a Secret or ConfigMap into the container environment.
type EnvFrom struct {
	Secret    string `yaml:"secret,omitempty" json:"secret,omitempty"`
	ConfigMap string `yaml:"configmap,omitempty" json:"configmap,omitempty"`
	Prefix    string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Optional  bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

func (e *EnvFrom) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Type      string `yaml:"type"`
		Name      string `yaml:"name"`
		Secret    string `yaml:"secret"`
		ConfigMap string `yaml:"configmap"`
		Prefix    string `yaml:"prefix"`
		Optional  bool   `yaml:"optional"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*e = EnvFrom{Secret: raw.Secret, ConfigMap: raw.ConfigMap, Prefix: raw.Prefix, Optional: raw.Optional}
	switch raw.Type {
	case "":
	case "secret":
		e.Secret = raw.Name
	case "configmap":
		e.ConfigMap = raw.Name
	default:
		return fmt.Errorf("line %d: unknown env_from type %q", value.Line, raw.Type)
	}
	if (e.Secret == "") == (e.ConfigMap == "") {
		return fmt.Errorf("line %d: env_from needs exactly one of secret or configmap", value.Line)
	}
	return nil
}

// Port is a container port and the service port in front of it.
type Port struct {
	Name          string `yaml:"name" json:"name"`
	ContainerPort int32  `yaml:"container_port" json:"container_port"`
	ServicePort   int32  `yaml:"service_port" json:"service_port"`
	Protocol      string `yaml:"protocol" json:"protocol"`
}

// DefaultPort is the port used when a container declares none.
func DefaultPort() Port {
	return Port{Name: "http", ContainerPort: 8080, ServicePort: 80, Protocol: "TCP"}
}

func (p *Port) UnmarshalYAML(value *yaml.Node) error {
	type plain Port
	c := plain(DefaultPort())
	if err := value.Decode(&c); err != nil {
		return err
	}
	*p = Port(c)
	return nil
}

// Container configures the main container of a workload.
type Container struct {
	Command    []string `yaml:"command,omitempty" json:"command,omitempty"`
	Args       []string `yaml:"args,omitempty" json:"args,omitempty"`
	Ports      []Port   `yaml:"ports,omitempty" json:"ports,omitempty"`
	WorkingDir string   `yaml:"working_dir,omitempty" json:"working_dir,omitempty"`
}

// PrimaryPort returns the first declared port or the default one.
func (c Container) PrimaryPort() Port {
	if len(c.Ports) > 0 {
		return c.Ports[0]
	}
	return DefaultPort()
}

// Build describes how the image of an app is built. Image building itself
// happens outside k3sgen; the fields are kept for tools reading apps.yaml.
type Build struct {
	Dockerfile    string            `yaml:"dockerfile,omitempty" json:"dockerfile,omitempty"`
	DockerfileDev string            `yaml:"dockerfile_dev,omitempty" json:"dockerfile_dev,omitempty"`
	Context       string            `yaml:"context,omitempty" json:"context,omitempty"`
	Target        string            `yaml:"target,omitempty" json:"target,omitempty"`
	Args          map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// Visibility is the network access tier of a workload.
type Visibility string

const (
	// Public workloads are reachable from the ingress controller.
	Public = Visibility("public")

	// Internal workloads are reachable from every namespace.
	Internal = Visibility("internal")

	// Private workloads are reachable from their own namespace only.
	Private = Visibility("private")

	// Restricted workloads are reachable from the peers listed in allow_from only.
	Restricted = Visibility("restricted")
)

func (v *Visibility) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch vis := Visibility(s); vis {
	case Public, Internal, Private, Restricted:
		*v = vis
	case "":
		*v = Private
	default:
		return fmt.Errorf("line %d: unknown visibility %q", value.Line, s)
	}
	return nil
}
