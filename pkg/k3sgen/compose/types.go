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

package compose

import (
	"fmt"
	"strconv"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	yaml "gopkg.in/yaml.v3"
)

// Project is a parsed docker-compose file. Services and volumes keep the
// order of the file.
type Project struct {
	Name     string        `yaml:"name" json:"name"`
	Path     string        `yaml:"path" json:"path"`
	Services []Service     `yaml:"services" json:"services"`
	Volumes  []NamedVolume `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	Networks []string      `yaml:"networks,omitempty" json:"networks,omitempty"`
}

// Service returns the service named name.
func (p *Project) Service(name string) (*Service, bool) {
	for i := range p.Services {
		if p.Services[i].Name == name {
			return &p.Services[i], true
		}
	}
	return nil, false
}

// Service is one entry of the services section.
type Service struct {
	Name        string            `yaml:"name" json:"name"`
	Image       string            `yaml:"image,omitempty" json:"image,omitempty"`
	Build       *Build            `yaml:"build,omitempty" json:"build,omitempty"`
	Command     []string          `yaml:"command,omitempty" json:"command,omitempty"`
	Entrypoint  []string          `yaml:"entrypoint,omitempty" json:"entrypoint,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty" json:"environment,omitempty"`
	EnvFile     []string          `yaml:"env_file,omitempty" json:"env_file,omitempty"`
	Ports       []PortMapping     `yaml:"ports,omitempty" json:"ports,omitempty"`
	Volumes     []VolumeMount     `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	HealthCheck *HealthCheck      `yaml:"healthcheck,omitempty" json:"healthcheck,omitempty"`
	Deploy      Deploy            `yaml:"deploy" json:"deploy"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Networks    []string          `yaml:"networks,omitempty" json:"networks,omitempty"`
	WorkingDir  string            `yaml:"working_dir,omitempty" json:"working_dir,omitempty"`
	User        string            `yaml:"user,omitempty" json:"user,omitempty"`
	Restart     RestartPolicy     `yaml:"restart" json:"restart"`
}

// Build is the build section of a service. The short form sets Context only.
type Build struct {
	Context    string            `yaml:"context,omitempty" json:"context,omitempty"`
	Dockerfile string            `yaml:"dockerfile,omitempty" json:"dockerfile,omitempty"`
	Target     string            `yaml:"target,omitempty" json:"target,omitempty"`
	Args       map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

type RestartPolicy string

const (
	RestartAlways        = RestartPolicy("always")
	RestartOnFailure     = RestartPolicy("on-failure")
	RestartUnlessStopped = RestartPolicy("unless-stopped")
	RestartNo            = RestartPolicy("no")
)

func parseRestartPolicy(s string) RestartPolicy {
	switch p := RestartPolicy(s); p {
	case RestartOnFailure, RestartUnlessStopped, RestartNo:
		return p
	}
	if s == "none" {
		return RestartNo
	}
	return RestartAlways
}

// PortMapping publishes a container port. HostPort is 0 when unpublished.
type PortMapping struct {
	HostPort      int32  `yaml:"host_port,omitempty" json:"host_port,omitempty"`
	ContainerPort int32  `yaml:"container_port" json:"container_port"`
	Protocol      string `yaml:"protocol" json:"protocol"`
}

// ParsePort parses the short port syntax: "80", "8080:80", "8080:80/udp" and
// "127.0.0.1:8080:80".
func ParsePort(spec string) (PortMapping, error) {
	p := PortMapping{Protocol: "TCP"}
	if s, proto, found := strings.Cut(spec, "/"); found {
		spec, p.Protocol = s, strings.ToUpper(proto)
	}

	parts := strings.Split(spec, ":")
	var host, container string
	switch len(parts) {
	case 1:
		container = parts[0]
	case 2:
		host, container = parts[0], parts[1]
	case 3:
		host, container = parts[1], parts[2]
	default:
		return p, fmt.Errorf("invalid port %q", spec)
	}

	var err error
	if p.ContainerPort, err = parsePortNumber(container); err != nil {
		return p, err
	}
	if host != "" {
		if p.HostPort, err = parsePortNumber(host); err != nil {
			return p, err
		}
	}
	return p, nil
}

func parsePortNumber(s string) (int32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid port number %q", s)
	}
	return int32(n), nil
}

func (p *PortMapping) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		port, err := ParsePort(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*p = port
		return nil
	case yaml.MappingNode:
		var long struct {
			Target    int32  `yaml:"target"`
			Published string `yaml:"published"`
			Protocol  string `yaml:"protocol"`
		}
		if err := value.Decode(&long); err != nil {
			return err
		}
		*p = PortMapping{ContainerPort: long.Target, Protocol: "TCP"}
		if long.Protocol != "" {
			p.Protocol = strings.ToUpper(long.Protocol)
		}
		if long.Published != "" {
			host, err := parsePortNumber(long.Published)
			if err != nil {
				return fmt.Errorf("line %d: %w", value.Line, err)
			}
			p.HostPort = host
		}
		return nil
	default:
		return fmt.Errorf("line %d: port must be a string, a number or a mapping", value.Line)
	}
}

// VolumeType is the kind of a service volume mount.
type VolumeType string

const (
	VolumeBind  = VolumeType("bind")
	VolumeNamed = VolumeType("volume")
	VolumeTmpfs = VolumeType("tmpfs")
)

// VolumeMount is one entry of a service volumes list. Named volumes without
// a Source are anonymous.
type VolumeMount struct {
	Source   string     `yaml:"source,omitempty" json:"source,omitempty"`
	Target   string     `yaml:"target" json:"target"`
	ReadOnly bool       `yaml:"read_only,omitempty" json:"read_only,omitempty"`
	Type     VolumeType `yaml:"type" json:"type"`
}

// ParseVolume parses the short volume syntax: "/data", "name:/data",
// "./dir:/data" and "./dir:/data:ro".
func ParseVolume(spec string) VolumeMount {
	parts := strings.Split(spec, ":")
	if len(parts) == 1 {
		return VolumeMount{Target: parts[0], Type: VolumeNamed}
	}

	v := VolumeMount{Source: parts[0], Target: parts[1]}
	if len(parts) >= 3 {
		for _, option := range strings.Split(parts[2], ",") {
			if option == "ro" {
				v.ReadOnly = true
			}
		}
	}
	switch {
	case v.Source == "":
		v.Type = VolumeTmpfs
	case isPath(v.Source):
		v.Type = VolumeBind
	default:
		v.Type = VolumeNamed
	}
	return v
}

func isPath(source string) bool {
	return strings.HasPrefix(source, "/") || strings.HasPrefix(source, ".") || strings.HasPrefix(source, "~")
}

func (v *VolumeMount) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*v = ParseVolume(value.Value)
		return nil
	case yaml.MappingNode:
		type plain VolumeMount
		p := plain{Type: VolumeBind}
		if err := value.Decode(&p); err != nil {
			return err
		}
		if p.Target == "" {
			return fmt.Errorf("line %d: volume needs a target", value.Line)
		}
		*v = VolumeMount(p)
		return nil
	default:
		return fmt.Errorf("line %d: volume must be a string or a mapping", value.Line)
	}
}

// HealthCheck is a service health check. Test starts with CMD, CMD-SHELL or NONE.
type HealthCheck struct {
	Test        []string `yaml:"test" json:"test"`
	Interval    string   `yaml:"interval" json:"interval"`
	Timeout     string   `yaml:"timeout" json:"timeout"`
	Retries     int32    `yaml:"retries" json:"retries"`
	StartPeriod string   `yaml:"start_period" json:"start_period"`
}

func (h *HealthCheck) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Test        yaml.Node `yaml:"test"`
		Interval    string    `yaml:"interval"`
		Timeout     string    `yaml:"timeout"`
		Retries     *int32    `yaml:"retries"`
		StartPeriod string    `yaml:"start_period"`
		Disable     bool      `yaml:"disable"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*h = HealthCheck{Interval: "30s", Timeout: "30s", Retries: 3, StartPeriod: "0s"}
	switch raw.Test.Kind {
	case 0:
	case yaml.ScalarNode:
		h.Test = []string{"CMD-SHELL", raw.Test.Value}
	default:
		if err := raw.Test.Decode(&h.Test); err != nil {
			return err
		}
	}
	if raw.Disable {
		h.Test = []string{"NONE"}
	}
	if raw.Interval != "" {
		h.Interval = raw.Interval
	}
	if raw.Timeout != "" {
		h.Timeout = raw.Timeout
	}
	if raw.Retries != nil {
		h.Retries = *raw.Retries
	}
	if raw.StartPeriod != "" {
		h.StartPeriod = raw.StartPeriod
	}
	return nil
}

// Limits are docker resource limits or reservations, as written in the file.
type Limits struct {
	CPUs   string `yaml:"cpus,omitempty" json:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty" json:"memory,omitempty"`
}

// Deploy is the deploy section of a service.
type Deploy struct {
	Replicas      int32         `yaml:"replicas" json:"replicas"`
	Limits        *Limits       `yaml:"limits,omitempty" json:"limits,omitempty"`
	Reservations  *Limits       `yaml:"reservations,omitempty" json:"reservations,omitempty"`
	RestartPolicy RestartPolicy `yaml:"restart_policy" json:"restart_policy"`
}

func (d *Deploy) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Replicas  *int32 `yaml:"replicas"`
		Resources struct {
			Limits       *Limits `yaml:"limits"`
			Reservations *Limits `yaml:"reservations"`
		} `yaml:"resources"`
		RestartPolicy struct {
			Condition string `yaml:"condition"`
		} `yaml:"restart_policy"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*d = Deploy{
		Replicas:      1,
		Limits:        raw.Resources.Limits,
		Reservations:  raw.Resources.Reservations,
		RestartPolicy: parseRestartPolicy(raw.RestartPolicy.Condition),
	}
	if raw.Replicas != nil {
		d.Replicas = *raw.Replicas
	}
	return nil
}

// NamedVolume is an entry of the top level volumes section.
type NamedVolume struct {
	Name       string            `yaml:"name" json:"name"`
	Driver     string            `yaml:"driver" json:"driver"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty" json:"driver_opts,omitempty"`
	External   bool              `yaml:"external,omitempty" json:"external,omitempty"`
}

// rawService is the file shape of a service. Fields accepting several
// syntaxes are decoded from nodes.
type rawService struct {
	Image       string        `yaml:"image"`
	Build       yaml.Node     `yaml:"build"`
	Command     yaml.Node     `yaml:"command"`
	Entrypoint  yaml.Node     `yaml:"entrypoint"`
	Environment yaml.Node     `yaml:"environment"`
	EnvFile     yaml.Node     `yaml:"env_file"`
	Ports       []PortMapping `yaml:"ports"`
	Volumes     []VolumeMount `yaml:"volumes"`
	DependsOn   yaml.Node     `yaml:"depends_on"`
	HealthCheck *HealthCheck  `yaml:"healthcheck"`
	Deploy      *Deploy       `yaml:"deploy"`
	Labels      yaml.Node     `yaml:"labels"`
	Networks    yaml.Node     `yaml:"networks"`
	WorkingDir  string        `yaml:"working_dir"`
	User        string        `yaml:"user"`
	Restart     string        `yaml:"restart"`
}

func (s *Service) UnmarshalYAML(value *yaml.Node) error {
	var raw rawService
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*s = Service{
		Image:       raw.Image,
		Ports:       raw.Ports,
		Volumes:     raw.Volumes,
		HealthCheck: raw.HealthCheck,
		Deploy:      Deploy{Replicas: 1, RestartPolicy: RestartAlways},
		WorkingDir:  raw.WorkingDir,
		User:        raw.User,
		Restart:     parseRestartPolicy(raw.Restart),
	}
	if raw.Deploy != nil {
		s.Deploy = *raw.Deploy
	}

	var err error
	if s.Build, err = decodeBuild(&raw.Build); err != nil {
		return err
	}
	if s.Command, err = decodeCommand(&raw.Command); err != nil {
		return err
	}
	if s.Entrypoint, err = decodeCommand(&raw.Entrypoint); err != nil {
		return err
	}
	if s.Environment, err = decodeMapping(&raw.Environment); err != nil {
		return err
	}
	if s.Labels, err = decodeMapping(&raw.Labels); err != nil {
		return err
	}
	if s.EnvFile, err = decodeList(&raw.EnvFile); err != nil {
		return err
	}
	if s.DependsOn, err = decodeList(&raw.DependsOn); err != nil {
		return err
	}
	if s.Networks, err = decodeList(&raw.Networks); err != nil {
		return err
	}
	return nil
}

func decodeBuild(node *yaml.Node) (*Build, error) {
	if isNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return &Build{Context: node.Value}, nil
	default:
		var b Build
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return &b, nil
	}
}

// decodeCommand accepts a list or a shell style string.
func decodeCommand(node *yaml.Node) ([]string, error) {
	if isNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		words, err := shellquote.Split(node.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return words, nil
	default:
		var words []string
		err := node.Decode(&words)
		return words, err
	}
}

// decodeMapping accepts a mapping or a list of KEY=VALUE strings. Null
// values become empty strings.
func decodeMapping(node *yaml.Node) (map[string]string, error) {
	if isNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		m := map[string]string{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			value := node.Content[i+1]
			if value.Tag == "!!null" {
				m[node.Content[i].Value] = ""
				continue
			}
			m[node.Content[i].Value] = value.Value
		}
		return m, nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return nil, err
		}
		m := map[string]string{}
		for _, item := range items {
			k, v, _ := strings.Cut(item, "=")
			m[k] = v
		}
		return m, nil
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or a list", node.Line)
	}
}

// decodeList accepts a string, a list, or a mapping whose keys are the items.
func decodeList(node *yaml.Node) ([]string, error) {
	if isNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var items []string
		err := node.Decode(&items)
		return items, err
	case yaml.MappingNode:
		var keys []string
		for i := 0; i < len(node.Content); i += 2 {
			keys = append(keys, node.Content[i].Value)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("line %d: expected a string, a list or a mapping", node.Line)
	}
}

func isNull(node *yaml.Node) bool {
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// rawProject decodes sections as nodes to keep the order of the file.
type rawProject struct {
	Services yaml.Node `yaml:"services"`
	Volumes  yaml.Node `yaml:"volumes"`
	Networks yaml.Node `yaml:"networks"`
}

func (p *Project) UnmarshalYAML(value *yaml.Node) error {
	var raw rawProject
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Services.Kind != 0 && raw.Services.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: services must be a mapping", raw.Services.Line)
	}
	for i := 0; i+1 < len(raw.Services.Content); i += 2 {
		var svc Service
		if err := raw.Services.Content[i+1].Decode(&svc); err != nil {
			return fmt.Errorf("service %q: %w", raw.Services.Content[i].Value, err)
		}
		svc.Name = raw.Services.Content[i].Value
		p.Services = append(p.Services, svc)
	}

	for i := 0; i+1 < len(raw.Volumes.Content); i += 2 {
		vol := NamedVolume{Name: raw.Volumes.Content[i].Value, Driver: "local"}
		if def := raw.Volumes.Content[i+1]; def.Kind == yaml.MappingNode {
			if err := def.Decode(&vol); err != nil {
				return fmt.Errorf("volume %q: %w", vol.Name, err)
			}
			vol.Name = raw.Volumes.Content[i].Value
		}
		p.Volumes = append(p.Volumes, vol)
	}

	networks, err := decodeList(&raw.Networks)
	if err != nil {
		return err
	}
	p.Networks = networks
	return nil
}
