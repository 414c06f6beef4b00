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

// ProbeHandler is one of HTTPGetHandler, TCPSocketHandler or ExecHandler.
type ProbeHandler interface {
	isProbeHandler()
}

type HTTPGetHandler struct {
	Path string `yaml:"path" json:"path"`
	Port int32  `yaml:"port" json:"port"`
}

type TCPSocketHandler struct {
	Port int32 `yaml:"port" json:"port"`
}

type ExecHandler struct {
	Command []string `yaml:"command" json:"command"`
}

func (HTTPGetHandler) isProbeHandler() {}
func (TCPSocketHandler) isProbeHandler() {}
func (ExecHandler) isProbeHandler() {}

// Probe is a health check of a container.
type Probe struct {
	Handler          ProbeHandler `yaml:"-" json:"handler"`
	InitialDelay     int32        `yaml:"initial_delay" json:"initial_delay"`
	Period           int32        `yaml:"period" json:"period"`
	Timeout          int32        `yaml:"timeout" json:"timeout"`
	SuccessThreshold int32        `yaml:"success_threshold" json:"success_threshold"`
	FailureThreshold int32        `yaml:"failure_threshold" json:"failure_threshold"`
}

// Probes are the optional startup, readiness and liveness checks.
type Probes struct {
	Startup   *Probe `yaml:"startup,omitempty" json:"startup,omitempty"`
	Readiness *Probe `yaml:"readiness,omitempty" json:"readiness,omitempty"`
	Liveness  *Probe `yaml:"liveness,omitempty" json:"liveness,omitempty"`
}

func (p *Probe) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		Type             string   `yaml:"type"`
		Path             string   `yaml:"path"`
		Port             int32    `yaml:"port"`
		Command          []string `yaml:"command"`
		InitialDelay     int32    `yaml:"initial_delay"`
		Period           int32    `yaml:"period"`
		Timeout          int32    `yaml:"timeout"`
		SuccessThreshold int32    `yaml:"success_threshold"`
		FailureThreshold int32    `yaml:"failure_threshold"`
	}{
		Type:             "http",
		Path:             "/health",
		Port:             8080,
		Period:           10,
		Timeout:          1,
		SuccessThreshold: 1,
		FailureThreshold: 3,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*p = Probe{
		InitialDelay:     raw.InitialDelay,
		Period:           raw.Period,
		Timeout:          raw.Timeout,
		SuccessThreshold: raw.SuccessThreshold,
		FailureThreshold: raw.FailureThreshold,
	}
	switch raw.Type {
	case "http", "":
		p.Handler = HTTPGetHandler{Path: raw.Path, Port: raw.Port}
	case "tcp":
		p.Handler = TCPSocketHandler{Port: raw.Port}
	case "exec":
		p.Handler = ExecHandler{Command: raw.Command}
	default:
		return fmt.Errorf("line %d: unknown probe type %q", value.Line, raw.Type)
	}
	return nil
}

func (p Probe) MarshalYAML() (interface{}, error) {
	out := map[string]interface{}{
		"initial_delay":     p.InitialDelay,
		"period":            p.Period,
		"timeout":           p.Timeout,
		"success_threshold": p.SuccessThreshold,
		"failure_threshold": p.FailureThreshold,
	}
	switch h := p.Handler.(type) {
	case HTTPGetHandler:
		out["type"], out["path"], out["port"] = "http", h.Path, h.Port
	case TCPSocketHandler:
		out["type"], out["port"] = "tcp", h.Port
	case ExecHandler:
		out["type"], out["command"] = "exec", h.Command
	}
	return out, nil
}
