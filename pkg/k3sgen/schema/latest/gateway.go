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
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
)

// GatewayConfig routes external paths to services inside the cluster.
type GatewayConfig struct {
	Routes    []Route   `yaml:"routes,omitempty" json:"routes,omitempty"`
	RateLimit RateLimit `yaml:"rate_limit" json:"rate_limit"`
	CORS      CORS      `yaml:"cors" json:"cors"`
	WAF       WAF       `yaml:"waf" json:"waf"`
}

func (g *GatewayConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain GatewayConfig
	p := plain{
		RateLimit: RateLimit{RequestsPerSecond: 100, Burst: 200},
		CORS:      DefaultCORS(),
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*g = GatewayConfig(p)
	return nil
}

// RateLimit applies to every route without its own limit, when enabled.
type RateLimit struct {
	Enabled           bool  `yaml:"enabled" json:"enabled"`
	RequestsPerSecond int32 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int32 `yaml:"burst" json:"burst"`
}

type CORS struct {
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	AllowOrigins  []string `yaml:"allow_origins" json:"allow_origins"`
	AllowMethods  []string `yaml:"allow_methods" json:"allow_methods"`
	AllowHeaders  []string `yaml:"allow_headers" json:"allow_headers"`
	ExposeHeaders []string `yaml:"expose_headers,omitempty" json:"expose_headers,omitempty"`
	MaxAge        int32    `yaml:"max_age,omitempty" json:"max_age,omitempty"`
}

// DefaultCORS allows every origin and header.
func DefaultCORS() CORS {
	return CORS{
		Enabled:      true,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"*"},
	}
}

// WAF is accepted for compatibility. No manifest is generated from it yet.
type WAF struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Rules   []string `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Route maps an external path prefix to a service.
type Route struct {
	Path string `yaml:"path" json:"path"`

	// Service is "name" or "name.namespace".
	Service string `yaml:"service" json:"service"`

	Port        int32           `yaml:"port" json:"port"`
	StripPrefix bool            `yaml:"strip_prefix,omitempty" json:"strip_prefix,omitempty"`
	RewriteTo   string          `yaml:"rewrite_to,omitempty" json:"rewrite_to,omitempty"`
	Methods     []string        `yaml:"methods,omitempty" json:"methods,omitempty"`
	Timeouts    RouteTimeouts   `yaml:"timeouts" json:"timeouts"`
	RateLimit   *RouteRateLimit `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	Auth        *RouteAuth      `yaml:"auth,omitempty" json:"auth,omitempty"`
}

type RouteTimeouts struct {
	Connect string `yaml:"connect" json:"connect"`
	Server  string `yaml:"server" json:"server"`
	Client  string `yaml:"client" json:"client"`
}

type RouteRateLimit struct {
	RequestsPerSecond int32 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int32 `yaml:"burst" json:"burst"`
}

func (r *RouteRateLimit) UnmarshalYAML(value *yaml.Node) error {
	type plain RouteRateLimit
	p := plain{RequestsPerSecond: 100, Burst: 200}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = RouteRateLimit(p)
	return nil
}

type RouteAuth struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Type    string `yaml:"type" json:"type"`
}

func (r *Route) UnmarshalYAML(value *yaml.Node) error {
	type plain Route
	p := plain{
		Port:     80,
		Timeouts: RouteTimeouts{Connect: "10s", Server: "180s", Client: "180s"},
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Route(p)
	return nil
}

// ServiceName returns the service part of "name.namespace".
func (r Route) ServiceName() string {
	return strings.SplitN(r.Service, ".", 2)[0]
}

// ServiceNamespace returns the namespace part of "name.namespace", "apps" when absent.
func (r Route) ServiceNamespace() string {
	parts := strings.Split(r.Service, ".")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return constants.DefaultNamespace
}

// EffectiveRateLimit returns the limit of the route, the global one when the
// route has none, or nil when neither applies.
func (g *GatewayConfig) EffectiveRateLimit(r Route) *RouteRateLimit {
	if r.RateLimit != nil {
		return r.RateLimit
	}
	if g.RateLimit.Enabled {
		return &RouteRateLimit{RequestsPerSecond: g.RateLimit.RequestsPerSecond, Burst: g.RateLimit.Burst}
	}
	return nil
}
