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

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/k3stack/k3sgen/pkg/k3sgen/compose"
	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/ingress"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/traefik"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
)

// entrypoint returns the first service publishing a port, which receives the
// ingress traffic of the project.
func (p *projectGen) entrypoint() *compose.Service {
	for i := range p.parsed.Services {
		if len(p.parsed.Services[i].Ports) > 0 {
			return &p.parsed.Services[i]
		}
	}
	return nil
}

// ingressObjects routes IngressPath straight to the entrypoint service.
// Compose workloads do not scale to zero so the KEDA interceptor is bypassed.
func (p *projectGen) ingressObjects() []runtime.Object {
	if p.IngressPath == "" {
		return nil
	}
	svc := p.entrypoint()
	if svc == nil {
		return nil
	}

	name := util.SanitizeName(svc.Name)
	port := svc.Ports[0].HostPort
	if port == 0 {
		port = svc.Ports[0].ContainerPort
	}
	labels := p.projectLabels()

	if p.ingress == constants.IngressHAProxy {
		return []runtime.Object{ingress.HAProxy{
			Name:        p.name + "-haproxy",
			Namespace:   p.namespace,
			Labels:      labels,
			RoutingHost: fmt.Sprintf("%s.%s.svc.cluster.local", name, p.namespace),
			Path:        p.IngressPath,
			Backend:     name,
			BackendPort: port,
			Timeouts:    latest.DefaultTimeouts(),
		}.New()}
	}
	return []runtime.Object{traefik.IngressRoute(p.name+"-routes", p.namespace, labels, []traefik.Route{{
		Match:   traefik.PathMatch(p.IngressPath),
		Service: name,
		Port:    int64(port),
	}})}
}
