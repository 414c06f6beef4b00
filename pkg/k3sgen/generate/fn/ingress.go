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

package fn

import (
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/function"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/ingress"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/traefik"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// haproxyObjects returns, for every public HTTP function, its own
// ExternalName route service and an Ingress rewriting the Host header.
func (p *projectGen) haproxyObjects(registry *function.Registry) []runtime.Object {
	var objs []runtime.Object
	for _, fn := range registry.Functions() {
		if !fn.IsPublicHTTP() {
			continue
		}
		name := p.objectName(fn)
		routeService := ingress.RouteServiceName(name)
		objs = append(objs,
			ingress.InterceptorService(routeService, p.Namespace,
				kubernetes.MergeLabels(p.labels(fn), map[string]string{constants.LabelFnComponent: "keda-route"})),
			ingress.HAProxy{
				Name:        name + "-haproxy",
				Namespace:   p.Namespace,
				Labels:      kubernetes.MergeLabels(p.labels(fn), map[string]string{constants.LabelFnIngress: constants.IngressHAProxy}),
				RoutingHost: p.routingHost(fn),
				Host:        p.Host,
				Path:        fn.HTTP().Path,
				Backend:     routeService,
				Timeouts:    latest.DefaultTimeouts(),
			}.New(),
		)
	}
	return objs
}

// traefikObjects returns the host rewrite Middleware of every public HTTP
// function, one IngressRoute over all of them and the interceptor proxy
// service. Nothing is returned without public HTTP functions.
func (p *projectGen) traefikObjects(registry *function.Registry) []runtime.Object {
	var objs []runtime.Object
	var routes []traefik.Route
	for _, fn := range registry.Functions() {
		if !fn.IsPublicHTTP() {
			continue
		}
		middleware := p.objectName(fn) + "-host-rewrite"
		objs = append(objs, traefik.HostRewrite(middleware, p.Namespace, p.labels(fn), p.routingHost(fn)))

		var hosts []string
		if p.Host != "" {
			hosts = append(hosts, p.Host)
		}
		routes = append(routes, traefik.Route{
			Match:       traefik.PathMatch(fn.HTTP().Path, hosts...),
			Service:     constants.KedaInterceptorProxyName,
			Middlewares: []traefik.MiddlewareRef{{Name: middleware, Namespace: p.Namespace}},
		})
	}
	if len(routes) == 0 {
		return nil
	}

	return append(objs,
		traefik.IngressRoute(p.app+"-routes", p.Namespace, map[string]string{constants.LabelFunctionApp: p.app}, routes),
		ingress.InterceptorService(constants.KedaInterceptorProxyName, p.Namespace,
			map[string]string{constants.LabelFnComponent: "keda-proxy"}),
	)
}
