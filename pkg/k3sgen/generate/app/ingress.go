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

package app

import (
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/ingress"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/traefik"
)

// ingressObjects routes external traffic through the KEDA interceptor, which
// picks the workload from the rewritten Host header.
func (w *workload) ingressObjects() []runtime.Object {
	if !w.Ingress.Enabled {
		return nil
	}
	if w.ingress == constants.IngressHAProxy {
		return w.haproxyObjects()
	}
	return w.traefikObjects()
}

func (w *workload) haproxyObjects() []runtime.Object {
	routeService := ingress.RouteServiceName(w.name)
	route := ingress.InterceptorService(routeService, w.namespace,
		kubernetes.MergeLabels(w.labels, map[string]string{constants.LabelComponent: "keda-route"}))

	var configBackend []string
	if w.Ingress.StripPrefix && w.Ingress.Path != "/" {
		configBackend = append(configBackend, ingress.StripPrefix(w.Ingress.Path))
	}

	var tls []networkingv1.IngressTLS
	if t := w.Ingress.TLS; t != nil && t.Enabled {
		hosts := t.Hosts
		if len(hosts) == 0 {
			hosts = w.Ingress.Hosts
		}
		tls = []networkingv1.IngressTLS{{SecretName: t.Secret, Hosts: hosts}}
	}

	ing := ingress.HAProxy{
		Name:          w.name + "-haproxy",
		Namespace:     w.namespace,
		Labels:        kubernetes.MergeLabels(w.labels, map[string]string{"k3sapp.io/ingress": constants.IngressHAProxy}),
		Annotations:   kubernetes.MergeLabels(w.IngressAnnotations, w.Ingress.Annotations),
		RoutingHost:   w.routingHost(),
		ConfigBackend: configBackend,
		Path:          w.Ingress.Path,
		PathType:      networkingv1.PathType(w.Ingress.PathType),
		Backend:       routeService,
		Timeouts:      w.Ingress.Timeouts,
		TLS:           tls,
	}.New()
	return []runtime.Object{route, ing}
}

func (w *workload) traefikObjects() []runtime.Object {
	middleware := w.name + "-host-rewrite"
	return []runtime.Object{
		traefik.HostRewrite(middleware, w.namespace, kubernetes.MergeLabels(w.labels), w.routingHost()),
		traefik.IngressRoute(w.name+"-routes", w.namespace, kubernetes.MergeLabels(w.labels), []traefik.Route{{
			Match:       traefik.PathMatch(w.Ingress.Path, w.Ingress.Hosts...),
			Service:     constants.KedaInterceptorProxyName,
			Middlewares: []traefik.MiddlewareRef{{Name: middleware, Namespace: w.namespace}},
		}}),
		ingress.InterceptorService(constants.KedaInterceptorProxyName, w.namespace,
			map[string]string{constants.LabelComponent: "keda-proxy"}),
	}
}
