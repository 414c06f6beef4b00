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

package ingress

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// AnnotationPrefix is the prefix of every haproxy-ingress annotation.
const AnnotationPrefix = "haproxy-ingress.github.io/"

const retryOn = "conn-failure,empty-response,response-timeout"

// HAProxy describes an Ingress served by haproxy-ingress in front of the KEDA
// interceptor.
type HAProxy struct {
	Name      string
	Namespace string
	Labels    map[string]string

	// Annotations are added after the generated ones and win over them.
	Annotations map[string]string

	// RoutingHost is the Host header the KEDA interceptor routes on.
	RoutingHost string

	// ConfigBackend lines are appended after the Host rewrite.
	ConfigBackend []string

	Host     string
	Path     string
	PathType networkingv1.PathType

	// Backend names the per route ExternalName service.
	Backend     string
	BackendPort int32

	Timeouts latest.Timeouts
	TLS      []networkingv1.IngressTLS
}

// TimeoutAnnotations returns the timeout and retry annotations for timeouts.
func TimeoutAnnotations(timeouts latest.Timeouts) map[string]string {
	return map[string]string{
		AnnotationPrefix + "timeout-connect": timeouts.Connect,
		AnnotationPrefix + "timeout-server":  timeouts.Server,
		AnnotationPrefix + "timeout-client":  timeouts.Client,
		AnnotationPrefix + "timeout-queue":   timeouts.Queue,
		AnnotationPrefix + "retry-on":        retryOn,
		AnnotationPrefix + "retries":         "3",
	}
}

// StripPrefix returns the config-backend line removing prefix from the
// request path.
func StripPrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	return fmt.Sprintf("http-request set-path %%[path,regsub(^%s/,/),regsub(^%s$,/)]", prefix, prefix)
}

// New returns the Ingress described by h.
func (h HAProxy) New() *networkingv1.Ingress {
	annotations := TimeoutAnnotations(h.Timeouts)
	backend := fmt.Sprintf("http-request set-header Host %s\n", h.RoutingHost)
	for _, line := range h.ConfigBackend {
		backend += line + "\n"
	}
	annotations[AnnotationPrefix+"config-backend"] = backend
	for k, v := range h.Annotations {
		annotations[k] = v
	}

	pathType := h.PathType
	if pathType == "" {
		pathType = networkingv1.PathTypePrefix
	}
	port := h.BackendPort
	if port == 0 {
		port = constants.KedaInterceptorPort
	}

	return &networkingv1.Ingress{
		TypeMeta: metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "Ingress"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        h.Name,
			Namespace:   h.Namespace,
			Labels:      h.Labels,
			Annotations: annotations,
		},
		Spec: networkingv1.IngressSpec{
			IngressClassName: ptr.To(constants.HAProxyIngressClass),
			TLS:              h.TLS,
			Rules: []networkingv1.IngressRule{{
				Host: h.Host,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     h.Path,
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: h.Backend,
									Port: networkingv1.ServiceBackendPort{Number: port},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// InterceptorService returns an ExternalName service resolving to the KEDA
// HTTP interceptor. haproxy-ingress merges paths sharing a backend service, so
// every route gets its own service to keep its Host rewrite.
func InterceptorService(name, namespace string, labels map[string]string) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Type:         corev1.ServiceTypeExternalName,
			ExternalName: constants.KedaInterceptorHost,
			Ports: []corev1.ServicePort{{
				Port:       constants.KedaInterceptorPort,
				TargetPort: intstr.FromInt32(constants.KedaInterceptorPort),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// RouteServiceName returns the name of the ExternalName service of a route.
func RouteServiceName(route string) string {
	return constants.KedaRoutePrefix + route
}
