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
	"testing"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"

	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/testutil"
)

func TestHAProxy(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		ing := HAProxy{
			Name:          "api-haproxy",
			Namespace:     "apps",
			RoutingHost:   "api.apps",
			ConfigBackend: []string{StripPrefix("/api/")},
			Annotations:   map[string]string{AnnotationPrefix + "retries": "5"},
			Path:          "/api",
			Backend:       RouteServiceName("api"),
			Timeouts:      latest.DefaultTimeouts(),
		}.New()

		t.CheckDeepEqual("haproxy", *ing.Spec.IngressClassName)
		t.CheckDeepEqual(map[string]string{
			"haproxy-ingress.github.io/timeout-connect": "10s",
			"haproxy-ingress.github.io/timeout-server":  "180s",
			"haproxy-ingress.github.io/timeout-client":  "180s",
			"haproxy-ingress.github.io/timeout-queue":   "180s",
			"haproxy-ingress.github.io/retry-on":        "conn-failure,empty-response,response-timeout",
			"haproxy-ingress.github.io/retries":         "5",
			"haproxy-ingress.github.io/config-backend": "http-request set-header Host api.apps\n" +
				"http-request set-path %[path,regsub(^/api/,/),regsub(^/api$,/)]\n",
		}, ing.Annotations)

		path := ing.Spec.Rules[0].HTTP.Paths[0]
		t.CheckDeepEqual("/api", path.Path)
		t.CheckDeepEqual(networkingv1.PathTypePrefix, *path.PathType)
		t.CheckDeepEqual("keda-route-api", path.Backend.Service.Name)
		t.CheckDeepEqual(int32(8080), path.Backend.Service.Port.Number)
		t.CheckDeepEqual("", ing.Spec.Rules[0].Host)
	})
}

func TestInterceptorService(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		svc := InterceptorService("keda-route-api", "apps", map[string]string{"app": "api"})

		t.CheckDeepEqual(corev1.ServiceTypeExternalName, svc.Spec.Type)
		t.CheckDeepEqual("keda-add-ons-http-interceptor-proxy.keda.svc.cluster.local", svc.Spec.ExternalName)
		t.CheckDeepEqual(int32(8080), svc.Spec.Ports[0].Port)
		t.CheckDeepEqual(int32(8080), svc.Spec.Ports[0].TargetPort.IntVal)
	})
}
