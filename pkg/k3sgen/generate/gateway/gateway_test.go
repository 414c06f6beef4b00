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

package gateway

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	yamlutil "github.com/k3stack/k3sgen/pkg/k3sgen/yaml"
	"github.com/k3stack/k3sgen/testutil"
)

const appsYAML = `version: 2
defaults:
  ingress:
    gcp: haproxy
environments:
  gcp:
    domain: example.com
    tls: true
    tls_secret: example-tls
  local:
    domain: localhost
gateway:
  rate_limit:
    enabled: true
    requests_per_second: 50
    burst: 80
  routes:
    - path: /
      service: web
    - path: /api
      service: api.backend
      strip_prefix: true
      rewrite_to: /v1
      rate_limit:
        requests_per_second: 10
        burst: 20
      auth:
        enabled: true
        type: basic
`

func generate(t *testutil.T, text string, env latest.Environment, opts Options) manifest.List {
	t.Helper()
	cfg := latest.NewConfig()
	t.RequireNoError(yamlutil.Unmarshal([]byte(text), cfg))

	l, err := NewGenerator(cfg, env, opts).Generate(context.Background())
	t.RequireNoError(err)
	return l
}

func TestGenerateHAProxy(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, appsYAML, latest.GCP, Options{})

		t.CheckDeepEqual([]string{"Service", "Ingress", "Service", "Ingress"}, l.Kinds())

		svc := l.Find("Service", "keda-route-root").(*corev1.Service)
		t.CheckDeepEqual("haproxy-ingress", svc.Namespace)
		t.CheckDeepEqual(corev1.ServiceTypeExternalName, svc.Spec.Type)
		t.CheckDeepEqual("root", svc.Labels["k3sgateway.io/route"])

		root := l.Find("Ingress", "gateway-root").(*networkingv1.Ingress)
		t.CheckDeepEqual("haproxy-ingress", root.Namespace)
		t.CheckDeepEqual("example.com", root.Spec.Rules[0].Host)
		t.CheckDeepEqual([]networkingv1.IngressTLS{{SecretName: "example-tls", Hosts: []string{"example.com"}}}, root.Spec.TLS)
		t.CheckDeepEqual("http-request set-header Host web.apps\n", root.Annotations["haproxy-ingress.github.io/config-backend"])
		t.CheckDeepEqual("50", root.Annotations["haproxy-ingress.github.io/limit-rps"])
		t.CheckDeepEqual("80", root.Annotations["haproxy-ingress.github.io/limit-connections"])
		t.CheckDeepEqual("180s", root.Annotations["haproxy-ingress.github.io/timeout-queue"])
		t.CheckDeepEqual("true", root.Annotations["haproxy-ingress.github.io/cors-enable"])
		t.CheckDeepEqual("*", root.Annotations["haproxy-ingress.github.io/cors-allow-origin"])
		t.CheckDeepEqual("GET,POST,PUT,DELETE,OPTIONS", root.Annotations["haproxy-ingress.github.io/cors-allow-methods"])

		backend := root.Spec.Rules[0].HTTP.Paths[0].Backend.Service
		t.CheckDeepEqual("keda-route-root", backend.Name)
		t.CheckDeepEqual(int32(8080), backend.Port.Number)

		api := l.Find("Ingress", "gateway-api").(*networkingv1.Ingress)
		t.CheckDeepEqual("http-request set-header Host api.backend\nhttp-request replace-path /api(.*) /v1\\1\n",
			api.Annotations["haproxy-ingress.github.io/config-backend"])
		t.CheckDeepEqual("10", api.Annotations["haproxy-ingress.github.io/limit-rps"])
		t.CheckDeepEqual("/api", api.Spec.Rules[0].HTTP.Paths[0].Path)
	})
}

func TestGenerateTraefik(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, appsYAML, latest.Local, Options{})

		t.CheckDeepEqual([]string{
			"Middleware", "Middleware",
			"Middleware", "Middleware", "Middleware", "Middleware",
			"Service", "IngressRoute", "Middleware",
		}, l.Kinds())
		t.CheckTrue(l.Find("Middleware", "gateway-api-basicauth") != nil)
		t.CheckTrue(l.Find("Middleware", "gateway-api-strip-prefix") != nil)
		t.CheckTrue(l.Find("Middleware", "gateway-cors") != nil)

		proxy := l.Find("Service", "keda-interceptor-proxy").(*corev1.Service)
		t.CheckDeepEqual("apps", proxy.Namespace)

		rewrite := l.Find("Middleware", "gateway-api-host-rewrite").(*unstructured.Unstructured)
		host, _, _ := unstructured.NestedString(rewrite.Object, "spec", "headers", "customRequestHeaders", "Host")
		t.CheckDeepEqual("api.backend", host)

		limit := l.Find("Middleware", "gateway-root-ratelimit").(*unstructured.Unstructured)
		average, _, _ := unstructured.NestedInt64(limit.Object, "spec", "rateLimit", "average")
		t.CheckDeepEqual(int64(50), average)

		auth := l.Find("Middleware", "gateway-api-basicauth").(*unstructured.Unstructured)
		secret, _, _ := unstructured.NestedString(auth.Object, "spec", "basicAuth", "secret")
		t.CheckDeepEqual("gateway-api-auth", secret)

		route := l.Find("IngressRoute", "gateway-routes").(*unstructured.Unstructured)
		routes, _, _ := unstructured.NestedSlice(route.Object, "spec", "routes")
		t.CheckDeepEqual(2, len(routes))
		api := routes[1].(map[string]interface{})
		t.CheckDeepEqual("Host(`localhost`) && PathPrefix(`/api`)", api["match"])

		var names []string
		for _, m := range api["middlewares"].([]interface{}) {
			names = append(names, m.(map[string]interface{})["name"].(string))
		}
		t.CheckDeepEqual([]string{
			"gateway-api-host-rewrite",
			"gateway-api-ratelimit",
			"gateway-api-basicauth",
			"gateway-api-strip-prefix",
			"gateway-cors",
		}, names)
	})
}

func TestIngressOverride(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, appsYAML, latest.GCP, Options{Ingress: "traefik"})

		t.CheckTrue(l.Find("IngressRoute", "gateway-routes") != nil)
		t.CheckTrue(l.Find("Ingress", "gateway-root") == nil)
	})
}

func TestSettingsOverride(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tls := false
		l := generate(t, appsYAML, latest.GCP, Options{Domain: "api.example.org", TLS: &tls})

		root := l.Find("Ingress", "gateway-root").(*networkingv1.Ingress)
		t.CheckDeepEqual("api.example.org", root.Spec.Rules[0].Host)
		t.CheckEmpty(root.Spec.TLS)
	})
}

func TestTraefikNamespace(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, appsYAML, latest.Local, Options{Namespace: "edge"})

		route := l.Find("IngressRoute", "gateway-routes").(*unstructured.Unstructured)
		t.CheckDeepEqual("edge", route.GetNamespace())
	})
}

func TestGenerateWithoutRoutes(t *testing.T) {
	tests := []struct {
		description string
		text        string
	}{
		{
			description: "no gateway",
			text:        "version: 2\n",
		},
		{
			description: "empty routes",
			text:        "version: 2\ngateway:\n  routes: []\n",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			l := generate(t, test.text, latest.Local, Options{})

			t.CheckEmpty(l)
		})
	}
}

func TestRateLimitDisabled(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		text := `version: 2
gateway:
  cors:
    enabled: false
  routes:
    - path: /docs
      service: docs
`
		l := generate(t, text, latest.Local, Options{})

		t.CheckDeepEqual([]string{"Middleware", "Service", "IngressRoute"}, l.Kinds())
		route := l.Find("IngressRoute", "gateway-routes").(*unstructured.Unstructured)
		routes, _, _ := unstructured.NestedSlice(route.Object, "spec", "routes")
		t.CheckDeepEqual("PathPrefix(`/docs`)", routes[0].(map[string]interface{})["match"])
	})
}
