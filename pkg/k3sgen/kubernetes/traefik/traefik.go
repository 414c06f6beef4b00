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

package traefik

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

const (
	APIVersion = "traefik.io/v1alpha1"

	KindIngressRoute = "IngressRoute"
	KindMiddleware   = "Middleware"
)

// EntryPoints every IngressRoute listens on.
var EntryPoints = []string{"web", "websecure"}

// Route is one rule of an IngressRoute.
type Route struct {
	Match       string
	Service     string
	Port        int64
	Middlewares []MiddlewareRef
}

// MiddlewareRef points to a Middleware.
type MiddlewareRef struct {
	Name      string
	Namespace string
}

// PathMatch returns the match expression for path, restricted to hosts when
// any is given.
func PathMatch(path string, hosts ...string) string {
	match := fmt.Sprintf("PathPrefix(`%s`)", path)
	switch len(hosts) {
	case 0:
		return match
	case 1:
		return fmt.Sprintf("Host(`%s`) && %s", hosts[0], match)
	default:
		var hostMatches []string
		for _, h := range hosts {
			hostMatches = append(hostMatches, fmt.Sprintf("Host(`%s`)", h))
		}
		return fmt.Sprintf("(%s) && %s", strings.Join(hostMatches, " || "), match)
	}
}

// IngressRoute returns an IngressRoute over routes.
func IngressRoute(name, namespace string, labels map[string]string, routes []Route) *unstructured.Unstructured {
	var specRoutes []interface{}
	for _, r := range routes {
		port := r.Port
		if port == 0 {
			port = constants.KedaInterceptorPort
		}
		route := map[string]interface{}{
			"match": r.Match,
			"kind":  "Rule",
			"services": []interface{}{
				map[string]interface{}{"name": r.Service, "port": port},
			},
		}
		if len(r.Middlewares) > 0 {
			var refs []interface{}
			for _, m := range r.Middlewares {
				refs = append(refs, map[string]interface{}{"name": m.Name, "namespace": m.Namespace})
			}
			route["middlewares"] = refs
		}
		specRoutes = append(specRoutes, route)
	}

	return manifest.NewUnstructured(APIVersion, KindIngressRoute, name, namespace, labels, map[string]interface{}{
		"entryPoints": manifest.Strings(EntryPoints),
		"routes":      specRoutes,
	})
}

// HostRewrite returns a Middleware setting the Host header to host, which the
// KEDA interceptor routes on.
func HostRewrite(name, namespace string, labels map[string]string, host string) *unstructured.Unstructured {
	return manifest.NewUnstructured(APIVersion, KindMiddleware, name, namespace, labels, map[string]interface{}{
		"headers": map[string]interface{}{
			"customRequestHeaders": map[string]interface{}{"Host": host},
		},
	})
}

func StripPrefix(name, namespace string, labels map[string]string, prefixes ...string) *unstructured.Unstructured {
	return manifest.NewUnstructured(APIVersion, KindMiddleware, name, namespace, labels, map[string]interface{}{
		"stripPrefix": map[string]interface{}{"prefixes": manifest.Strings(prefixes)},
	})
}

func RateLimit(name, namespace string, labels map[string]string, average, burst int64) *unstructured.Unstructured {
	return manifest.NewUnstructured(APIVersion, KindMiddleware, name, namespace, labels, map[string]interface{}{
		"rateLimit": map[string]interface{}{"average": average, "burst": burst},
	})
}

// BasicAuth returns a Middleware checking credentials stored in secret.
func BasicAuth(name, namespace string, labels map[string]string, secret string) *unstructured.Unstructured {
	return manifest.NewUnstructured(APIVersion, KindMiddleware, name, namespace, labels, map[string]interface{}{
		"basicAuth": map[string]interface{}{"secret": secret},
	})
}

// CORSHeaders returns a Middleware answering CORS requests according to cors.
func CORSHeaders(name, namespace string, labels map[string]string, cors latest.CORS) *unstructured.Unstructured {
	headers := map[string]interface{}{
		"accessControlAllowMethods":    manifest.Strings(cors.AllowMethods),
		"accessControlAllowHeaders":    manifest.Strings(cors.AllowHeaders),
		"accessControlExposeHeaders":   manifest.Strings(cors.ExposeHeaders),
		"accessControlAllowOriginList": manifest.Strings(cors.AllowOrigins),
		"addVaryHeader":                true,
	}
	if cors.MaxAge > 0 {
		headers["accessControlMaxAge"] = int64(cors.MaxAge)
	}
	return manifest.NewUnstructured(APIVersion, KindMiddleware, name, namespace, labels, map[string]interface{}{
		"headers": headers,
	})
}
