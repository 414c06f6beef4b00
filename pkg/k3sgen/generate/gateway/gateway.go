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
	"fmt"
	"strings"

	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/ingress"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/traefik"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
)

const (
	prefix   = "gateway-"
	corsName = prefix + "cors"
)

// Options tune a Generator.
type Options struct {
	// Ingress replaces the ingress controller of the environment when set.
	Ingress string

	// Domain, TLS and TLSSecret replace the settings of the environment when set.
	Domain    string
	TLS       *bool
	TLSSecret string

	// Namespace of the Traefik objects. The default namespace is used when empty.
	Namespace string
}

// Generator renders the gateway routes for one environment.
type Generator struct {
	cfg  *latest.Config
	env  latest.Environment
	opts Options
}

func NewGenerator(cfg *latest.Config, env latest.Environment, opts Options) *Generator {
	return &Generator{cfg: cfg, env: env, opts: opts}
}

// Generate returns the gateway manifests. Every route goes through the KEDA
// interceptor with the Host header rewritten to "service.namespace". An empty
// list is returned when no gateway is configured.
func (g *Generator) Generate(ctx context.Context) (manifest.List, error) {
	ctx = log.WithEventContext(ctx, "k3sgateway", "gateway")
	gw := g.cfg.Gateway
	if gw == nil || len(gw.Routes) == 0 {
		log.Entry(ctx).Info("No gateway routes configured")
		return nil, nil
	}

	controller := g.opts.Ingress
	if controller == "" {
		controller = g.cfg.IngressType(g.env)
	}
	r := &renderer{
		gw:        gw,
		settings:  g.settings(),
		namespace: g.cfg.Namespace(g.opts.Namespace),
	}

	var l manifest.List
	if controller == constants.IngressHAProxy {
		l.Append(r.haproxy()...)
	} else {
		l.Append(r.traefik()...)
	}
	log.Entry(ctx).Debugf("Generated %d %s manifests for %d routes", len(l), controller, len(gw.Routes))
	return l, nil
}

func (g *Generator) settings() latest.EnvironmentSettings {
	settings := g.cfg.EnvironmentSettings(g.env)
	if g.opts.Domain != "" {
		settings.Domain = g.opts.Domain
	}
	if g.opts.TLS != nil {
		settings.TLS = *g.opts.TLS
	}
	if g.opts.TLSSecret != "" {
		settings.TLSSecret = g.opts.TLSSecret
	}
	return settings
}

type renderer struct {
	gw        *latest.GatewayConfig
	settings  latest.EnvironmentSettings
	namespace string
}

func routeName(r latest.Route) string {
	return util.RouteName(r.Path)
}

func routingHost(r latest.Route) string {
	return fmt.Sprintf("%s.%s", r.ServiceName(), r.ServiceNamespace())
}

func labels(route, component string) map[string]string {
	l := map[string]string{constants.LabelGatewayPart: component}
	if route != "" {
		l[constants.LabelGateway] = route
	}
	return l
}

// haproxy returns, per route, an ExternalName service and an Ingress in the
// haproxy-ingress namespace.
func (r *renderer) haproxy() []runtime.Object {
	var objs []runtime.Object
	for _, route := range r.gw.Routes {
		name := routeName(route)
		service := ingress.RouteServiceName(name)

		var configBackend []string
		if route.StripPrefix {
			rewrite := route.RewriteTo
			if rewrite == "" {
				rewrite = "/"
			}
			configBackend = append(configBackend, fmt.Sprintf(`http-request replace-path %s(.*) %s\1`, route.Path, rewrite))
		}

		var tls []networkingv1.IngressTLS
		if r.settings.TLS && r.settings.TLSSecret != "" {
			t := networkingv1.IngressTLS{SecretName: r.settings.TLSSecret}
			if r.settings.Domain != "" {
				t.Hosts = []string{r.settings.Domain}
			}
			tls = append(tls, t)
		}

		objs = append(objs,
			ingress.InterceptorService(service, constants.HAProxyIngressNamespace, labels(name, "keda-route")),
			ingress.HAProxy{
				Name:          prefix + name,
				Namespace:     constants.HAProxyIngressNamespace,
				Labels:        labels(name, "gateway"),
				Annotations:   r.haproxyAnnotations(route),
				RoutingHost:   routingHost(route),
				ConfigBackend: configBackend,
				Host:          r.settings.Domain,
				Path:          route.Path,
				Backend:       service,
				Timeouts: latest.Timeouts{
					Connect: route.Timeouts.Connect,
					Server:  route.Timeouts.Server,
					Client:  route.Timeouts.Client,
					Queue:   route.Timeouts.Server,
				},
				TLS: tls,
			}.New(),
		)
	}
	return objs
}

func (r *renderer) haproxyAnnotations(route latest.Route) map[string]string {
	annotations := map[string]string{}
	if limit := r.gw.EffectiveRateLimit(route); limit != nil {
		annotations[ingress.AnnotationPrefix+"limit-rps"] = fmt.Sprint(limit.RequestsPerSecond)
		annotations[ingress.AnnotationPrefix+"limit-connections"] = fmt.Sprint(limit.Burst)
	}
	if cors := r.gw.CORS; cors.Enabled {
		origins := "*"
		if len(cors.AllowOrigins) > 0 {
			origins = strings.Join(cors.AllowOrigins, ",")
		}
		annotations[ingress.AnnotationPrefix+"cors-enable"] = "true"
		annotations[ingress.AnnotationPrefix+"cors-allow-origin"] = origins
		annotations[ingress.AnnotationPrefix+"cors-allow-methods"] = strings.Join(cors.AllowMethods, ",")
		annotations[ingress.AnnotationPrefix+"cors-allow-headers"] = strings.Join(cors.AllowHeaders, ",")
		if len(cors.ExposeHeaders) > 0 {
			annotations[ingress.AnnotationPrefix+"cors-expose-headers"] = strings.Join(cors.ExposeHeaders, ",")
		}
		if cors.MaxAge > 0 {
			annotations[ingress.AnnotationPrefix+"cors-max-age"] = fmt.Sprint(cors.MaxAge)
		}
	}
	return annotations
}

// traefik returns the Middlewares of every route, the interceptor proxy
// service, one IngressRoute over all routes and the CORS Middleware.
func (r *renderer) traefik() []runtime.Object {
	var objs []runtime.Object
	var routes []traefik.Route
	for _, route := range r.gw.Routes {
		name := routeName(route)
		ref := func(middleware string) traefik.MiddlewareRef {
			return traefik.MiddlewareRef{Name: middleware, Namespace: r.namespace}
		}

		hostRewrite := prefix + name + "-host-rewrite"
		objs = append(objs, traefik.HostRewrite(hostRewrite, r.namespace, labels(name, "middleware"), routingHost(route)))
		refs := []traefik.MiddlewareRef{ref(hostRewrite)}

		if limit := r.gw.EffectiveRateLimit(route); limit != nil {
			mw := prefix + name + "-ratelimit"
			objs = append(objs, traefik.RateLimit(mw, r.namespace, labels(name, "ratelimit"), int64(limit.RequestsPerSecond), int64(limit.Burst)))
			refs = append(refs, ref(mw))
		}
		if auth := route.Auth; auth != nil && auth.Enabled && auth.Type == "basic" {
			mw := prefix + name + "-basicauth"
			objs = append(objs, traefik.BasicAuth(mw, r.namespace, labels(name, "auth"), prefix+name+"-auth"))
			refs = append(refs, ref(mw))
		}
		if route.StripPrefix {
			mw := prefix + name + "-strip-prefix"
			objs = append(objs, traefik.StripPrefix(mw, r.namespace, labels(name, "middleware"), route.Path))
			refs = append(refs, ref(mw))
		}
		if r.gw.CORS.Enabled {
			refs = append(refs, ref(corsName))
		}

		var hosts []string
		if r.settings.Domain != "" {
			hosts = append(hosts, r.settings.Domain)
		}
		routes = append(routes, traefik.Route{
			Match:       traefik.PathMatch(route.Path, hosts...),
			Service:     constants.KedaInterceptorProxyName,
			Middlewares: refs,
		})
	}

	objs = append(objs,
		ingress.InterceptorService(constants.KedaInterceptorProxyName, r.namespace, labels("", "keda-proxy")),
		traefik.IngressRoute(prefix+"routes", r.namespace, labels("", "gateway"), routes),
	)
	if r.gw.CORS.Enabled {
		objs = append(objs, traefik.CORSHeaders(corsName, r.namespace, labels("", "cors"), r.gw.CORS))
	}
	return objs
}
