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

package constants

import (
	"github.com/sirupsen/logrus"
)

const (
	// DefaultConfigFile is the configuration file read when -f is not given.
	DefaultConfigFile = "apps.yaml"
	// FallbackConfigFile is tried when DefaultConfigFile does not exist.
	FallbackConfigFile = "apps.yml"
	// DefaultSchemaFile is looked up next to the configuration file.
	DefaultSchemaFile = "apps.schema.json"

	// SupportedConfigMajorVersion is the only major `version` accepted in apps.yaml.
	SupportedConfigMajorVersion = 2

	DefaultNamespace = "apps"
	DefaultLogLevel  = logrus.WarnLevel

	DefaultFunctionsFile = "functions.yaml"
	FunctionIndexFile    = "k3sfn.json"

	// FunctionPort is the port the function runtime listens on.
	FunctionPort = 8080
)

// Ingress controllers.
const (
	IngressTraefik = "traefik"
	IngressHAProxy = "haproxy"

	DefaultIngressType = IngressTraefik

	HAProxyIngressClass     = "haproxy"
	HAProxyIngressNamespace = "haproxy-ingress"
	TraefikNamespace        = "kube-system"
	TraefikPodLabel         = "app.kubernetes.io/name"
	TraefikPodLabelValue    = "traefik"
)

// KEDA HTTP add-on. Every HTTP route goes through the shared interceptor which
// multiplexes on the Host header.
const (
	KedaNamespace            = "keda"
	KedaInterceptorHost      = "keda-add-ons-http-interceptor-proxy.keda.svc.cluster.local"
	KedaInterceptorPort      = 8080
	KedaInterceptorProxyName = "keda-interceptor-proxy"
	KedaRoutePrefix          = "keda-route-"
)

// Queue backends used by KEDA ScaledObjects.
const (
	ValkeyAddress         = "valkey-master.valkey.svc.cluster.local:6379"
	ValkeySecret          = "valkey-secret"
	ValkeySentinelAddress = "valkey.apps.svc.cluster.local:26379"
	ValkeySentinelMaster  = "myprimary"
	ValkeyAuthName        = "valkey-auth"
)

// External secrets.
const (
	ClusterSecretStore     = "gcp-secret-manager"
	SecretRefreshInterval  = "1h"
	ArtifactRegistryHost   = "docker.pkg.dev"
	ArtifactRegistrySecret = "artifact-registry"
)

// Labels stamped on generated objects.
const (
	LabelApp            = "app"
	LabelK3sApp         = "k3sapp.io/app"
	LabelComponent      = "k3sapp.io/component"
	LabelVisibility     = "k3sapp.io/visibility"
	LabelComposeProject = "k3scompose.io/project"
	LabelComposeService = "k3scompose.io/service"
	LabelComposeVolume  = "k3scompose.io/volume"
	LabelFunction       = "k3sfn.io/function"
	LabelFunctionApp    = "k3sfn.io/app"
	LabelTrigger        = "k3sfn.io/trigger"
	LabelFnVisibility   = "k3sfn.io/visibility"
	LabelFnComponent    = "k3sfn.io/component"
	LabelFnIngress      = "k3sfn.io/ingress"
	LabelGateway        = "k3sgateway.io/route"
	LabelGatewayPart    = "k3sgateway.io/component"
	LabelManagedBy      = "app.kubernetes.io/managed-by"
	ManagedBy           = "k3sgen"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)
