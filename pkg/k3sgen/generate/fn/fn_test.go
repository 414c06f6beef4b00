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
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/k3stack/k3sgen/pkg/k3sgen/function"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	yamlutil "github.com/k3stack/k3sgen/pkg/k3sgen/yaml"
	"github.com/k3stack/k3sgen/testutil"
)

const appsYAML = `version: 2
defaults:
  registry:
    gcp: europe-docker.pkg.dev/project/apps
  ingress:
    gcp: haproxy
serverless:
  - name: demo
    path: fns
    local:
      host: demo.localhost
`

const functionsYAML = `functions:
  - name: hello
    visibility: public
    environment:
      GREETING: hi
    http:
      path: /api/hello
  - name: process_tasks
    max_instances: 5
    secrets: [db-credentials]
    queue:
      queue_name: tasks
      batch_size: 5
  - name: daily_cleanup
    schedule:
      cron: "0 0 * * *"
  - name: admin
    visibility: restricted
    allow_from:
      - pod_labels: {app: frontend}
    http:
      path: /api/admin
`

func generate(t *testutil.T, env latest.Environment, opts Options) *Result {
	t.Helper()
	cfg := latest.NewConfig()
	t.RequireNoError(yamlutil.Unmarshal([]byte(appsYAML), cfg))
	registry, err := function.Parse([]byte(functionsYAML))
	t.RequireNoError(err)

	result, err := NewGenerator(cfg, env, opts).GenerateFunctions(context.Background(), &cfg.Serverless[0], registry)
	t.RequireNoError(err)
	return result
}

func field(t *testutil.T, obj interface{}, fields ...string) interface{} {
	t.Helper()
	u, ok := obj.(*unstructured.Unstructured)
	if !ok {
		t.Fatalf("expected an unstructured object, got %T", obj)
	}
	value, found, err := unstructured.NestedFieldNoCopy(u.Object, fields...)
	t.RequireNoError(err)
	if !found {
		t.Fatalf("%v not found", fields)
	}
	return value
}

var workloadKinds = []string{
	"Deployment", "Service", "HTTPScaledObject", "NetworkPolicy",
	"Deployment", "Service", "ScaledObject", "NetworkPolicy",
	"CronJob",
	"Deployment", "Service", "HTTPScaledObject", "NetworkPolicy",
}

func TestGenerateLocal(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		result := generate(t, latest.Local, Options{})
		l := result.Manifests

		t.CheckDeepEqual(append(append([]string{}, workloadKinds...), "Middleware", "IngressRoute", "Service"), l.Kinds())

		hello := l.Find("Deployment", "demo-hello").(*appsv1.Deployment)
		t.CheckDeepEqual(int32(0), *hello.Spec.Replicas)
		t.CheckDeepEqual("http", hello.Labels["k3sfn.io/trigger"])
		c := hello.Spec.Template.Spec.Containers[0]
		t.CheckDeepEqual("function", c.Name)
		t.CheckDeepEqual("demo:latest", c.Image)
		t.CheckDeepEqual([]corev1.EnvVar{
			{Name: "K3SFN_FUNCTION", Value: "hello"},
			{Name: "PORT", Value: "8080"},
			{Name: "GREETING", Value: "hi"},
		}, c.Env)
		t.CheckDeepEqual("/ready", c.StartupProbe.HTTPGet.Path)
		t.CheckDeepEqual(int32(30), c.StartupProbe.FailureThreshold)
		t.CheckDeepEqual("/live", c.LivenessProbe.HTTPGet.Path)
		t.CheckDeepEqual("256Mi", c.Resources.Limits.Memory().String())
		t.CheckTrue(c.Resources.Limits.Cpu().IsZero())
		t.CheckEmpty(hello.Spec.Template.Spec.ImagePullSecrets)

		svc := l.Find("Service", "demo-hello").(*corev1.Service)
		t.CheckDeepEqual(int32(80), svc.Spec.Ports[0].Port)
		t.CheckDeepEqual(int32(8080), svc.Spec.Ports[0].TargetPort.IntVal)

		httpso := l.Find("HTTPScaledObject", "demo-hello")
		t.CheckDeepEqual([]interface{}{"demo-hello.apps"}, field(t, httpso, "spec", "hosts"))
		t.CheckDeepEqual([]interface{}{"/api/hello"}, field(t, httpso, "spec", "pathPrefixes"))
		t.CheckDeepEqual(int64(100), field(t, httpso, "spec", "scalingMetric", "requestRate", "targetValue"))

		middleware := l.Find("Middleware", "demo-hello-host-rewrite")
		t.CheckDeepEqual("demo-hello.apps", field(t, middleware, "spec", "headers", "customRequestHeaders", "Host"))

		routes := field(t, l.Find("IngressRoute", "demo-routes"), "spec", "routes").([]interface{})
		t.CheckDeepEqual(1, len(routes))
		t.CheckDeepEqual("Host(`demo.localhost`) && PathPrefix(`/api/hello`)", routes[0].(map[string]interface{})["match"])

		proxy := l.Find("Service", "keda-interceptor-proxy").(*corev1.Service)
		t.CheckDeepEqual(corev1.ServiceTypeExternalName, proxy.Spec.Type)

		t.CheckDeepEqual("demo", result.Index.App)
		t.CheckDeepEqual(4, len(result.Index.Functions))
	})
}

func TestGenerateGCP(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, latest.GCP, Options{}).Manifests

		t.CheckDeepEqual(append(append([]string{}, workloadKinds...), "Service", "Ingress"), l.Kinds())

		hello := l.Find("Deployment", "demo-hello").(*appsv1.Deployment)
		t.CheckDeepEqual("europe-docker.pkg.dev/project/apps/demo:latest", hello.Spec.Template.Spec.Containers[0].Image)
		t.CheckDeepEqual([]corev1.LocalObjectReference{{Name: "artifact-registry"}}, hello.Spec.Template.Spec.ImagePullSecrets)

		route := l.Find("Service", "keda-route-demo-hello").(*corev1.Service)
		t.CheckDeepEqual("keda-route", route.Labels["k3sfn.io/component"])

		ing := l.Find("Ingress", "demo-hello-haproxy").(*networkingv1.Ingress)
		t.CheckDeepEqual("http-request set-header Host demo-hello.apps\n", ing.Annotations["haproxy-ingress.github.io/config-backend"])
		path := ing.Spec.Rules[0].HTTP.Paths[0]
		t.CheckDeepEqual("/api/hello", path.Path)
		t.CheckDeepEqual("keda-route-demo-hello", path.Backend.Service.Name)
		t.CheckDeepEqual(int32(8080), path.Backend.Service.Port.Number)
	})
}

func TestQueueFunction(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, latest.Local, Options{}).Manifests

		so := l.Find("ScaledObject", "demo-process-tasks")
		t.CheckDeepEqual(int64(5), field(t, so, "spec", "maxReplicaCount"))
		t.CheckDeepEqual(int64(30), field(t, so, "spec", "pollingInterval"))
		trigger := field(t, so, "spec", "triggers").([]interface{})[0].(map[string]interface{})
		t.CheckDeepEqual("redis-sentinel", trigger["type"])
		metadata := trigger["metadata"].(map[string]interface{})
		t.CheckDeepEqual("queue:tasks", metadata["listName"])
		t.CheckDeepEqual("25", metadata["listLength"])
		t.CheckDeepEqual(map[string]interface{}{"name": "valkey-auth"}, trigger["authenticationRef"])

		deployment := l.Find("Deployment", "demo-process-tasks").(*appsv1.Deployment)
		t.CheckDeepEqual([]corev1.VolumeMount{{Name: "db-credentials", MountPath: "/secrets/db-credentials", ReadOnly: true}},
			deployment.Spec.Template.Spec.Containers[0].VolumeMounts)
		t.CheckDeepEqual("db-credentials", deployment.Spec.Template.Spec.Volumes[0].Secret.SecretName)
	})
}

func TestScheduledFunction(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, latest.Local, Options{}).Manifests

		t.CheckTrue(l.Find("Deployment", "demo-daily-cleanup") == nil)
		cronJob := l.Find("CronJob", "demo-daily-cleanup").(*batchv1.CronJob)
		t.CheckDeepEqual("0 0 * * *", cronJob.Spec.Schedule)
		t.CheckDeepEqual("UTC", *cronJob.Spec.TimeZone)
		t.CheckDeepEqual(int64(30), *cronJob.Spec.JobTemplate.Spec.ActiveDeadlineSeconds)
		pod := cronJob.Spec.JobTemplate.Spec.Template.Spec
		t.CheckDeepEqual(corev1.RestartPolicyOnFailure, pod.RestartPolicy)
		t.CheckDeepEqual("function", pod.Containers[0].Name)
	})
}

func TestNetworkPolicies(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, latest.Local, Options{}).Manifests

		admin := l.Find("NetworkPolicy", "demo-admin-ingress").(*networkingv1.NetworkPolicy)
		t.CheckDeepEqual("restricted", admin.Labels["k3sfn.io/visibility"])
		t.CheckDeepEqual(2, len(admin.Spec.Ingress))
		t.CheckDeepEqual(map[string]string{"app": "frontend"}, admin.Spec.Ingress[0].From[0].PodSelector.MatchLabels)
		t.CheckDeepEqual(int32(8080), admin.Spec.Ingress[0].Ports[0].Port.IntVal)

		hello := l.Find("NetworkPolicy", "demo-hello-ingress").(*networkingv1.NetworkPolicy)
		t.CheckDeepEqual(map[string]string{"app.kubernetes.io/name": "traefik"}, hello.Spec.Ingress[0].From[0].PodSelector.MatchLabels)
	})
}

func TestOptions(t *testing.T) {
	testutil.Run(t, "registry and ingress flags win", func(t *testutil.T) {
		l := generate(t, latest.Local, Options{Registry: "registry.local:5000", Ingress: "haproxy"}).Manifests

		hello := l.Find("Deployment", "demo-hello").(*appsv1.Deployment)
		t.CheckDeepEqual("registry.local:5000/demo:latest", hello.Spec.Template.Spec.Containers[0].Image)
		t.CheckTrue(l.Find("Ingress", "demo-hello-haproxy") != nil)
		t.CheckTrue(l.Find("IngressRoute", "demo-routes") == nil)
	})
	testutil.Run(t, "host flag wins", func(t *testutil.T) {
		l := generate(t, latest.Local, Options{Host: "fns.example.com", Ingress: "haproxy"}).Manifests

		ing := l.Find("Ingress", "demo-hello-haproxy").(*networkingv1.Ingress)
		t.CheckDeepEqual("fns.example.com", ing.Spec.Rules[0].Host)
	})
}

func TestGenerate(t *testing.T) {
	testutil.Run(t, "discovers functions.yaml under the project path", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(map[string]string{"/work/fns/functions.yaml": functionsYAML}))
		cfg := latest.NewConfig()
		t.RequireNoError(yamlutil.Unmarshal([]byte(appsYAML), cfg))

		result, err := NewGenerator(cfg, latest.Local, Options{BaseDir: "/work"}).Generate(context.Background(), &cfg.Serverless[0])

		t.CheckNoError(err)
		t.CheckDeepEqual(16, len(result.Manifests))
	})
}
