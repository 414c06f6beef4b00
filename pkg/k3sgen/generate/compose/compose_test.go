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
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"

	"github.com/k3stack/k3sgen/pkg/k3sgen/compose"
	kErrors "github.com/k3stack/k3sgen/pkg/k3sgen/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
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
compose:
  - name: shop
    path: shop
    storage_class: local-path
    secrets:
      STRIPE_KEY:
        secret: stripe-key
    gcp:
      replicas: 3
      resources:
        memory: 1Gi
      environment:
        REGION: eu
      ingress_path: /shop
`

const composeYAML = `services:
  web:
    build: ./web
    command: gunicorn app:app
    environment:
      DEBUG: "false"
      EMPTY:
    env_file: .env
    ports:
      - "8000:8000"
      - "9090"
    volumes:
      - static:/app/static
      - ./config:/app/config:ro
      - /tmp/cache
    healthcheck:
      test: curl -f http://localhost:8000/health
      interval: 10s
      retries: 5
    deploy:
      replicas: 2
      resources:
        limits: {cpus: "0.5", memory: 512m}
        reservations: {cpus: "0.25", memory: 256m}
    user: "1000:2000"
  db:
    image: postgres:16
    volumes:
      - pgdata:/var/lib/postgresql/data
volumes:
  static:
  pgdata:
    external: true
`

func generate(t *testutil.T, env latest.Environment) manifest.List {
	t.Helper()
	t.Override(&util.Fs, t.NewMemFs(map[string]string{
		"/work/shop/docker-compose.yaml": composeYAML,
		"/work/shop/.env":                "SECRET_SAUCE=1\n",
	}))
	cfg := latest.NewConfig()
	t.RequireNoError(yamlutil.Unmarshal([]byte(appsYAML), cfg))

	l, err := NewGenerator(cfg, env, Options{BaseDir: "/work"}).Generate(context.Background(), &cfg.Compose[0])
	t.RequireNoError(err)
	return l
}

func TestGenerateGCP(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, latest.GCP)

		t.CheckDeepEqual([]string{
			"ExternalSecret", "PersistentVolumeClaim",
			"ConfigMap", "Deployment", "Service", "NetworkPolicy",
			"Deployment", "NetworkPolicy",
			"Ingress",
		}, l.Kinds())

		pvc := l.Find("PersistentVolumeClaim", "static").(*corev1.PersistentVolumeClaim)
		t.CheckDeepEqual("local-path", *pvc.Spec.StorageClassName)
		t.CheckDeepEqual("static", pvc.Labels["k3scompose.io/volume"])
		t.CheckDeepEqual("1Gi", pvc.Spec.Resources.Requests.Storage().String())

		cm := l.Find("ConfigMap", "web-env").(*corev1.ConfigMap)
		t.CheckDeepEqual(map[string]string{"SECRET_SAUCE": "1"}, cm.Data)

		web := l.Find("Deployment", "web").(*appsv1.Deployment)
		t.CheckDeepEqual(int32(3), *web.Spec.Replicas)
		t.CheckDeepEqual(map[string]string{
			"app":                   "web",
			"k3scompose.io/project": "shop",
			"k3scompose.io/service": "web",
		}, web.Labels)

		c := web.Spec.Template.Spec.Containers[0]
		t.CheckDeepEqual("europe-docker.pkg.dev/project/apps/shop-web:latest", c.Image)
		t.CheckDeepEqual([]string{"gunicorn", "app:app"}, c.Args)
		t.CheckDeepEqual([]corev1.EnvVar{
			{Name: "DEBUG", Value: "false"},
			{Name: "EMPTY", Value: ""},
			{Name: "REGION", Value: "eu"},
		}, c.Env)
		t.CheckDeepEqual([]corev1.EnvFromSource{
			{ConfigMapRef: &corev1.ConfigMapEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: "web-env"}}},
			{SecretRef: &corev1.SecretEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: "shop-secrets"}}},
		}, c.EnvFrom)
		t.CheckDeepEqual([]corev1.LocalObjectReference{{Name: "artifact-registry"}}, web.Spec.Template.Spec.ImagePullSecrets)

		t.CheckDeepEqual("1Gi", c.Resources.Requests.Memory().String())
		t.CheckDeepEqual("250m", c.Resources.Requests.Cpu().String())
		t.CheckDeepEqual("1Gi", c.Resources.Limits.Memory().String())
		t.CheckDeepEqual("500m", c.Resources.Limits.Cpu().String())

		t.CheckDeepEqual([]string{"/bin/sh", "-c", "curl -f http://localhost:8000/health"}, c.LivenessProbe.Exec.Command)
		t.CheckDeepEqual(int32(10), c.LivenessProbe.PeriodSeconds)
		t.CheckDeepEqual(int32(5), c.ReadinessProbe.FailureThreshold)

		t.CheckDeepEqual(int64(1000), *c.SecurityContext.RunAsUser)
		t.CheckDeepEqual(int64(2000), *c.SecurityContext.RunAsGroup)

		svc := l.Find("Service", "web").(*corev1.Service)
		t.CheckDeepEqual(2, len(svc.Spec.Ports))
		t.CheckDeepEqual("http", svc.Spec.Ports[0].Name)
		t.CheckDeepEqual(int32(8000), svc.Spec.Ports[0].Port)
		t.CheckDeepEqual("port-1", svc.Spec.Ports[1].Name)
		t.CheckDeepEqual(int32(9090), svc.Spec.Ports[1].Port)

		db := l.Find("Deployment", "db").(*appsv1.Deployment)
		t.CheckDeepEqual("postgres:16", db.Spec.Template.Spec.Containers[0].Image)
		t.CheckEmpty(db.Spec.Template.Spec.ImagePullSecrets)

		policy := l.Find("NetworkPolicy", "db-policy").(*networkingv1.NetworkPolicy)
		t.CheckDeepEqual(int32(80), policy.Spec.Ingress[0].Ports[0].Port.IntVal)

		ing := l.Find("Ingress", "shop-haproxy").(*networkingv1.Ingress)
		path := ing.Spec.Rules[0].HTTP.Paths[0]
		t.CheckDeepEqual("/shop", path.Path)
		t.CheckDeepEqual("web", path.Backend.Service.Name)
		t.CheckDeepEqual(int32(8000), path.Backend.Service.Port.Number)
	})
}

func TestGenerateLocal(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		l := generate(t, latest.Local)

		t.CheckDeepEqual([]string{
			"PersistentVolumeClaim",
			"ConfigMap", "Deployment", "Service", "NetworkPolicy",
			"Deployment", "NetworkPolicy",
		}, l.Kinds())

		web := l.Find("Deployment", "web").(*appsv1.Deployment)
		t.CheckDeepEqual(int32(2), *web.Spec.Replicas)

		c := web.Spec.Template.Spec.Containers[0]
		t.CheckDeepEqual("shop-web:latest", c.Image)
		t.CheckDeepEqual("256Mi", c.Resources.Requests.Memory().String())
		t.CheckDeepEqual("512Mi", c.Resources.Limits.Memory().String())
		t.CheckDeepEqual(1, len(c.EnvFrom))
	})
}

func TestPodVolumes(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		svc := &compose.Service{Volumes: []compose.VolumeMount{
			{Type: compose.VolumeNamed, Source: "static", Target: "/app/static"},
			{Type: compose.VolumeBind, Source: "./config", Target: "/app/config", ReadOnly: true},
			{Type: compose.VolumeNamed, Target: "/tmp/cache"},
			{Type: compose.VolumeTmpfs, Target: "/run"},
			{Type: compose.VolumeNamed, Source: "static", Target: "/srv/static"},
		}}

		volumes, mounts, err := podVolumes("/work/shop", svc)
		t.RequireNoError(err)

		directoryOrCreate := corev1.HostPathDirectoryOrCreate
		t.CheckDeepEqual([]corev1.Volume{
			{Name: "static", VolumeSource: corev1.VolumeSource{PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: "static"}}},
			{Name: "config", VolumeSource: corev1.VolumeSource{HostPath: &corev1.HostPathVolumeSource{Path: "/work/shop/config", Type: &directoryOrCreate}}},
			{Name: "anon-2", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
			{Name: "tmpfs-3", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{Medium: corev1.StorageMediumMemory}}},
		}, volumes)
		t.CheckDeepEqual([]corev1.VolumeMount{
			{Name: "static", MountPath: "/app/static"},
			{Name: "config", MountPath: "/app/config", ReadOnly: true},
			{Name: "anon-2", MountPath: "/tmp/cache"},
			{Name: "tmpfs-3", MountPath: "/run"},
			{Name: "static", MountPath: "/srv/static"},
		}, mounts)
	})
}

func TestContainerSecurityContext(t *testing.T) {
	tests := []struct {
		description string
		user        string
		expected    *corev1.SecurityContext
	}{
		{
			description: "no user",
			expected:    nil,
		},
		{
			description: "uid only",
			user:        "1000",
			expected:    &corev1.SecurityContext{RunAsUser: int64Ptr(1000)},
		},
		{
			description: "named user is ignored",
			user:        "postgres",
			expected:    nil,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, containerSecurityContext(nil, test.user))
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	testutil.Run(t, "service without image", func(t *testutil.T) {
		cfg := latest.NewConfig()
		t.RequireNoError(yamlutil.Unmarshal([]byte(appsYAML), cfg))
		project := &compose.Project{Name: "shop", Services: []compose.Service{{Name: "worker", Deploy: compose.Deploy{Replicas: 1}}}}

		_, err := NewGenerator(cfg, latest.Local, Options{}).GenerateProject(context.Background(), &cfg.Compose[0], project)

		t.CheckErrorContains("service worker has no image or build context", err)
		t.CheckDeepEqual(kErrors.Generation, kErrors.ErrorCode(err))
	})

	testutil.Run(t, "missing compose file", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(map[string]string{}))
		cfg := latest.NewConfig()
		t.RequireNoError(yamlutil.Unmarshal([]byte(appsYAML), cfg))

		_, err := NewGenerator(cfg, latest.Local, Options{BaseDir: "/work"}).Generate(context.Background(), &cfg.Compose[0])

		t.CheckDeepEqual(kErrors.ConfigFileNotFound, kErrors.ErrorCode(err))
	})
}

func int64Ptr(i int64) *int64 { return &i }
