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

	corev1 "k8s.io/api/core/v1"

	kErrors "github.com/k3stack/k3sgen/pkg/k3sgen/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	"github.com/k3stack/k3sgen/testutil"
)

const composeYAML = `services:
  web:
    build: ./web
    command: gunicorn app:app --bind "0.0.0.0:8000"
    environment:
      - DEBUG=false
      - EMPTY
    env_file: .env
    ports:
      - "8000:8000"
      - target: 9090
        published: "9091"
        protocol: udp
    volumes:
      - static:/app/static
      - ./config:/app/config:ro
    depends_on:
      db:
        condition: service_healthy
    healthcheck:
      test: curl -f http://localhost:8000/health
      interval: 10s
      retries: 5
    deploy:
      replicas: 2
      resources:
        limits: {cpus: "0.5", memory: 512m}
        reservations: {cpus: 0.25, memory: 256m}
    user: "1000:1000"
  db:
    image: postgres:16
    entrypoint: docker-entrypoint.sh
    environment:
      POSTGRES_DB: app
      POSTGRES_PORT: 5432
      UNSET:
    healthcheck:
      test: ["CMD", "pg_isready"]
    restart: unless-stopped
volumes:
  static:
  pgdata:
    external: true
networks:
  backend: {}
`

func TestParse(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		project, err := Parse("shop", "compose/shop", []byte(composeYAML))
		t.RequireNoError(err)

		t.CheckDeepEqual("shop", project.Name)
		t.CheckDeepEqual(2, len(project.Services))
		t.CheckDeepEqual([]NamedVolume{
			{Name: "static", Driver: "local"},
			{Name: "pgdata", Driver: "local", External: true},
		}, project.Volumes)
		t.CheckDeepEqual([]string{"backend"}, project.Networks)

		web := project.Services[0]
		t.CheckDeepEqual("web", web.Name)
		t.CheckDeepEqual(&Build{Context: "./web"}, web.Build)
		t.CheckDeepEqual([]string{"gunicorn", "app:app", "--bind", "0.0.0.0:8000"}, web.Command)
		t.CheckDeepEqual(map[string]string{"DEBUG": "false", "EMPTY": ""}, web.Environment)
		t.CheckDeepEqual([]string{".env"}, web.EnvFile)
		t.CheckDeepEqual([]PortMapping{
			{HostPort: 8000, ContainerPort: 8000, Protocol: "TCP"},
			{HostPort: 9091, ContainerPort: 9090, Protocol: "UDP"},
		}, web.Ports)
		t.CheckDeepEqual([]VolumeMount{
			{Source: "static", Target: "/app/static", Type: VolumeNamed},
			{Source: "./config", Target: "/app/config", ReadOnly: true, Type: VolumeBind},
		}, web.Volumes)
		t.CheckDeepEqual([]string{"db"}, web.DependsOn)
		t.CheckDeepEqual(&HealthCheck{
			Test:        []string{"CMD-SHELL", "curl -f http://localhost:8000/health"},
			Interval:    "10s",
			Timeout:     "30s",
			Retries:     5,
			StartPeriod: "0s",
		}, web.HealthCheck)
		t.CheckDeepEqual(Deploy{
			Replicas:      2,
			Limits:        &Limits{CPUs: "0.5", Memory: "512m"},
			Reservations:  &Limits{CPUs: "0.25", Memory: "256m"},
			RestartPolicy: RestartAlways,
		}, web.Deploy)
		t.CheckDeepEqual("1000:1000", web.User)

		db, found := project.Service("db")
		t.CheckTrue(found)
		t.CheckDeepEqual([]string{"docker-entrypoint.sh"}, db.Entrypoint)
		t.CheckDeepEqual(map[string]string{"POSTGRES_DB": "app", "POSTGRES_PORT": "5432", "UNSET": ""}, db.Environment)
		t.CheckDeepEqual(int32(1), db.Deploy.Replicas)
		t.CheckDeepEqual(RestartUnlessStopped, db.Restart)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		description string
		yaml        string
		expected    string
	}{
		{
			description: "invalid port",
			yaml:        "services:\n  web:\n    ports: [\"http\"]\n",
			expected:    `invalid port number "http"`,
		},
		{
			description: "services list",
			yaml:        "services:\n  - web\n",
			expected:    "services must be a mapping",
		},
		{
			description: "unbalanced quotes",
			yaml:        "services:\n  web:\n    command: echo \"oops\n",
			expected:    "Unterminated",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			_, err := Parse("p", ".", []byte(test.yaml))

			t.CheckErrorContains(test.expected, err)
		})
	}
}

func TestHealthCheckProbe(t *testing.T) {
	tests := []struct {
		description string
		check       *HealthCheck
		expected    *corev1.Probe
	}{
		{
			description: "no check",
		},
		{
			description: "disabled",
			check:       &HealthCheck{Test: []string{"NONE"}, Interval: "30s", Timeout: "30s", Retries: 3},
		},
		{
			description: "exec",
			check:       &HealthCheck{Test: []string{"CMD", "pg_isready", "-U", "app"}, Interval: "10s", Timeout: "5s", Retries: 3, StartPeriod: "1m"},
			expected: &corev1.Probe{
				ProbeHandler:        corev1.ProbeHandler{Exec: &corev1.ExecAction{Command: []string{"pg_isready", "-U", "app"}}},
				InitialDelaySeconds: 60,
				PeriodSeconds:       10,
				TimeoutSeconds:      5,
				FailureThreshold:    3,
			},
		},
		{
			description: "shell",
			check:       &HealthCheck{Test: []string{"CMD-SHELL", "curl -f localhost"}, Retries: 2},
			expected: &corev1.Probe{
				ProbeHandler:     corev1.ProbeHandler{Exec: &corev1.ExecAction{Command: []string{"/bin/sh", "-c", "curl -f localhost"}}},
				PeriodSeconds:    30,
				TimeoutSeconds:   30,
				FailureThreshold: 2,
			},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			probe, err := test.check.Probe()

			t.CheckErrorAndDeepEqual(false, err, test.expected, probe)
		})
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		description string
		files       map[string]string
		shouldErr   bool
		code        kErrors.StatusCode
	}{
		{
			description: "configured file",
			files:       map[string]string{"/work/shop/docker-compose.yaml": composeYAML},
		},
		{
			description: "fallback to compose.yaml",
			files:       map[string]string{"/work/shop/compose.yaml": composeYAML},
		},
		{
			description: "no compose file",
			files:       map[string]string{"/work/shop/README.md": ""},
			shouldErr:   true,
			code:        kErrors.ConfigFileNotFound,
		},
		{
			description: "invalid file",
			files:       map[string]string{"/work/shop/docker-compose.yaml": "services: ["},
			shouldErr:   true,
			code:        kErrors.ComposeParsing,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&util.Fs, t.NewMemFs(test.files))

			project, err := Load(context.Background(), "shop", "/work/shop", "docker-compose.yaml")

			t.CheckError(test.shouldErr, err)
			if test.shouldErr {
				t.CheckDeepEqual(test.code, kErrors.ErrorCode(err))
				return
			}
			t.CheckDeepEqual(2, len(project.Services))
		})
	}
}

func TestReadEnvFiles(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(map[string]string{
			"/work/shop/.env":      "A=1\nB=from-first\n",
			"/work/shop/local.env": "# comment\nB=\"from second\"\n",
		}))
		project := &Project{Name: "shop", Path: "/work/shop"}

		env, err := ReadEnvFiles(project, &Service{EnvFile: []string{".env", "local.env"}})

		t.CheckErrorAndDeepEqual(false, err, map[string]string{"A": "1", "B": "from second"}, env)
	})
}
