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

package integration

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/xeipuuv/gojsonschema"

	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	"github.com/k3stack/k3sgen/testutil"
)

func TestPlatformSchemaCompiles(t *testing.T) {
	MarkIntegrationTest(t)

	testutil.Run(t, "", func(t *testutil.T) {
		buf, err := util.ReadFile(filepath.Join(platformDir, "apps.schema.json"))
		t.RequireNoError(err)

		_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(buf))
		t.CheckNoError(err)
	})
}

func TestValidatePlatform(t *testing.T) {
	MarkIntegrationTest(t)

	tests := []struct {
		description string
		group       string
		expected    []string
	}{
		{
			description: "apps",
			group:       "app",
			expected:    []string{"Found 4 apps", "- fastapi (enabled)", "- reports (enabled)"},
		},
		{
			description: "compose projects",
			group:       "compose",
			expected:    []string{"Found 1 compose projects", "- shop (enabled)"},
		},
		{
			description: "serverless projects",
			group:       "fn",
			expected:    []string{"Found 1 serverless projects", "- functions (enabled)"},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			out := k3sgen(t, test.group, "validate")

			t.CheckContains("is valid", out)
			for _, expected := range test.expected {
				t.CheckContains(expected, out)
			}
		})
	}
}

func TestGenerateAllApps(t *testing.T) {
	MarkIntegrationTest(t)

	tests := []struct {
		description string
		env         string
		written     []string
		skipped     []string
	}{
		{
			description: "local",
			env:         "local",
			written:     []string{"fastapi", "worker", "admin"},
			skipped:     []string{"reports"},
		},
		{
			description: "dev writes reports",
			env:         "dev",
			written:     []string{"fastapi", "worker", "reports", "admin"},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			dir := t.NewTempDir()

			k3sgen(t, "app", "generate-all", "-e", test.env, "-o", dir)

			for _, name := range test.written {
				t.CheckTrue(util.Exists(filepath.Join(dir, name+".yaml")))
			}
			for _, name := range test.skipped {
				t.CheckFalse(util.Exists(filepath.Join(dir, name+".yaml")))
			}
		})
	}
}

func TestGenerateApp(t *testing.T) {
	MarkIntegrationTest(t)

	testutil.Run(t, "gcp syncs secrets and scales on requests", func(t *testutil.T) {
		dir := t.NewTempDir()

		k3sgen(t, "app", "generate", "fastapi", "-e", "gcp", "-o", dir)

		objects := readManifests(t, filepath.Join(dir, "fastapi.yaml"))
		t.CheckElementsMatch([]string{"ExternalSecret", "Deployment", "Service", "HTTPScaledObject"}, intersect(kinds(objects), "ExternalSecret", "Deployment", "Service", "HTTPScaledObject"))
		t.CheckContains("fastapi-secrets", names(objects))
	})
}

func TestGenerateCompose(t *testing.T) {
	MarkIntegrationTest(t)

	testutil.Run(t, "", func(t *testutil.T) {
		dir := t.NewTempDir()

		k3sgen(t, "compose", "generate", "shop", "-o", dir)

		objects := readManifests(t, filepath.Join(dir, "shop.yaml"))
		for _, expected := range []object{
			{Kind: "PersistentVolumeClaim", Name: "pgdata"},
			{Kind: "ConfigMap", Name: "api-env"},
			{Kind: "Deployment", Name: "web"},
			{Kind: "Deployment", Name: "api"},
			{Kind: "Deployment", Name: "db"},
			{Kind: "Deployment", Name: "cache"},
		} {
			t.CheckTrue(contains(objects, expected))
		}
	})
}

func TestGenerateFunctions(t *testing.T) {
	MarkIntegrationTest(t)

	testutil.Run(t, "", func(t *testutil.T) {
		dir := t.NewTempDir()

		k3sgen(t, "fn", "generate", "functions", "-o", dir)

		objects := readManifests(t, filepath.Join(dir, "functions.yaml"))
		t.CheckTrue(contains(objects, object{Kind: "Deployment", Name: "functions-hello-world"}))
		t.CheckTrue(contains(objects, object{Kind: "CronJob", Name: "functions-weekly-report"}))

		buf, err := util.ReadFile(filepath.Join(dir, "k3sfn.json"))
		t.RequireNoError(err)
		var index struct {
			App       string `json:"app_name"`
			Functions []struct {
				Name string `json:"name"`
			} `json:"functions"`
		}
		t.RequireNoError(json.Unmarshal(buf, &index))
		t.CheckDeepEqual("functions", index.App)
		t.CheckDeepEqual(11, len(index.Functions))
	})
}

func TestGenerateGateway(t *testing.T) {
	MarkIntegrationTest(t)

	tests := []struct {
		description string
		env         string
		expected    []object
	}{
		{
			description: "traefik",
			env:         "local",
			expected: []object{
				{Kind: "Service", Name: "keda-interceptor-proxy"},
				{Kind: "IngressRoute", Name: "gateway-routes"},
				{Kind: "Middleware", Name: "gateway-cors"},
			},
		},
		{
			description: "haproxy",
			env:         "gcp",
			expected: []object{
				{Kind: "Service", Name: "keda-route-root"},
				{Kind: "Ingress", Name: "gateway-root"},
				{Kind: "Ingress", Name: "gateway-shop"},
				{Kind: "Ingress", Name: "gateway-fn"},
			},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			dir := t.NewTempDir()

			k3sgen(t, "gateway", "generate", "-e", test.env, "-o", dir)

			objects := readManifests(t, filepath.Join(dir, "gateway.yaml"))
			for _, expected := range test.expected {
				t.CheckTrue(contains(objects, expected))
			}
		})
	}
}

func contains(objects []object, expected object) bool {
	for _, o := range objects {
		if o == expected {
			return true
		}
	}
	return false
}

func names(objects []object) string {
	var out string
	for _, o := range objects {
		out += o.Name + "\n"
	}
	return out
}

// intersect returns, once each, the wanted kinds found in all.
func intersect(all []string, wanted ...string) []string {
	seen := map[string]bool{}
	for _, k := range all {
		seen[k] = true
	}
	var out []string
	for _, w := range wanted {
		if seen[w] {
			out = append(out, w)
		}
	}
	return out
}
