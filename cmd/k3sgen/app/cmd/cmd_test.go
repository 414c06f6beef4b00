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

package cmd

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"

	kErrors "github.com/k3stack/k3sgen/pkg/k3sgen/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	"github.com/k3stack/k3sgen/testutil"
)

const appsYAML = `version: 2
defaults:
  registry:
    gcp: europe-docker.pkg.dev/project/apps
apps:
  - name: api
    path: apps/api
    ingress:
      enabled: true
      path: /api
  - name: worker
    path: apps/worker
    enabled: false
compose:
  - name: shop
    path: shop
serverless:
  - name: demo
    path: fns
gateway:
  routes:
    - path: /api
      service: api
      strip_prefix: true
`

const composeYAML = `services:
  web:
    image: nginx:1.27
    ports:
      - "8080:80"
`

const functionsYAML = `functions:
  - name: hello
    visibility: public
    http:
      path: /hello
  - name: nightly
    schedule:
      cron: "0 3 * * *"
`

func files() map[string]string {
	return map[string]string{
		"/work/apps.yaml":                appsYAML,
		"/work/shop/docker-compose.yaml": composeYAML,
		"/work/fns/functions.yaml":       functionsYAML,
	}
}

func run(t *testutil.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewK3sgenCommand(&out, io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAppGenerate(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "app", "generate", "api", "-f", "/work/apps.yaml")

		t.CheckNoError(err)
		t.CheckContains("kind: Deployment", out)
		t.CheckContains("name: api", out)
	})
}

func TestAppGenerateErrors(t *testing.T) {
	tests := []struct {
		description string
		args        []string
		expected    string
		code        kErrors.StatusCode
	}{
		{
			description: "unknown app",
			args:        []string{"app", "generate", "missing", "-f", "/work/apps.yaml"},
			expected:    `app "missing" not found. Available: api, worker`,
			code:        kErrors.ConfigEntryNotFound,
		},
		{
			description: "missing configuration file",
			args:        []string{"app", "generate", "api", "-f", "/other/apps.yaml"},
			expected:    "unable to find configuration file",
			code:        kErrors.ConfigFileNotFound,
		},
		{
			description: "unknown environment",
			args:        []string{"app", "generate", "api", "-f", "/work/apps.yaml", "-e", "prod"},
			expected:    `unknown environment "prod"`,
			code:        kErrors.Unknown,
		},
		{
			description: "unknown format",
			args:        []string{"app", "generate", "api", "-f", "/work/apps.yaml", "--format", "toml"},
			expected:    `unknown output format "toml"`,
			code:        kErrors.Unknown,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&util.Fs, t.NewMemFs(files()))

			_, err := run(t, test.args...)

			t.CheckErrorContains(test.expected, err)
			t.CheckDeepEqual(test.code, kErrors.ErrorCode(err))
			t.CheckDeepEqual(1, kErrors.ExitCode(err))
		})
	}
}

func TestAppGenerateAll(t *testing.T) {
	testutil.Run(t, "writes one file per enabled app", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "app", "generate-all", "-f", "/work/apps.yaml", "-o", "/out")

		t.CheckNoError(err)
		t.CheckEmpty(out)
		t.CheckTrue(util.Exists("/out/api.yaml"))
		t.CheckFalse(util.Exists("/out/worker.yaml"))
	})
}

func TestManifestWriteErrors(t *testing.T) {
	tests := []struct {
		description string
		args        []string
	}{
		{
			description: "app manifests",
			args:        []string{"app", "generate", "api", "-f", "/work/apps.yaml", "-o", "/out"},
		},
		{
			description: "compose manifests",
			args:        []string{"compose", "generate", "shop", "-f", "/work/apps.yaml", "-o", "/out"},
		},
		{
			description: "serverless manifests",
			args:        []string{"fn", "generate", "demo", "-f", "/work/apps.yaml", "-o", "/out"},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&util.Fs, afero.NewReadOnlyFs(t.NewMemFs(files())))

			_, err := run(t, test.args...)

			t.CheckErrorContains(`Check that the output directory "/out" is writable`, err)
			t.CheckDeepEqual(kErrors.ManifestWrite, kErrors.ErrorCode(err))
			t.CheckDeepEqual(1, kErrors.ExitCode(err))
		})
	}
}

const brokenComposeAppsYAML = `version: 2
compose:
  - name: shop
    path: shop
  - name: broken
    path: broken
`

const brokenComposeYAML = `services:
  orphan:
    ports:
      - "9000:9000"
`

func TestComposeGenerateAll(t *testing.T) {
	tests := []struct {
		description string
		files       map[string]string
		written     []string
		failed      string
	}{
		{
			description: "writes every project",
			files: map[string]string{
				"/work/apps.yaml":                appsYAML,
				"/work/shop/docker-compose.yaml": composeYAML,
			},
			written: []string{"/out/shop.yaml"},
		},
		{
			description: "continues past a project without image or build",
			files: map[string]string{
				"/work/apps.yaml":                  brokenComposeAppsYAML,
				"/work/shop/docker-compose.yaml":   composeYAML,
				"/work/broken/docker-compose.yaml": brokenComposeYAML,
			},
			written: []string{"/out/shop.yaml"},
			failed:  "generating compose projects failed for 1 of 2 entries: broken",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&util.Fs, t.NewMemFs(test.files))

			_, err := run(t, "compose", "generate-all", "-f", "/work/apps.yaml", "-o", "/out")

			for _, name := range test.written {
				t.CheckTrue(util.Exists(name))
			}
			if test.failed == "" {
				t.CheckNoError(err)
				return
			}
			t.CheckErrorContains(test.failed, err)
			t.CheckFalse(util.Exists("/out/broken.yaml"))
			t.CheckDeepEqual(1, kErrors.ExitCode(err))
		})
	}
}

func TestAppList(t *testing.T) {
	testutil.Run(t, "table", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "app", "list", "-f", "/work/apps.yaml")

		t.CheckNoError(err)
		t.CheckContains("NAME", out)
		t.CheckContains("/api", out)
		t.CheckContains("worker", out)
	})
	testutil.Run(t, "json", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "app", "list", "-f", "/work/apps.yaml", "--json")

		t.CheckNoError(err)
		t.CheckContains(`"name": "api"`, out)
		t.CheckContains(`"ingress_path": "/api"`, out)
		t.CheckContains(`"ingress_path": null`, out)
	})
}

func TestValidate(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "app", "validate", "-f", "/work/apps.yaml")

		t.CheckNoError(err)
		t.CheckDeepEqual(`✓ /work/apps.yaml is valid
  Found 2 apps
    - api (enabled)
    - worker (disabled)
`, out)
	})
}

func TestComposeCommands(t *testing.T) {
	testutil.Run(t, "generate", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "compose", "generate", "shop", "-f", "/work/apps.yaml")

		t.CheckNoError(err)
		t.CheckContains("image: nginx:1.27", out)
	})
	testutil.Run(t, "parse", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "compose", "parse", "shop", "-f", "/work/apps.yaml", "--format", "json")

		t.CheckNoError(err)
		t.CheckContains(`"name": "web"`, out)
	})
}

func TestFnGenerate(t *testing.T) {
	testutil.Run(t, "writes the function index next to the manifests", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		_, err := run(t, "fn", "generate", "demo", "-f", "/work/apps.yaml", "-o", "/out")
		t.RequireNoError(err)

		index, err := afero.ReadFile(util.Fs, "/out/k3sfn.json")
		t.CheckNoError(err)
		t.CheckContains(`"app_name": "demo"`, string(index))
		t.CheckTrue(util.Exists("/out/demo.yaml"))
	})
}

func TestFnFunctions(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "fn", "functions", "demo", "-f", "/work/apps.yaml")

		t.CheckNoError(err)
		t.CheckContains("hello", out)
		t.CheckContains("0 3 * * *", out)
	})
}

func TestGatewayCommands(t *testing.T) {
	testutil.Run(t, "generate", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "gateway", "generate", "-f", "/work/apps.yaml", "--ingress", "haproxy", "--domain", "example.com")

		t.CheckNoError(err)
		t.CheckContains("name: gateway-api", out)
		t.CheckContains("host: example.com", out)
	})
	testutil.Run(t, "list", func(t *testutil.T) {
		t.Override(&util.Fs, t.NewMemFs(files()))

		out, err := run(t, "gateway", "list", "-f", "/work/apps.yaml")

		t.CheckNoError(err)
		t.CheckContains("  /api -> api:80 [strip_prefix]", out)
		t.CheckContains("Total: 1 routes", out)
	})
}

func TestHasCmdAnnotation(t *testing.T) {
	tests := []struct {
		description string
		cmd         string
		definedOn   []string
		expected    bool
	}{
		{
			description: "defined on all",
			cmd:         "list",
			definedOn:   []string{"all"},
			expected:    true,
		},
		{
			description: "defined on command",
			cmd:         "generate",
			definedOn:   []string{"generate", "list"},
			expected:    true,
		},
		{
			description: "not defined",
			cmd:         "validate",
			definedOn:   []string{"generate"},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, hasCmdAnnotation(test.cmd, test.definedOn))
		})
	}
}
