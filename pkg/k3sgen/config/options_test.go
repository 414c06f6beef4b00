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

package config

import (
	"testing"

	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/testutil"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		description string
		opts        K3sgenOptions
		shouldErr   bool
	}{
		{
			description: "defaults",
			opts:        K3sgenOptions{Environment: "local", Format: "yaml"},
		},
		{
			description: "json with haproxy",
			opts:        K3sgenOptions{Environment: "gcp", Format: "json", Ingress: "haproxy"},
		},
		{
			description: "unknown environment",
			opts:        K3sgenOptions{Environment: "prod", Format: "yaml"},
			shouldErr:   true,
		},
		{
			description: "unknown format",
			opts:        K3sgenOptions{Environment: "local", Format: "toml"},
			shouldErr:   true,
		},
		{
			description: "unknown ingress",
			opts:        K3sgenOptions{Environment: "local", Format: "yaml", Ingress: "nginx"},
			shouldErr:   true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			err := test.opts.Validate()

			t.CheckError(test.shouldErr, err)
		})
	}
}

func TestEnvAndBaseDir(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		opts := K3sgenOptions{ConfigurationFile: "deploy/apps.yaml", Environment: "dev"}

		env, err := opts.Env()

		t.CheckErrorAndDeepEqual(false, err, latest.Dev, env)
		t.CheckDeepEqual("deploy", opts.BaseDir())
	})
	testutil.Run(t, "local by default", func(t *testutil.T) {
		env, err := (&K3sgenOptions{}).Env()

		t.CheckErrorAndDeepEqual(false, err, latest.Local, env)
	})
}
