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
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	yaml "gopkg.in/yaml.v3"

	"github.com/k3stack/k3sgen/cmd/k3sgen/app/cmd"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	"github.com/k3stack/k3sgen/testutil"
)

// platformDir holds the sample platform every test generates from.
var platformDir = filepath.Join("..", "examples", "platform")

func MarkIntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
}

// k3sgen runs the CLI in process against the sample platform and returns
// what it printed.
func k3sgen(t *testutil.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	command := cmd.NewK3sgenCommand(&out, io.Discard)
	command.SetArgs(append(args, "-f", filepath.Join(platformDir, "apps.yaml")))
	t.RequireNoError(command.ExecuteContext(context.Background()))
	return out.String()
}

type object struct {
	Kind string
	Name string
}

// readManifests decodes the multi-document YAML file at path.
func readManifests(t *testutil.T, path string) []object {
	t.Helper()
	buf, err := util.ReadFile(path)
	t.RequireNoError(err)

	var objects []object
	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	for {
		var doc struct {
			Kind     string `yaml:"kind"`
			Metadata struct {
				Name string `yaml:"name"`
			} `yaml:"metadata"`
		}
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return objects
		}
		t.RequireNoError(err)
		objects = append(objects, object{Kind: doc.Kind, Name: doc.Metadata.Name})
	}
}

func kinds(objects []object) []string {
	var out []string
	for _, o := range objects {
		out = append(out, o.Kind)
	}
	return out
}
