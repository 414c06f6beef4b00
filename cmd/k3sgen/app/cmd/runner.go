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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	kErrors "github.com/k3stack/k3sgen/pkg/k3sgen/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// loadConfig reads the configuration file and the target environment named
// by the command line.
func loadConfig(ctx context.Context) (*latest.Config, latest.Environment, error) {
	if err := opts.Validate(); err != nil {
		return nil, "", err
	}
	env, err := opts.Env()
	if err != nil {
		return nil, "", err
	}

	cfg, err := schema.Load(ctx, opts.ConfigurationFile)
	if err != nil {
		return nil, "", err
	}
	return cfg, env, nil
}

func manifestWriter(out io.Writer) manifest.Writer {
	return manifest.Writer{
		Out:    out,
		Dir:    opts.OutputDir,
		Format: opts.Format,
	}
}

func writeManifests(ctx context.Context, out io.Writer, name string, l manifest.List) error {
	if err := manifestWriter(out).Write(ctx, name, l); err != nil {
		return manifestWriteErr(errors.Wrapf(err, "writing manifests of %s", name))
	}
	return nil
}

func manifestWriteErr(err error) error {
	action := "Check that the output stream is writable"
	if opts.OutputDir != "" {
		action = fmt.Sprintf("Check that the output directory %q is writable", opts.OutputDir)
	}
	return kErrors.NewError(err, kErrors.ActionableErr{
		ErrCode:     kErrors.ManifestWrite,
		Suggestions: []kErrors.Suggestion{{Action: action}},
	})
}

// target is one configuration entry rendered by generate-all.
type target struct {
	name     string
	generate func(context.Context) error
}

// generateAll renders every target. A failing target is logged and skipped,
// and the names of all failed targets are reported at the end.
func generateAll(ctx context.Context, kind string, env latest.Environment, targets []target) error {
	if len(targets) == 0 {
		log.Entry(ctx).Infof("No enabled %s found for environment %s", kind, env)
		return nil
	}

	var failed []string
	for _, t := range targets {
		if err := t.generate(ctx); err != nil {
			log.Entry(ctx).Warnf("Skipping %s: %v", t.name, err)
			failed = append(failed, t.name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("generating %s failed for %d of %d entries: %s", kind, len(failed), len(targets), strings.Join(failed, ", "))
	}
	log.Entry(ctx).Infof("Generated manifests for %d %s", len(targets), kind)
	return nil
}

func enabled(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printJSON(out io.Writer, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(buf))
	return err
}
