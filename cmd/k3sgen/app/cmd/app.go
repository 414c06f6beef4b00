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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/k3stack/k3sgen/pkg/k3sgen/generate/app"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// NewCmdApp describes the CLI command to generate manifests for apps.
func NewCmdApp() *cobra.Command {
	return NewCmdGroup("app", "Generate manifests for long-running apps",
		NewCmd("generate").
			WithDescription("Generate the manifests of one app").
			WithExample("Print the manifests of the api app for the gcp environment", "app generate api -e gcp").
			WithCommonFlags().
			ExactArgs(1, doAppGenerate),
		NewCmd("generate-all").
			WithDescription("Generate the manifests of every app enabled in the environment").
			WithExample("Write one file per app into ./k8s", "app generate-all -o k8s").
			WithCommonFlags().
			NoArgs(doAppGenerateAll),
		NewCmd("list").
			WithDescription("List the apps of the configuration file").
			WithCommonFlags().
			NoArgs(doAppList),
		NewCmdValidate("apps", func(cfg *latest.Config) []entryStatus {
			var entries []entryStatus
			for _, a := range cfg.Apps {
				entries = append(entries, entryStatus{name: a.Name, enabled: a.Enabled})
			}
			return entries
		}),
	)
}

func doAppGenerate(ctx context.Context, out io.Writer, args []string) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := cfg.App(args[0])
	if err != nil {
		return err
	}

	l, err := app.NewGenerator(cfg, env).Generate(ctx, a)
	if err != nil {
		return err
	}
	return writeManifests(ctx, out, a.Name, l)
}

func doAppGenerateAll(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	generator := app.NewGenerator(cfg, env)
	var targets []target
	for _, a := range cfg.EnabledApps(env) {
		a := a
		targets = append(targets, target{
			name: a.Name,
			generate: func(ctx context.Context) error {
				l, err := generator.Generate(ctx, a)
				if err != nil {
					return err
				}
				return writeManifests(ctx, out, a.Name, l)
			},
		})
	}
	return generateAll(ctx, "apps", env, targets)
}

type appListEntry struct {
	Name           string  `json:"name"`
	Path           string  `json:"path"`
	Namespace      string  `json:"namespace"`
	Enabled        bool    `json:"enabled"`
	IngressEnabled bool    `json:"ingress_enabled"`
	IngressPath    *string `json:"ingress_path"`
	ScalingType    string  `json:"scaling_type"`
}

func doAppList(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	enabledApps := map[string]bool{}
	for _, a := range cfg.EnabledApps(env) {
		enabledApps[a.Name] = true
	}

	var entries []appListEntry
	for _, a := range cfg.Apps {
		e := appListEntry{
			Name:           a.Name,
			Path:           a.Path,
			Namespace:      cfg.Namespace(a.Namespace),
			Enabled:        enabledApps[a.Name],
			IngressEnabled: a.Ingress.Enabled,
			ScalingType:    string(latest.ScalingNone),
		}
		if a.Scaling.Policy != nil {
			e.ScalingType = string(a.Scaling.Policy.Type())
		}
		if a.Ingress.Enabled {
			path := a.Ingress.Path
			e.IngressPath = &path
		}
		entries = append(entries, e)
	}

	if opts.JSON {
		return printJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No apps found")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "NAME\tNAMESPACE\tPATH\tSCALING\tINGRESS\tENABLED")
	for _, e := range entries {
		ingress := "-"
		if e.IngressPath != nil {
			ingress = *e.IngressPath
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Name, e.Namespace, e.Path, e.ScalingType, ingress, enabled(e.Enabled))
	}
	return w.Flush()
}
