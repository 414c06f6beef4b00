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

	"github.com/spf13/cobra"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/generate/compose"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	yamlutil "github.com/k3stack/k3sgen/pkg/k3sgen/yaml"
)

// NewCmdCompose describes the CLI command to generate manifests for
// docker-compose projects.
func NewCmdCompose() *cobra.Command {
	return NewCmdGroup("compose", "Generate manifests for docker-compose projects",
		NewCmd("generate").
			WithDescription("Generate the manifests of one compose project").
			WithExample("Print the manifests of the shop project", "compose generate shop").
			WithCommonFlags().
			WithFlags(addRegistryFlag).
			ExactArgs(1, doComposeGenerate),
		NewCmd("generate-all").
			WithDescription("Generate the manifests of every compose project enabled in the environment").
			WithCommonFlags().
			WithFlags(addRegistryFlag).
			NoArgs(doComposeGenerateAll),
		NewCmd("list").
			WithDescription("List the compose projects of the configuration file").
			WithCommonFlags().
			NoArgs(doComposeList),
		NewCmd("parse").
			WithDescription("Print the normalized compose file of one project").
			WithCommonFlags().
			ExactArgs(1, doComposeParse),
		NewCmdValidate("compose projects", func(cfg *latest.Config) []entryStatus {
			var entries []entryStatus
			for _, c := range cfg.Compose {
				entries = append(entries, entryStatus{name: c.Name, enabled: c.Enabled})
			}
			return entries
		}),
	)
}

func composeGenerator(cfg *latest.Config, env latest.Environment) *compose.Generator {
	return compose.NewGenerator(cfg, env, compose.Options{
		BaseDir:  opts.BaseDir(),
		Registry: opts.Registry,
	})
}

func doComposeGenerate(ctx context.Context, out io.Writer, args []string) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	project, err := cfg.ComposeProject(args[0])
	if err != nil {
		return err
	}

	l, err := composeGenerator(cfg, env).Generate(ctx, project)
	if err != nil {
		return err
	}
	return writeManifests(ctx, out, project.Name, l)
}

func doComposeGenerateAll(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	generator := composeGenerator(cfg, env)
	var targets []target
	for _, project := range cfg.EnabledComposeProjects(env) {
		project := project
		targets = append(targets, target{
			name: project.Name,
			generate: func(ctx context.Context) error {
				l, err := generator.Generate(ctx, project)
				if err != nil {
					return err
				}
				return writeManifests(ctx, out, project.Name, l)
			},
		})
	}
	return generateAll(ctx, "compose projects", env, targets)
}

type composeListEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	File      string `json:"file"`
	Namespace string `json:"namespace"`
	Enabled   bool   `json:"enabled"`
}

func doComposeList(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	enabledProjects := map[string]bool{}
	for _, project := range cfg.EnabledComposeProjects(env) {
		enabledProjects[project.Name] = true
	}

	var entries []composeListEntry
	for _, c := range cfg.Compose {
		entries = append(entries, composeListEntry{
			Name:      c.Name,
			Path:      c.Path,
			File:      c.File,
			Namespace: cfg.Namespace(c.Namespace),
			Enabled:   enabledProjects[c.Name],
		})
	}

	if opts.JSON {
		return printJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No compose projects found")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "NAME\tPATH\tFILE\tNAMESPACE\tENABLED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Path, e.File, e.Namespace, enabled(e.Enabled))
	}
	return w.Flush()
}

func doComposeParse(ctx context.Context, out io.Writer, args []string) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	project, err := cfg.ComposeProject(args[0])
	if err != nil {
		return err
	}

	parsed, err := composeGenerator(cfg, env).Load(ctx, project)
	if err != nil {
		return err
	}

	var buf []byte
	if opts.Format == constants.FormatJSON {
		buf, err = json.MarshalIndent(parsed, "", "  ")
		buf = append(buf, '\n')
	} else {
		buf, err = yamlutil.Marshal(parsed)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(buf)
	return err
}

