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
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/function"
	"github.com/k3stack/k3sgen/pkg/k3sgen/generate/fn"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// NewCmdFn describes the CLI command to generate manifests for serverless
// function projects.
func NewCmdFn() *cobra.Command {
	return NewCmdGroup("fn", "Generate manifests for serverless functions",
		NewCmd("generate").
			WithDescription("Generate the manifests and the function index of one serverless project").
			WithLongDescription(`Reads functions.yaml in the project directory and generates the manifests of
every function. When an output directory is given, the function index is
written next to the manifests as k3sfn.json.`).
			WithExample("Write the manifests of the demo project into ./k8s", "fn generate demo -o k8s").
			WithCommonFlags().
			WithFlags(addFnFlags).
			ExactArgs(1, doFnGenerate),
		NewCmd("generate-all").
			WithDescription("Generate the manifests of every serverless project enabled in the environment").
			WithCommonFlags().
			WithFlags(addFnFlags).
			NoArgs(doFnGenerateAll),
		NewCmd("list").
			WithDescription("List the serverless projects of the configuration file").
			WithCommonFlags().
			NoArgs(doFnList),
		NewCmd("functions").
			WithDescription("List the functions of one serverless project").
			WithCommonFlags().
			ExactArgs(1, doFnFunctions),
		NewCmdValidate("serverless projects", func(cfg *latest.Config) []entryStatus {
			var entries []entryStatus
			for _, s := range cfg.Serverless {
				entries = append(entries, entryStatus{name: s.Name, enabled: s.Enabled})
			}
			return entries
		}),
	)
}

func addFnFlags(flags *pflag.FlagSet) {
	addRegistryFlag(flags)
	addIngressFlag(flags)
	flags.StringVar(&opts.Host, "host", "", "Host name the public functions are served on")
}

func fnGenerator(cfg *latest.Config, env latest.Environment) *fn.Generator {
	return fn.NewGenerator(cfg, env, fn.Options{
		BaseDir:  opts.BaseDir(),
		Registry: opts.Registry,
		Ingress:  opts.Ingress,
		Host:     opts.Host,
	})
}

func doFnGenerate(ctx context.Context, out io.Writer, args []string) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	project, err := cfg.ServerlessProject(args[0])
	if err != nil {
		return err
	}
	return generateFunctions(ctx, out, fnGenerator(cfg, env), project)
}

func generateFunctions(ctx context.Context, out io.Writer, generator *fn.Generator, project *latest.ServerlessConfig) error {
	result, err := generator.Generate(ctx, project)
	if err != nil {
		return err
	}
	if err := writeManifests(ctx, out, project.Name, result.Manifests); err != nil {
		return err
	}

	if opts.OutputDir == "" {
		log.Entry(ctx).Debugf("No output directory, skipping %s", constants.FunctionIndexFile)
		return nil
	}
	index, err := result.Index.JSON()
	if err != nil {
		return err
	}
	if err := manifestWriter(out).WriteFile(ctx, constants.FunctionIndexFile, append(index, '\n')); err != nil {
		return manifestWriteErr(err)
	}
	return nil
}

func doFnGenerateAll(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	generator := fnGenerator(cfg, env)
	var targets []target
	for _, project := range cfg.EnabledServerless(env) {
		project := project
		targets = append(targets, target{
			name: project.Name,
			generate: func(ctx context.Context) error {
				return generateFunctions(ctx, out, generator, project)
			},
		})
	}
	return generateAll(ctx, "serverless projects", env, targets)
}

func doFnList(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	enabledProjects := map[string]bool{}
	for _, project := range cfg.EnabledServerless(env) {
		enabledProjects[project.Name] = true
	}

	type listEntry struct {
		Name      string `json:"name"`
		Path      string `json:"path"`
		Namespace string `json:"namespace"`
		Ingress   string `json:"ingress"`
		Host      string `json:"host,omitempty"`
		Enabled   bool   `json:"enabled"`
	}
	generator := fnGenerator(cfg, env)
	var entries []listEntry
	for i := range cfg.Serverless {
		eff := generator.Resolve(ctx, &cfg.Serverless[i])
		entries = append(entries, listEntry{
			Name:      eff.Name,
			Path:      eff.Path,
			Namespace: eff.Namespace,
			Ingress:   eff.Ingress,
			Host:      eff.Host,
			Enabled:   enabledProjects[eff.Name],
		})
	}

	if opts.JSON {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No serverless projects found")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "NAME\tPATH\tNAMESPACE\tINGRESS\tHOST\tENABLED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Name, e.Path, e.Namespace, e.Ingress, orDash(e.Host), enabled(e.Enabled))
	}
	return w.Flush()
}

func doFnFunctions(ctx context.Context, out io.Writer, args []string) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	project, err := cfg.ServerlessProject(args[0])
	if err != nil {
		return err
	}

	generator := fnGenerator(cfg, env)
	registry, err := generator.Discover(ctx, project)
	if err != nil {
		return err
	}

	if opts.JSON {
		index, err := function.NewIndex(project.Name, generator.Resolve(ctx, project).Namespace, registry).JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(index))
		return err
	}

	if registry.Len() == 0 {
		fmt.Fprintln(out, "No functions found")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "NAME\tTRIGGER\tSOURCE\tVISIBILITY\tINSTANCES\tLABELS")
	for _, f := range registry.Functions() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d-%d\t%s\n",
			f.Name, f.Trigger.Type(), triggerSource(f), f.Visibility,
			f.Scaling.MinInstances, f.Scaling.MaxInstances, orDash(labels.Set(f.Labels).String()))
	}
	return w.Flush()
}

// triggerSource is the path, queue or schedule a function is invoked from.
func triggerSource(f function.Function) string {
	switch {
	case f.HTTP() != nil:
		return f.HTTP().Path
	case f.Queue() != nil:
		return f.Queue().QueueName
	case f.Schedule() != nil:
		return f.Schedule().Cron
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
