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
	"github.com/spf13/pflag"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
)

// Flag defines a command line flag shared by several commands.
type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Value     interface{}
	DefValue  interface{}
	DefinedOn []string
}

// flagRegistry lists the common flags, each bound to a field of opts.
func flagRegistry() []Flag {
	return []Flag{
		{
			Name:      "file",
			Shorthand: "f",
			Usage:     "Path to the configuration file",
			Value:     &opts.ConfigurationFile,
			DefValue:  constants.DefaultConfigFile,
			DefinedOn: []string{"all"},
		},
		{
			Name:      "env",
			Shorthand: "e",
			Usage:     "Target environment (local, dev, gcp)",
			Value:     &opts.Environment,
			DefValue:  "local",
			DefinedOn: []string{"generate", "generate-all", "list"},
		},
		{
			Name:      "output",
			Shorthand: "o",
			Usage:     "Directory to write the manifests to. Manifests are printed to stdout when empty",
			Value:     &opts.OutputDir,
			DefValue:  "",
			DefinedOn: []string{"generate", "generate-all"},
		},
		{
			Name:      "format",
			Usage:     "Output format (yaml, json)",
			Value:     &opts.Format,
			DefValue:  constants.FormatYAML,
			DefinedOn: []string{"generate", "generate-all", "parse"},
		},
		{
			Name:      "schema",
			Usage:     "Path to the JSON schema. Defaults to apps.schema.json next to the configuration file",
			Value:     &opts.SchemaFile,
			DefValue:  "",
			DefinedOn: []string{"validate"},
		},
		{
			Name:      "json",
			Usage:     "Print the list as JSON",
			Value:     &opts.JSON,
			DefValue:  false,
			DefinedOn: []string{"list", "functions"},
		},
	}
}

// AddFlags adds the common flags defined on the command named use to flags.
func AddFlags(flags *pflag.FlagSet, use string) {
	for _, f := range flagRegistry() {
		if !hasCmdAnnotation(use, f.DefinedOn) {
			continue
		}
		switch value := f.Value.(type) {
		case *string:
			flags.StringVarP(value, f.Name, f.Shorthand, f.DefValue.(string), f.Usage)
		case *bool:
			flags.BoolVarP(value, f.Name, f.Shorthand, f.DefValue.(bool), f.Usage)
		}
	}
}

func hasCmdAnnotation(cmdName string, annotations []string) bool {
	for _, a := range annotations {
		if cmdName == a || a == "all" {
			return true
		}
	}
	return false
}

func addRegistryFlag(flags *pflag.FlagSet) {
	flags.StringVar(&opts.Registry, "registry", "", "Container registry replacing the one of the environment")
}

func addIngressFlag(flags *pflag.FlagSet) {
	flags.StringVar(&opts.Ingress, "ingress", "", "Ingress controller replacing the one of the environment (traefik, haproxy)")
}
