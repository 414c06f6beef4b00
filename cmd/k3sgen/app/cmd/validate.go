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
	"text/tabwriter"

	"github.com/segmentio/textio"
	"github.com/spf13/cobra"

	"github.com/k3stack/k3sgen/pkg/k3sgen/schema"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// entryStatus is one configuration entry as shown by validate.
type entryStatus struct {
	name    string
	enabled bool
}

// NewCmdValidate returns a validate command listing the entries of kind.
func NewCmdValidate(kind string, entries func(*latest.Config) []entryStatus) *cobra.Command {
	return NewCmd("validate").
		WithDescription(fmt.Sprintf("Validate the configuration file and list its %s", kind)).
		WithCommonFlags().
		NoArgs(func(ctx context.Context, out io.Writer) error {
			return doValidate(ctx, out, kind, entries)
		})
}

func doValidate(ctx context.Context, out io.Writer, kind string, entries func(*latest.Config) []entryStatus) error {
	cfg, err := schema.LoadAndValidate(ctx, opts.ConfigurationFile, opts.SchemaFile)
	if err != nil {
		return err
	}

	list := entries(cfg)
	fmt.Fprintf(out, "✓ %s is valid\n", opts.ConfigurationFile)
	fmt.Fprintf(out, "  Found %d %s\n", len(list), kind)

	w := textio.NewPrefixWriter(out, "    - ")
	for _, e := range list {
		status := "disabled"
		if e.enabled {
			status = "enabled"
		}
		fmt.Fprintf(w, "%s (%s)\n", e.name, status)
	}
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
}
