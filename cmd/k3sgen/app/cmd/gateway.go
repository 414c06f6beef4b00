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
	"strings"

	"github.com/segmentio/textio"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/k3stack/k3sgen/cmd/k3sgen/app/flags"
	"github.com/k3stack/k3sgen/pkg/k3sgen/generate/gateway"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

const gatewayManifests = "gateway"

// NewCmdGateway describes the CLI command to generate the gateway routes.
func NewCmdGateway() *cobra.Command {
	return NewCmdGroup("gateway", "Generate the ingress gateway routing external paths to services",
		NewCmd("generate").
			WithDescription("Generate the gateway manifests").
			WithExample("Print the HAProxy gateway for the gcp environment", "gateway generate -e gcp --ingress haproxy").
			WithCommonFlags().
			WithFlags(addGatewayFlags).
			NoArgs(doGatewayGenerate),
		NewCmd("list").
			WithDescription("List the gateway routes").
			WithCommonFlags().
			NoArgs(doGatewayList),
		NewCmdValidate("gateway routes", func(cfg *latest.Config) []entryStatus {
			var entries []entryStatus
			if cfg.Gateway != nil {
				for _, r := range cfg.Gateway.Routes {
					entries = append(entries, entryStatus{name: r.Path, enabled: true})
				}
			}
			return entries
		}),
	)
}

func addGatewayFlags(fs *pflag.FlagSet) {
	addIngressFlag(fs)
	fs.StringVar(&opts.Domain, "domain", "", "Domain the routes are served on, replacing the one of the environment")
	fs.VarPF(flags.NewOptionalBool(&opts.TLS), "tls", "", "Terminate TLS, replacing the setting of the environment").NoOptDefVal = "true"
	fs.StringVar(&opts.TLSSecret, "tls-secret", "", "Secret holding the TLS certificate")
	fs.StringVarP(&opts.Namespace, "namespace", "n", "", "Namespace of the Traefik objects")
}

func doGatewayGenerate(ctx context.Context, out io.Writer) error {
	cfg, env, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	l, err := gateway.NewGenerator(cfg, env, gateway.Options{
		Ingress:   opts.Ingress,
		Domain:    opts.Domain,
		TLS:       opts.TLS,
		TLSSecret: opts.TLSSecret,
		Namespace: opts.Namespace,
	}).Generate(ctx)
	if err != nil {
		return err
	}
	if len(l) == 0 {
		return nil
	}
	return writeManifests(ctx, out, gatewayManifests, l)
}

type routeListEntry struct {
	Path        string `json:"path"`
	Service     string `json:"service"`
	Port        int32  `json:"port"`
	StripPrefix bool   `json:"strip_prefix"`
	RateLimit   int32  `json:"rate_limit,omitempty"`
}

func doGatewayList(ctx context.Context, out io.Writer) error {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	gw := cfg.Gateway
	var entries []routeListEntry
	if gw != nil {
		for _, r := range gw.Routes {
			e := routeListEntry{Path: r.Path, Service: r.Service, Port: r.Port, StripPrefix: r.StripPrefix}
			if limit := gw.EffectiveRateLimit(r); limit != nil {
				e.RateLimit = limit.RequestsPerSecond
			}
			entries = append(entries, e)
		}
	}

	if opts.JSON {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No gateway routes defined")
		return nil
	}

	fmt.Fprintln(out, "Gateway routes:")
	w := textio.NewPrefixWriter(out, "  ")
	for _, e := range entries {
		var extra []string
		if e.StripPrefix {
			extra = append(extra, "strip_prefix")
		}
		if e.RateLimit > 0 {
			extra = append(extra, fmt.Sprintf("%d req/s", e.RateLimit))
		}
		suffix := ""
		if len(extra) > 0 {
			suffix = " [" + strings.Join(extra, ", ") + "]"
		}
		fmt.Fprintf(w, "%s -> %s:%d%s\n", e.Path, e.Service, e.Port, suffix)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal: %d routes\n", len(entries))
	if gw.CORS.Enabled {
		fmt.Fprintf(out, "CORS: enabled (origins: %s)\n", strings.Join(gw.CORS.AllowOrigins, ", "))
	}
	return nil
}
