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
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/k3stack/k3sgen/pkg/k3sgen/config"
	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
)

var (
	opts = &config.K3sgenOptions{}
	v    string
)

// NewK3sgenCommand returns the root command with the app, compose, fn and
// gateway command groups.
func NewK3sgenCommand(out, errOut io.Writer) *cobra.Command {
	opts = &config.K3sgenOptions{}

	rootCmd := &cobra.Command{
		Use:   "k3sgen",
		Short: "Generate Kubernetes manifests from apps.yaml",
		Long: `k3sgen turns the apps, compose projects, serverless functions and gateway
routes declared in apps.yaml into Kubernetes manifests for one environment.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return SetUpLogs(errOut, v)
	}

	rootCmd.AddCommand(NewCmdApp())
	rootCmd.AddCommand(NewCmdCompose())
	rootCmd.AddCommand(NewCmdFn())
	rootCmd.AddCommand(NewCmdGateway())

	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", constants.DefaultLogLevel.String(), "Log level (debug, info, warn, error, fatal, panic)")
	return rootCmd
}

// SetUpLogs sends logs to out, at the given level.
func SetUpLogs(out io.Writer, level string) error {
	logrus.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logrus.SetLevel(lvl)
	return nil
}

// NewCmdGroup returns a command holding subcommands only.
func NewCmdGroup(use, description string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: description,
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(subcommands...)
	return cmd
}
