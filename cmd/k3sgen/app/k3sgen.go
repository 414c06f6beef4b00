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

package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/k3stack/k3sgen/cmd/k3sgen/app/cmd"
	kErrors "github.com/k3stack/k3sgen/pkg/k3sgen/errors"
)

// Run builds the k3sgen command tree and executes it with os.Args.
func Run(out, stderr io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cmd.NewK3sgenCommand(out, stderr)
	return c.ExecuteContext(ctx)
}

func ExitCode(err error) int {
	return kErrors.ExitCode(err)
}
