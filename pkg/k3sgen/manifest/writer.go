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

package manifest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
)

// Writer writes encoded manifest lists to Out, or to one file per list in Dir
// when Dir is set.
type Writer struct {
	Out    io.Writer
	Dir    string
	Format string
}

// Write encodes l and writes it under name.
func (w Writer) Write(ctx context.Context, name string, l List) error {
	buf, err := l.Encode(w.Format)
	if err != nil {
		return err
	}

	if w.Dir == "" {
		_, err := w.Out.Write(buf)
		return err
	}

	filename := filepath.Join(w.Dir, fmt.Sprintf("%s.%s", name, w.extension()))
	if err := util.WriteFile(filename, buf); err != nil {
		return fmt.Errorf("writing %q: %w", filename, err)
	}
	log.Entry(ctx).Infof("Wrote %d manifests to %s", len(l), filename)
	return nil
}

// WriteFile writes raw content to name inside Dir, or to Out.
func (w Writer) WriteFile(ctx context.Context, name string, content []byte) error {
	if w.Dir == "" {
		_, err := w.Out.Write(content)
		return err
	}
	filename := filepath.Join(w.Dir, name)
	if err := util.WriteFile(filename, content); err != nil {
		return fmt.Errorf("writing %q: %w", filename, err)
	}
	log.Entry(ctx).Infof("Wrote %s", filename)
	return nil
}

func (w Writer) extension() string {
	if w.Format == constants.FormatJSON {
		return "json"
	}
	return "yaml"
}
