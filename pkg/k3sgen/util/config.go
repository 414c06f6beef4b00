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

package util

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
)

// Fs is the underlying filesystem used for reading configuration files and
// writing manifests. OS FS by default.
var Fs = afero.NewOsFs()

// ReadConfiguration reads a configuration file and returns its content along
// with the path that was actually read. When the file does not exist, each
// fallback name is tried in the same directory, in order.
func ReadConfiguration(filename string, fallbacks ...string) ([]byte, string, error) {
	if filename == "" {
		return nil, "", errors.New("filename not specified")
	}
	fp, err := AbsPath(filename)
	if err != nil {
		return nil, "", err
	}

	contents, err := afero.ReadFile(Fs, fp)
	if err == nil {
		return contents, fp, nil
	}
	for _, fallback := range fallbacks {
		alt := filepath.Join(filepath.Dir(fp), fallback)
		log.Entry(context.TODO()).Debugf("Could not open %q, trying %q instead", fp, alt)
		if contents, errIgnored := afero.ReadFile(Fs, alt); errIgnored == nil {
			return contents, alt, nil
		}
	}
	// Return original error because it's the one that matters
	return nil, fp, err
}

// ReadFile reads filename relative to the working directory.
func ReadFile(filename string) ([]byte, error) {
	fp, err := AbsPath(filename)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(Fs, fp)
}

// Exists reports whether filename exists on Fs.
func Exists(filename string) bool {
	fp, err := AbsPath(filename)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(Fs, fp)
	return err == nil && ok
}

// WriteFile writes data to filename, creating parent directories.
func WriteFile(filename string, data []byte) error {
	fp, err := AbsPath(filename)
	if err != nil {
		return err
	}
	if err := Fs.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(Fs, fp, data, 0o644)
}

// AbsPath expands a leading ~ and resolves filename against the working directory.
func AbsPath(filename string) (string, error) {
	expanded, err := homedir.Expand(filename)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, expanded), nil
}
