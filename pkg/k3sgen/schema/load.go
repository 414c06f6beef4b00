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

package schema

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/blang/semver"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	sErrors "github.com/k3stack/k3sgen/pkg/k3sgen/schema/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/validation"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	yamlutil "github.com/k3stack/k3sgen/pkg/k3sgen/yaml"
)

// Load reads and decodes the configuration file at filename.
func Load(ctx context.Context, filename string) (*latest.Config, error) {
	cfg, _, _, err := load(ctx, filename)
	return cfg, err
}

// LoadAndValidate loads filename like Load and validates it against the JSON
// schema at schemaFile. When schemaFile is empty, apps.schema.json next to the
// configuration file is used.
func LoadAndValidate(ctx context.Context, filename, schemaFile string) (*latest.Config, error) {
	cfg, tree, usedPath, err := load(ctx, filename)
	if err != nil {
		return nil, err
	}

	if schemaFile == "" {
		schemaFile = filepath.Join(filepath.Dir(usedPath), constants.DefaultSchemaFile)
	}
	violations, err := validation.Validate(ctx, tree, schemaFile)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, sErrors.SchemaValidationErr(usedPath, violations)
	}
	return cfg, nil
}

func load(ctx context.Context, filename string) (*latest.Config, interface{}, string, error) {
	buf, usedPath, err := util.ReadConfiguration(filename, constants.FallbackConfigFile)
	if err != nil {
		return nil, nil, "", sErrors.ConfigFileNotFoundErr(filename, err)
	}
	log.Entry(ctx).Debugf("Loading configuration from %q", usedPath)

	tree, err := yamlutil.Node(buf)
	if err != nil {
		return nil, nil, "", sErrors.ConfigParsingErr(usedPath, err)
	}
	if err := checkVersion(usedPath, tree); err != nil {
		return nil, nil, "", err
	}

	cfg := latest.NewConfig()
	if err := yamlutil.Unmarshal(buf, cfg); err != nil {
		return nil, nil, "", sErrors.ConfigParsingErr(usedPath, err)
	}
	if cfg.Version == "" {
		cfg.Version = latest.Version
	}
	return cfg, tree, usedPath, nil
}

// checkVersion accepts a missing version and any 2.x version.
func checkVersion(file string, tree interface{}) error {
	root, ok := tree.(map[string]interface{})
	if !ok {
		return sErrors.ConfigParsingErr(file, fmt.Errorf("top level must be a mapping, got %T", tree))
	}
	raw, found := root["version"]
	if !found || raw == nil {
		return nil
	}

	version := fmt.Sprint(raw)
	parsed, err := semver.ParseTolerant(version)
	if err != nil || parsed.Major != constants.SupportedConfigMajorVersion {
		return sErrors.ConfigVersionErr(file, version)
	}
	return nil
}
