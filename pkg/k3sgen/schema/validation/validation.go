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

package validation

import (
	"context"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
)

// Validate checks the generic tree of a configuration file against the JSON
// schema stored at schemaFile. Every violation is returned, formatted as
// "<field path>: <description>" and sorted. A missing schema file disables
// validation.
func Validate(ctx context.Context, tree interface{}, schemaFile string) ([]string, error) {
	if !util.Exists(schemaFile) {
		log.Entry(ctx).Infof("Schema %q not found, skipping validation", schemaFile)
		return nil, nil
	}

	schema, err := util.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("reading schema %q: %w", schemaFile, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(tree))
	if err != nil {
		return nil, fmt.Errorf("validating against schema %q: %w", schemaFile, err)
	}
	if result.Valid() {
		return nil, nil
	}

	var violations []string
	for _, e := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	sort.Strings(violations)
	return violations, nil
}
