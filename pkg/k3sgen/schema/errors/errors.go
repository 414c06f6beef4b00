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

package errors

import (
	"fmt"
	"strings"

	kErrors "github.com/k3stack/k3sgen/pkg/k3sgen/errors"
)

// ConfigFileNotFoundErr specifies the configuration file does not exist.
func ConfigFileNotFoundErr(file string, err error) error {
	return kErrors.NewError(err,
		kErrors.ActionableErr{
			Message: fmt.Sprintf("unable to find configuration file %q", file),
			ErrCode: kErrors.ConfigFileNotFound,
			Suggestions: []kErrors.Suggestion{
				{Action: fmt.Sprintf("Check that the specified configuration file exists at %q or pass another one with `--file`", file)},
			},
		})
}

// ConfigParsingErr returns a generic config parsing error
func ConfigParsingErr(file string, err error) error {
	return kErrors.NewError(err,
		kErrors.ActionableErr{
			Message: fmt.Sprintf("error parsing configuration file %q: %v", file, err),
			ErrCode: kErrors.ConfigFileParsing,
		})
}

// ComposeParsingErr specifies a docker-compose file could not be parsed.
func ComposeParsingErr(file string, err error) error {
	return kErrors.NewError(err,
		kErrors.ActionableErr{
			Message: fmt.Sprintf("error parsing compose file %q: %v", file, err),
			ErrCode: kErrors.ComposeParsing,
		})
}

// ConfigVersionErr specifies the configuration file was written for an unsupported format version.
func ConfigVersionErr(file, version string) error {
	msg := fmt.Sprintf("configuration file %q has unsupported version %q", file, version)
	return kErrors.NewError(fmt.Errorf("%s", msg),
		kErrors.ActionableErr{
			Message: msg,
			ErrCode: kErrors.ConfigVersion,
			Suggestions: []kErrors.Suggestion{
				{Action: "Set `version: 2` at the top of the file"},
			},
		})
}

// SchemaValidationErr carries every violation found while validating a file.
func SchemaValidationErr(file string, violations []string) error {
	msg := fmt.Sprintf("configuration file %q is invalid:\n  - %s", file, strings.Join(violations, "\n  - "))
	return kErrors.NewError(fmt.Errorf("%s", msg),
		kErrors.ActionableErr{
			Message: msg,
			ErrCode: kErrors.ConfigValidation,
		})
}

// EntryNotFoundErr specifies no entry of the given kind is named name.
func EntryNotFoundErr(kind, name string, available []string) error {
	msg := fmt.Sprintf("%s %q not found", kind, name)
	action := fmt.Sprintf("No %s is defined in the configuration file", kind)
	if len(available) > 0 {
		action = fmt.Sprintf("Available: %s", strings.Join(available, ", "))
	}
	return kErrors.NewError(fmt.Errorf("%s", msg),
		kErrors.ActionableErr{
			Message:     msg,
			ErrCode:     kErrors.ConfigEntryNotFound,
			Suggestions: []kErrors.Suggestion{{Action: action}},
		})
}

// GenerationErr specifies manifests could not be generated for one entry.
func GenerationErr(kind, name string, err error) error {
	return kErrors.NewError(err,
		kErrors.ActionableErr{
			Message: fmt.Sprintf("generating manifests for %s %q: %v", kind, name, err),
			ErrCode: kErrors.Generation,
		})
}
