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
	"os"
	"regexp"
)

var envReference = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)(:-(.*?))?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references with values from
// the process environment. Unset variables without a default expand to "".
// Other uses of '$' are left untouched.
func ExpandEnv(value string) string {
	return envReference.ReplaceAllStringFunc(value, func(ref string) string {
		groups := envReference.FindStringSubmatch(ref)
		if v, found := os.LookupEnv(groups[1]); found {
			return v
		}
		return groups[3]
	})
}
