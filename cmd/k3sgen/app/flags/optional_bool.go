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

package flags

import (
	"fmt"
	"strconv"
)

// OptionalBool is a boolean flag that stays unset, rather than false, when it
// is not given on the command line.
type OptionalBool struct {
	value **bool
}

func NewOptionalBool(value **bool) *OptionalBool {
	return &OptionalBool{value: value}
}

func (b *OptionalBool) Set(value string) error {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parsing %q as a boolean: %w", value, err)
	}
	*b.value = &parsed
	return nil
}

func (b *OptionalBool) String() string {
	if *b.value == nil {
		return ""
	}
	return strconv.FormatBool(**b.value)
}

func (b *OptionalBool) Type() string {
	return "bool"
}

// IsBoolFlag lets the flag be given without a value.
func (b *OptionalBool) IsBoolFlag() bool {
	return true
}
