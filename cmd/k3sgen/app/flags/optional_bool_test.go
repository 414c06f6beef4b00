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
	"testing"

	"github.com/spf13/pflag"

	"github.com/k3stack/k3sgen/testutil"
)

func TestOptionalBool(t *testing.T) {
	tests := []struct {
		description string
		args        []string
		expected    *bool
		shouldErr   bool
	}{
		{
			description: "unset",
		},
		{
			description: "given without value",
			args:        []string{"--tls"},
			expected:    boolPtr(true),
		},
		{
			description: "explicit false",
			args:        []string{"--tls=false"},
			expected:    boolPtr(false),
		},
		{
			description: "not a boolean",
			args:        []string{"--tls=maybe"},
			shouldErr:   true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			var value *bool
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.VarPF(NewOptionalBool(&value), "tls", "", "Enable TLS").NoOptDefVal = "true"

			err := fs.Parse(test.args)

			t.CheckErrorAndDeepEqual(test.shouldErr, err, test.expected, value)
		})
	}
}

func TestOptionalBoolString(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		var value *bool
		flag := NewOptionalBool(&value)
		t.CheckDeepEqual("", flag.String())

		t.CheckNoError(flag.Set("true"))
		t.CheckDeepEqual("true", flag.String())
	})
}

func boolPtr(b bool) *bool { return &b }
