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

package yamlutil

import (
	"bytes"
	"io"

	yaml "gopkg.in/yaml.v3"
)

// UnmarshalStrict rejects keys that do not map onto a field of out.
func UnmarshalStrict(in []byte, out interface{}) error {
	return unmarshal(in, out, true)
}

func Unmarshal(in []byte, out interface{}) error {
	return unmarshal(in, out, false)
}

// Marshal encodes with a two space indent.
func Marshal(in interface{}) ([]byte, error) {
	var b bytes.Buffer
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)
	if err := encoder.Encode(in); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Node decodes in into a generic tree of maps, slices and scalars, suitable for
// JSON schema validation.
func Node(in []byte) (interface{}, error) {
	var out interface{}
	if err := Unmarshal(in, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

func unmarshal(in []byte, out interface{}, strict bool) error {
	decoder := yaml.NewDecoder(bytes.NewReader(in))
	decoder.KnownFields(strict)
	if err := decoder.Decode(out); err != nil {
		// yaml.v3 returns EOF for an empty document; treat it as an empty object.
		if err != io.EOF {
			return err
		}
	}
	return nil
}
