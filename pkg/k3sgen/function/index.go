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

package function

import (
	"encoding/json"
)

// Index is the content of k3sfn.json, written next to the manifests of a
// project for tooling that needs the function layout without parsing YAML.
type Index struct {
	App       string       `json:"app_name"`
	Namespace string       `json:"namespace"`
	Functions []IndexEntry `json:"functions"`
}

type IndexEntry struct {
	Name       string      `json:"name"`
	Trigger    TriggerType `json:"trigger_type"`
	Visibility string      `json:"visibility"`

	// Path is null for functions without an HTTP trigger.
	Path      *string        `json:"path"`
	Resources IndexResources `json:"resources"`
	Scaling   IndexScaling   `json:"scaling"`
}

type IndexResources struct {
	Memory string `json:"memory"`
	CPU    string `json:"cpu"`
}

type IndexScaling struct {
	Min int32 `json:"min"`
	Max int32 `json:"max"`
}

// NewIndex describes the functions of registry.
func NewIndex(app, namespace string, registry *Registry) Index {
	index := Index{App: app, Namespace: namespace, Functions: []IndexEntry{}}
	for _, f := range registry.Functions() {
		e := IndexEntry{
			Name:       f.Name,
			Trigger:    f.Trigger.Type(),
			Visibility: string(f.Visibility),
			Resources:  IndexResources{Memory: f.Resources.Memory, CPU: f.Resources.CPU},
			Scaling:    IndexScaling{Min: f.Scaling.MinInstances, Max: f.Scaling.MaxInstances},
		}
		if h := f.HTTP(); h != nil {
			path := h.Path
			e.Path = &path
		}
		index.Functions = append(index.Functions, e)
	}
	return index
}

// JSON returns the index indented by two spaces.
func (i Index) JSON() ([]byte, error) {
	return json.MarshalIndent(i, "", "  ")
}
