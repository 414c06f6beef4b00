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
	"fmt"
)

// Registry holds the functions of one project in discovery order. A registry
// is built by Discover and lives for one generation run.
type Registry struct {
	functions []Function
	index     map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register adds f. Function names are unique within a registry.
func (r *Registry) Register(f Function) error {
	if _, found := r.index[f.Name]; found {
		return fmt.Errorf("function %s is defined twice", f.Name)
	}
	r.index[f.Name] = len(r.functions)
	r.functions = append(r.functions, f)
	return nil
}

// Get returns the function named name.
func (r *Registry) Get(name string) (Function, bool) {
	i, found := r.index[name]
	if !found {
		return Function{}, false
	}
	return r.functions[i], true
}

// Functions returns the registered functions in registration order.
func (r *Registry) Functions() []Function {
	return append([]Function(nil), r.functions...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for _, f := range r.functions {
		names = append(names, f.Name)
	}
	return names
}

func (r *Registry) Len() int {
	return len(r.functions)
}
