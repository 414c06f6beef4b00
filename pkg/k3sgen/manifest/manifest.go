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

package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
)

const yamlSeparator = "---\n"

// List is an ordered list of Kubernetes objects. Typed objects must have their
// TypeMeta set.
type List []runtime.Object

// Append adds objects to the list. Nil objects, including typed nil
// pointers, are ignored.
func (l *List) Append(objs ...runtime.Object) {
	for _, obj := range objs {
		if obj == nil || reflect.ValueOf(obj).IsNil() {
			continue
		}
		*l = append(*l, obj)
	}
}

// Kinds returns the kind of every object, in order.
func (l List) Kinds() []string {
	kinds := make([]string, len(l))
	for i, obj := range l {
		kinds[i] = obj.GetObjectKind().GroupVersionKind().Kind
	}
	return kinds
}

// Find returns the first object of kind named name, or nil.
func (l List) Find(kind, name string) runtime.Object {
	for _, obj := range l {
		if obj.GetObjectKind().GroupVersionKind().Kind != kind {
			continue
		}
		if accessor, err := meta.Accessor(obj); err == nil && accessor.GetName() == name {
			return obj
		}
	}
	return nil
}

// Encode serializes the list as a multi document YAML stream or as a JSON array.
// Equal lists always encode to the same bytes.
func (l List) Encode(format string) ([]byte, error) {
	docs := make([]map[string]interface{}, 0, len(l))
	for _, obj := range l {
		doc, err := ToUnstructured(obj)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	switch format {
	case constants.FormatYAML, "":
		var buf bytes.Buffer
		for _, doc := range docs {
			out, err := yaml.Marshal(doc)
			if err != nil {
				return nil, err
			}
			buf.WriteString(yamlSeparator)
			buf.Write(out)
		}
		return buf.Bytes(), nil
	case constants.FormatJSON:
		out, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q, expected %s or %s", format, constants.FormatYAML, constants.FormatJSON)
	}
}

// ToUnstructured returns the content of obj without its status and without
// the empty creation timestamps of its object and template metadata.
func ToUnstructured(obj runtime.Object) (map[string]interface{}, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", obj.GetObjectKind().GroupVersionKind().Kind, err)
	}
	delete(content, "status")
	prune(content)
	return content, nil
}

func prune(value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		if ts, found := v["creationTimestamp"]; found && ts == nil {
			delete(v, "creationTimestamp")
		}
		for _, child := range v {
			prune(child)
		}
	case []interface{}:
		for _, child := range v {
			prune(child)
		}
	}
}

// NewUnstructured returns a custom resource with the given metadata. spec must
// only hold JSON compatible values.
func NewUnstructured(apiVersion, kind, name, namespace string, labels map[string]string, spec map[string]interface{}) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]interface{}{}}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)
	u.SetName(name)
	if namespace != "" {
		u.SetNamespace(namespace)
	}
	if len(labels) > 0 {
		u.SetLabels(labels)
	}
	if spec != nil {
		u.Object["spec"] = spec
	}
	return u
}

// Strings converts a string slice to a JSON compatible list.
func Strings(values []string) []interface{} {
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}
