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

package resolve

import (
	"context"
	"fmt"
	"reflect"

	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
)

const (
	overrideTag = "override"
	skipField   = "-"
	mergeField  = "merge"
)

// overlay copies every field set in override onto the field of the same name
// in target, which must be a pointer to a struct. Fields tagged `override:"-"`
// are left alone, maps tagged `override:"merge"` are merged key by key and any
// other set field replaces the target field wholesale.
func overlay(ctx context.Context, target interface{}, override interface{}) {
	targetV := reflect.ValueOf(target).Elem()
	overrideV := reflect.Indirect(reflect.ValueOf(override))
	if !overrideV.IsValid() {
		return
	}

	overrideT := overrideV.Type()
	for i := 0; i < overrideT.NumField(); i++ {
		field := overrideT.Field(i)
		tag := field.Tag.Get(overrideTag)
		if tag == skipField {
			continue
		}
		dst := targetV.FieldByName(field.Name)
		if !dst.IsValid() || !dst.CanSet() {
			panic(fmt.Sprintf("override field %s has no counterpart in %s", field.Name, targetV.Type()))
		}
		if overlayField(dst, overrideV.Field(i), tag == mergeField) {
			log.Entry(ctx).Debugf("Overriding %s", field.Name)
		}
	}
}

func overlayField(dst, src reflect.Value, merge bool) bool {
	switch src.Kind() {
	case reflect.Ptr:
		if src.IsNil() {
			return false
		}
		if dst.Kind() == reflect.Ptr {
			dst.Set(src)
		} else {
			dst.Set(src.Elem())
		}
	case reflect.Slice:
		if src.Len() == 0 {
			return false
		}
		dst.Set(src)
	case reflect.Map:
		if src.Len() == 0 {
			return false
		}
		if !merge || dst.IsNil() {
			dst.Set(src)
			return true
		}
		merged := reflect.MakeMapWithSize(dst.Type(), dst.Len()+src.Len())
		for _, key := range dst.MapKeys() {
			merged.SetMapIndex(key, dst.MapIndex(key))
		}
		for _, key := range src.MapKeys() {
			merged.SetMapIndex(key, src.MapIndex(key))
		}
		dst.Set(merged)
	default:
		if src.IsZero() {
			return false
		}
		dst.Set(src)
	}
	return true
}
