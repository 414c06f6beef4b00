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

package kubernetes

import (
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
)

// Quantities lists resource values by resource name. Empty values are skipped.
type Quantities map[corev1.ResourceName]string

// ResourceRequirements parses requests and limits into container resources.
func ResourceRequirements(requests, limits Quantities) (corev1.ResourceRequirements, error) {
	var req corev1.ResourceRequirements
	var err error
	if req.Requests, err = resourceList(requests); err != nil {
		return req, fmt.Errorf("resource requests: %w", err)
	}
	if req.Limits, err = resourceList(limits); err != nil {
		return req, fmt.Errorf("resource limits: %w", err)
	}
	return req, nil
}

func resourceList(values Quantities) (corev1.ResourceList, error) {
	var list corev1.ResourceList
	for name, value := range values {
		if value == "" {
			continue
		}
		q, err := resource.ParseQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if list == nil {
			list = corev1.ResourceList{}
		}
		list[name] = q
	}
	return list, nil
}

// EnvVars returns literal environment variables sorted by name.
func EnvVars(env map[string]string) []corev1.EnvVar {
	if len(env) == 0 {
		return nil
	}
	vars := make([]corev1.EnvVar, 0, len(env))
	for name, value := range env {
		vars = append(vars, corev1.EnvVar{Name: name, Value: value})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// ImagePullSecrets returns the pull secrets needed for image. Images hosted on
// Artifact Registry are pulled with the artifact-registry secret.
func ImagePullSecrets(image string) []corev1.LocalObjectReference {
	if strings.Contains(image, constants.ArtifactRegistryHost) {
		return []corev1.LocalObjectReference{{Name: constants.ArtifactRegistrySecret}}
	}
	return nil
}

// MergeLabels returns a new map holding the labels of every set, later sets
// winning.
func MergeLabels(sets ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, set := range sets {
		for k, v := range set {
			merged[k] = v
		}
	}
	return merged
}
