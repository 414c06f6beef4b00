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

package externalsecrets

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

const (
	APIVersion = "external-secrets.io/v1beta1"
	Kind       = "ExternalSecret"
)

// Entry maps one key of the target Secret to a secret of the provider.
type Entry struct {
	SecretKey string
	Ref       latest.SecretRef
}

// Supported reports whether secrets of provider can be synced. Only the GCP
// Secret Manager store exists in the cluster.
func Supported(provider latest.SecretProvider) bool {
	return provider == latest.ProviderGCP
}

// New returns an ExternalSecret syncing the supported entries into a Secret
// named name, or nil when no entry is supported.
func New(name, namespace string, labels map[string]string, entries []Entry) *unstructured.Unstructured {
	var data []interface{}
	for _, e := range entries {
		if !Supported(e.Ref.Provider) {
			continue
		}
		remote := map[string]interface{}{"key": e.Ref.Secret}
		if e.Ref.Version != "" && e.Ref.Version != "latest" {
			remote["version"] = e.Ref.Version
		}
		if e.Ref.Key != "" {
			remote["property"] = e.Ref.Key
		}
		data = append(data, map[string]interface{}{"secretKey": e.SecretKey, "remoteRef": remote})
	}
	if len(data) == 0 {
		return nil
	}

	return manifest.NewUnstructured(APIVersion, Kind, name, namespace, labels, map[string]interface{}{
		"refreshInterval": constants.SecretRefreshInterval,
		"secretStoreRef": map[string]interface{}{
			"kind": "ClusterSecretStore",
			"name": constants.ClusterSecretStore,
		},
		"target": map[string]interface{}{
			"name":           name,
			"creationPolicy": "Owner",
		},
		"data": data,
	})
}
