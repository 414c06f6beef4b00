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

package keda

import (
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
)

const (
	APIVersion     = "keda.sh/v1alpha1"
	HTTPAPIVersion = "http.keda.sh/v1alpha1"

	KindScaledObject          = "ScaledObject"
	KindHTTPScaledObject      = "HTTPScaledObject"
	KindTriggerAuthentication = "TriggerAuthentication"
)

// HTTPScaledObject scales a Deployment on the request rate seen by the KEDA
// HTTP interceptor for Hosts and PathPrefixes.
type HTTPScaledObject struct {
	Name      string
	Namespace string
	Labels    map[string]string

	Hosts        []string
	PathPrefixes []string

	// Deployment and Service are the scaled Deployment and the Service the
	// interceptor forwards to on ServicePort.
	Deployment  string
	Service     string
	ServicePort int32

	Min, Max    int32
	TargetValue int32

	// ScaledownPeriod is omitted when zero.
	ScaledownPeriod int32
}

func (h HTTPScaledObject) New() *unstructured.Unstructured {
	spec := map[string]interface{}{
		"hosts":        manifest.Strings(h.Hosts),
		"pathPrefixes": manifest.Strings(h.PathPrefixes),
		"scaleTargetRef": map[string]interface{}{
			"name":       h.Deployment,
			"kind":       "Deployment",
			"apiVersion": "apps/v1",
			"service":    h.Service,
			"port":       int64(h.ServicePort),
		},
		"replicas": map[string]interface{}{
			"min": int64(h.Min),
			"max": int64(h.Max),
		},
		"scalingMetric": map[string]interface{}{
			"requestRate": map[string]interface{}{
				"granularity": "1s",
				"targetValue": int64(h.TargetValue),
				"window":      "1m",
			},
		},
	}
	if h.ScaledownPeriod > 0 {
		spec["scaledownPeriod"] = int64(h.ScaledownPeriod)
	}
	return manifest.NewUnstructured(HTTPAPIVersion, KindHTTPScaledObject, h.Name, h.Namespace, h.Labels, spec)
}

// Trigger is one scaler of a ScaledObject.
type Trigger struct {
	Type     string
	Metadata map[string]string

	// AuthenticationRef names a TriggerAuthentication, when set.
	AuthenticationRef string
}

// ScaledObject scales a Deployment on external metrics.
type ScaledObject struct {
	Name      string
	Namespace string
	Labels    map[string]string

	Deployment string

	// TargetKind is written to scaleTargetRef when set.
	TargetKind string

	// PollingInterval is omitted when zero.
	PollingInterval int32
	CooldownPeriod  int32
	Min, Max        int32
	Triggers        []Trigger
}

func (s ScaledObject) New() *unstructured.Unstructured {
	target := map[string]interface{}{"name": s.Deployment}
	if s.TargetKind != "" {
		target["kind"] = s.TargetKind
	}

	var triggers []interface{}
	for _, t := range s.Triggers {
		metadata := map[string]interface{}{}
		for k, v := range t.Metadata {
			metadata[k] = v
		}
		trigger := map[string]interface{}{"type": t.Type, "metadata": metadata}
		if t.AuthenticationRef != "" {
			trigger["authenticationRef"] = map[string]interface{}{"name": t.AuthenticationRef}
		}
		triggers = append(triggers, trigger)
	}

	spec := map[string]interface{}{
		"scaleTargetRef":  target,
		"cooldownPeriod":  int64(s.CooldownPeriod),
		"minReplicaCount": int64(s.Min),
		"maxReplicaCount": int64(s.Max),
		"triggers":        triggers,
	}
	if s.PollingInterval > 0 {
		spec["pollingInterval"] = int64(s.PollingInterval)
	}
	return manifest.NewUnstructured(APIVersion, KindScaledObject, s.Name, s.Namespace, s.Labels, spec)
}

// RedisListTrigger scales on the length of a list in the platform Valkey.
func RedisListTrigger(list string, length int32, authRef string) Trigger {
	return Trigger{
		Type: "redis",
		Metadata: map[string]string{
			"address":       constants.ValkeyAddress,
			"listName":      list,
			"listLength":    strconv.Itoa(int(length)),
			"enableTLS":     "false",
			"databaseIndex": "0",
		},
		AuthenticationRef: authRef,
	}
}

// RedisSentinelListTrigger scales on the length of a list in the Valkey
// sentinel deployment shared by function projects.
func RedisSentinelListTrigger(list string, length int32) Trigger {
	return Trigger{
		Type: "redis-sentinel",
		Metadata: map[string]string{
			"addresses":      constants.ValkeySentinelAddress,
			"sentinelMaster": constants.ValkeySentinelMaster,
			"listName":       list,
			"listLength":     strconv.Itoa(int(length)),
			"databaseIndex":  "0",
			"enableTLS":      "false",
		},
		AuthenticationRef: constants.ValkeyAuthName,
	}
}

func CronTrigger(timezone, start, end string, desiredReplicas int32) Trigger {
	return Trigger{
		Type: "cron",
		Metadata: map[string]string{
			"timezone":        timezone,
			"start":           start,
			"end":             end,
			"desiredReplicas": strconv.Itoa(int(desiredReplicas)),
		},
	}
}

// SecretTargetRef maps a trigger parameter to a key of a Secret.
type SecretTargetRef struct {
	Parameter string
	Name      string
	Key       string
}

func TriggerAuthentication(name, namespace string, labels map[string]string, refs ...SecretTargetRef) *unstructured.Unstructured {
	var targets []interface{}
	for _, r := range refs {
		targets = append(targets, map[string]interface{}{"parameter": r.Parameter, "name": r.Name, "key": r.Key})
	}
	return manifest.NewUnstructured(APIVersion, KindTriggerAuthentication, name, namespace, labels, map[string]interface{}{
		"secretTargetRef": targets,
	})
}
