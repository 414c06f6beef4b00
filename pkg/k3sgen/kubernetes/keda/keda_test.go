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
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/k3stack/k3sgen/testutil"
)

func TestHTTPScaledObject(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		obj := HTTPScaledObject{
			Name:         "api-http",
			Namespace:    "apps",
			Hosts:        []string{"api.apps"},
			PathPrefixes: []string{"/api"},
			Deployment:   "api",
			Service:      "api",
			ServicePort:  80,
			Min:          0,
			Max:          10,
			TargetValue:  100,
		}.New()

		t.CheckDeepEqual("http.keda.sh/v1alpha1", obj.GetAPIVersion())
		minReplicas, _, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas", "min")
		maxReplicas, _, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas", "max")
		target, _, _ := unstructured.NestedInt64(obj.Object, "spec", "scalingMetric", "requestRate", "targetValue")
		_, hasScaledown, _ := unstructured.NestedInt64(obj.Object, "spec", "scaledownPeriod")
		t.CheckDeepEqual(int64(0), minReplicas)
		t.CheckDeepEqual(int64(10), maxReplicas)
		t.CheckDeepEqual(int64(100), target)
		t.CheckFalse(hasScaledown)
	})
}

func TestScaledObject(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		obj := ScaledObject{
			Name:            "worker-queue",
			Namespace:       "apps",
			Deployment:      "worker",
			TargetKind:      "Deployment",
			PollingInterval: 15,
			CooldownPeriod:  300,
			Min:             0,
			Max:             5,
			Triggers:        []Trigger{RedisListTrigger("jobs", 5, "worker-redis-auth")},
		}.New()

		triggers, _, _ := unstructured.NestedSlice(obj.Object, "spec", "triggers")
		t.CheckDeepEqual(map[string]interface{}{
			"type": "redis",
			"metadata": map[string]interface{}{
				"address":       "valkey-master.valkey.svc.cluster.local:6379",
				"listName":      "jobs",
				"listLength":    "5",
				"enableTLS":     "false",
				"databaseIndex": "0",
			},
			"authenticationRef": map[string]interface{}{"name": "worker-redis-auth"},
		}, triggers[0])

		kind, _, _ := unstructured.NestedString(obj.Object, "spec", "scaleTargetRef", "kind")
		polling, _, _ := unstructured.NestedInt64(obj.Object, "spec", "pollingInterval")
		t.CheckDeepEqual("Deployment", kind)
		t.CheckDeepEqual(int64(15), polling)
	})
}

func TestTriggers(t *testing.T) {
	testutil.Run(t, "sentinel", func(t *testutil.T) {
		trigger := RedisSentinelListTrigger("queue:emails", 50)

		t.CheckDeepEqual("redis-sentinel", trigger.Type)
		t.CheckDeepEqual("50", trigger.Metadata["listLength"])
		t.CheckDeepEqual("myprimary", trigger.Metadata["sentinelMaster"])
		t.CheckDeepEqual("valkey-auth", trigger.AuthenticationRef)
	})

	testutil.Run(t, "cron", func(t *testutil.T) {
		trigger := CronTrigger("UTC", "0 8 * * *", "0 18 * * *", 10)

		t.CheckDeepEqual(map[string]string{
			"timezone":        "UTC",
			"start":           "0 8 * * *",
			"end":             "0 18 * * *",
			"desiredReplicas": "10",
		}, trigger.Metadata)
	})
}
