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

package app

import (
	"context"

	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/keda"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

const (
	queuePollingInterval = 15
	cronCooldownPeriod   = 300
)

// scalers renders the autoscaling objects of a workload, one method per
// scaling policy.
type scalers struct {
	ctx context.Context
	w   *workload
}

func (s scalers) None(latest.NoScaling) []runtime.Object { return nil }

func (s scalers) HPA(p latest.HPAScaling) []runtime.Object {
	w := s.w
	minReplicas := p.Min
	if minReplicas == 0 {
		minReplicas = 1
	}

	var metrics []autoscalingv2.MetricSpec
	for _, target := range []struct {
		resource corev1.ResourceName
		percent  int32
	}{
		{corev1.ResourceCPU, p.TargetCPUPercent},
		{corev1.ResourceMemory, p.TargetMemoryPercent},
	} {
		if target.percent <= 0 {
			continue
		}
		percent := target.percent
		metrics = append(metrics, autoscalingv2.MetricSpec{
			Type: autoscalingv2.ResourceMetricSourceType,
			Resource: &autoscalingv2.ResourceMetricSource{
				Name: target.resource,
				Target: autoscalingv2.MetricTarget{
					Type:               autoscalingv2.UtilizationMetricType,
					AverageUtilization: &percent,
				},
			},
		})
	}

	scaleDown, scaleUp := p.ScaleDownStabilization, p.ScaleUpStabilization
	return []runtime.Object{&autoscalingv2.HorizontalPodAutoscaler{
		TypeMeta:   metav1.TypeMeta{APIVersion: "autoscaling/v2", Kind: "HorizontalPodAutoscaler"},
		ObjectMeta: w.objectMeta(w.name),
		Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{APIVersion: "apps/v1", Kind: "Deployment", Name: w.name},
			MinReplicas:    &minReplicas,
			MaxReplicas:    p.Max,
			Metrics:        metrics,
			Behavior: &autoscalingv2.HorizontalPodAutoscalerBehavior{
				ScaleDown: &autoscalingv2.HPAScalingRules{StabilizationWindowSeconds: &scaleDown},
				ScaleUp:   &autoscalingv2.HPAScalingRules{StabilizationWindowSeconds: &scaleUp},
			},
		},
	}}
}

func (s scalers) KedaHTTP(p latest.KedaHTTPScaling) []runtime.Object {
	w := s.w
	pathPrefix := "/"
	if w.Ingress.Enabled {
		pathPrefix = w.Ingress.Path
	}
	return []runtime.Object{keda.HTTPScaledObject{
		Name:            w.name + "-http",
		Namespace:       w.namespace,
		Labels:          kubernetes.MergeLabels(w.labels),
		Hosts:           []string{w.routingHost()},
		PathPrefixes:    []string{pathPrefix},
		Deployment:      w.name,
		Service:         w.name,
		ServicePort:     w.Container.PrimaryPort().ServicePort,
		Min:             p.Min,
		Max:             p.Max,
		TargetValue:     p.TargetPendingRequests,
		ScaledownPeriod: p.CooldownPeriod,
	}.New()}
}

func (s scalers) KedaQueue(p latest.KedaQueueScaling) []runtime.Object {
	w := s.w
	if p.QueueName == "" {
		log.Entry(s.ctx).Infof("Queue scaling of %s has no queue_name, skipping ScaledObject", w.name)
		return nil
	}
	authName := w.name + "-redis-auth"
	auth := keda.TriggerAuthentication(authName, w.namespace, kubernetes.MergeLabels(w.labels), keda.SecretTargetRef{
		Parameter: "password",
		Name:      constants.ValkeySecret,
		Key:       "password",
	})
	scaledObject := keda.ScaledObject{
		Name:            w.name + "-queue",
		Namespace:       w.namespace,
		Labels:          kubernetes.MergeLabels(w.labels),
		Deployment:      w.name,
		TargetKind:      "Deployment",
		PollingInterval: queuePollingInterval,
		CooldownPeriod:  p.CooldownPeriod,
		Min:             p.Min,
		Max:             p.Max,
		Triggers:        []keda.Trigger{keda.RedisListTrigger(p.QueueName, p.QueueLength, authName)},
	}.New()
	return []runtime.Object{auth, scaledObject}
}

func (s scalers) KedaCron(p latest.KedaCronScaling) []runtime.Object {
	w := s.w
	var triggers []keda.Trigger
	for _, schedule := range p.Schedules {
		triggers = append(triggers, keda.CronTrigger(schedule.Timezone, schedule.Start, schedule.End, schedule.DesiredReplicas))
	}
	if len(triggers) == 0 {
		def := latest.DefaultCronSchedule()
		triggers = append(triggers, keda.CronTrigger(def.Timezone, def.Start, def.End, p.Max))
	}
	return []runtime.Object{keda.ScaledObject{
		Name:           w.name + "-cron",
		Namespace:      w.namespace,
		Labels:         kubernetes.MergeLabels(w.labels),
		Deployment:     w.name,
		TargetKind:     "Deployment",
		CooldownPeriod: cronCooldownPeriod,
		Min:            p.Min,
		Max:            p.Max,
		Triggers:       triggers,
	}.New()}
}
