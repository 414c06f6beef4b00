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

package latest

import (
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// ScalingType names a scaling policy in apps.yaml.
type ScalingType string

const (
	ScalingNone      = ScalingType("none")
	ScalingHPA       = ScalingType("hpa")
	ScalingKedaHTTP  = ScalingType("keda-http")
	ScalingKedaQueue = ScalingType("keda-queue")
	ScalingKedaCron  = ScalingType("keda-cron")
)

// ScalingPolicy is one of NoScaling, HPAScaling, KedaHTTPScaling,
// KedaQueueScaling or KedaCronScaling.
type ScalingPolicy interface {
	Type() ScalingType
	Bounds() Replicas
	isScalingPolicy()
}

// Replicas bounds the number of running instances.
type Replicas struct {
	Min int32 `yaml:"min_instances" json:"min_instances"`
	Max int32 `yaml:"max_instances" json:"max_instances"`
}

func (r Replicas) Bounds() Replicas { return r }

// NoScaling runs a fixed number of replicas.
type NoScaling struct {
	Replicas `yaml:",inline"`
}

// HPAScaling scales on CPU and memory utilization.
type HPAScaling struct {
	Replicas `yaml:",inline"`
	TargetCPUPercent       int32 `yaml:"target_cpu_percent" json:"target_cpu_percent"`
	TargetMemoryPercent    int32 `yaml:"target_memory_percent" json:"target_memory_percent"`
	ScaleUpStabilization   int32 `yaml:"scale_up_stabilization" json:"scale_up_stabilization"`
	ScaleDownStabilization int32 `yaml:"scale_down_stabilization" json:"scale_down_stabilization"`
}

// KedaHTTPScaling scales on pending HTTP requests, down to zero.
type KedaHTTPScaling struct {
	Replicas `yaml:",inline"`
	TargetPendingRequests int32 `yaml:"target_pending_requests" json:"target_pending_requests"`
	CooldownPeriod        int32 `yaml:"cooldown_period" json:"cooldown_period"`
}

// KedaQueueScaling scales on the length of a queue.
type KedaQueueScaling struct {
	Replicas `yaml:",inline"`
	QueueName      string `yaml:"queue_name" json:"queue_name"`
	QueueLength    int32  `yaml:"queue_length" json:"queue_length"`
	CooldownPeriod int32  `yaml:"cooldown_period" json:"cooldown_period"`
}

// KedaCronScaling scales to fixed replica counts inside time windows.
type KedaCronScaling struct {
	Replicas `yaml:",inline"`
	Schedules []CronSchedule `yaml:"cron_schedules" json:"cron_schedules"`
}

// CronSchedule is a time window during which DesiredReplicas run.
type CronSchedule struct {
	Timezone        string `yaml:"timezone" json:"timezone"`
	Start           string `yaml:"start" json:"start"`
	End             string `yaml:"end" json:"end"`
	DesiredReplicas int32  `yaml:"replicas" json:"replicas"`
}

// DefaultCronSchedule is the business hours window, 08:00 to 18:00 UTC.
func DefaultCronSchedule() CronSchedule {
	return CronSchedule{Timezone: "UTC", Start: "0 8 * * *", End: "0 18 * * *", DesiredReplicas: 5}
}

func (c *CronSchedule) UnmarshalYAML(value *yaml.Node) error {
	type plain CronSchedule
	p := plain(DefaultCronSchedule())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = CronSchedule(p)
	return nil
}

func (NoScaling) Type() ScalingType { return ScalingNone }
func (HPAScaling) Type() ScalingType { return ScalingHPA }
func (KedaHTTPScaling) Type() ScalingType { return ScalingKedaHTTP }
func (KedaQueueScaling) Type() ScalingType { return ScalingKedaQueue }
func (KedaCronScaling) Type() ScalingType { return ScalingKedaCron }

func (NoScaling) isScalingPolicy() {}
func (HPAScaling) isScalingPolicy() {}
func (KedaHTTPScaling) isScalingPolicy() {}
func (KedaQueueScaling) isScalingPolicy() {}
func (KedaCronScaling) isScalingPolicy() {}

// ScalingVisitor has one method per ScalingPolicy variant.
// Adding a variant adds a method, so every visitor must handle it.
type ScalingVisitor[T any] interface {
	None(NoScaling) T
	HPA(HPAScaling) T
	KedaHTTP(KedaHTTPScaling) T
	KedaQueue(KedaQueueScaling) T
	KedaCron(KedaCronScaling) T
}

// MatchScaling dispatches p to the method of v handling its variant.
// A nil policy is treated as NoScaling.
func MatchScaling[T any](p ScalingPolicy, v ScalingVisitor[T]) T {
	switch s := p.(type) {
	case nil:
		return v.None(NoScaling{})
	case NoScaling:
		return v.None(s)
	case HPAScaling:
		return v.HPA(s)
	case KedaHTTPScaling:
		return v.KedaHTTP(s)
	case KedaQueueScaling:
		return v.KedaQueue(s)
	case KedaCronScaling:
		return v.KedaCron(s)
	default:
		panic(fmt.Sprintf("unknown scaling policy %T", p))
	}
}

// Scaling holds the ScalingPolicy of a workload.
type Scaling struct {
	Policy ScalingPolicy
}

// DefaultScaling scales on HTTP traffic, from zero to ten replicas.
func DefaultScaling() Scaling {
	return Scaling{Policy: KedaHTTPScaling{
		Replicas:              Replicas{Min: 0, Max: 10},
		TargetPendingRequests: 100,
		CooldownPeriod:        300,
	}}
}

// Type returns the type of the policy, "none" when there is none.
func (s Scaling) Type() ScalingType {
	if s.Policy == nil {
		return ScalingNone
	}
	return s.Policy.Type()
}

// Bounds returns the replica bounds of the policy.
func (s Scaling) Bounds() Replicas {
	if s.Policy == nil {
		return Replicas{}
	}
	return s.Policy.Bounds()
}

// rawScaling is the flat shape of a scaling block in apps.yaml.
type rawScaling struct {
	Type                   ScalingType    `yaml:"type"`
	MinInstances           int32          `yaml:"min_instances"`
	MaxInstances           int32          `yaml:"max_instances"`
	TargetPendingRequests  int32          `yaml:"target_pending_requests"`
	QueueName              string         `yaml:"queue_name"`
	QueueLength            int32          `yaml:"queue_length"`
	TargetCPUPercent       int32          `yaml:"target_cpu_percent"`
	TargetMemoryPercent    int32          `yaml:"target_memory_percent"`
	CooldownPeriod         int32          `yaml:"cooldown_period"`
	ScaleUpStabilization   int32          `yaml:"scale_up_stabilization"`
	ScaleDownStabilization int32          `yaml:"scale_down_stabilization"`
	CronSchedules          []CronSchedule `yaml:"cron_schedules"`
}

func defaultRawScaling() rawScaling {
	return rawScaling{
		Type:                   ScalingKedaHTTP,
		MaxInstances:           10,
		TargetPendingRequests:  100,
		QueueLength:            5,
		TargetCPUPercent:       80,
		TargetMemoryPercent:    80,
		CooldownPeriod:         300,
		ScaleDownStabilization: 300,
	}
}

func (r rawScaling) policy() (ScalingPolicy, error) {
	replicas := Replicas{Min: r.MinInstances, Max: r.MaxInstances}
	switch r.Type {
	case ScalingNone:
		return NoScaling{Replicas: replicas}, nil
	case ScalingHPA:
		return HPAScaling{
			Replicas:               replicas,
			TargetCPUPercent:       r.TargetCPUPercent,
			TargetMemoryPercent:    r.TargetMemoryPercent,
			ScaleUpStabilization:   r.ScaleUpStabilization,
			ScaleDownStabilization: r.ScaleDownStabilization,
		}, nil
	case ScalingKedaHTTP:
		return KedaHTTPScaling{
			Replicas:              replicas,
			TargetPendingRequests: r.TargetPendingRequests,
			CooldownPeriod:        r.CooldownPeriod,
		}, nil
	case ScalingKedaQueue:
		return KedaQueueScaling{
			Replicas:       replicas,
			QueueName:      r.QueueName,
			QueueLength:    r.QueueLength,
			CooldownPeriod: r.CooldownPeriod,
		}, nil
	case ScalingKedaCron:
		return KedaCronScaling{Replicas: replicas, Schedules: r.CronSchedules}, nil
	default:
		return nil, fmt.Errorf("unknown scaling type %q", r.Type)
	}
}

func (s *Scaling) UnmarshalYAML(value *yaml.Node) error {
	raw := defaultRawScaling()
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Type == "" {
		raw.Type = ScalingKedaHTTP
	}
	policy, err := raw.policy()
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	s.Policy = policy
	return nil
}

type scalingMarshaller struct{}

func (scalingMarshaller) None(s NoScaling) interface{} {
	return map[string]interface{}{"type": ScalingNone, "min_instances": s.Min, "max_instances": s.Max}
}

func (scalingMarshaller) HPA(s HPAScaling) interface{} {
	return struct {
		Type       ScalingType `yaml:"type" json:"type"`
		HPAScaling `yaml:",inline"`
	}{ScalingHPA, s}
}

func (scalingMarshaller) KedaHTTP(s KedaHTTPScaling) interface{} {
	return struct {
		Type            ScalingType `yaml:"type" json:"type"`
		KedaHTTPScaling `yaml:",inline"`
	}{ScalingKedaHTTP, s}
}

func (scalingMarshaller) KedaQueue(s KedaQueueScaling) interface{} {
	return struct {
		Type             ScalingType `yaml:"type" json:"type"`
		KedaQueueScaling `yaml:",inline"`
	}{ScalingKedaQueue, s}
}

func (scalingMarshaller) KedaCron(s KedaCronScaling) interface{} {
	return struct {
		Type            ScalingType `yaml:"type" json:"type"`
		KedaCronScaling `yaml:",inline"`
	}{ScalingKedaCron, s}
}

func (s Scaling) MarshalYAML() (interface{}, error) {
	return MatchScaling[interface{}](s.Policy, scalingMarshaller{}), nil
}

func (s Scaling) MarshalJSON() ([]byte, error) {
	return json.Marshal(MatchScaling[interface{}](s.Policy, scalingMarshaller{}))
}
