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
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// TriggerType names what invokes a function.
type TriggerType string

const (
	TriggerHTTP     = TriggerType("http")
	TriggerQueue    = TriggerType("queue")
	TriggerSchedule = TriggerType("schedule")
)

// Trigger is one of HTTPTrigger, QueueTrigger or ScheduleTrigger.
type Trigger interface {
	Type() TriggerType
}

// HTTPTrigger serves the function under Path.
type HTTPTrigger struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`

	// Auth is none, api_key or jwt.
	Auth string `json:"auth,omitempty"`
	CORS bool   `json:"cors"`

	// RateLimit is in requests per minute, unlimited when zero.
	RateLimit int32 `json:"rate_limit,omitempty"`
}

// QueueTrigger invokes the function for messages pushed to a Valkey list.
type QueueTrigger struct {
	QueueName         string `json:"queue_name"`
	BatchSize         int32  `json:"batch_size"`
	VisibilityTimeout int32  `json:"visibility_timeout"`
}

// ScheduleTrigger invokes the function on a cron schedule.
type ScheduleTrigger struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone"`
}

func (HTTPTrigger) Type() TriggerType     { return TriggerHTTP }
func (QueueTrigger) Type() TriggerType    { return TriggerQueue }
func (ScheduleTrigger) Type() TriggerType { return TriggerSchedule }

// Scaling bounds the replicas of a function.
type Scaling struct {
	MinInstances          int32 `json:"min_instances"`
	MaxInstances          int32 `json:"max_instances"`
	TargetPendingRequests int32 `json:"target_pending_requests"`
	CooldownPeriod        int32 `json:"cooldown_period"`
}

// Function is the complete description of one function. Values are built
// with Build and never modified afterwards.
type Function struct {
	Name      string           `json:"name"`
	Trigger   Trigger          `json:"-"`
	Resources latest.Resources `json:"resources"`
	Scaling   Scaling          `json:"scaling"`

	// Timeout of one invocation, in seconds.
	Timeout     int32             `json:"timeout"`
	Environment map[string]string `json:"environment,omitempty"`

	// Secrets are mounted read-only at /secrets/{name}.
	Secrets []string          `json:"secrets,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`

	Visibility latest.Visibility `json:"visibility"`

	// AllowFrom are the peers of a restricted function.
	AllowFrom []latest.AccessRule `json:"allow_from,omitempty"`
}

// HTTP returns the HTTP trigger of f, or nil.
func (f *Function) HTTP() *HTTPTrigger {
	if t, ok := f.Trigger.(HTTPTrigger); ok {
		return &t
	}
	return nil
}

// Queue returns the queue trigger of f, or nil.
func (f *Function) Queue() *QueueTrigger {
	if t, ok := f.Trigger.(QueueTrigger); ok {
		return &t
	}
	return nil
}

// Schedule returns the schedule trigger of f, or nil.
func (f *Function) Schedule() *ScheduleTrigger {
	if t, ok := f.Trigger.(ScheduleTrigger); ok {
		return &t
	}
	return nil
}

// IsPublicHTTP reports whether f is exposed through the ingress controller.
func (f *Function) IsPublicHTTP() bool {
	return f.HTTP() != nil && f.Visibility == latest.Public
}
