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
	"errors"
	"fmt"
	"strings"

	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// Option sets one aspect of a Function.
type Option func(*Function)

func defaults(name string) Function {
	return Function{
		Name:      name,
		Trigger:   HTTPTrigger{Path: "/", Methods: []string{"GET", "POST"}, CORS: true},
		Resources: latest.DefaultResources(),
		Scaling: Scaling{
			MinInstances:          0,
			MaxInstances:          10,
			TargetPendingRequests: 100,
			CooldownPeriod:        300,
		},
		Timeout:    30,
		Visibility: latest.Private,
	}
}

// Build returns the function named name with opts applied in order over the
// defaults: an HTTP trigger on "/", 256Mi of memory, 100m of CPU, zero to ten
// replicas and private visibility.
func Build(name string, opts ...Option) (Function, error) {
	if name == "" {
		return Function{}, errors.New("function name is required")
	}
	f := defaults(name)
	for _, opt := range opts {
		opt(&f)
	}
	if err := f.validate(); err != nil {
		return Function{}, fmt.Errorf("function %s: %w", name, err)
	}
	return f, nil
}

func (f *Function) validate() error {
	switch t := f.Trigger.(type) {
	case HTTPTrigger:
		if !strings.HasPrefix(t.Path, "/") {
			return fmt.Errorf("http path %q must start with /", t.Path)
		}
	case QueueTrigger:
		if t.QueueName == "" {
			return errors.New("queue trigger needs a queue_name")
		}
		if t.BatchSize < 1 {
			return fmt.Errorf("batch size must be positive, got %d", t.BatchSize)
		}
	case ScheduleTrigger:
		if len(strings.Fields(t.Cron)) != 5 {
			return fmt.Errorf("cron expression %q must have five fields", t.Cron)
		}
	default:
		return fmt.Errorf("unsupported trigger %T", t)
	}
	if f.Scaling.MinInstances < 0 || f.Scaling.MaxInstances < f.Scaling.MinInstances {
		return fmt.Errorf("invalid instance bounds %d..%d", f.Scaling.MinInstances, f.Scaling.MaxInstances)
	}
	if f.Visibility != latest.Restricted && len(f.AllowFrom) > 0 {
		return fmt.Errorf("allow_from requires restricted visibility, got %s", f.Visibility)
	}
	return nil
}

// WithHTTP serves the function on path. Methods default to GET and POST.
func WithHTTP(path string, methods ...string) Option {
	return func(f *Function) {
		if len(methods) == 0 {
			methods = []string{"GET", "POST"}
		}
		f.Trigger = HTTPTrigger{Path: path, Methods: methods, CORS: true}
	}
}

// WithHTTPPolicy sets the authentication, CORS and rate limit of an HTTP
// function. It must come after WithHTTP and is ignored for other triggers.
func WithHTTPPolicy(auth string, cors bool, rateLimit int32) Option {
	return func(f *Function) {
		if t, ok := f.Trigger.(HTTPTrigger); ok {
			t.Auth, t.CORS, t.RateLimit = auth, cors, rateLimit
			f.Trigger = t
		}
	}
}

func WithQueue(queue string, batchSize, visibilityTimeout int32) Option {
	return func(f *Function) {
		f.Trigger = QueueTrigger{QueueName: queue, BatchSize: batchSize, VisibilityTimeout: visibilityTimeout}
	}
}

func WithSchedule(cron, timezone string) Option {
	return func(f *Function) {
		if timezone == "" {
			timezone = "UTC"
		}
		f.Trigger = ScheduleTrigger{Cron: cron, Timezone: timezone}
	}
}

// WithResources sets requests and limits. Empty values keep the defaults and
// an empty memory limit follows the memory request.
func WithResources(memory, cpu, memoryLimit, cpuLimit string) Option {
	return func(f *Function) {
		if memory != "" {
			f.Resources.Memory = memory
		}
		if cpu != "" {
			f.Resources.CPU = cpu
		}
		f.Resources.MemoryLimit = f.Resources.Memory
		if memoryLimit != "" {
			f.Resources.MemoryLimit = memoryLimit
		}
		f.Resources.CPULimit = cpuLimit
	}
}

func WithInstances(min, max int32) Option {
	return func(f *Function) {
		f.Scaling.MinInstances, f.Scaling.MaxInstances = min, max
	}
}

func WithTimeout(seconds int32) Option {
	return func(f *Function) { f.Timeout = seconds }
}

// WithEnvironment adds environment variables; later options win on conflicts.
func WithEnvironment(env map[string]string) Option {
	return func(f *Function) {
		merged := make(map[string]string, len(f.Environment)+len(env))
		for k, v := range f.Environment {
			merged[k] = v
		}
		for k, v := range env {
			merged[k] = v
		}
		f.Environment = merged
	}
}

func WithSecrets(secrets ...string) Option {
	return func(f *Function) {
		f.Secrets = append(append([]string(nil), f.Secrets...), secrets...)
	}
}

func WithLabels(labels map[string]string) Option {
	return func(f *Function) {
		merged := make(map[string]string, len(f.Labels)+len(labels))
		for k, v := range f.Labels {
			merged[k] = v
		}
		for k, v := range labels {
			merged[k] = v
		}
		f.Labels = merged
	}
}

// WithVisibility sets who may call the function. Peers are only accepted
// for restricted functions.
func WithVisibility(visibility latest.Visibility, allowFrom ...latest.AccessRule) Option {
	return func(f *Function) {
		f.Visibility = visibility
		f.AllowFrom = append([]latest.AccessRule(nil), allowFrom...)
	}
}
