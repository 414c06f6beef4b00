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
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	sErrors "github.com/k3stack/k3sgen/pkg/k3sgen/schema/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	yamlutil "github.com/k3stack/k3sgen/pkg/k3sgen/yaml"
)

const fallbackFunctionsFile = "functions.yml"

// file is the layout of functions.yaml.
type file struct {
	Functions []entry `yaml:"functions"`
}

type entry struct {
	Name string `yaml:"name"`

	Memory      string `yaml:"memory"`
	CPU         string `yaml:"cpu"`
	MemoryLimit string `yaml:"memory_limit"`
	CPULimit    string `yaml:"cpu_limit"`

	MinInstances *int32 `yaml:"min_instances"`
	MaxInstances *int32 `yaml:"max_instances"`
	Timeout      int32  `yaml:"timeout"`

	Environment map[string]string `yaml:"environment"`
	Secrets     []string          `yaml:"secrets"`
	Labels      map[string]string `yaml:"labels"`

	Visibility latest.Visibility   `yaml:"visibility"`
	AllowFrom  []latest.AccessRule `yaml:"allow_from"`

	HTTP *struct {
		Path      string   `yaml:"path"`
		Methods   []string `yaml:"methods"`
		Auth      string   `yaml:"auth"`
		CORS      *bool    `yaml:"cors"`
		RateLimit int32    `yaml:"rate_limit"`
	} `yaml:"http"`
	Queue *struct {
		QueueName         string `yaml:"queue_name"`
		BatchSize         *int32 `yaml:"batch_size"`
		VisibilityTimeout *int32 `yaml:"visibility_timeout"`
	} `yaml:"queue"`
	Schedule *struct {
		Cron     string `yaml:"cron"`
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`
}

// Discover reads functions.yaml in dir and returns the registry of the
// functions it describes.
func Discover(ctx context.Context, dir string) (*Registry, error) {
	filename := filepath.Join(dir, constants.DefaultFunctionsFile)
	buf, usedPath, err := util.ReadConfiguration(filename, fallbackFunctionsFile)
	if err != nil {
		return nil, sErrors.ConfigFileNotFoundErr(filename, err)
	}
	log.Entry(ctx).Debugf("Discovering functions from %q", usedPath)

	registry, err := Parse(buf)
	if err != nil {
		return nil, sErrors.ConfigParsingErr(usedPath, err)
	}
	log.Entry(ctx).Debugf("Discovered %d functions: %v", registry.Len(), registry.Names())
	return registry, nil
}

// Parse decodes the content of a functions.yaml file.
func Parse(buf []byte) (*Registry, error) {
	var f file
	if err := yamlutil.UnmarshalStrict(buf, &f); err != nil {
		return nil, err
	}

	registry := NewRegistry()
	for _, e := range f.Functions {
		opts, err := e.options()
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", e.Name, err)
		}
		fn, err := Build(e.Name, opts...)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(fn); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (e *entry) options() ([]Option, error) {
	triggers := 0
	var opts []Option

	if h := e.HTTP; h != nil {
		triggers++
		cors := true
		if h.CORS != nil {
			cors = *h.CORS
		}
		path := h.Path
		if path == "" {
			path = "/"
		}
		opts = append(opts, WithHTTP(path, h.Methods...), WithHTTPPolicy(h.Auth, cors, h.RateLimit))
	}
	if q := e.Queue; q != nil {
		triggers++
		batch, timeout := int32(1), int32(30)
		if q.BatchSize != nil {
			batch = *q.BatchSize
		}
		if q.VisibilityTimeout != nil {
			timeout = *q.VisibilityTimeout
		}
		opts = append(opts, WithQueue(q.QueueName, batch, timeout))
	}
	if s := e.Schedule; s != nil {
		triggers++
		opts = append(opts, WithSchedule(s.Cron, s.Timezone))
	}
	if triggers > 1 {
		return nil, errors.New("only one of http, queue and schedule may be set")
	}

	opts = append(opts, WithResources(e.Memory, e.CPU, e.MemoryLimit, e.CPULimit))
	if e.MinInstances != nil || e.MaxInstances != nil {
		min, max := int32(0), int32(10)
		if e.MinInstances != nil {
			min = *e.MinInstances
		}
		if e.MaxInstances != nil {
			max = *e.MaxInstances
		}
		opts = append(opts, WithInstances(min, max))
	}
	if e.Timeout > 0 {
		opts = append(opts, WithTimeout(e.Timeout))
	}
	if len(e.Environment) > 0 {
		opts = append(opts, WithEnvironment(e.Environment))
	}
	if len(e.Secrets) > 0 {
		opts = append(opts, WithSecrets(e.Secrets...))
	}
	if len(e.Labels) > 0 {
		opts = append(opts, WithLabels(e.Labels))
	}
	visibility := e.Visibility
	if visibility == "" {
		visibility = latest.Private
	}
	opts = append(opts, WithVisibility(visibility, e.AllowFrom...))
	return opts, nil
}
