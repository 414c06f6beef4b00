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

package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ConvertMemory converts a docker memory size (512m, 1g, 64k, 1gb) into
// Kubernetes notation. Kubernetes sizes and plain byte counts are returned
// unchanged.
func ConvertMemory(memory string) string {
	memory = strings.TrimSpace(memory)
	if memory == "" {
		return ""
	}
	for _, suffix := range []string{"Ki", "Mi", "Gi", "Ti"} {
		if strings.HasSuffix(memory, suffix) {
			return memory
		}
	}

	lower := strings.TrimSuffix(strings.ToLower(memory), "b")
	for suffix, k8s := range map[string]string{"k": "Ki", "m": "Mi", "g": "Gi", "t": "Ti"} {
		if value, found := strings.CutSuffix(lower, suffix); found {
			return value + k8s
		}
	}
	return lower
}

// ConvertCPU converts a fractional core count (0.5) into millicpus (500m).
// Millicpu values and unparsable strings are returned unchanged.
func ConvertCPU(cpus string) string {
	cpus = strings.TrimSpace(cpus)
	if cpus == "" || strings.HasSuffix(cpus, "m") {
		return cpus
	}
	cores, err := strconv.ParseFloat(cpus, 64)
	if err != nil {
		return cpus
	}
	return fmt.Sprintf("%dm", int64(math.Round(cores*1000)))
}

// ParseDuration converts a compose duration (30s, 5m, 1h, 1m30s) into whole
// seconds. Bare integers are seconds.
func ParseDuration(duration string) (int32, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, nil
	}
	if seconds, err := strconv.Atoi(duration); err == nil {
		return int32(seconds), nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", duration)
	}
	return int32(d / time.Second), nil
}
