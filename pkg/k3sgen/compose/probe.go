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
	"strings"

	corev1 "k8s.io/api/core/v1"
)

const defaultProbeSeconds = 30

// Probe converts a health check into an exec probe. It returns nil when
// there is no check or when the check is disabled with NONE.
func (h *HealthCheck) Probe() (*corev1.Probe, error) {
	if h == nil || len(h.Test) == 0 {
		return nil, nil
	}

	var command []string
	switch h.Test[0] {
	case "NONE":
		return nil, nil
	case "CMD":
		command = h.Test[1:]
	case "CMD-SHELL":
		command = []string{"/bin/sh", "-c", strings.Join(h.Test[1:], " ")}
	default:
		command = h.Test
	}

	period, err := ParseDuration(h.Interval)
	if err != nil {
		return nil, err
	}
	timeout, err := ParseDuration(h.Timeout)
	if err != nil {
		return nil, err
	}
	startPeriod, err := ParseDuration(h.StartPeriod)
	if err != nil {
		return nil, err
	}
	if period == 0 {
		period = defaultProbeSeconds
	}
	if timeout == 0 {
		timeout = defaultProbeSeconds
	}

	return &corev1.Probe{
		ProbeHandler:        corev1.ProbeHandler{Exec: &corev1.ExecAction{Command: command}},
		InitialDelaySeconds: startPeriod,
		PeriodSeconds:       period,
		TimeoutSeconds:      timeout,
		FailureThreshold:    h.Retries,
	}, nil
}
