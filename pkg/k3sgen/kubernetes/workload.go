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

package kubernetes

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// Probe converts a configured health check. A nil probe stays nil.
func Probe(p *latest.Probe) *corev1.Probe {
	if p == nil {
		return nil
	}
	probe := &corev1.Probe{
		InitialDelaySeconds: p.InitialDelay,
		PeriodSeconds:       p.Period,
		TimeoutSeconds:      p.Timeout,
		SuccessThreshold:    p.SuccessThreshold,
		FailureThreshold:    p.FailureThreshold,
	}
	switch h := p.Handler.(type) {
	case latest.HTTPGetHandler:
		probe.HTTPGet = &corev1.HTTPGetAction{Path: h.Path, Port: intstr.FromInt32(h.Port)}
	case latest.TCPSocketHandler:
		probe.TCPSocket = &corev1.TCPSocketAction{Port: intstr.FromInt32(h.Port)}
	case latest.ExecHandler:
		probe.Exec = &corev1.ExecAction{Command: h.Command}
	}
	return probe
}

// Volume converts a configured volume into a pod volume.
func Volume(v latest.Volume) (corev1.Volume, error) {
	volume := corev1.Volume{Name: v.Name}
	switch s := v.Source.(type) {
	case latest.EmptyDirSource:
		emptyDir := &corev1.EmptyDirVolumeSource{Medium: corev1.StorageMedium(s.Medium)}
		if s.SizeLimit != "" {
			limit, err := resource.ParseQuantity(s.SizeLimit)
			if err != nil {
				return volume, fmt.Errorf("volume %q: invalid size limit %q: %w", v.Name, s.SizeLimit, err)
			}
			emptyDir.SizeLimit = &limit
		}
		volume.EmptyDir = emptyDir
	case latest.PVCSource:
		volume.PersistentVolumeClaim = &corev1.PersistentVolumeClaimVolumeSource{ClaimName: v.Name}
	case latest.SecretSource:
		volume.Secret = &corev1.SecretVolumeSource{SecretName: s.SecretName, Items: keyToPaths(s.Items)}
	case latest.ConfigMapSource:
		volume.ConfigMap = &corev1.ConfigMapVolumeSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: s.ConfigMapName},
			Items:                keyToPaths(s.Items),
		}
	default:
		return volume, fmt.Errorf("volume %q has no source", v.Name)
	}
	return volume, nil
}

func VolumeMount(v latest.Volume) corev1.VolumeMount {
	return corev1.VolumeMount{Name: v.Name, MountPath: v.MountPath, ReadOnly: v.ReadOnly}
}

func keyToPaths(items []latest.KeyToPath) []corev1.KeyToPath {
	var paths []corev1.KeyToPath
	for _, item := range items {
		paths = append(paths, corev1.KeyToPath{Key: item.Key, Path: item.Path})
	}
	return paths
}

// PodSecurityContext converts the pod security settings. runAsNonRoot is
// only written when true.
func PodSecurityContext(c *latest.PodSecurityContext) *corev1.PodSecurityContext {
	if c == nil {
		return nil
	}
	sc := &corev1.PodSecurityContext{
		RunAsUser:  c.RunAsUser,
		RunAsGroup: c.RunAsGroup,
		FSGroup:    c.FSGroup,
	}
	if c.RunAsNonRoot {
		nonRoot := true
		sc.RunAsNonRoot = &nonRoot
	}
	if sc.RunAsNonRoot == nil && sc.RunAsUser == nil && sc.RunAsGroup == nil && sc.FSGroup == nil {
		return nil
	}
	return sc
}

func ContainerSecurityContext(c *latest.ContainerSecurityContext) *corev1.SecurityContext {
	if c == nil {
		return nil
	}
	escalation, readOnly := c.AllowPrivilegeEscalation, c.ReadOnlyRootFilesystem
	sc := &corev1.SecurityContext{
		AllowPrivilegeEscalation: &escalation,
		ReadOnlyRootFilesystem:   &readOnly,
	}
	if len(c.Capabilities.Add) > 0 || len(c.Capabilities.Drop) > 0 {
		sc.Capabilities = &corev1.Capabilities{}
		for _, capability := range c.Capabilities.Add {
			sc.Capabilities.Add = append(sc.Capabilities.Add, corev1.Capability(capability))
		}
		for _, capability := range c.Capabilities.Drop {
			sc.Capabilities.Drop = append(sc.Capabilities.Drop, corev1.Capability(capability))
		}
	}
	return sc
}
