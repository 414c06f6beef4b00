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
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// VolumeSource is one of EmptyDirSource, PVCSource, SecretSource or ConfigMapSource.
type VolumeSource interface {
	isVolumeSource()
}

type EmptyDirSource struct {
	Medium    string `json:"medium,omitempty"`
	SizeLimit string `json:"size_limit,omitempty"`
}

// PVCSource mounts a PersistentVolumeClaim named after the volume.
type PVCSource struct {
	Size         string   `json:"size"`
	StorageClass string   `json:"storage_class"`
	AccessModes  []string `json:"access_modes"`

	// Create controls whether the claim is generated alongside the workload.
	Create bool `json:"create"`
}

// KeyToPath projects one key of a Secret or ConfigMap to a file.
type KeyToPath struct {
	Key  string `yaml:"key" json:"key"`
	Path string `yaml:"path" json:"path"`
}

type SecretSource struct {
	SecretName string      `json:"secret_name"`
	Items      []KeyToPath `json:"items,omitempty"`
}

type ConfigMapSource struct {
	ConfigMapName string      `json:"configmap_name"`
	Items         []KeyToPath `json:"items,omitempty"`
}

func (EmptyDirSource) isVolumeSource() {}
func (PVCSource) isVolumeSource() {}
func (SecretSource) isVolumeSource() {}
func (ConfigMapSource) isVolumeSource() {}

// Volume is mounted into the main container.
type Volume struct {
	Name      string       `json:"name"`
	MountPath string       `json:"mount_path"`
	ReadOnly  bool         `json:"read_only,omitempty"`
	Source    VolumeSource `json:"source"`
}

type rawVolume struct {
	Name          string      `yaml:"name"`
	Type          string      `yaml:"type"`
	MountPath     string      `yaml:"mount_path"`
	ReadOnly      bool        `yaml:"read_only,omitempty"`
	Medium        string      `yaml:"medium,omitempty"`
	SizeLimit     string      `yaml:"size_limit,omitempty"`
	Size          string      `yaml:"size,omitempty"`
	StorageClass  string      `yaml:"storage_class,omitempty"`
	AccessModes   []string    `yaml:"access_modes,omitempty"`
	Create        *bool       `yaml:"create,omitempty"`
	SecretName    string      `yaml:"secret_name,omitempty"`
	ConfigMapName string      `yaml:"configmap_name,omitempty"`
	Items         []KeyToPath `yaml:"items,omitempty"`
}

func (v *Volume) UnmarshalYAML(value *yaml.Node) error {
	raw := rawVolume{Type: "emptyDir"}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" || raw.MountPath == "" {
		return fmt.Errorf("line %d: volume needs a name and a mount_path", value.Line)
	}

	*v = Volume{Name: raw.Name, MountPath: raw.MountPath, ReadOnly: raw.ReadOnly}
	switch raw.Type {
	case "emptyDir":
		v.Source = EmptyDirSource{Medium: raw.Medium, SizeLimit: raw.SizeLimit}
	case "pvc":
		pvc := PVCSource{Size: raw.Size, StorageClass: raw.StorageClass, AccessModes: raw.AccessModes, Create: true}
		if pvc.Size == "" {
			pvc.Size = "1Gi"
		}
		if pvc.StorageClass == "" {
			pvc.StorageClass = "standard"
		}
		if len(pvc.AccessModes) == 0 {
			pvc.AccessModes = []string{"ReadWriteOnce"}
		}
		if raw.Create != nil {
			pvc.Create = *raw.Create
		}
		v.Source = pvc
	case "secret":
		name := raw.SecretName
		if name == "" {
			name = raw.Name
		}
		v.Source = SecretSource{SecretName: name, Items: raw.Items}
	case "configMap", "configmap":
		name := raw.ConfigMapName
		if name == "" {
			name = raw.Name
		}
		v.Source = ConfigMapSource{ConfigMapName: name, Items: raw.Items}
	default:
		return fmt.Errorf("line %d: unknown volume type %q", value.Line, raw.Type)
	}
	return nil
}

func (v Volume) MarshalYAML() (interface{}, error) {
	raw := rawVolume{Name: v.Name, MountPath: v.MountPath, ReadOnly: v.ReadOnly}
	switch s := v.Source.(type) {
	case EmptyDirSource:
		raw.Type, raw.Medium, raw.SizeLimit = "emptyDir", s.Medium, s.SizeLimit
	case PVCSource:
		create := s.Create
		raw.Type, raw.Size, raw.StorageClass, raw.AccessModes, raw.Create = "pvc", s.Size, s.StorageClass, s.AccessModes, &create
	case SecretSource:
		raw.Type, raw.SecretName, raw.Items = "secret", s.SecretName, s.Items
	case ConfigMapSource:
		raw.Type, raw.ConfigMapName, raw.Items = "configMap", s.ConfigMapName, s.Items
	}
	return raw, nil
}
