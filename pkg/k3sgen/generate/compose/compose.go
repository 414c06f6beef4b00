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
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/imdario/mergo"
	homedir "github.com/mitchellh/go-homedir"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/k3stack/k3sgen/pkg/k3sgen/compose"
	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/externalsecrets"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/netpol"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/resolve"
	sErrors "github.com/k3stack/k3sgen/pkg/k3sgen/schema/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
)

const (
	defaultClaimSize   = "1Gi"
	defaultServicePort = 80
)

// Options tune a Generator.
type Options struct {
	// BaseDir is the directory compose project paths are relative to.
	BaseDir string

	// Registry replaces the registry of the environment for built images.
	Registry string
}

// Generator renders compose projects for one environment.
type Generator struct {
	cfg  *latest.Config
	env  latest.Environment
	opts Options
}

func NewGenerator(cfg *latest.Config, env latest.Environment, opts Options) *Generator {
	return &Generator{cfg: cfg, env: env, opts: opts}
}

// Load parses the compose file of project.
func (g *Generator) Load(ctx context.Context, project *latest.ComposeConfig) (*compose.Project, error) {
	return compose.Load(ctx, project.Name, filepath.Join(g.opts.BaseDir, project.Path), project.File)
}

// Generate loads the compose file of project and returns its manifests:
// ServiceAccount, ExternalSecret and claims for named volumes first, then for
// every service its env ConfigMap, Deployment, Service and NetworkPolicy, and
// last the ingress of the project.
func (g *Generator) Generate(ctx context.Context, project *latest.ComposeConfig) (manifest.List, error) {
	parsed, err := g.Load(ctx, project)
	if err != nil {
		return nil, err
	}
	return g.GenerateProject(ctx, project, parsed)
}

// GenerateProject renders an already parsed compose file.
func (g *Generator) GenerateProject(ctx context.Context, project *latest.ComposeConfig, parsed *compose.Project) (manifest.List, error) {
	ctx = log.WithEventContext(ctx, "k3scompose", project.Name)
	p := &projectGen{
		EffectiveCompose: resolve.Compose(ctx, project, g.env),
		parsed:           parsed,
		name:             util.SanitizeName(project.Name),
		registry:         g.opts.Registry,
		ingress:          g.cfg.IngressType(g.env),
	}
	p.namespace = g.cfg.Namespace(p.Namespace)
	if p.registry == "" {
		p.registry = g.cfg.RegistryURL(g.env)
	}

	l, err := p.manifests(ctx)
	if err != nil {
		return nil, sErrors.GenerationErr("compose project", project.Name, err)
	}
	log.Entry(ctx).Debugf("Generated %d manifests for %d services", len(l), len(parsed.Services))
	return l, nil
}

type projectGen struct {
	resolve.EffectiveCompose

	parsed    *compose.Project
	name      string
	namespace string
	registry  string
	ingress   string
}

func (p *projectGen) manifests(ctx context.Context) (manifest.List, error) {
	var l manifest.List
	l.Append(p.serviceAccount(), p.externalSecret())

	for _, vol := range p.parsed.Volumes {
		if vol.External {
			log.Entry(ctx).Debugf("Volume %q is external, not generating a claim", vol.Name)
			continue
		}
		claim, err := p.claim(vol)
		if err != nil {
			return nil, err
		}
		l.Append(claim)
	}

	for i := range p.parsed.Services {
		svc := &p.parsed.Services[i]
		objs, err := p.service(svc)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", svc.Name, err)
		}
		l.Append(objs...)
	}
	l.Append(p.ingressObjects()...)
	return l, nil
}

func (p *projectGen) projectLabels() map[string]string {
	return map[string]string{constants.LabelComposeProject: p.name}
}

func (p *projectGen) serviceAccount() runtime.Object {
	sec := p.Security
	if !sec.CreateServiceAccount || sec.ServiceAccount == "" {
		return nil
	}
	return &corev1.ServiceAccount{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        sec.ServiceAccount,
			Namespace:   p.namespace,
			Labels:      p.projectLabels(),
			Annotations: sec.ServiceAccountAnnotations,
		},
	}
}

func (p *projectGen) secretEntries() []externalsecrets.Entry {
	var entries []externalsecrets.Entry
	for _, ref := range latest.SecretRefs(p.secretValues()) {
		if externalsecrets.Supported(ref.Ref.Provider) {
			entries = append(entries, externalsecrets.Entry{SecretKey: ref.Name, Ref: ref.Ref})
		}
	}
	return entries
}

func (p *projectGen) secretValues() map[string]latest.EnvValue {
	values := map[string]latest.EnvValue{}
	for name, ref := range p.Secrets {
		ref := ref
		values[name] = latest.EnvValue{SecretRef: &ref}
	}
	return values
}

func (p *projectGen) syncsSecrets() bool {
	return p.Env != latest.Local && len(p.secretEntries()) > 0
}

func (p *projectGen) externalSecret() runtime.Object {
	if !p.syncsSecrets() {
		return nil
	}
	return externalsecrets.New(p.name+"-secrets", p.namespace, p.projectLabels(), p.secretEntries())
}

func (p *projectGen) claim(vol compose.NamedVolume) (runtime.Object, error) {
	size, err := resource.ParseQuantity(defaultClaimSize)
	if err != nil {
		return nil, err
	}
	pvc := &corev1.PersistentVolumeClaim{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      util.SanitizeName(vol.Name),
			Namespace: p.namespace,
			Labels:    kubernetes.MergeLabels(p.projectLabels(), map[string]string{constants.LabelComposeVolume: vol.Name}),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.ResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: size},
			},
		},
	}
	if p.StorageClass != "" {
		storageClass := p.StorageClass
		pvc.Spec.StorageClassName = &storageClass
	}
	return pvc, nil
}

// service returns the objects of one compose service.
func (p *projectGen) service(svc *compose.Service) ([]runtime.Object, error) {
	name := util.SanitizeName(svc.Name)
	labels := kubernetes.MergeLabels(p.projectLabels(), map[string]string{
		constants.LabelApp:            name,
		constants.LabelComposeService: svc.Name,
	})

	envFile, err := compose.ReadEnvFiles(p.parsed, svc)
	if err != nil {
		return nil, fmt.Errorf("reading env files: %w", err)
	}
	var configMap runtime.Object
	if len(envFile) > 0 {
		configMap = &corev1.ConfigMap{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
			ObjectMeta: metav1.ObjectMeta{Name: name + "-env", Namespace: p.namespace, Labels: labels},
			Data:       envFile,
		}
	}

	deployment, err := p.deployment(svc, name, labels, len(envFile) > 0)
	if err != nil {
		return nil, err
	}
	return []runtime.Object{configMap, deployment, p.kubeService(svc, name, labels), p.networkPolicy(svc, name, labels)}, nil
}

func (p *projectGen) image(svc *compose.Service, name string) (string, error) {
	switch {
	case svc.Image != "":
		return svc.Image, nil
	case svc.Build != nil:
		return latest.ImageFor(p.name+"-"+name, p.registry), nil
	default:
		return "", fmt.Errorf("service %s has no image or build context", svc.Name)
	}
}

// resources merges the apps.yaml resources over the ones of the compose file.
// Override fields left empty keep the compose value.
func (p *projectGen) resources(svc *compose.Service) (corev1.ResourceRequirements, error) {
	var res latest.ComposeResources
	if r := svc.Deploy.Reservations; r != nil {
		res.Memory, res.CPU = compose.ConvertMemory(r.Memory), compose.ConvertCPU(r.CPUs)
	}
	if l := svc.Deploy.Limits; l != nil {
		res.MemoryLimit, res.CPULimit = compose.ConvertMemory(l.Memory), compose.ConvertCPU(l.CPUs)
	}
	if o := p.Resources; o != nil {
		override := *o
		if override.MemoryLimit == "" {
			override.MemoryLimit = override.Memory
		}
		if err := mergo.Merge(&res, override, mergo.WithOverride); err != nil {
			return corev1.ResourceRequirements{}, err
		}
	}
	return kubernetes.ResourceRequirements(
		kubernetes.Quantities{corev1.ResourceMemory: res.Memory, corev1.ResourceCPU: res.CPU},
		kubernetes.Quantities{corev1.ResourceMemory: res.MemoryLimit, corev1.ResourceCPU: res.CPULimit})
}

func (p *projectGen) envVars(svc *compose.Service) []corev1.EnvVar {
	env := map[string]string{}
	for k, v := range svc.Environment {
		env[k] = v
	}
	for k, v := range p.Environment {
		env[k] = v
	}
	return kubernetes.EnvVars(env)
}

func (p *projectGen) deployment(svc *compose.Service, name string, labels map[string]string, hasEnvFile bool) (*appsv1.Deployment, error) {
	image, err := p.image(svc, name)
	if err != nil {
		return nil, err
	}
	resources, err := p.resources(svc)
	if err != nil {
		return nil, err
	}
	probe, err := svc.HealthCheck.Probe()
	if err != nil {
		return nil, fmt.Errorf("healthcheck: %w", err)
	}

	container := corev1.Container{
		Name:            name,
		Image:           image,
		Command:         svc.Entrypoint,
		Args:            svc.Command,
		WorkingDir:      svc.WorkingDir,
		Env:             p.envVars(svc),
		Resources:       resources,
		LivenessProbe:   probe,
		ReadinessProbe:  probe,
		SecurityContext: containerSecurityContext(p.Security.ContainerSecurityContext, svc.User),
	}
	for _, port := range svc.Ports {
		container.Ports = append(container.Ports, corev1.ContainerPort{ContainerPort: port.ContainerPort, Protocol: corev1.Protocol(port.Protocol)})
	}
	if hasEnvFile {
		container.EnvFrom = append(container.EnvFrom, corev1.EnvFromSource{
			ConfigMapRef: &corev1.ConfigMapEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: name + "-env"}},
		})
	}
	if p.syncsSecrets() {
		container.EnvFrom = append(container.EnvFrom, corev1.EnvFromSource{
			SecretRef: &corev1.SecretEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: p.name + "-secrets"}},
		})
	}

	volumes, mounts, err := podVolumes(p.parsed.Path, svc)
	if err != nil {
		return nil, err
	}
	container.VolumeMounts = mounts

	replicas := svc.Deploy.Replicas
	if p.Replicas != nil {
		replicas = *p.Replicas
	}
	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: p.namespace, Labels: labels},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{constants.LabelApp: name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: kubernetes.MergeLabels(labels)},
				Spec: corev1.PodSpec{
					Containers:         []corev1.Container{container},
					Volumes:            volumes,
					ServiceAccountName: p.Security.ServiceAccount,
					SecurityContext:    kubernetes.PodSecurityContext(p.Security.PodSecurityContext),
					ImagePullSecrets:   kubernetes.ImagePullSecrets(image),
				},
			},
		},
	}, nil
}

// podVolumes maps service mounts to pod volumes: named volumes to their
// claim, binds to hostPath, and tmpfs or anonymous volumes to emptyDir.
// Relative bind sources are resolved against dir.
func podVolumes(dir string, svc *compose.Service) ([]corev1.Volume, []corev1.VolumeMount, error) {
	var volumes []corev1.Volume
	var mounts []corev1.VolumeMount
	seen := map[string]bool{}
	for i, m := range svc.Volumes {
		var volume corev1.Volume
		switch {
		case m.Type == compose.VolumeTmpfs:
			volume.Name = fmt.Sprintf("tmpfs-%d", i)
			volume.EmptyDir = &corev1.EmptyDirVolumeSource{Medium: corev1.StorageMediumMemory}
		case m.Type == compose.VolumeNamed && m.Source == "":
			volume.Name = fmt.Sprintf("anon-%d", i)
			volume.EmptyDir = &corev1.EmptyDirVolumeSource{}
		case m.Type == compose.VolumeNamed:
			volume.Name = util.SanitizeName(m.Source)
			volume.PersistentVolumeClaim = &corev1.PersistentVolumeClaimVolumeSource{ClaimName: volume.Name}
		case m.Type == compose.VolumeBind:
			path, err := homedir.Expand(m.Source)
			if err != nil {
				return nil, nil, err
			}
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			hostPathType := corev1.HostPathDirectoryOrCreate
			volume.Name = util.SanitizeName(m.Source)
			volume.HostPath = &corev1.HostPathVolumeSource{Path: path, Type: &hostPathType}
		default:
			return nil, nil, fmt.Errorf("unsupported volume type %q", m.Type)
		}

		mounts = append(mounts, corev1.VolumeMount{Name: volume.Name, MountPath: m.Target, ReadOnly: m.ReadOnly})
		if !seen[volume.Name] {
			seen[volume.Name] = true
			volumes = append(volumes, volume)
		}
	}
	return volumes, mounts, nil
}

// containerSecurityContext applies the compose user, "uid[:gid]", over the
// configured container security context.
func containerSecurityContext(configured *latest.ContainerSecurityContext, user string) *corev1.SecurityContext {
	sc := kubernetes.ContainerSecurityContext(configured)
	uid, gid, _ := strings.Cut(user, ":")
	if id, err := strconv.ParseInt(uid, 10, 64); err == nil {
		if sc == nil {
			sc = &corev1.SecurityContext{}
		}
		sc.RunAsUser = &id
	}
	if id, err := strconv.ParseInt(gid, 10, 64); err == nil {
		if sc == nil {
			sc = &corev1.SecurityContext{}
		}
		sc.RunAsGroup = &id
	}
	return sc
}

// kubeService exposes the published ports. The first port is named http.
func (p *projectGen) kubeService(svc *compose.Service, name string, labels map[string]string) runtime.Object {
	if len(svc.Ports) == 0 {
		return nil
	}
	var ports []corev1.ServicePort
	for i, port := range svc.Ports {
		portName := "http"
		if i > 0 {
			portName = fmt.Sprintf("port-%d", i)
		}
		servicePort := port.HostPort
		if servicePort == 0 {
			servicePort = port.ContainerPort
		}
		ports = append(ports, corev1.ServicePort{
			Name:       portName,
			Port:       servicePort,
			TargetPort: intstr.FromInt32(port.ContainerPort),
			Protocol:   corev1.Protocol(port.Protocol),
		})
	}
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: p.namespace, Labels: labels},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{constants.LabelApp: name},
			Ports:    ports,
		},
	}
}

func (p *projectGen) networkPolicy(svc *compose.Service, name string, labels map[string]string) runtime.Object {
	if !p.Security.NetworkPolicy.Enabled {
		return nil
	}
	port := int32(defaultServicePort)
	if len(svc.Ports) > 0 {
		port = svc.Ports[0].ContainerPort
	}
	return netpol.New(netpol.Options{
		Name:              name + "-policy",
		Namespace:         p.namespace,
		Labels:            labels,
		PodSelector:       map[string]string{constants.LabelApp: name},
		Visibility:        p.Security.Visibility,
		Port:              port,
		IngressController: p.ingress,
		AllowFrom:         p.Security.NetworkPolicy.AllowFrom,
		AllowTo:           p.Security.NetworkPolicy.AllowTo,
	})
}
