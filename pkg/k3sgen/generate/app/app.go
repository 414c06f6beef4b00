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
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"

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

// Generator renders the manifests of apps for one environment.
type Generator struct {
	cfg *latest.Config
	env latest.Environment
}

func NewGenerator(cfg *latest.Config, env latest.Environment) *Generator {
	return &Generator{cfg: cfg, env: env}
}

// Generate returns the manifests of app, in apply order: ExternalSecret,
// ServiceAccount, Deployment, Service, scaling objects, ingress objects,
// NetworkPolicy, PodDisruptionBudget and PersistentVolumeClaims.
func (g *Generator) Generate(ctx context.Context, app *latest.AppConfig) (manifest.List, error) {
	ctx = log.WithEventContext(ctx, "k3sapp", app.Name)
	w := g.workload(ctx, app)
	log.Entry(ctx).Debugf("Generating %s in namespace %q with image %q", w.name, w.namespace, w.image)

	l, err := w.manifests(ctx)
	if err != nil {
		return nil, sErrors.GenerationErr("app", app.Name, err)
	}
	log.Entry(ctx).Debugf("Generated %d manifests", len(l))
	return l, nil
}

// workload is an app resolved for one environment, with its derived names.
type workload struct {
	resolve.EffectiveApp

	name      string
	namespace string
	image     string
	ingress   string
	labels    map[string]string
}

func (g *Generator) workload(ctx context.Context, app *latest.AppConfig) *workload {
	eff := resolve.App(ctx, app, g.env)
	name := util.SanitizeName(app.Name)
	image := eff.Image
	if image == "" {
		image = latest.ImageFor(name, g.cfg.RegistryURL(g.env))
	}
	return &workload{
		EffectiveApp: eff,
		name:         name,
		namespace:    g.cfg.Namespace(eff.Namespace),
		image:        image,
		ingress:      g.cfg.IngressType(g.env),
		labels: map[string]string{
			constants.LabelApp:    name,
			constants.LabelK3sApp: app.Name,
		},
	}
}

func (w *workload) manifests(ctx context.Context) (manifest.List, error) {
	var l manifest.List
	l.Append(w.externalSecret())
	l.Append(w.serviceAccount())

	deployment, err := w.deployment()
	if err != nil {
		return nil, err
	}
	l.Append(deployment, w.service())
	l.Append(latest.MatchScaling[[]runtime.Object](w.Scaling.Policy, scalers{ctx: ctx, w: w})...)
	l.Append(w.ingressObjects()...)
	l.Append(w.networkPolicy(), w.podDisruptionBudget())

	claims, err := w.persistentVolumeClaims()
	if err != nil {
		return nil, err
	}
	l.Append(claims...)
	return l, nil
}

func (w *workload) objectMeta(name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{Name: name, Namespace: w.namespace, Labels: kubernetes.MergeLabels(w.labels)}
}

func (w *workload) routingHost() string {
	return fmt.Sprintf("%s.%s", w.name, w.namespace)
}

// syncsSecrets reports whether an ExternalSecret feeds the workload.
func (w *workload) syncsSecrets() bool {
	return w.Env != latest.Local && len(w.secretEntries()) > 0
}

func (w *workload) secretEntries() []externalsecrets.Entry {
	var entries []externalsecrets.Entry
	for _, ref := range latest.SecretRefs(w.Environment) {
		if externalsecrets.Supported(ref.Ref.Provider) {
			entries = append(entries, externalsecrets.Entry{SecretKey: ref.Name, Ref: ref.Ref})
		}
	}
	return entries
}

func (w *workload) externalSecret() runtime.Object {
	if !w.syncsSecrets() {
		return nil
	}
	return externalsecrets.New(w.name+"-secrets", w.namespace, kubernetes.MergeLabels(w.labels), w.secretEntries())
}

func (w *workload) serviceAccount() runtime.Object {
	sec := w.Security
	if !sec.CreateServiceAccount || sec.ServiceAccount == "" {
		return nil
	}
	return &corev1.ServiceAccount{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        sec.ServiceAccount,
			Namespace:   w.namespace,
			Labels:      map[string]string{constants.LabelK3sApp: w.AppConfig.Name},
			Annotations: sec.ServiceAccountAnnotations,
		},
	}
}

func (w *workload) replicas() int32 {
	if w.Replicas != nil {
		return *w.Replicas
	}
	if w.Scaling.Type() == latest.ScalingNone {
		return 1
	}
	return w.Scaling.Bounds().Min
}

func (w *workload) container() (corev1.Container, error) {
	res := w.Resources
	resources, err := kubernetes.ResourceRequirements(
		kubernetes.Quantities{
			corev1.ResourceMemory:           res.Memory,
			corev1.ResourceCPU:              res.CPU,
			corev1.ResourceEphemeralStorage: res.EphemeralStorage,
		},
		kubernetes.Quantities{
			corev1.ResourceMemory:           res.MemoryLimit,
			corev1.ResourceCPU:              res.CPULimit,
			corev1.ResourceEphemeralStorage: res.EphemeralStorage,
		})
	if err != nil {
		return corev1.Container{}, err
	}

	c := corev1.Container{
		Name:            w.name,
		Image:           w.image,
		Command:         w.Container.Command,
		Args:            w.Container.Args,
		WorkingDir:      w.Container.WorkingDir,
		Resources:       resources,
		Env:             w.envVars(),
		EnvFrom:         w.envFrom(),
		StartupProbe:    kubernetes.Probe(w.Probes.Startup),
		ReadinessProbe:  kubernetes.Probe(w.Probes.Readiness),
		LivenessProbe:   kubernetes.Probe(w.Probes.Liveness),
		SecurityContext: kubernetes.ContainerSecurityContext(w.Security.ContainerSecurityContext),
	}
	if len(w.Container.Ports) == 0 {
		c.Ports = []corev1.ContainerPort{{ContainerPort: w.Container.PrimaryPort().ContainerPort}}
	}
	for _, p := range w.Container.Ports {
		c.Ports = append(c.Ports, corev1.ContainerPort{Name: p.Name, ContainerPort: p.ContainerPort, Protocol: corev1.Protocol(p.Protocol)})
	}
	for _, v := range w.Volumes {
		c.VolumeMounts = append(c.VolumeMounts, kubernetes.VolumeMount(v))
	}
	return c, nil
}

// envVars returns the literal variables, with ${VAR} references expanded
// from the process environment.
func (w *workload) envVars() []corev1.EnvVar {
	literals := map[string]string{}
	for name, value := range w.Environment {
		if !value.IsSecret() {
			literals[name] = util.ExpandEnv(value.Value)
		}
	}
	return kubernetes.EnvVars(literals)
}

func (w *workload) envFrom() []corev1.EnvFromSource {
	var sources []corev1.EnvFromSource
	for _, e := range w.EnvFrom {
		source := corev1.EnvFromSource{Prefix: e.Prefix}
		var optional *bool
		if e.Optional {
			optional = &e.Optional
		}
		if e.Secret != "" {
			source.SecretRef = &corev1.SecretEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: e.Secret}, Optional: optional}
		} else {
			source.ConfigMapRef = &corev1.ConfigMapEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: e.ConfigMap}, Optional: optional}
		}
		sources = append(sources, source)
	}
	if w.syncsSecrets() {
		sources = append(sources, corev1.EnvFromSource{
			SecretRef: &corev1.SecretEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: w.name + "-secrets"}},
		})
	}
	return sources
}

func (w *workload) deployment() (*appsv1.Deployment, error) {
	container, err := w.container()
	if err != nil {
		return nil, err
	}
	pod := corev1.PodSpec{
		Containers:         []corev1.Container{container},
		ServiceAccountName: w.Security.ServiceAccount,
		SecurityContext:    kubernetes.PodSecurityContext(w.Security.PodSecurityContext),
		ImagePullSecrets:   kubernetes.ImagePullSecrets(w.image),
	}
	for _, v := range w.Volumes {
		volume, err := kubernetes.Volume(v)
		if err != nil {
			return nil, err
		}
		pod.Volumes = append(pod.Volumes, volume)
	}

	replicas := w.replicas()
	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: w.objectMeta(w.name),
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{constants.LabelApp: w.name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: kubernetes.MergeLabels(w.labels)},
				Spec:       pod,
			},
		},
	}, nil
}

func (w *workload) service() *corev1.Service {
	ports := w.Container.Ports
	if len(ports) == 0 {
		ports = []latest.Port{latest.DefaultPort()}
	}
	var servicePorts []corev1.ServicePort
	for _, p := range ports {
		servicePorts = append(servicePorts, corev1.ServicePort{
			Name:       p.Name,
			Port:       p.ServicePort,
			TargetPort: intstr.FromInt32(p.ContainerPort),
			Protocol:   corev1.Protocol(p.Protocol),
		})
	}
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: w.objectMeta(w.name),
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{constants.LabelApp: w.name},
			Ports:    servicePorts,
		},
	}
}

func (w *workload) networkPolicy() runtime.Object {
	if !w.Security.NetworkPolicy.Enabled {
		return nil
	}
	return netpol.New(netpol.Options{
		Name:              w.name + "-policy",
		Namespace:         w.namespace,
		Labels:            kubernetes.MergeLabels(w.labels, map[string]string{constants.LabelVisibility: string(w.Security.Visibility)}),
		PodSelector:       map[string]string{constants.LabelApp: w.name},
		Visibility:        w.Security.Visibility,
		Port:              w.Container.PrimaryPort().ContainerPort,
		IngressController: w.ingress,
		AllowFrom:         w.Security.NetworkPolicy.AllowFrom,
		AllowTo:           w.Security.NetworkPolicy.AllowTo,
	})
}

// podDisruptionBudget is only configured through an environment override.
func (w *workload) podDisruptionBudget() runtime.Object {
	pdb := w.PodDisruptionBudget
	if pdb == nil || (pdb.MinAvailable == nil && pdb.MaxUnavailable == nil) {
		return nil
	}
	spec := policyv1.PodDisruptionBudgetSpec{
		Selector: &metav1.LabelSelector{MatchLabels: map[string]string{constants.LabelApp: w.name}},
	}
	if pdb.MinAvailable != nil {
		minAvailable := intstr.FromInt32(*pdb.MinAvailable)
		spec.MinAvailable = &minAvailable
	} else {
		maxUnavailable := intstr.FromInt32(*pdb.MaxUnavailable)
		spec.MaxUnavailable = &maxUnavailable
	}
	return &policyv1.PodDisruptionBudget{
		TypeMeta:   metav1.TypeMeta{APIVersion: "policy/v1", Kind: "PodDisruptionBudget"},
		ObjectMeta: w.objectMeta(w.name),
		Spec:       spec,
	}
}

func (w *workload) persistentVolumeClaims() ([]runtime.Object, error) {
	var claims []runtime.Object
	for _, v := range w.Volumes {
		pvc, ok := v.Source.(latest.PVCSource)
		if !ok || !pvc.Create {
			continue
		}
		size, err := resource.ParseQuantity(pvc.Size)
		if err != nil {
			return nil, fmt.Errorf("volume %q: invalid size %q: %w", v.Name, pvc.Size, err)
		}
		var modes []corev1.PersistentVolumeAccessMode
		for _, m := range pvc.AccessModes {
			modes = append(modes, corev1.PersistentVolumeAccessMode(m))
		}
		storageClass := pvc.StorageClass
		claims = append(claims, &corev1.PersistentVolumeClaim{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
			ObjectMeta: metav1.ObjectMeta{Name: v.Name, Namespace: w.namespace},
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes:      modes,
				StorageClassName: &storageClass,
				Resources: corev1.ResourceRequirements{
					Requests: corev1.ResourceList{corev1.ResourceStorage: size},
				},
			},
		})
	}
	return claims, nil
}
