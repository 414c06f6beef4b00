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

package fn

import (
	"context"
	"fmt"
	"path/filepath"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/k3stack/k3sgen/pkg/k3sgen/constants"
	"github.com/k3stack/k3sgen/pkg/k3sgen/function"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/keda"
	"github.com/k3stack/k3sgen/pkg/k3sgen/kubernetes/netpol"
	"github.com/k3stack/k3sgen/pkg/k3sgen/manifest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	"github.com/k3stack/k3sgen/pkg/k3sgen/resolve"
	sErrors "github.com/k3stack/k3sgen/pkg/k3sgen/schema/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
)

const (
	containerName = "function"
	servicePort   = 80
	secretsDir    = "/secrets"
)

// Options tune a Generator.
type Options struct {
	// BaseDir is the directory project paths are relative to.
	BaseDir string

	// Registry, Ingress and Host replace the resolved values when set.
	Registry string
	Ingress  string
	Host     string
}

// Generator renders serverless projects for one environment.
type Generator struct {
	cfg  *latest.Config
	env  latest.Environment
	opts Options
}

func NewGenerator(cfg *latest.Config, env latest.Environment, opts Options) *Generator {
	return &Generator{cfg: cfg, env: env, opts: opts}
}

// Result holds the manifests of a project and its function index.
type Result struct {
	Manifests manifest.List
	Index     function.Index
}

// Resolve returns the effective configuration of project.
func (g *Generator) Resolve(ctx context.Context, project *latest.ServerlessConfig) resolve.EffectiveServerless {
	eff := resolve.Serverless(ctx, g.cfg, project, g.env)
	if g.opts.Registry != "" {
		eff.Registry = g.opts.Registry
	}
	if g.opts.Ingress != "" {
		eff.Ingress = g.opts.Ingress
	}
	if g.opts.Host != "" {
		eff.Host = g.opts.Host
	}
	return eff
}

// Discover returns the functions of project.
func (g *Generator) Discover(ctx context.Context, project *latest.ServerlessConfig) (*function.Registry, error) {
	return function.Discover(ctx, filepath.Join(g.opts.BaseDir, project.Path))
}

// Generate discovers the functions of project and renders them.
func (g *Generator) Generate(ctx context.Context, project *latest.ServerlessConfig) (*Result, error) {
	registry, err := g.Discover(ctx, project)
	if err != nil {
		return nil, err
	}
	return g.GenerateFunctions(ctx, project, registry)
}

// GenerateFunctions renders the functions of registry: for every function a
// CronJob when it runs on a schedule, otherwise a Deployment, a Service, its
// scaler and a NetworkPolicy. The ingress objects of public HTTP functions
// come last.
func (g *Generator) GenerateFunctions(ctx context.Context, project *latest.ServerlessConfig, registry *function.Registry) (*Result, error) {
	ctx = log.WithEventContext(ctx, "k3sfn", project.Name)
	p := &projectGen{EffectiveServerless: g.Resolve(ctx, project), app: util.SanitizeName(project.Name)}
	p.image = p.Image
	if p.image == "" {
		p.image = latest.ImageFor(p.app, p.Registry)
	}

	var l manifest.List
	for _, fn := range registry.Functions() {
		objs, err := p.function(fn)
		if err != nil {
			return nil, sErrors.GenerationErr("serverless project", project.Name, err)
		}
		l.Append(objs...)
	}
	if p.Ingress == constants.IngressHAProxy {
		l.Append(p.haproxyObjects(registry)...)
	} else {
		l.Append(p.traefikObjects(registry)...)
	}

	log.Entry(ctx).Debugf("Generated %d manifests for %d functions", len(l), registry.Len())
	return &Result{Manifests: l, Index: function.NewIndex(project.Name, p.Namespace, registry)}, nil
}

type projectGen struct {
	resolve.EffectiveServerless

	app   string
	image string
}

// objectName is the name shared by every object of fn.
func (p *projectGen) objectName(fn function.Function) string {
	return util.SanitizeName(p.app + "-" + fn.Name)
}

func (p *projectGen) labels(fn function.Function) map[string]string {
	return map[string]string{
		constants.LabelApp:         p.objectName(fn),
		constants.LabelFunctionApp: p.app,
		constants.LabelFunction:    fn.Name,
	}
}

func (p *projectGen) routingHost(fn function.Function) string {
	return fmt.Sprintf("%s.%s", p.objectName(fn), p.Namespace)
}

func (p *projectGen) function(fn function.Function) ([]runtime.Object, error) {
	switch t := fn.Trigger.(type) {
	case function.ScheduleTrigger:
		cronJob, err := p.cronJob(fn, t)
		if err != nil {
			return nil, err
		}
		return []runtime.Object{cronJob}, nil
	case function.HTTPTrigger, function.QueueTrigger:
		deployment, err := p.deployment(fn)
		if err != nil {
			return nil, err
		}
		return []runtime.Object{deployment, p.service(fn), p.scaler(fn), p.networkPolicy(fn)}, nil
	default:
		return nil, fmt.Errorf("function %s: unsupported trigger %T", fn.Name, t)
	}
}

func (p *projectGen) env(fn function.Function, extra ...corev1.EnvVar) []corev1.EnvVar {
	env := append([]corev1.EnvVar{{Name: "K3SFN_FUNCTION", Value: fn.Name}}, extra...)
	expanded := make(map[string]string, len(fn.Environment))
	for k, v := range fn.Environment {
		expanded[k] = util.ExpandEnv(v)
	}
	return append(env, kubernetes.EnvVars(expanded)...)
}

func (p *projectGen) resources(fn function.Function) (corev1.ResourceRequirements, error) {
	r := fn.Resources
	return kubernetes.ResourceRequirements(
		kubernetes.Quantities{corev1.ResourceMemory: r.Memory, corev1.ResourceCPU: r.CPU},
		kubernetes.Quantities{corev1.ResourceMemory: r.MemoryLimit, corev1.ResourceCPU: r.CPULimit})
}

func (p *projectGen) secretVolumes(fn function.Function) ([]corev1.Volume, []corev1.VolumeMount) {
	var volumes []corev1.Volume
	var mounts []corev1.VolumeMount
	for _, secret := range fn.Secrets {
		name := util.SanitizeName(secret)
		volumes = append(volumes, corev1.Volume{
			Name:         name,
			VolumeSource: corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{SecretName: secret}},
		})
		mounts = append(mounts, corev1.VolumeMount{Name: name, MountPath: secretsDir + "/" + secret, ReadOnly: true})
	}
	return volumes, mounts
}

func readyProbe(failureThreshold int32) *latest.Probe {
	return &latest.Probe{
		Handler:          latest.HTTPGetHandler{Path: "/ready", Port: constants.FunctionPort},
		InitialDelay:     1,
		Period:           2,
		FailureThreshold: failureThreshold,
	}
}

func (p *projectGen) deployment(fn function.Function) (*appsv1.Deployment, error) {
	resources, err := p.resources(fn)
	if err != nil {
		return nil, err
	}
	volumes, mounts := p.secretVolumes(fn)
	name := p.objectName(fn)

	container := corev1.Container{
		Name:         containerName,
		Image:        p.image,
		Ports:        []corev1.ContainerPort{{ContainerPort: constants.FunctionPort}},
		Env:          p.env(fn, corev1.EnvVar{Name: "PORT", Value: fmt.Sprint(constants.FunctionPort)}),
		Resources:    resources,
		VolumeMounts: mounts,
		// Thirty attempts two seconds apart cover a slow cold start before
		// the liveness probe takes over.
		StartupProbe:   kubernetes.Probe(readyProbe(30)),
		ReadinessProbe: kubernetes.Probe(readyProbe(0)),
		LivenessProbe: kubernetes.Probe(&latest.Probe{
			Handler:      latest.HTTPGetHandler{Path: "/live", Port: constants.FunctionPort},
			InitialDelay: 5,
			Period:       10,
		}),
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: p.Namespace,
			Labels:    kubernetes.MergeLabels(p.labels(fn), map[string]string{constants.LabelTrigger: string(fn.Trigger.Type())}, fn.Labels),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(fn.Scaling.MinInstances),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{constants.LabelApp: name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: p.labels(fn)},
				Spec: corev1.PodSpec{
					Containers:       []corev1.Container{container},
					Volumes:          volumes,
					ImagePullSecrets: kubernetes.ImagePullSecrets(p.image),
				},
			},
		},
	}, nil
}

func (p *projectGen) service(fn function.Function) *corev1.Service {
	name := p.objectName(fn)
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: p.Namespace, Labels: p.labels(fn)},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{constants.LabelApp: name},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       servicePort,
				TargetPort: intstr.FromInt32(constants.FunctionPort),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// scaler returns the HTTPScaledObject of an HTTP function or the ScaledObject
// of a queue function.
func (p *projectGen) scaler(fn function.Function) runtime.Object {
	name := p.objectName(fn)
	if q := fn.Queue(); q != nil {
		return keda.ScaledObject{
			Name:            name,
			Namespace:       p.Namespace,
			Labels:          p.labels(fn),
			Deployment:      name,
			PollingInterval: 30,
			CooldownPeriod:  fn.Scaling.CooldownPeriod,
			Min:             fn.Scaling.MinInstances,
			Max:             fn.Scaling.MaxInstances,
			Triggers:        []keda.Trigger{keda.RedisSentinelListTrigger("queue:"+q.QueueName, q.BatchSize*5)},
		}.New()
	}
	return keda.HTTPScaledObject{
		Name:         name,
		Namespace:    p.Namespace,
		Labels:       p.labels(fn),
		Hosts:        []string{p.routingHost(fn)},
		PathPrefixes: []string{fn.HTTP().Path},
		Deployment:   name,
		Service:      name,
		ServicePort:  servicePort,
		Min:          fn.Scaling.MinInstances,
		Max:          fn.Scaling.MaxInstances,
		TargetValue:  fn.Scaling.TargetPendingRequests,
	}.New()
}

func (p *projectGen) networkPolicy(fn function.Function) runtime.Object {
	return netpol.New(netpol.Options{
		Name:              p.objectName(fn) + "-ingress",
		Namespace:         p.Namespace,
		Labels:            kubernetes.MergeLabels(p.labels(fn), map[string]string{constants.LabelFnVisibility: string(fn.Visibility)}),
		PodSelector:       map[string]string{constants.LabelApp: p.objectName(fn)},
		Visibility:        fn.Visibility,
		Port:              constants.FunctionPort,
		IngressController: p.Ingress,
		AllowFrom:         fn.AllowFrom,
	})
}

// cronJob runs a scheduled function to completion. The invocation timeout
// bounds the job.
func (p *projectGen) cronJob(fn function.Function, schedule function.ScheduleTrigger) (*batchv1.CronJob, error) {
	resources, err := p.resources(fn)
	if err != nil {
		return nil, err
	}
	volumes, mounts := p.secretVolumes(fn)

	job := batchv1.JobSpec{
		Template: corev1.PodTemplateSpec{
			ObjectMeta: metav1.ObjectMeta{Labels: p.labels(fn)},
			Spec: corev1.PodSpec{
				RestartPolicy:    corev1.RestartPolicyOnFailure,
				ImagePullSecrets: kubernetes.ImagePullSecrets(p.image),
				Containers: []corev1.Container{{
					Name:         containerName,
					Image:        p.image,
					Env:          p.env(fn, corev1.EnvVar{Name: "K3SFN_TRIGGER", Value: string(function.TriggerSchedule)}),
					Resources:    resources,
					VolumeMounts: mounts,
				}},
				Volumes: volumes,
			},
		},
	}
	if fn.Timeout > 0 {
		job.ActiveDeadlineSeconds = ptr.To(int64(fn.Timeout))
	}

	return &batchv1.CronJob{
		TypeMeta: metav1.TypeMeta{APIVersion: "batch/v1", Kind: "CronJob"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.objectName(fn),
			Namespace: p.Namespace,
			Labels:    kubernetes.MergeLabels(p.labels(fn), map[string]string{constants.LabelTrigger: string(function.TriggerSchedule)}, fn.Labels),
		},
		Spec: batchv1.CronJobSpec{
			Schedule:    schedule.Cron,
			TimeZone:    ptr.To(schedule.Timezone),
			JobTemplate: batchv1.JobTemplateSpec{Spec: job},
		},
	}, nil
}
