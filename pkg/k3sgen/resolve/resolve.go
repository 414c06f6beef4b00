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

package resolve

import (
	"context"

	"github.com/k3stack/k3sgen/pkg/k3sgen/schema/latest"
)

// EffectiveApp is an app with the override of one environment applied.
type EffectiveApp struct {
	latest.AppConfig

	// Env the app was resolved for.
	Env latest.Environment

	// Replicas replaces the replica count derived from scaling when set.
	Replicas *int32

	PodDisruptionBudget *latest.PodDisruptionBudget
	IngressAnnotations  map[string]string
}

// App returns the effective configuration of app in env. The result never
// shares an override block with app.
func App(ctx context.Context, app *latest.AppConfig, env latest.Environment) EffectiveApp {
	effective := EffectiveApp{AppConfig: *app, Env: env}
	effective.Local, effective.Dev, effective.GCP = nil, nil, nil

	override := app.Override(env)
	if override == nil {
		return effective
	}
	effective.Enabled = latest.IsEnabled(app.Enabled, override.Enabled)
	overlay(ctx, &effective, override)
	return effective
}

// EffectiveCompose is a compose project with the override of one environment applied.
type EffectiveCompose struct {
	latest.ComposeConfig

	Env latest.Environment

	// Replicas replaces the replica count of every service when set.
	Replicas *int32

	// Resources are merged over the resources of every service.
	Resources *latest.ComposeResources

	// Environment is merged over the environment of every service.
	Environment map[string]string

	IngressPath string
}

// Compose returns the effective configuration of project in env.
func Compose(ctx context.Context, project *latest.ComposeConfig, env latest.Environment) EffectiveCompose {
	effective := EffectiveCompose{ComposeConfig: *project, Env: env}
	effective.Local, effective.Dev, effective.GCP = nil, nil, nil

	override := project.Override(env)
	if override == nil {
		return effective
	}
	effective.Enabled = latest.IsEnabled(project.Enabled, override.Enabled)
	overlay(ctx, &effective, override)
	return effective
}

// EffectiveServerless is a serverless project with the override of one
// environment and the global defaults applied.
type EffectiveServerless struct {
	latest.ServerlessConfig

	Env latest.Environment

	// Registry is the registry prefix of the project image, possibly empty.
	Registry string

	// Ingress is the ingress controller: traefik or haproxy.
	Ingress string

	// Host restricts the public routes to one host name when not empty.
	Host string
}

// Serverless returns the effective configuration of project in env, falling
// back to the registry, ingress controller and namespace defaults of cfg.
func Serverless(ctx context.Context, cfg *latest.Config, project *latest.ServerlessConfig, env latest.Environment) EffectiveServerless {
	effective := EffectiveServerless{
		ServerlessConfig: *project,
		Env:              env,
		Registry:         cfg.RegistryURL(env),
		Ingress:          cfg.IngressType(env),
	}
	effective.Local, effective.Dev, effective.GCP = nil, nil, nil

	if override := project.Override(env); override != nil {
		effective.Enabled = latest.IsEnabled(project.Enabled, override.Enabled)
		overlay(ctx, &effective, override)
	}
	effective.Namespace = cfg.Namespace(effective.Namespace)
	return effective
}
