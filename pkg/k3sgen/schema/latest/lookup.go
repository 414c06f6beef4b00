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
	sErrors "github.com/k3stack/k3sgen/pkg/k3sgen/schema/errors"
)

// IsEnabled reports whether an entry is enabled in one environment: the global
// flag must be set and the override must not set enabled to false.
func IsEnabled(global bool, override *bool) bool {
	if !global {
		return false
	}
	return override == nil || *override
}

// App returns the app named name.
func (c *Config) App(name string) (*AppConfig, error) {
	var names []string
	for i := range c.Apps {
		if c.Apps[i].Name == name {
			return &c.Apps[i], nil
		}
		names = append(names, c.Apps[i].Name)
	}
	return nil, sErrors.EntryNotFoundErr("app", name, names)
}

// ComposeProject returns the compose project named name.
func (c *Config) ComposeProject(name string) (*ComposeConfig, error) {
	var names []string
	for i := range c.Compose {
		if c.Compose[i].Name == name {
			return &c.Compose[i], nil
		}
		names = append(names, c.Compose[i].Name)
	}
	return nil, sErrors.EntryNotFoundErr("compose project", name, names)
}

// ServerlessProject returns the serverless project named name.
func (c *Config) ServerlessProject(name string) (*ServerlessConfig, error) {
	var names []string
	for i := range c.Serverless {
		if c.Serverless[i].Name == name {
			return &c.Serverless[i], nil
		}
		names = append(names, c.Serverless[i].Name)
	}
	return nil, sErrors.EntryNotFoundErr("serverless project", name, names)
}

// EnabledApps returns the apps enabled in env, in file order.
func (c *Config) EnabledApps(env Environment) []*AppConfig {
	var apps []*AppConfig
	for i := range c.Apps {
		app := &c.Apps[i]
		var override *bool
		if o := app.Override(env); o != nil {
			override = o.Enabled
		}
		if IsEnabled(app.Enabled, override) {
			apps = append(apps, app)
		}
	}
	return apps
}

// EnabledComposeProjects returns the compose projects enabled in env, in file order.
func (c *Config) EnabledComposeProjects(env Environment) []*ComposeConfig {
	var projects []*ComposeConfig
	for i := range c.Compose {
		project := &c.Compose[i]
		var override *bool
		if o := project.Override(env); o != nil {
			override = o.Enabled
		}
		if IsEnabled(project.Enabled, override) {
			projects = append(projects, project)
		}
	}
	return projects
}

// EnabledServerless returns the serverless projects enabled in env, in file order.
func (c *Config) EnabledServerless(env Environment) []*ServerlessConfig {
	var projects []*ServerlessConfig
	for i := range c.Serverless {
		project := &c.Serverless[i]
		var override *bool
		if o := project.Override(env); o != nil {
			override = o.Enabled
		}
		if IsEnabled(project.Enabled, override) {
			projects = append(projects, project)
		}
	}
	return projects
}
