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
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/k3stack/k3sgen/pkg/k3sgen/output/log"
	sErrors "github.com/k3stack/k3sgen/pkg/k3sgen/schema/errors"
	"github.com/k3stack/k3sgen/pkg/k3sgen/util"
	yamlutil "github.com/k3stack/k3sgen/pkg/k3sgen/yaml"
)

// FallbackFiles are tried, in order, when the configured compose file does
// not exist.
var FallbackFiles = []string{"docker-compose.yml", "compose.yaml", "compose.yml"}

// Load reads the compose file named file in dir and parses it as project name.
func Load(ctx context.Context, name, dir, file string) (*Project, error) {
	buf, usedPath, err := util.ReadConfiguration(filepath.Join(dir, file), FallbackFiles...)
	if err != nil {
		return nil, sErrors.ConfigFileNotFoundErr(filepath.Join(dir, file), err)
	}
	log.Entry(ctx).Debugf("Parsing compose file %q", usedPath)

	project, err := Parse(name, dir, buf)
	if err != nil {
		return nil, sErrors.ComposeParsingErr(usedPath, err)
	}
	return project, nil
}

// Parse decodes the content of a compose file.
func Parse(name, dir string, buf []byte) (*Project, error) {
	var project Project
	if err := yamlutil.Unmarshal(buf, &project); err != nil {
		return nil, err
	}
	project.Name, project.Path = name, dir
	return &project, nil
}

// ReadEnvFiles reads the env files of a service, relative to the project
// directory. Later files win.
func ReadEnvFiles(project *Project, svc *Service) (map[string]string, error) {
	if len(svc.EnvFile) == 0 {
		return nil, nil
	}
	env := map[string]string{}
	for _, file := range svc.EnvFile {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(project.Path, file)
		}
		buf, err := util.ReadFile(path)
		if err != nil {
			return nil, err
		}
		values, err := godotenv.Unmarshal(string(buf))
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			env[k] = v
		}
	}
	return env, nil
}
