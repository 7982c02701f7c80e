// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/imgui-tools/implicit-ctx/internal/errors"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

const (
	defaultConfigDir  = ".imguictx"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// ProjectConfig represents .imguictx/project.yaml: the policy knobs layered
// on top of the standard Dear ImGui file layout that model.NewConfig
// assumes.
type ProjectConfig struct {
	Version             string   `yaml:"version"`
	RootFolder          string   `yaml:"root_folder"`
	Blacklist           []string `yaml:"blacklist,omitempty"`
	ClassesWithContext  []string `yaml:"classes_with_context,omitempty"`
	SpecialTemplateFunc []string `yaml:"special_template_func,omitempty"`
}

// DefaultProjectConfig returns a ProjectConfig rooted at root with no
// project-specific overrides; model.NewConfig already supplies the standard
// blacklist.
func DefaultProjectConfig(root string) *ProjectConfig {
	return &ProjectConfig{
		Version:    configVersion,
		RootFolder: root,
	}
}

// LoadProjectConfig loads configuration from configPath, or discovers
// .imguictx/project.yaml starting from the current directory when
// configPath is empty.
func LoadProjectConfig(configPath string) (*ProjectConfig, error) {
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // path comes from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors", configPath),
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version %q is not supported (expected %q)", cfg.Version, configVersion),
			"Regenerate the configuration file for this version of imguictx",
			nil,
		)
	}

	if cfg.RootFolder == "" {
		cfg.RootFolder = filepath.Dir(filepath.Dir(configPath))
	}

	return &cfg, nil
}

// SaveProjectConfig writes cfg to configPath as YAML, creating the parent
// directory if needed.
func SaveProjectConfig(cfg *ProjectConfig, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}

	return nil
}

func findConfigFile() (string, error) {
	if p := os.Getenv("IMGUICTX_CONFIG_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", errors.NewConfigError(
			"Configuration file not found",
			fmt.Sprintf("IMGUICTX_CONFIG_PATH is set to %q but the file does not exist", p),
			"Fix the IMGUICTX_CONFIG_PATH environment variable or unset it",
			nil,
		)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}

	for {
		candidate := filepath.Join(dir, defaultConfigDir, defaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NewConfigError(
		"Configuration file not found",
		fmt.Sprintf("No %s found in the current directory or any parent", filepath.Join(defaultConfigDir, defaultConfigFile)),
		"Create .imguictx/project.yaml, or pass --config explicitly",
		nil,
	)
}

// ConfigPath returns the path to the config file under dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// loadOrDefaultProjectConfig loads the project config at configPath (or
// discovered from cwd when empty); when none is found it falls back to
// DefaultProjectConfig(root) rather than failing, so convert works against a
// bare Dear ImGui checkout with no .imguictx directory.
func loadOrDefaultProjectConfig(configPath, root string) (*ProjectConfig, error) {
	if configPath == "" {
		if _, err := findConfigFile(); err != nil {
			return DefaultProjectConfig(root), nil
		}
	}
	return LoadProjectConfig(configPath)
}

// buildModelConfig turns a ProjectConfig into the model.Config the
// discovery, call-graph and planner passes operate on, layering the
// project's policy overrides on top of the standard Dear ImGui file layout.
// fullRepo tracks imgui_demo.cpp as part of the translation unit; by default
// it is left untouched.
func buildModelConfig(projectCfg *ProjectConfig, root string, fullRepo bool) *model.Config {
	cfg := model.NewConfig(root)
	if projectCfg.RootFolder != "" {
		cfg = model.NewConfig(projectCfg.RootFolder)
	}
	cfg.IncludeDemo = fullRepo
	cfg.Blacklist = append(cfg.Blacklist, projectCfg.Blacklist...)
	cfg.ClassesWithContext = append(cfg.ClassesWithContext, projectCfg.ClassesWithContext...)
	cfg.SpecialTemplateFunc = append(cfg.SpecialTemplateFunc, projectCfg.SpecialTemplateFunc...)
	return cfg
}
