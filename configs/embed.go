// Package configs embeds the configuration templates written by
// `mdindex config init`.
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (internal/config NewConfig)
//  2. User config (~/.config/mdindex/config.yaml)
//  3. Project config (.mdindex.yaml)
//  4. Environment variables (MDINDEX_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-level settings.
// Created by `mdindex config init --user`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for a workspace's .mdindex.yaml.
// Created by `mdindex config init`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
