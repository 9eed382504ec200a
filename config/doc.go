// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads request logging settings from files, environment
// variables and Consul, and binds them into [requestlog.Settings].
//
// Sources are read in the order they are given and merged with later
// sources taking precedence. Keys are case-insensitive and nested keys are
// addressed with ':' or '.'.
//
// # Basic Usage
//
//	cfg := config.MustNew(
//		config.WithFile("appsettings.yaml"),
//		config.WithEnv("APP_"),
//		config.WithConsul("${APP_ENV}/requestlogging.json"),
//	)
//	if err := cfg.Load(ctx); err != nil {
//		return err
//	}
//
//	settings, err := cfg.RequestLogging(config.DefaultSection)
//	if err != nil {
//		return err
//	}
//	rl, err := requestlog.New(requestlog.WithSettings(settings))
//
// A YAML file for the default section looks like
//
//	RequestLogging:
//	  MessageTemplate: "{Method} {Path}{QueryString} responded {StatusCode} in {ElapsedMs} ms."
//	  IgnorePaths:
//	    - /health
//	    - /static/*
//
// and the same settings from the environment are
//
//	APP_REQUESTLOGGING_MESSAGETEMPLATE="{Method} {Path} => {StatusCode}"
//	APP_REQUESTLOGGING_IGNOREPATHS=/health,/static/*
package config
