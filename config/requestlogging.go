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

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/requestlog"
)

// DefaultSection is the section that request logging settings are read from.
const DefaultSection = "RequestLogging"

//go:embed requestlogging.schema.json
var requestLoggingSchema []byte

const requestLoggingSchemaURL = "requestlogging.schema.json"

var compileRequestLoggingSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(requestLoggingSchema))
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource(requestLoggingSchemaURL, doc); err != nil {
		return nil, err
	}

	return compiler.Compile(requestLoggingSchemaURL)
})

// RequestLogging validates the section at name and binds it into
// [requestlog.Settings]. An empty name selects [DefaultSection]; nested
// sections are addressed with ':' or '.', e.g.
// "CustomSection:CustomRequestLogging".
//
// A missing section yields zero settings, so every default applies. The
// returned settings still go through [requestlog.New] for semantic checks.
//
// Example:
//
//	settings, err := cfg.RequestLogging("")
//	if err != nil {
//		return err
//	}
//	rl, err := requestlog.New(requestlog.WithSettings(settings), requestlog.WithLogger(logger))
func (c *Config) RequestLogging(name string) (requestlog.Settings, error) {
	if name == "" {
		name = DefaultSection
	}

	var settings requestlog.Settings

	v := c.Get(name)
	if v == nil {
		return settings, nil
	}

	if err := validateRequestLogging(v); err != nil {
		return settings, NewSectionError("json-schema", name, "validate", err)
	}

	if err := c.Section(name, &settings); err != nil {
		return settings, err
	}

	return settings, nil
}

// validateRequestLogging checks v against the embedded schema. v is first
// normalized to plain JSON values, since decoders produce integer and typed
// slice values that the schema validator does not accept.
func validateRequestLogging(v any) error {
	schema, err := compileRequestLoggingSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	return schema.Validate(inst)
}
