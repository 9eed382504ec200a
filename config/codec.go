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
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Format identifies how a source encodes its content.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatEnv  Format = "env"
)

// ErrUnknownFormat is returned for a format without a decoder.
var ErrUnknownFormat = errors.New("unknown format")

// Decoder converts encoded content into a configuration map.
// Implementations must be safe for concurrent use.
type Decoder interface {
	Decode(data []byte, v *map[string]any) error
}

// DecoderFunc adapts a function to [Decoder].
type DecoderFunc func(data []byte, v *map[string]any) error

// Decode calls f(data, v).
func (f DecoderFunc) Decode(data []byte, v *map[string]any) error {
	return f(data, v)
}

var decoders = map[Format]Decoder{
	FormatJSON: DecoderFunc(func(data []byte, v *map[string]any) error {
		return json.Unmarshal(data, v)
	}),
	FormatYAML: DecoderFunc(func(data []byte, v *map[string]any) error {
		return yaml.Unmarshal(data, v)
	}),
	FormatTOML: DecoderFunc(func(data []byte, v *map[string]any) error {
		return toml.Unmarshal(data, v)
	}),
	FormatEnv: DecoderFunc(decodeEnv),
}

// decoderFor returns the decoder registered for f.
func decoderFor(f Format) (Decoder, error) {
	d, ok := decoders[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	return d, nil
}

// detectFormat derives the format from a file extension.
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".env":
		return FormatEnv, nil
	default:
		return "", fmt.Errorf("%w: cannot detect format of %q", ErrUnknownFormat, path)
	}
}

// decodeEnv reads KEY=VALUE lines. Keys are lowercased and every run of
// underscores starts a nested level, so REQUESTLOGGING_IGNOREPATHS and
// REQUESTLOGGING__IGNOREPATHS both become requestlogging.ignorepaths.
func decodeEnv(data []byte, v *map[string]any) error {
	conf := make(map[string]any)

	for _, line := range bytes.Split(data, []byte("\n")) {
		key, value, ok := strings.Cut(string(line), "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}

		parts := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool { return r == '_' })
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				// A scalar on the way down is replaced by a nested level.
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = strings.TrimRight(value, "\r")
	}

	*v = conf

	return nil
}
