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
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// Option is a functional option that configures a [Config].
type Option func(c *Config) error

// Config holds configuration merged from several sources. Keys are case
// insensitive; later sources override earlier ones.
//
// Config is safe for concurrent use by multiple goroutines.
type Config struct {
	mu      sync.RWMutex
	values  map[string]any
	sources []Source
}

// WithSource adds a custom source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, src)

		return nil
	}
}

// WithFile loads a file whose format is detected from its extension
// (.json, .yaml, .yml, .toml, .env). Environment variables in the path are
// expanded.
//
// Example:
//
//	cfg := config.MustNew(
//		config.WithFile("appsettings.yaml"),
//		config.WithFile("appsettings.${APP_ENV}.yaml"),
//	)
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)

		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}

		return WithFileAs(path, format)(c)
	}
}

// WithFileAs loads a file with an explicit format.
func WithFileAs(path string, format Format) Option {
	return func(c *Config) error {
		decoder, err := decoderFor(format)
		if err != nil {
			return NewError("file-source", "get-decoder", err)
		}
		c.sources = append(c.sources, &fileSource{path: os.ExpandEnv(path), decoder: decoder})

		return nil
	}
}

// WithContent loads configuration from a byte slice.
//
// Example:
//
//	cfg := config.MustNew(
//		config.WithContent([]byte(`{"RequestLogging":{"IgnorePaths":["/health"]}}`), config.FormatJSON),
//	)
func WithContent(data []byte, format Format) Option {
	return func(c *Config) error {
		decoder, err := decoderFor(format)
		if err != nil {
			return NewError("content-source", "get-decoder", err)
		}
		c.sources = append(c.sources, &fileSource{data: data, decoder: decoder})

		return nil
	}
}

// WithEnv loads environment variables starting with prefix. Underscores in
// the remaining name separate nesting levels.
//
// Example:
//
//	// APP_REQUESTLOGGING_IGNOREPATHS=/health,/ready
//	cfg := config.MustNew(config.WithEnv("APP_"))
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, &envSource{prefix: prefix})

		return nil
	}
}

// WithConsul loads one key from Consul's key-value store; the format is
// detected from the key's extension.
//
// If CONSUL_HTTP_ADDR is not set, this option is silently skipped, so
// development works without Consul.
func WithConsul(path string) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}

		kv, err := newConsulClientKV()
		if err != nil {
			return NewError("consul-source", "create-client", err)
		}

		return WithConsulKV(path, kv)(c)
	}
}

// WithConsulKV loads one key through the given Consul KV client.
func WithConsulKV(path string, kv ConsulKV) Option {
	return func(c *Config) error {
		if kv == nil {
			return NewError("consul-source", "create-client", errors.New("consul kv cannot be nil"))
		}

		path = os.ExpandEnv(path)

		format, err := detectFormat(path)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}

		decoder, err := decoderFor(format)
		if err != nil {
			return NewError("consul-source", "get-decoder", err)
		}
		c.sources = append(c.sources, &consulSource{kv: kv, path: path, decoder: decoder})

		return nil
	}
}

// New creates a [Config]. Option errors are joined and returned together.
func New(opts ...Option) (*Config, error) {
	c := &Config{values: map[string]any{}}

	var errs error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	return c, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}

	return c
}

// Load reads every source in order and replaces the current values with
// the merged result. On error the current values are kept.
func (c *Config) Load(ctx context.Context) error {
	values := make(map[string]any)

	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		conf, err := src.Load(ctx)
		if err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}

		if err = mergo.Map(&values, normalizeMapKeys(conf), mergo.WithOverride); err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	c.mu.Lock()
	c.values = values
	c.mu.Unlock()

	return nil
}

// MustLoad is like [Config.Load] but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

// normalizeMapKeys recursively lowercases map keys.
func normalizeMapKeys(m map[string]any) map[string]any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeMapKeys(nested)
		}
		normalized[strings.ToLower(k)] = v
	}

	return normalized
}

// splitPath splits a key on ':' or '.'.
func splitPath(key string) []string {
	return strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == ':' || r == '.'
	})
}

// Get returns the value at key, or nil. Nested keys are separated by ':'
// or '.', so "CustomSection:CustomRequestLogging" and
// "customsection.customrequestlogging" address the same value.
func (c *Config) Get(key string) any {
	if c == nil {
		return nil
	}

	segments := splitPath(key)
	if len(segments) == 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var current any = c.values
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[seg]; !ok {
			return nil
		}
	}

	return current
}

// Has reports whether key is present, even with a null value.
func (c *Config) Has(key string) bool {
	if c == nil {
		return false
	}

	segments := splitPath(key)
	if len(segments) == 0 {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	current := c.values
	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return false
		}
		if i == len(segments)-1 {
			return true
		}
		if current, ok = v.(map[string]any); !ok {
			return false
		}
	}

	return false
}

// String returns the value at key converted to a string.
func (c *Config) String(key string) string {
	return cast.ToString(c.Get(key))
}

// StringOr returns the value at key as a string, or defaultVal when absent.
func (c *Config) StringOr(key, defaultVal string) string {
	v := c.Get(key)
	if v == nil {
		return defaultVal
	}

	return cast.ToString(v)
}

// StringSlice returns the value at key converted to a string slice. A single
// string is split on commas.
func (c *Config) StringSlice(key string) []string {
	v := c.Get(key)
	if s, ok := v.(string); ok {
		return splitList(s)
	}

	return cast.ToStringSlice(v)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, ",")
}

// Section binds the section at name into out, a pointer to a struct whose
// fields carry `config` tags. A missing section leaves out untouched.
// Values are weakly typed: "8080" binds to an int and "a,b" to a []string.
func (c *Config) Section(name string, out any) error {
	v := c.Get(name)
	if v == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return NewSectionError("binding", name, "bind", err)
	}

	if err = decoder.Decode(v); err != nil {
		return NewSectionError("binding", name, "bind", err)
	}

	return nil
}
