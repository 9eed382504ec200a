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
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/consul/api"
)

// Source loads raw configuration values.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// fileSource loads a file, or fixed content when path is empty.
type fileSource struct {
	path    string
	data    []byte
	decoder Decoder
}

func (f *fileSource) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		if data, err = os.ReadFile(f.path); err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	var conf map[string]any
	if err := f.decoder.Decode(data, &conf); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}

	return conf, nil
}

// envSource loads the process environment variables that start with prefix.
// The prefix is stripped before decoding, so with prefix "APP_" the variable
// APP_REQUESTLOGGING_MESSAGETEMPLATE becomes requestlogging.messagetemplate.
type envSource struct {
	prefix string
}

func (e *envSource) Load(context.Context) (map[string]any, error) {
	var lines []string
	for _, env := range os.Environ() {
		if rest, ok := strings.CutPrefix(env, e.prefix); ok {
			lines = append(lines, rest)
		}
	}

	var conf map[string]any
	if err := decodeEnv([]byte(strings.Join(lines, "\n")), &conf); err != nil {
		return nil, fmt.Errorf("failed to decode environment variables: %w", err)
	}

	return conf, nil
}

// ConsulKV is the subset of the Consul key-value API the consul source uses.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// consulSource loads one key of Consul's key-value store.
type consulSource struct {
	kv      ConsulKV
	path    string
	decoder Decoder
}

// newConsulClientKV creates a KV client configured from the standard
// CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN environment variables.
func newConsulClientKV() (ConsulKV, error) {
	client, err := api.NewClient(api.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return client.KV(), nil
}

// Load returns an empty map when the key does not exist.
func (c *consulSource) Load(ctx context.Context) (map[string]any, error) {
	pair, _, err := c.kv.Get(c.path, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key: %w", err)
	}
	if pair == nil {
		return make(map[string]any), nil
	}

	var conf map[string]any
	if err = c.decoder.Decode(pair.Value, &conf); err != nil {
		return nil, fmt.Errorf("failed to decode consul value: %w", err)
	}

	return conf, nil
}
