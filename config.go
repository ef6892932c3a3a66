// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package graphcodec

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds configuration options for Registry instances.
type Config struct {
	// References enables reference tracking for pointers and maps. Without
	// it shared objects are written once per occurrence and cycles fail
	// with ErrMaxDepth.
	References bool `yaml:"references"`
	MaxDepth   int  `yaml:"max_depth"`
	// VarInts selects zig-zag varints for integers not tagged fixed.
	VarInts bool `yaml:"var_ints"`
	// StructHash prefixes every struct with a murmur3 hash of its layout.
	StructHash bool `yaml:"struct_hash"`
	// Strategy names the instantiator strategy: default, constructor or
	// bypass.
	Strategy          string `yaml:"strategy"`
	AccessorCacheSize int    `yaml:"accessor_cache_size"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		References:        true,
		MaxDepth:          100,
		VarInts:           true,
		Strategy:          "default",
		AccessorCacheSize: defaultAccessorCacheSize,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("graphcodec: max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.AccessorCacheSize < 0 {
		return fmt.Errorf("graphcodec: accessor_cache_size must not be negative, got %d", c.AccessorCacheSize)
	}
	_, err := strategyByName(c.Strategy)
	return err
}

// LoadConfig reads a YAML configuration. Keys that are absent keep their
// default values.
func LoadConfig(rd io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("graphcodec: parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Option is a function that configures a Registry.
type Option func(*Registry)

// WithReferences sets reference tracking mode.
func WithReferences(enabled bool) Option {
	return func(r *Registry) {
		r.config.References = enabled
	}
}

// WithMaxDepth sets the maximum traversal depth.
func WithMaxDepth(depth int) Option {
	return func(r *Registry) {
		r.config.MaxDepth = depth
	}
}

// WithVarInts toggles compact integer encoding.
func WithVarInts(enabled bool) Option {
	return func(r *Registry) {
		r.config.VarInts = enabled
	}
}

// WithStructHash toggles the struct layout fingerprint.
func WithStructHash(enabled bool) Option {
	return func(r *Registry) {
		r.config.StructHash = enabled
	}
}

// WithStrategy sets the instantiator strategy. It is wrapped in the
// registry's StrategyPool caching decorator.
func WithStrategy(s InstantiatorStrategy) Option {
	return func(r *Registry) {
		r.strategy = s
	}
}

// WithStrategyPool replaces DefaultStrategyPool.
func WithStrategyPool(p *StrategyPool) Option {
	return func(r *Registry) {
		r.pool = p
	}
}

// WithTypeLoader replaces DefaultTypeLoader.
func WithTypeLoader(l *TypeLoader) Option {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithAccessorCacheSize bounds the accessor cache.
func WithAccessorCacheSize(size int) Option {
	return func(r *Registry) {
		r.config.AccessorCacheSize = size
	}
}

// WithConfig replaces the whole configuration, typically one returned by
// LoadConfig. Options given after it still apply.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.config = cfg
	}
}
