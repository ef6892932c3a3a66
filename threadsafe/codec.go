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

// Package threadsafe provides a thread-safe wrapper around graphcodec
// registries using sync.Pool.
package threadsafe

import (
	"sync"

	"github.com/chaokunyang/graphcodec"
)

// Codec serves concurrent callers from a pool of registries. Each pooled
// registry is either built from options or copied from a template
// registry through a meta registry.
type Codec struct {
	pool sync.Pool

	mu       sync.Mutex
	template *graphcodec.Registry
	meta     *graphcodec.Registry
}

// New returns a Codec whose pooled registries are copies of template made
// by meta. template must not be modified while the Codec is in use.
func New(template, meta *graphcodec.Registry) (*Codec, error) {
	c := &Codec{template: template, meta: meta}
	first, err := c.clone()
	if err != nil {
		return nil, err
	}
	c.pool.New = func() any {
		r, err := c.clone()
		if err != nil {
			return err
		}
		return r
	}
	c.pool.Put(first)
	return c, nil
}

// NewWithOptions returns a Codec whose pooled registries are created with
// graphcodec.New(opts...).
func NewWithOptions(opts ...graphcodec.Option) *Codec {
	c := &Codec{}
	c.pool.New = func() any {
		return graphcodec.New(opts...)
	}
	return c
}

func (c *Codec) clone() (*graphcodec.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return graphcodec.CopyOf(c.meta, c.template)
}

func (c *Codec) acquire() (*graphcodec.Registry, error) {
	switch v := c.pool.Get().(type) {
	case *graphcodec.Registry:
		return v, nil
	case error:
		return nil, v
	}
	panic("threadsafe: unexpected pool entry")
}

func (c *Codec) release(inner *graphcodec.Registry) {
	inner.Reset()
	c.pool.Put(inner)
}

// ============================================================================
// Non-generic methods
// ============================================================================

// Encode serializes a value using a pooled registry.
func (c *Codec) Encode(v any) ([]byte, error) {
	inner, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer c.release(inner)
	return inner.Encode(v)
}

// Decode deserializes data using a pooled registry.
func (c *Codec) Decode(data []byte) (any, error) {
	inner, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer c.release(inner)
	return inner.Decode(data)
}

// Copy deep copies v using a pooled registry.
func (c *Codec) Copy(v any) (any, error) {
	inner, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer c.release(inner)
	return inner.Copy(v)
}

// ============================================================================
// Generic package-level functions
// ============================================================================

// Marshal serializes a value with type T inferred, thread-safe.
func Marshal[T any](c *Codec, value T) ([]byte, error) {
	inner, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer c.release(inner)
	return graphcodec.Marshal(inner, value)
}

// Unmarshal deserializes data to type T, thread-safe.
func Unmarshal[T any](c *Codec, data []byte) (T, error) {
	inner, err := c.acquire()
	if err != nil {
		var zero T
		return zero, err
	}
	defer c.release(inner)
	return graphcodec.Unmarshal[T](inner, data)
}

// CopyOf deep copies value, thread-safe.
func CopyOf[T any](c *Codec, value T) (T, error) {
	inner, err := c.acquire()
	if err != nil {
		var zero T
		return zero, err
	}
	defer c.release(inner)
	return graphcodec.CopyOf(inner, value)
}
