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
	"errors"
	"fmt"
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Instantiator creates fresh instances of one struct type. NewInstance
// returns a *T.
type Instantiator interface {
	NewInstance() (reflect.Value, error)
}

// InstantiatorStrategy picks the Instantiator for a type.
type InstantiatorStrategy interface {
	InstantiatorFor(accessors *AccessorCache, t reflect.Type) (Instantiator, error)
}

type bypassInstantiator struct {
	typ reflect.Type
}

func (i *bypassInstantiator) NewInstance() (reflect.Value, error) {
	return reflect.New(i.typ), nil
}

type constructorInstantiator struct {
	ctor *ConstructorHandle
}

func (i *constructorInstantiator) NewInstance() (v reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newError("instantiate", typeName(i.ctor.declaring), fmt.Errorf("%w: constructor panicked: %v", ErrNoInstantiator, p))
		}
	}()
	v = i.ctor.Call()
	if v.IsNil() {
		return v, newError("instantiate", typeName(i.ctor.declaring), fmt.Errorf("%w: constructor returned nil", ErrNoInstantiator))
	}
	return v, nil
}

func instantiable(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Struct {
		return newError("instantiate", typeName(t), ErrNoInstantiator)
	}
	return nil
}

// ConstructorStrategy instantiates through the zero-argument constructor
// registered in the TypeLoader.
type ConstructorStrategy struct{}

func (s *ConstructorStrategy) InstantiatorFor(accessors *AccessorCache, t reflect.Type) (Instantiator, error) {
	if err := instantiable(t); err != nil {
		return nil, err
	}
	ctor, err := accessors.Constructor(t, nil)
	if err != nil {
		return nil, newError("instantiate", typeName(t), fmt.Errorf("%w: %w", ErrNoInstantiator, err))
	}
	return &constructorInstantiator{ctor: ctor}, nil
}

// BypassStrategy allocates zero values without running any constructor.
type BypassStrategy struct{}

func (s *BypassStrategy) InstantiatorFor(_ *AccessorCache, t reflect.Type) (Instantiator, error) {
	if err := instantiable(t); err != nil {
		return nil, err
	}
	return &bypassInstantiator{typ: t}, nil
}

// DefaultStrategy uses a registered zero-argument constructor when there is
// one and Fallback (bypass when nil) otherwise.
type DefaultStrategy struct {
	Fallback InstantiatorStrategy
}

func (s *DefaultStrategy) InstantiatorFor(accessors *AccessorCache, t reflect.Type) (Instantiator, error) {
	if err := instantiable(t); err != nil {
		return nil, err
	}
	ctor, err := accessors.Constructor(t, nil)
	if err == nil {
		return &constructorInstantiator{ctor: ctor}, nil
	}
	if !errors.Is(err, ErrUnknownMember) {
		return nil, err
	}
	if s.Fallback != nil {
		return s.Fallback.InstantiatorFor(accessors, t)
	}
	return &bypassInstantiator{typ: t}, nil
}

const defaultInstantiatorCacheSize = 1024

// CachingStrategy memoizes the instantiators of a wrapped strategy per type.
// Obtain instances from a StrategyPool so that one cache exists per wrapped
// strategy kind.
type CachingStrategy struct {
	strategy      InstantiatorStrategy
	instantiators *lru.Cache[reflect.Type, Instantiator] `graph:",transient"`
}

func newCachingStrategy(s InstantiatorStrategy, size int) *CachingStrategy {
	cache, err := lru.New[reflect.Type, Instantiator](size)
	if err != nil {
		panic(err)
	}
	return &CachingStrategy{strategy: s, instantiators: cache}
}

// Wrapped returns the decorated strategy.
func (s *CachingStrategy) Wrapped() InstantiatorStrategy {
	return s.strategy
}

func (s *CachingStrategy) InstantiatorFor(accessors *AccessorCache, t reflect.Type) (Instantiator, error) {
	if inst, ok := s.instantiators.Get(t); ok {
		return inst, nil
	}
	inst, err := s.strategy.InstantiatorFor(accessors, t)
	if err != nil {
		return nil, err
	}
	s.instantiators.Add(t, inst)
	return inst, nil
}

// Len reports the number of cached instantiators.
func (s *CachingStrategy) Len() int {
	return s.instantiators.Len()
}

// StrategyPool hands out one CachingStrategy per wrapped strategy type.
type StrategyPool struct {
	mu     sync.Mutex
	size   int
	byKind map[reflect.Type]*CachingStrategy
}

// DefaultStrategyPool is shared by registries created without
// WithStrategyPool.
var DefaultStrategyPool = NewStrategyPool(defaultInstantiatorCacheSize)

func NewStrategyPool(cacheSize int) *StrategyPool {
	if cacheSize <= 0 {
		cacheSize = defaultInstantiatorCacheSize
	}
	return &StrategyPool{size: cacheSize, byKind: make(map[reflect.Type]*CachingStrategy)}
}

// Caching returns the pool's caching decorator for the kind of s, creating
// it around s on first use. A CachingStrategy is returned unchanged.
func (p *StrategyPool) Caching(s InstantiatorStrategy) *CachingStrategy {
	if cs, ok := s.(*CachingStrategy); ok {
		return cs
	}
	kind := reflect.TypeOf(s)
	p.mu.Lock()
	defer p.mu.Unlock()
	if cs, ok := p.byKind[kind]; ok {
		return cs
	}
	cs := newCachingStrategy(s, p.size)
	p.byKind[kind] = cs
	return cs
}

// strategyByName maps configuration names to strategies.
func strategyByName(name string) (InstantiatorStrategy, error) {
	switch name {
	case "", "default":
		return &DefaultStrategy{}, nil
	case "constructor":
		return &ConstructorStrategy{}, nil
	case "bypass":
		return &BypassStrategy{}, nil
	}
	return nil, fmt.Errorf("graphcodec: unknown instantiator strategy %q", name)
}
