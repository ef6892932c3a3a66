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
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultAccessorCacheSize = 4096

// FieldHandle identifies a struct field by declaring type and name. The
// StructField is re-derived from the pair whenever a handle is decoded.
type FieldHandle struct {
	declaring reflect.Type
	name      string
	field     reflect.StructField `graph:"-"`
}

func (h *FieldHandle) DeclaringType() reflect.Type { return h.declaring }
func (h *FieldHandle) Name() string                { return h.name }
func (h *FieldHandle) StructField() reflect.StructField {
	return h.field
}

func (h *FieldHandle) String() string {
	return typeName(h.declaring) + "." + h.name
}

// ConstructorHandle identifies a constructor registered with a TypeLoader
// by declaring type and parameter types.
type ConstructorHandle struct {
	declaring reflect.Type
	params    []reflect.Type
	fn        reflect.Value `graph:"-"`
}

func (h *ConstructorHandle) DeclaringType() reflect.Type { return h.declaring }
func (h *ConstructorHandle) Params() []reflect.Type      { return h.params }

// Call invokes the constructor and returns the *T it produced.
func (h *ConstructorHandle) Call(args ...reflect.Value) reflect.Value {
	return h.fn.Call(args)[0]
}

func (h *ConstructorHandle) String() string {
	return typeName(h.declaring) + typeListName(h.params)
}

type accessorKey struct {
	declaring reflect.Type
	member    string
}

// AccessorCache resolves and memoizes field and constructor handles. Entries
// are kept in a bounded LRU so that a long-lived process does not pin every
// type it has ever reflected on. Safe for concurrent use.
type AccessorCache struct {
	loader *TypeLoader
	cache  *lru.Cache[accessorKey, any]
}

func NewAccessorCache(loader *TypeLoader, size int) *AccessorCache {
	if size <= 0 {
		size = defaultAccessorCacheSize
	}
	cache, err := lru.New[accessorKey, any](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &AccessorCache{loader: loader, cache: cache}
}

// Field returns the handle of the field called name declared directly on
// struct type declaring (or on the struct a pointer type points to).
func (a *AccessorCache) Field(declaring reflect.Type, name string) (*FieldHandle, error) {
	if declaring == nil {
		return nil, memberError("lookup", "<nil>", name, ErrUnknownType)
	}
	if declaring.Kind() == reflect.Ptr {
		declaring = declaring.Elem()
	}
	key := accessorKey{declaring: declaring, member: name}
	if h, ok := a.cache.Get(key); ok {
		return h.(*FieldHandle), nil
	}
	if declaring.Kind() != reflect.Struct {
		return nil, memberError("lookup", typeName(declaring), name,
			fmt.Errorf("%w: not a struct", ErrUnknownMember))
	}
	for i := 0; i < declaring.NumField(); i++ {
		sf := declaring.Field(i)
		if sf.Name == name {
			h := &FieldHandle{declaring: declaring, name: name, field: sf}
			a.cache.Add(key, h)
			return h, nil
		}
	}
	return nil, memberError("lookup", typeName(declaring), name, ErrUnknownMember)
}

// Constructor returns the handle of the constructor of declaring taking
// params. A nil params slice selects the zero-argument constructor.
func (a *AccessorCache) Constructor(declaring reflect.Type, params []reflect.Type) (*ConstructorHandle, error) {
	if declaring == nil {
		return nil, memberError("lookup", "<nil>", typeListName(params), ErrUnknownType)
	}
	if declaring.Kind() == reflect.Ptr {
		declaring = declaring.Elem()
	}
	member := typeListName(params)
	key := accessorKey{declaring: declaring, member: member}
	if h, ok := a.cache.Get(key); ok {
		return h.(*ConstructorHandle), nil
	}
	fn, ok := a.loader.constructor(declaring, params)
	if !ok {
		return nil, memberError("lookup", typeName(declaring), member, ErrUnknownMember)
	}
	h := &ConstructorHandle{declaring: declaring, params: append([]reflect.Type(nil), params...), fn: fn}
	a.cache.Add(key, h)
	return h, nil
}

// Len reports the number of cached handles.
func (a *AccessorCache) Len() int {
	return a.cache.Len()
}
