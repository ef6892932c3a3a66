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
	"reflect"
)

// Serializer is the unified interface for all serialization. The registry
// handles reference and presence markers; a Serializer only writes, reads
// and copies the value itself.
type Serializer interface {
	// Write writes value, which is never an interface value.
	Write(r *Registry, out Writer, value reflect.Value) error

	// Read reads a value of type t. Serializers of types with identity
	// allocate first and call r.Reference before reading nested values.
	Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error)

	// Copy returns a deep copy of original. Like Read, it calls r.Reference
	// before copying nested values.
	Copy(r *Registry, original reflect.Value) (reflect.Value, error)

	// AcceptsNull reports whether the serializer handles nil values itself,
	// in which case no presence flag is written.
	AcceptsNull() bool

	// Immutable reports whether copies may share the original.
	Immutable() bool

	// Stateless reports whether the serializer keeps no per-type state.
	Stateless() bool
}

// Flags carries the behavior flags every serializer exposes. Embed it to
// satisfy the flag half of Serializer.
type Flags struct {
	stateless   bool
	acceptsNull bool
	immutable   bool
}

func (f *Flags) AcceptsNull() bool { return f.acceptsNull }
func (f *Flags) Immutable() bool   { return f.immutable }
func (f *Flags) Stateless() bool   { return f.stateless }

func (f *Flags) SetAcceptsNull(v bool) { f.acceptsNull = v }
func (f *Flags) SetImmutable(v bool)   { f.immutable = v }
func (f *Flags) SetStateless(v bool)   { f.stateless = v }

// SerializerFactory builds the serializer of a type matched by a default
// binding. Factories are values rather than funcs so that a registry's
// bindings can be serialized with it.
type SerializerFactory interface {
	NewSerializer(r *Registry, t reflect.Type) (Serializer, error)
}

type sharedFactory struct {
	serializer Serializer
}

// Shared returns a factory that hands out s for every matched type.
func Shared(s Serializer) SerializerFactory {
	return &sharedFactory{serializer: s}
}

func (f *sharedFactory) NewSerializer(*Registry, reflect.Type) (Serializer, error) {
	return f.serializer, nil
}

// FieldSerializerFactory builds a FieldSerializer for every matched struct
// type.
type FieldSerializerFactory struct {
	CopyTransient bool
}

func (f *FieldSerializerFactory) NewSerializer(r *Registry, t reflect.Type) (Serializer, error) {
	fs, err := NewFieldSerializer(r, t)
	if err != nil {
		return nil, err
	}
	fs.SetCopyTransient(f.CopyTransient)
	return fs, nil
}

// Registration binds a type to its serializer. Instantiator is filled on
// first use.
type Registration struct {
	Type         reflect.Type
	ID           int
	Serializer   Serializer
	Instantiator Instantiator
}

type defaultBinding struct {
	capability reflect.Type
	factory    SerializerFactory
}

// isNil reports whether v is a nil pointer, map, slice, or interface.
func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}

// nullable reports whether values of t can be nil.
func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}
