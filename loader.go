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
	"strings"
	"sync"
)

// TypeLoader maps type names back to runtime types and keeps the
// constructors registered for them. Go cannot look a type up by name, so a
// loader only knows the types it has been told about: builtins, types
// registered explicitly, and types a registry has written in this process.
// A TypeLoader is safe for concurrent use.
type TypeLoader struct {
	mu           sync.RWMutex
	byName       map[string]reflect.Type
	constructors map[reflect.Type][]reflect.Value
}

// DefaultTypeLoader is shared by registries created without WithTypeLoader.
var DefaultTypeLoader = NewTypeLoader()

func NewTypeLoader() *TypeLoader {
	l := &TypeLoader{
		byName:       make(map[string]reflect.Type),
		constructors: make(map[reflect.Type][]reflect.Value),
	}
	for _, t := range builtinLoaderTypes() {
		l.Register(t)
	}
	return l
}

// Register makes t loadable by its name. Registering a composite unnamed
// type (pointer, slice, map, array) is a no-op: those are encoded
// structurally.
func (l *TypeLoader) Register(t reflect.Type) {
	if t == nil || isStructural(t) {
		return
	}
	name := typeName(t)
	l.mu.Lock()
	l.byName[name] = t
	l.mu.Unlock()
}

// Load returns the type registered under name.
func (l *TypeLoader) Load(name string) (reflect.Type, error) {
	l.mu.RLock()
	t, ok := l.byName[name]
	l.mu.RUnlock()
	if !ok {
		return nil, &CodecError{Op: "load", Type: name, Err: ErrUnknownType}
	}
	return t, nil
}

// RegisterConstructor registers fn as a constructor of the struct type it
// returns. fn must be a func returning exactly one *T for a struct type T.
func (l *TypeLoader) RegisterConstructor(fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("%w: constructor must be a func, got %T", ErrUnsupportedType, fn)
	}
	ft := v.Type()
	if ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Ptr || ft.Out(0).Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: constructor %s must return a single struct pointer", ErrUnsupportedType, ft)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("%w: variadic constructor %s", ErrUnsupportedType, ft)
	}
	declaring := ft.Out(0).Elem()
	l.Register(declaring)
	l.mu.Lock()
	defer l.mu.Unlock()
	params := constructorParams(ft)
	list := l.constructors[declaring]
	for i, existing := range list {
		if sameTypes(constructorParams(existing.Type()), params) {
			list[i] = v
			return nil
		}
	}
	l.constructors[declaring] = append(list, v)
	return nil
}

// constructor returns the registered constructor of declaring with the
// given parameter types.
func (l *TypeLoader) constructor(declaring reflect.Type, params []reflect.Type) (reflect.Value, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.constructors[declaring] {
		if sameTypes(constructorParams(fn.Type()), params) {
			return fn, true
		}
	}
	return reflect.Value{}, false
}

func constructorParams(ft reflect.Type) []reflect.Type {
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return params
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isStructural reports whether t is written as a composite type tag rather
// than by name.
func isStructural(t reflect.Type) bool {
	if t.Name() != "" {
		return false
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Array:
		return true
	}
	return false
}

// typeName is the loader key of t: import path and name for named types,
// the type literal otherwise.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() == "" {
		return t.String()
	}
	if pkg := t.PkgPath(); pkg != "" {
		return pkg + "." + t.Name()
	}
	return t.Name()
}

func typeListName(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = typeName(t)
	}
	return "(" + strings.Join(names, ",") + ")"
}
