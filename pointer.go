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
)

// PointerSerializer handles pointers to anything but plain structs: the
// pointee is written with the marker its type calls for.
type PointerSerializer struct {
	Flags
}

func (s *PointerSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	if value.IsNil() {
		return ErrNilValue
	}
	c, err := r.elementCodec(value.Type().Elem())
	if err != nil {
		return err
	}
	return c.write(r, out, value.Elem())
}

func (s *PointerSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	c, err := r.elementCodec(t.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(t.Elem())
	r.Reference(p)
	if err := c.readInto(r, in, p.Elem()); err != nil {
		return reflect.Value{}, err
	}
	return p, nil
}

func (s *PointerSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	p := reflect.New(original.Type().Elem())
	r.Reference(p)
	c, err := r.CopyValue(original.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	p.Elem().Set(c)
	return p, nil
}

// InterfaceSerializer handles values whose static type is an interface.
// The dynamic type is written as a type tag, so it accepts nil.
type InterfaceSerializer struct {
	Flags
}

func newInterfaceSerializer() *InterfaceSerializer {
	s := &InterfaceSerializer{}
	s.SetAcceptsNull(true)
	s.SetStateless(true)
	return s
}

func (s *InterfaceSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	return r.WriteClassAndObject(out, value)
}

func (s *InterfaceSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	v, err := r.ReadClassAndObject(in)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err = assignable(v, t)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out, nil
}

func (s *InterfaceSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	return r.CopyValue(original)
}

// TypeSerializer writes reflect.Type values as type tags.
type TypeSerializer struct {
	Flags
}

func newTypeSerializer() *TypeSerializer {
	s := &TypeSerializer{}
	s.SetImmutable(true)
	s.SetStateless(true)
	return s
}

func (s *TypeSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	t, ok := value.Interface().(reflect.Type)
	if !ok {
		return fmt.Errorf("%w: %s is not a reflect.Type", ErrTypeMismatch, value.Type())
	}
	return r.WriteType(out, t)
}

func (s *TypeSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	decoded, err := r.ReadType(in)
	if err != nil {
		return reflect.Value{}, err
	}
	if decoded == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(decoded)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, v.Type(), t)
	}
	return v, nil
}

func (s *TypeSerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	return original, nil
}
