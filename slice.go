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

// maxPrealloc bounds allocations sized from lengths read off the wire.
const maxPrealloc = 4096

// elementCodec writes and reads the elements of one container type.
type elementCodec struct {
	typ       reflect.Type
	primitive bool
}

func (r *Registry) elementCodec(et reflect.Type) (elementCodec, error) {
	c := elementCodec{typ: et}
	if et.Kind() == reflect.Interface {
		return c, nil
	}
	s, err := r.Serializer(et)
	if err != nil {
		return c, err
	}
	switch s.(type) {
	case *PrimitiveSerializer, *StringSerializer:
		c.primitive = true
	}
	return c, nil
}

func (c elementCodec) write(r *Registry, out Writer, v reflect.Value) error {
	switch {
	case c.primitive:
		writePrimitive(out, v, r.config.VarInts)
		return nil
	case c.typ.Kind() == reflect.Interface:
		return r.WriteClassAndObject(out, v)
	case nullable(c.typ):
		return r.WriteObjectOrNull(out, v)
	}
	return r.WriteObject(out, v)
}

// readInto reads one element into the settable dst.
func (c elementCodec) readInto(r *Registry, in Reader, dst reflect.Value) error {
	if c.primitive {
		readPrimitiveInto(in, dst, r.config.VarInts)
		return nil
	}
	v, err := c.read(r, in)
	if err != nil {
		return err
	}
	dst.Set(v)
	return nil
}

func (c elementCodec) read(r *Registry, in Reader) (reflect.Value, error) {
	switch {
	case c.primitive:
		v := reflect.New(c.typ).Elem()
		readPrimitiveInto(in, v, r.config.VarInts)
		return v, nil
	case c.typ.Kind() == reflect.Interface:
		v, err := r.ReadClassAndObject(in)
		if err != nil {
			return reflect.Value{}, err
		}
		return assignable(v, c.typ)
	case nullable(c.typ):
		return r.ReadObjectOrNull(in, c.typ)
	}
	return r.ReadObject(in, c.typ)
}

// assignable maps an invalid (nil) v to the zero value of t and rejects
// values that cannot be stored in t.
func assignable(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, v.Type(), t)
	}
	return v, nil
}

func readLength(in Reader) (int, error) {
	n := in.ReadVarUint()
	if err := in.Err(); err != nil {
		return 0, err
	}
	if n > uint64(maxInt) {
		return 0, fmt.Errorf("%w: length %d", ErrTypeMismatch, n)
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)

// ============================================================================
// SliceSerializer
// ============================================================================

// SliceSerializer writes a varuint length followed by the elements. Byte
// slices are written raw.
type SliceSerializer struct {
	Flags
}

func (s *SliceSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	if value.IsNil() {
		return ErrNilValue
	}
	n := value.Len()
	out.WriteVarUint(uint64(n))
	et := value.Type().Elem()
	if et.Kind() == reflect.Uint8 {
		out.WriteRawBytes(value.Bytes())
		return nil
	}
	c, err := r.elementCodec(et)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := c.write(r, out, value.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

func (s *SliceSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	n, err := readLength(in)
	if err != nil {
		return reflect.Value{}, err
	}
	et := t.Elem()
	if et.Kind() == reflect.Uint8 {
		v := reflect.New(t).Elem()
		v.SetBytes(in.ReadRawBytes(n))
		return v, nil
	}
	c, err := r.elementCodec(et)
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.MakeSlice(t, 0, min(n, maxPrealloc))
	zero := reflect.Zero(et)
	for i := 0; i < n; i++ {
		if err := in.Err(); err != nil {
			return reflect.Value{}, err
		}
		v = reflect.Append(v, zero)
		if err := c.readInto(r, in, v.Index(i)); err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
	}
	return v, nil
}

func (s *SliceSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	n := original.Len()
	v := reflect.MakeSlice(original.Type(), n, n)
	et := original.Type().Elem()
	if isPrimitiveKind(et.Kind()) {
		reflect.Copy(v, original)
		return v, nil
	}
	for i := 0; i < n; i++ {
		c, err := r.CopyValue(original.Index(i))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		v.Index(i).Set(c)
	}
	return v, nil
}
