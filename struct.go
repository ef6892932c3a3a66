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

	"github.com/spaolacci/murmur3"
)

// FieldSerializer serializes a struct field by field in declaration order.
// One instance serves both T and *T. Fields tagged transient are not
// written and are copied only when CopyTransient is set.
type FieldSerializer struct {
	Flags
	structType    reflect.Type
	fields        []*CachedField
	copyTransient bool
	hash          int32
}

func newFieldSerializer(t reflect.Type) *FieldSerializer {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return &FieldSerializer{structType: t, copyTransient: true}
}

// NewFieldSerializer builds a FieldSerializer for struct type t (or the
// struct *t points to) without registering it.
func NewFieldSerializer(r *Registry, t reflect.Type) (*FieldSerializer, error) {
	if t == nil || (t.Kind() != reflect.Struct && (t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct)) {
		return nil, newError("resolve", typeName(t), fmt.Errorf("%w: not a struct", ErrUnsupportedType))
	}
	fs := newFieldSerializer(t)
	if err := fs.build(r); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *FieldSerializer) build(r *Registry) error {
	t := s.structType
	fields := make([]*CachedField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		opts := parseTag(sf)
		if opts.skip || sf.Name == "_" {
			continue
		}
		cf, err := newCachedField(r, t, i, opts)
		if err != nil {
			return err
		}
		fields = append(fields, cf)
	}
	s.fields = fields
	s.hash = s.computeHash()
	return nil
}

// computeHash fingerprints the serialized layout: names and type names of
// the non-transient fields.
func (s *FieldSerializer) computeHash() int32 {
	var sb strings.Builder
	for _, f := range s.fields {
		if f.transient {
			continue
		}
		sb.WriteString(f.name)
		sb.WriteString(",")
		sb.WriteString(typeName(f.access.typ))
		sb.WriteString(";")
	}
	h1, _ := murmur3.Sum128WithSeed([]byte(sb.String()), 47)
	return int32(h1 & 0xFFFFFFFF)
}

func (s *FieldSerializer) StructType() reflect.Type { return s.structType }
func (s *FieldSerializer) Fields() []*CachedField    { return s.fields }
func (s *FieldSerializer) CopyTransient() bool       { return s.copyTransient }
func (s *FieldSerializer) SetCopyTransient(v bool)   { s.copyTransient = v }
func (s *FieldSerializer) Hash() int32               { return s.hash }

// Field returns the cached field called name.
func (s *FieldSerializer) Field(name string) (*CachedField, bool) {
	for _, f := range s.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// addressable returns the struct value behind v, copied into fresh memory
// when v itself cannot be addressed.
func (s *FieldSerializer) addressable(v reflect.Value) (reflect.Value, error) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, ErrNilValue
		}
		v = v.Elem()
	}
	if v.Type() != s.structType {
		return reflect.Value{}, fmt.Errorf("%w: %s is not %s", ErrTypeMismatch, v.Type(), s.structType)
	}
	if !v.CanAddr() {
		tmp := reflect.New(s.structType).Elem()
		tmp.Set(v)
		v = tmp
	}
	return v, nil
}

func (s *FieldSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	v, err := s.addressable(value)
	if err != nil {
		return err
	}
	if r.config.StructHash {
		out.WriteFixedInt32(s.hash)
	}
	for _, f := range s.fields {
		if f.transient {
			continue
		}
		if err := f.write(r, out, f.access.get(v)); err != nil {
			return fieldError("write", typeName(s.structType), f.name, err)
		}
	}
	return nil
}

func (s *FieldSerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	inst, err := r.NewInstance(s.structType)
	if err != nil {
		return reflect.Value{}, err
	}
	if t.Kind() == reflect.Ptr {
		r.Reference(inst)
	}
	if r.config.StructHash {
		if h := in.ReadFixedInt32(); h != s.hash && in.Err() == nil {
			return reflect.Value{}, fmt.Errorf("%w: layout hash %d, want %d", ErrTypeMismatch, h, s.hash)
		}
	}
	base := inst.Elem()
	for _, f := range s.fields {
		if f.transient {
			continue
		}
		if err := f.readInto(r, in, f.access.get(base)); err != nil {
			return reflect.Value{}, fieldError("read", typeName(s.structType), f.name, err)
		}
	}
	if t.Kind() == reflect.Ptr {
		return inst, nil
	}
	return base, nil
}

func (s *FieldSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	src, err := s.addressable(original)
	if err != nil {
		return reflect.Value{}, err
	}
	inst, err := r.NewInstance(s.structType)
	if err != nil {
		return reflect.Value{}, err
	}
	isPtr := original.Kind() == reflect.Ptr
	if isPtr {
		r.Reference(inst)
	}
	dst := inst.Elem()
	for _, f := range s.fields {
		if f.transient && !s.copyTransient {
			continue
		}
		sv := f.access.get(src)
		dv := f.access.get(dst)
		if f.access.primitive || opaqueKind(f.access.typ.Kind()) {
			dv.Set(sv)
			continue
		}
		c, err := r.CopyValue(sv)
		if err != nil {
			return reflect.Value{}, fieldError("copy", typeName(s.structType), f.name, err)
		}
		dv.Set(c)
	}
	if isPtr {
		return inst, nil
	}
	return dst, nil
}
