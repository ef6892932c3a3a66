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

	"go.uber.org/zap"
)

// metaMaxDepth bounds traversal of registry graphs, which nest several
// levels per struct type they describe.
const metaMaxDepth = 1024

var (
	registryPtrType        = reflect.TypeOf((*Registry)(nil))
	fieldSerializerPtrType = reflect.TypeOf((*FieldSerializer)(nil))
	cachedFieldPtrType     = reflect.TypeOf((*CachedField)(nil))
	cachingStrategyPtrType = reflect.TypeOf((*CachingStrategy)(nil))
)

// NewMetaRegistry returns a registry able to serialize and copy other
// registries: their configuration, registrations, serializers with their
// cached field models and accessors, and instantiation strategies.
// Reference tracking is always on. Options are applied after the defaults
// of a meta registry.
func NewMetaRegistry(opts ...Option) (*Registry, error) {
	base := []Option{
		WithReferences(true),
		WithMaxDepth(metaMaxDepth),
		WithStrategy(&BypassStrategy{}),
	}
	meta := New(append(base, opts...)...)
	meta.config.References = true

	if err := meta.AddDefaultSerializer(serializerType, Shared(&SerializerOfSerializers{})); err != nil {
		return nil, err
	}
	strategies := &StrategySerializer{}
	strategies.SetImmutable(true)
	if err := meta.AddDefaultSerializer(strategyType, Shared(strategies)); err != nil {
		return nil, err
	}
	fs, err := NewFieldSerializer(meta, fieldSerializerPtrType)
	if err != nil {
		return nil, err
	}
	fs.SetCopyTransient(false)
	meta.RegisterSerializer(fieldSerializerPtrType, fs)
	meta.RegisterSerializer(cachedFieldPtrType, &CachedFieldSerializer{})
	rs, err := NewRegistrySerializer(meta)
	if err != nil {
		return nil, err
	}
	meta.RegisterSerializer(registryPtrType, rs)
	return meta, nil
}

// ============================================================================
// RegistrySerializer
// ============================================================================

// RegistrySerializer serializes a *Registry. Transient members (type
// loader, strategy pool, accessor cache, logger, reference tables) are not
// written; after a read or copy they are taken from the registry performing
// the operation.
type RegistrySerializer struct {
	Flags
	fields *FieldSerializer
}

func NewRegistrySerializer(meta *Registry) (*RegistrySerializer, error) {
	fs, err := NewFieldSerializer(meta, registryPtrType)
	if err != nil {
		return nil, err
	}
	fs.SetCopyTransient(false)
	return &RegistrySerializer{fields: fs}, nil
}

func (s *RegistrySerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	return s.fields.Write(r, out, value)
}

func (s *RegistrySerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	v, err := s.fields.Read(r, in, t)
	if err != nil {
		return reflect.Value{}, err
	}
	restoreTransients(v, r)
	return v, nil
}

func (s *RegistrySerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	v, err := s.fields.Copy(r, original)
	if err != nil {
		return reflect.Value{}, err
	}
	restoreTransients(v, r)
	return v, nil
}

// ============================================================================
// NestedRegistrySerializer
// ============================================================================

// NestedRegistrySerializer is the builtin serializer of *Registry values
// met inside ordinary graphs. Each registry is written as a self-contained
// graph of a meta registry built on first use from the environment of the
// registry performing the operation. A decoded or copied registry takes its
// transient members from that registry.
type NestedRegistrySerializer struct {
	Flags
	meta *Registry `graph:",transient"`
}

func newNestedRegistrySerializer() *NestedRegistrySerializer {
	return &NestedRegistrySerializer{}
}

func (s *NestedRegistrySerializer) metaFor(r *Registry) (*Registry, error) {
	if s.meta == nil {
		meta, err := NewMetaRegistry(
			WithTypeLoader(r.loader),
			WithStrategyPool(r.pool),
			WithLogger(r.logger),
		)
		if err != nil {
			return nil, err
		}
		s.meta = meta
		r.logger.Debug("built meta registry for nested registries")
	}
	return s.meta, nil
}

func (s *NestedRegistrySerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	meta, err := s.metaFor(r)
	if err != nil {
		return err
	}
	return meta.EncodeTo(out, value.Interface())
}

func (s *NestedRegistrySerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	meta, err := s.metaFor(r)
	if err != nil {
		return reflect.Value{}, err
	}
	decoded, err := meta.DecodeFrom(in)
	if err != nil {
		return reflect.Value{}, err
	}
	reg, ok := decoded.(*Registry)
	if !ok || reg == nil {
		return reflect.Value{}, fmt.Errorf("%w: nested registry decoded as %T", ErrTypeMismatch, decoded)
	}
	v := reflect.ValueOf(reg)
	restoreTransients(v, r)
	return v, nil
}

func (s *NestedRegistrySerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	meta, err := s.metaFor(r)
	if err != nil {
		return reflect.Value{}, err
	}
	c, err := meta.Copy(original.Interface())
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.ValueOf(c)
	restoreTransients(v, r)
	return v, nil
}

func restoreTransients(v reflect.Value, meta *Registry) {
	reg, ok := v.Interface().(*Registry)
	if !ok || reg == nil {
		return
	}
	reg.loader = meta.loader
	reg.pool = meta.pool
	reg.logger = meta.logger
	reg.accessors = meta.accessors
	reg.refs = newReferenceResolver()
	reg.op = opState{}
	if reg.registrations == nil {
		reg.registrations = make(map[reflect.Type]*Registration)
	}
	meta.logger.Debug("restored registry transients",
		zap.Int("registrations", len(reg.registrations)),
		zap.Int("ids", len(reg.byID)))
}

// ============================================================================
// SerializerOfSerializers
// ============================================================================

// SerializerOfSerializers serializes serializer instances field by field,
// keeping one FieldSerializer per concrete serializer type. The registered
// *FieldSerializer serializer is used for *FieldSerializer values.
type SerializerOfSerializers struct {
	Flags
	byType map[reflect.Type]*FieldSerializer `graph:",transient"`
}

func (s *SerializerOfSerializers) delegate(r *Registry, t reflect.Type) (*FieldSerializer, error) {
	if t == fieldSerializerPtrType {
		if reg, ok := r.registrations[t]; ok {
			if fs, ok := reg.Serializer.(*FieldSerializer); ok {
				return fs, nil
			}
		}
	}
	if fs, ok := s.byType[t]; ok {
		return fs, nil
	}
	fs, err := NewFieldSerializer(r, t)
	if err != nil {
		return nil, err
	}
	fs.SetCopyTransient(false)
	if s.byType == nil {
		s.byType = make(map[reflect.Type]*FieldSerializer)
	}
	s.byType[t] = fs
	return fs, nil
}

func (s *SerializerOfSerializers) Write(r *Registry, out Writer, value reflect.Value) error {
	fs, err := s.delegate(r, value.Type())
	if err != nil {
		return err
	}
	return fs.Write(r, out, value)
}

func (s *SerializerOfSerializers) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	fs, err := s.delegate(r, t)
	if err != nil {
		return reflect.Value{}, err
	}
	return fs.Read(r, in, t)
}

// Copy always allocates a new serializer, stateless or not.
func (s *SerializerOfSerializers) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	fs, err := s.delegate(r, original.Type())
	if err != nil {
		return reflect.Value{}, err
	}
	return fs.Copy(r, original)
}

// ============================================================================
// StrategySerializer
// ============================================================================

const (
	strategyPlain   int8 = 0
	strategyCaching int8 = 1
)

// StrategySerializer serializes instantiator strategies. A CachingStrategy
// is written as its wrapped strategy and read back as the reading
// registry's pooled instance for that kind, so one instantiator cache per
// strategy kind survives a round trip.
type StrategySerializer struct {
	Flags
	byType map[reflect.Type]*FieldSerializer `graph:",transient"`
}

func (s *StrategySerializer) delegate(r *Registry, t reflect.Type) (*FieldSerializer, error) {
	if fs, ok := s.byType[t]; ok {
		return fs, nil
	}
	fs, err := NewFieldSerializer(r, t)
	if err != nil {
		return nil, err
	}
	if s.byType == nil {
		s.byType = make(map[reflect.Type]*FieldSerializer)
	}
	s.byType[t] = fs
	return fs, nil
}

func (s *StrategySerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	if value.Type() == cachingStrategyPtrType {
		cs := value.Interface().(*CachingStrategy)
		out.WriteInt8(strategyCaching)
		return r.WriteClassAndObject(out, reflect.ValueOf(cs.strategy))
	}
	fs, err := s.delegate(r, value.Type())
	if err != nil {
		return err
	}
	out.WriteInt8(strategyPlain)
	return fs.Write(r, out, value)
}

func (s *StrategySerializer) Read(r *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	switch mode := in.ReadInt8(); mode {
	case strategyCaching:
		w, err := r.ReadClassAndObject(in)
		if err != nil {
			return reflect.Value{}, err
		}
		if !w.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: caching strategy without wrapped strategy", ErrNilValue)
		}
		wrapped, ok := w.Interface().(InstantiatorStrategy)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s is not an InstantiatorStrategy", ErrTypeMismatch, w.Type())
		}
		cs := reflect.ValueOf(r.pool.Caching(wrapped))
		if !cs.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, cs.Type(), t)
		}
		return cs, nil
	case strategyPlain:
		fs, err := s.delegate(r, t)
		if err != nil {
			return reflect.Value{}, err
		}
		return fs.Read(r, in, t)
	default:
		return reflect.Value{}, fmt.Errorf("%w: strategy mode %d", ErrTypeMismatch, mode)
	}
}

func (s *StrategySerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	return original, nil
}

// ============================================================================
// Handle serializers
// ============================================================================

// FieldHandleSerializer writes a field handle as its declaring type and
// field name and resolves it again through the accessor cache on read.
type FieldHandleSerializer struct {
	Flags
}

func newFieldHandleSerializer() *FieldHandleSerializer {
	s := &FieldHandleSerializer{}
	s.SetImmutable(true)
	s.SetStateless(true)
	return s
}

func (s *FieldHandleSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	h := value.Interface().(*FieldHandle)
	if err := r.WriteType(out, h.declaring); err != nil {
		return err
	}
	out.WriteString(h.name)
	return nil
}

func (s *FieldHandleSerializer) Read(r *Registry, in Reader, _ reflect.Type) (reflect.Value, error) {
	declaring, err := r.ReadType(in)
	if err != nil {
		return reflect.Value{}, err
	}
	name := in.ReadString()
	if err := in.Err(); err != nil {
		return reflect.Value{}, err
	}
	h, err := r.accessors.Field(declaring, name)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(h), nil
}

func (s *FieldHandleSerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	return original, nil
}

// ConstructorHandleSerializer writes a constructor handle as its declaring
// type and parameter types and resolves it again on read.
type ConstructorHandleSerializer struct {
	Flags
}

func newConstructorHandleSerializer() *ConstructorHandleSerializer {
	s := &ConstructorHandleSerializer{}
	s.SetImmutable(true)
	s.SetStateless(true)
	return s
}

func (s *ConstructorHandleSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	h := value.Interface().(*ConstructorHandle)
	if err := r.WriteType(out, h.declaring); err != nil {
		return err
	}
	out.WriteVarUint(uint64(len(h.params)))
	for _, p := range h.params {
		if err := r.WriteType(out, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConstructorHandleSerializer) Read(r *Registry, in Reader, _ reflect.Type) (reflect.Value, error) {
	declaring, err := r.ReadType(in)
	if err != nil {
		return reflect.Value{}, err
	}
	n, err := readLength(in)
	if err != nil {
		return reflect.Value{}, err
	}
	var params []reflect.Type
	for i := 0; i < n; i++ {
		p, err := r.ReadType(in)
		if err != nil {
			return reflect.Value{}, err
		}
		params = append(params, p)
	}
	h, err := r.accessors.Constructor(declaring, params)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(h), nil
}

func (s *ConstructorHandleSerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	return original, nil
}

// ============================================================================
// CachedFieldSerializer
// ============================================================================

// CachedFieldSerializer writes a CachedField without its access mechanism,
// which is derived again from the field handle on read.
type CachedFieldSerializer struct {
	Flags
}

func (s *CachedFieldSerializer) Write(r *Registry, out Writer, value reflect.Value) error {
	f := value.Interface().(*CachedField)
	out.WriteVarUint(uint64(f.offset))
	out.WriteVarInt(int64(f.index))
	out.WriteBool(f.nullable)
	out.WriteBool(f.varint)
	out.WriteBool(f.transient)
	out.WriteString(f.name)
	if err := r.WriteType(out, f.declaringType); err != nil {
		return err
	}
	if err := r.WriteType(out, f.valueType); err != nil {
		return err
	}
	if err := r.WriteClassAndObject(out, reflect.ValueOf(f.serializer)); err != nil {
		return fmt.Errorf("serializer of %s: %w", f, err)
	}
	return r.WriteObjectOrNull(out, reflect.ValueOf(f.handle))
}

func (s *CachedFieldSerializer) Read(r *Registry, in Reader, _ reflect.Type) (reflect.Value, error) {
	f := &CachedField{}
	v := reflect.ValueOf(f)
	r.Reference(v)
	f.offset = uintptr(in.ReadVarUint())
	f.index = int(in.ReadVarInt())
	f.nullable = in.ReadBool()
	f.varint = in.ReadBool()
	f.transient = in.ReadBool()
	f.name = in.ReadString()
	if err := in.Err(); err != nil {
		return reflect.Value{}, err
	}
	var err error
	if f.declaringType, err = r.ReadType(in); err != nil {
		return reflect.Value{}, err
	}
	if f.valueType, err = r.ReadType(in); err != nil {
		return reflect.Value{}, err
	}
	sv, err := r.ReadClassAndObject(in)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("serializer of %s: %w", f, err)
	}
	if sv.IsValid() {
		ser, ok := sv.Interface().(Serializer)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s is not a Serializer", ErrTypeMismatch, sv.Type())
		}
		f.serializer = ser
	}
	hv, err := r.ReadObjectOrNull(in, fieldHandleType)
	if err != nil {
		return reflect.Value{}, err
	}
	f.handle = hv.Interface().(*FieldHandle)
	if f.handle == nil {
		return reflect.Value{}, memberError("read", typeName(f.declaringType), f.name, ErrUnknownMember)
	}
	f.bind()
	return v, nil
}

func (s *CachedFieldSerializer) Copy(r *Registry, original reflect.Value) (reflect.Value, error) {
	src := original.Interface().(*CachedField)
	f := &CachedField{}
	v := reflect.ValueOf(f)
	r.Reference(v)
	*f = *src
	if src.serializer != nil {
		c, err := r.CopyValue(reflect.ValueOf(src.serializer))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("serializer of %s: %w", src, err)
		}
		f.serializer = c.Interface().(Serializer)
	}
	f.bind()
	return v, nil
}
