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
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Type tags written before dynamically typed values.
const (
	tagNil     = 0
	tagName    = 1
	tagNameRef = 2
	tagPointer = 3
	tagSlice   = 4
	tagMap     = 5
	tagArray   = 6
	tagIDBase  = 8
)

type opKind uint8

const (
	opIdle opKind = iota
	opWrite
	opRead
	opCopy
)

// opState is the per-operation scratch state of a registry.
type opState struct {
	kind       opKind
	depth      int
	writeNames map[reflect.Type]int
	readNames  []reflect.Type
}

// Registry is the codec instance. It resolves serializers per type, keeps
// the per-operation reference tables and exposes the operations that
// serializers use to recurse.
// Note: Registry is NOT thread-safe. Use threadsafe.Codec for concurrent use.
type Registry struct {
	config        Config
	registrations map[reflect.Type]*Registration
	byID          []*Registration
	defaults      []*defaultBinding
	strategy      InstantiatorStrategy

	loader    *TypeLoader        `graph:",transient"`
	pool      *StrategyPool      `graph:",transient"`
	accessors *AccessorCache     `graph:",transient"`
	logger    *zap.Logger        `graph:",transient"`
	refs      *referenceResolver `graph:",transient"`
	op        opState            `graph:",transient"`
}

// New creates a Registry with the builtin registrations.
func New(opts ...Option) *Registry {
	r := &Registry{
		config:        DefaultConfig(),
		registrations: make(map[reflect.Type]*Registration),
		loader:        DefaultTypeLoader,
		pool:          DefaultStrategyPool,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.config.MaxDepth <= 0 {
		r.config.MaxDepth = DefaultConfig().MaxDepth
	}
	if r.strategy == nil {
		s, err := strategyByName(r.config.Strategy)
		if err != nil {
			r.logger.Warn("falling back to default instantiator strategy", zap.Error(err))
			s = &DefaultStrategy{}
		}
		r.strategy = s
	}
	r.strategy = r.pool.Caching(r.strategy)
	r.initTransients(r.loader, r.pool, r.logger)
	r.registerBuiltins()
	return r
}

// initTransients sets the members that are never serialized.
func (r *Registry) initTransients(loader *TypeLoader, pool *StrategyPool, logger *zap.Logger) {
	r.loader = loader
	r.pool = pool
	r.logger = logger
	r.accessors = NewAccessorCache(loader, r.config.AccessorCacheSize)
	r.refs = newReferenceResolver()
	r.op = opState{}
	if r.registrations == nil {
		r.registrations = make(map[reflect.Type]*Registration)
	}
}

func (r *Registry) registerBuiltins() {
	for _, t := range primitiveTypes {
		if t.Kind() == reflect.String {
			r.RegisterSerializer(t, newStringSerializer())
		} else {
			r.RegisterSerializer(t, newPrimitiveSerializer())
		}
	}
	r.RegisterSerializer(bytesType, newBytesSerializer())
	r.RegisterSerializer(anyType, newInterfaceSerializer())
	types := newTypeSerializer()
	r.RegisterSerializer(rtypeType, types)
	r.RegisterSerializer(fieldHandleType, newFieldHandleSerializer())
	r.RegisterSerializer(constructorHandleType, newConstructorHandleSerializer())
	r.RegisterSerializer(registryPtrType, newNestedRegistrySerializer())
	// other reflect.Type implementations
	if err := r.AddDefaultSerializer(typeInterfaceType, Shared(types)); err != nil {
		panic(err)
	}
}

// Config returns the registry configuration.
func (r *Registry) Config() Config { return r.config }

// Logger returns the registry logger.
func (r *Registry) Logger() *zap.Logger { return r.logger }

// TypeLoader returns the loader used to resolve type names.
func (r *Registry) TypeLoader() *TypeLoader { return r.loader }

// Accessors returns the accessor cache.
func (r *Registry) Accessors() *AccessorCache { return r.accessors }

// StrategyPool returns the pool the registry strategy was obtained from.
func (r *Registry) StrategyPool() *StrategyPool { return r.pool }

// Strategy returns the instantiator strategy.
func (r *Registry) Strategy() InstantiatorStrategy { return r.strategy }

// SetStrategy replaces the instantiator strategy. Instantiators already
// cached on registrations are dropped.
func (r *Registry) SetStrategy(s InstantiatorStrategy) {
	r.strategy = r.pool.Caching(s)
	for _, reg := range r.registrations {
		reg.Instantiator = nil
	}
}

// ============================================================================
// Registration
// ============================================================================

// Register registers t with the next numeric id so that it is written as a
// short type tag instead of by name. The serializer is resolved as for an
// unregistered type.
func (r *Registry) Register(t reflect.Type) (*Registration, error) {
	if t == nil {
		return nil, newError("register", "<nil>", ErrUnknownType)
	}
	if reg, ok := r.registrations[t]; ok && reg.ID >= 0 {
		return reg, nil
	}
	s, err := r.Serializer(t)
	if err != nil {
		return nil, err
	}
	return r.RegisterSerializer(t, s), nil
}

// RegisterSerializer binds s to exactly t, replacing any cached default,
// and gives t a numeric id if it has none.
func (r *Registry) RegisterSerializer(t reflect.Type, s Serializer) *Registration {
	reg, ok := r.registrations[t]
	if !ok {
		reg = &Registration{Type: t, ID: -1}
		r.registrations[t] = reg
	} else if fs, shared := reg.Serializer.(*FieldSerializer); shared && Serializer(fs) != s {
		r.unsharePointer(t, fs)
	}
	reg.Serializer = s
	if reg.ID < 0 {
		reg.ID = len(r.byID)
		r.byID = append(r.byID, reg)
	}
	r.loader.Register(t)
	r.logger.Debug("registered type",
		zap.String("type", typeName(t)),
		zap.Int("id", reg.ID),
		zap.String("serializer", fmt.Sprintf("%T", s)))
	return reg
}

// unsharePointer detaches *t from the field serializer it shared with the
// struct type t, so that *t resolves through the serializer now bound to t.
func (r *Registry) unsharePointer(t reflect.Type, old *FieldSerializer) {
	if t.Kind() != reflect.Struct {
		return
	}
	ptr := reflect.PointerTo(t)
	reg, ok := r.registrations[ptr]
	if !ok {
		return
	}
	if fs, isFS := reg.Serializer.(*FieldSerializer); !isFS || fs != old {
		return
	}
	if reg.ID < 0 {
		delete(r.registrations, ptr)
		return
	}
	reg.Serializer = &PointerSerializer{}
	reg.Instantiator = nil
}

// AddDefaultSerializer binds factory to every type implementing the
// interface type capability that has no exact registration. More specific
// capabilities are consulted first.
func (r *Registry) AddDefaultSerializer(capability reflect.Type, factory SerializerFactory) error {
	if capability == nil || capability.Kind() != reflect.Interface {
		return newError("register", typeName(capability), fmt.Errorf("%w: capability must be an interface type", ErrUnsupportedType))
	}
	b := &defaultBinding{capability: capability, factory: factory}
	at := len(r.defaults)
	for i, existing := range r.defaults {
		if existing.capability != capability && capability.Implements(existing.capability) {
			at = i
			break
		}
	}
	r.defaults = append(r.defaults, nil)
	copy(r.defaults[at+1:], r.defaults[at:])
	r.defaults[at] = b
	r.loader.Register(capability)
	r.logger.Debug("added default serializer",
		zap.String("capability", typeName(capability)),
		zap.String("factory", fmt.Sprintf("%T", factory)))
	return nil
}

// Registration returns the registration of t, resolving a serializer for it
// first if needed.
func (r *Registry) Registration(t reflect.Type) (*Registration, error) {
	if reg, ok := r.registrations[t]; ok {
		return reg, nil
	}
	if _, err := r.Serializer(t); err != nil {
		return nil, err
	}
	return r.registrations[t], nil
}

// Serializer returns the serializer of t: the exact registration, else the
// most specific default binding a concrete t implements, else a default
// synthesized from the kind of t.
func (r *Registry) Serializer(t reflect.Type) (Serializer, error) {
	if t == nil {
		return nil, newError("resolve", "<nil>", ErrUnknownType)
	}
	if reg, ok := r.registrations[t]; ok {
		return reg.Serializer, nil
	}
	for _, b := range r.defaults {
		if t.Kind() != reflect.Interface && t.Implements(b.capability) {
			s, err := b.factory.NewSerializer(r, t)
			if err != nil {
				return nil, newError("resolve", typeName(t), err)
			}
			r.cacheDefault(t, s)
			return s, nil
		}
	}
	return r.synthesize(t)
}

func (r *Registry) cacheDefault(t reflect.Type, s Serializer) *Registration {
	reg := &Registration{Type: t, ID: -1, Serializer: s}
	r.registrations[t] = reg
	r.loader.Register(t)
	r.logger.Debug("synthesized serializer",
		zap.String("type", typeName(t)),
		zap.String("serializer", fmt.Sprintf("%T", s)))
	emitSerializerSynthesized(context.Background(), typeName(t), fmt.Sprintf("%T", s))
	return reg
}

func (r *Registry) synthesize(t reflect.Type) (Serializer, error) {
	switch t.Kind() {
	case reflect.Struct:
		return r.synthesizeStruct(t)
	case reflect.Ptr:
		if t.Elem().Kind() == reflect.Struct {
			if reg, ok := r.registrations[t.Elem()]; ok {
				if fs, ok := reg.Serializer.(*FieldSerializer); ok {
					r.cacheDefault(t, fs)
					return fs, nil
				}
			} else {
				return r.synthesizeStruct(t.Elem())
			}
		}
		s := &PointerSerializer{}
		r.cacheDefault(t, s)
		return s, nil
	case reflect.Map:
		if t.Elem() == emptyStructType {
			s := &SetSerializer{}
			r.cacheDefault(t, s)
			return s, nil
		}
		s := &MapSerializer{}
		r.cacheDefault(t, s)
		return s, nil
	case reflect.Slice:
		s := &SliceSerializer{}
		r.cacheDefault(t, s)
		return s, nil
	case reflect.Array:
		s := &ArraySerializer{}
		r.cacheDefault(t, s)
		return s, nil
	case reflect.Interface:
		s := newInterfaceSerializer()
		r.cacheDefault(t, s)
		return s, nil
	case reflect.String:
		s := newStringSerializer()
		r.cacheDefault(t, s)
		return s, nil
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		s := newPrimitiveSerializer()
		r.cacheDefault(t, s)
		return s, nil
	}
	return nil, newError("resolve", typeName(t), ErrUnsupportedType)
}

// synthesizeStruct caches one FieldSerializer for both t and *t before
// building its fields, so that self-referencing types resolve.
func (r *Registry) synthesizeStruct(t reflect.Type) (Serializer, error) {
	fs := newFieldSerializer(t)
	ptr := reflect.PointerTo(t)
	_, hadPtr := r.registrations[ptr]
	sharePtr := !hadPtr && !r.boundByDefault(ptr)
	r.cacheDefault(t, fs)
	if sharePtr {
		r.cacheDefault(ptr, fs)
	}
	if err := fs.build(r); err != nil {
		delete(r.registrations, t)
		if sharePtr {
			delete(r.registrations, ptr)
		}
		return nil, err
	}
	return fs, nil
}

func (r *Registry) boundByDefault(t reflect.Type) bool {
	for _, b := range r.defaults {
		if t.Implements(b.capability) {
			return true
		}
	}
	return false
}

// ============================================================================
// Operations used by serializers
// ============================================================================

func (r *Registry) enter() error {
	r.op.depth++
	if r.op.depth > r.config.MaxDepth {
		return ErrMaxDepth
	}
	return nil
}

func (r *Registry) leave() {
	r.op.depth--
}

func (r *Registry) writeData(s Serializer, out Writer, v reflect.Value) error {
	defer r.leave()
	if err := r.enter(); err != nil {
		return newError("write", typeName(v.Type()), err)
	}
	if err := s.Write(r, out, v); err != nil {
		return newError("write", typeName(v.Type()), err)
	}
	if err := out.Err(); err != nil {
		return ioError("write", err)
	}
	return nil
}

func (r *Registry) readData(s Serializer, in Reader, t reflect.Type) (reflect.Value, error) {
	defer r.leave()
	if err := r.enter(); err != nil {
		return reflect.Value{}, newError("read", typeName(t), err)
	}
	v, err := s.Read(r, in, t)
	if err != nil {
		return reflect.Value{}, newError("read", typeName(t), err)
	}
	if err := in.Err(); err != nil {
		return reflect.Value{}, ioError("read", err)
	}
	return v, nil
}

// writeMarked writes the reference marker of v when t is tracked, or a
// presence flag when v may be nil and s does not handle nil itself.
func (r *Registry) writeMarked(out Writer, s Serializer, v reflect.Value, mayBeNil bool) error {
	t := v.Type()
	if r.config.References && useReferences(t) {
		if v.IsNil() {
			out.WriteInt8(NullFlag)
			return nil
		}
		if id, ok := r.refs.writtenID(v); ok {
			out.WriteInt8(RefFlag)
			out.WriteVarUint(id)
			return nil
		}
		out.WriteInt8(RefValueFlag)
	} else if mayBeNil && !s.AcceptsNull() {
		if v.IsNil() {
			out.WriteInt8(NullFlag)
			return nil
		}
		out.WriteInt8(NotNullValueFlag)
	}
	return r.writeData(s, out, v)
}

func (r *Registry) readMarked(in Reader, s Serializer, t reflect.Type, mayBeNil bool) (reflect.Value, error) {
	if r.config.References && useReferences(t) {
		flag := in.ReadInt8()
		if err := in.Err(); err != nil {
			return reflect.Value{}, ioError("read", err)
		}
		switch flag {
		case NullFlag:
			return reflect.Zero(t), nil
		case RefFlag:
			id := in.ReadVarUint()
			if err := in.Err(); err != nil {
				return reflect.Value{}, ioError("read", err)
			}
			v, ok := r.refs.readByID(id)
			if !ok {
				return reflect.Value{}, newError("read", typeName(t), fmt.Errorf("%w: %d", ErrBadReference, id))
			}
			if v.Type() != t {
				return reflect.Value{}, newError("read", typeName(t), fmt.Errorf("%w: reference %d is %s", ErrTypeMismatch, id, v.Type()))
			}
			return v, nil
		case RefValueFlag:
			r.refs.reserve()
			v, err := r.readData(s, in, t)
			if err != nil {
				r.refs.complete(reflect.Value{})
				return reflect.Value{}, err
			}
			r.refs.complete(v)
			return v, nil
		default:
			return reflect.Value{}, newError("read", typeName(t), fmt.Errorf("%w: unexpected marker %d", ErrBadReference, flag))
		}
	}
	if mayBeNil && !s.AcceptsNull() {
		flag := in.ReadInt8()
		if err := in.Err(); err != nil {
			return reflect.Value{}, ioError("read", err)
		}
		switch flag {
		case NullFlag:
			return reflect.Zero(t), nil
		case NotNullValueFlag:
		default:
			return reflect.Value{}, newError("read", typeName(t), fmt.Errorf("%w: unexpected marker %d", ErrBadReference, flag))
		}
	}
	return r.readData(s, in, t)
}

// WriteObject writes the non-nil value v whose type the reader knows.
func (r *Registry) WriteObject(out Writer, v reflect.Value) error {
	v = concrete(v)
	if !v.IsValid() {
		return newError("write", "<nil>", ErrNilValue)
	}
	s, err := r.Serializer(v.Type())
	if err != nil {
		return err
	}
	return r.writeMarked(out, s, v, false)
}

// WriteObjectOrNull writes v, which may be nil, when the reader knows its
// type.
func (r *Registry) WriteObjectOrNull(out Writer, v reflect.Value) error {
	s, err := r.Serializer(v.Type())
	if err != nil {
		return err
	}
	return r.writeMarked(out, s, v, nullable(v.Type()))
}

// WriteClassAndObject writes the type tag of v followed by v. v may be
// invalid or a nil interface.
func (r *Registry) WriteClassAndObject(out Writer, v reflect.Value) error {
	v = concrete(v)
	if !v.IsValid() {
		out.WriteVarUint(tagNil)
		return nil
	}
	t := v.Type()
	s, err := r.Serializer(t)
	if err != nil {
		return err
	}
	if err := r.WriteType(out, t); err != nil {
		return err
	}
	return r.writeMarked(out, s, v, nullable(t))
}

// ReadObject reads a value written by WriteObject.
func (r *Registry) ReadObject(in Reader, t reflect.Type) (reflect.Value, error) {
	s, err := r.Serializer(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return r.readMarked(in, s, t, false)
}

// ReadObjectOrNull reads a value written by WriteObjectOrNull. A nil value
// comes back as the zero value of t.
func (r *Registry) ReadObjectOrNull(in Reader, t reflect.Type) (reflect.Value, error) {
	s, err := r.Serializer(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return r.readMarked(in, s, t, nullable(t))
}

// ReadClassAndObject reads a value written by WriteClassAndObject. A nil
// value comes back invalid.
func (r *Registry) ReadClassAndObject(in Reader) (reflect.Value, error) {
	t, err := r.ReadType(in)
	if err != nil || t == nil {
		return reflect.Value{}, err
	}
	s, err := r.Serializer(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return r.readMarked(in, s, t, nullable(t))
}

// Reference records v as the object currently being read or copied, so
// that back references reaching it while its members are still being
// processed resolve to v.
func (r *Registry) Reference(v reflect.Value) {
	switch r.op.kind {
	case opRead:
		r.refs.bind(v)
	case opCopy:
		r.refs.bindCopy(v)
	}
}

// CopyValue deep copies v, preserving shared references and cycles.
func (r *Registry) CopyValue(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		return v, nil
	}
	t := v.Type()
	if t.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		c, err := r.CopyValue(v.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		out.Set(c)
		return out, nil
	}
	if isNil(v) {
		return reflect.Zero(t), nil
	}
	s, err := r.Serializer(t)
	if err != nil {
		return reflect.Value{}, err
	}
	if s.Immutable() {
		return v, nil
	}
	tracked := useReferences(t)
	if tracked {
		if c, ok := r.refs.copied(v); ok {
			return c, nil
		}
		r.refs.pushOriginal(v)
	}
	c, err := r.copyData(s, v)
	if tracked {
		r.refs.popOriginal(c)
	}
	return c, err
}

func (r *Registry) copyData(s Serializer, v reflect.Value) (reflect.Value, error) {
	defer r.leave()
	if err := r.enter(); err != nil {
		return reflect.Value{}, newError("copy", typeName(v.Type()), err)
	}
	c, err := s.Copy(r, v)
	if err != nil {
		return reflect.Value{}, newError("copy", typeName(v.Type()), err)
	}
	return c, nil
}

// NewInstance allocates a *t through the registry's instantiation
// strategy. The instantiator is cached on the registration of t.
func (r *Registry) NewInstance(t reflect.Type) (reflect.Value, error) {
	reg, err := r.Registration(t)
	if err != nil {
		return reflect.Value{}, err
	}
	if reg.Instantiator == nil {
		inst, err := r.strategy.InstantiatorFor(r.accessors, t)
		if err != nil {
			return reflect.Value{}, err
		}
		reg.Instantiator = inst
	}
	return reg.Instantiator.NewInstance()
}

// concrete unwraps a non-nil interface value and maps a nil one to the
// invalid Value.
func concrete(v reflect.Value) reflect.Value {
	if v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		return v.Elem()
	}
	return v
}

// ============================================================================
// Type tags
// ============================================================================

// WriteType writes the tag of t: a registration id, a name (or a back
// reference to a name written earlier in this operation), or the structure
// of an unnamed pointer, slice, map or array type.
func (r *Registry) WriteType(out Writer, t reflect.Type) error {
	if t == nil {
		out.WriteVarUint(tagNil)
		return nil
	}
	if reg, ok := r.registrations[t]; ok && reg.ID >= 0 {
		out.WriteVarUint(uint64(reg.ID) + tagIDBase)
		return nil
	}
	if isStructural(t) {
		switch t.Kind() {
		case reflect.Ptr:
			out.WriteVarUint(tagPointer)
		case reflect.Slice:
			out.WriteVarUint(tagSlice)
		case reflect.Map:
			out.WriteVarUint(tagMap)
			if err := r.WriteType(out, t.Key()); err != nil {
				return err
			}
		case reflect.Array:
			out.WriteVarUint(tagArray)
			out.WriteVarUint(uint64(t.Len()))
		}
		return r.WriteType(out, t.Elem())
	}
	if r.op.writeNames == nil {
		r.op.writeNames = make(map[reflect.Type]int)
	}
	if idx, ok := r.op.writeNames[t]; ok {
		out.WriteVarUint(tagNameRef)
		out.WriteVarUint(uint64(idx))
		return nil
	}
	r.op.writeNames[t] = len(r.op.writeNames)
	r.loader.Register(t)
	out.WriteVarUint(tagName)
	out.WriteString(typeName(t))
	return nil
}

// ReadType reads a tag written by WriteType. The nil tag yields a nil type.
func (r *Registry) ReadType(in Reader) (reflect.Type, error) {
	tag := in.ReadVarUint()
	if err := in.Err(); err != nil {
		return nil, ioError("read", err)
	}
	switch tag {
	case tagNil:
		return nil, nil
	case tagName:
		name := in.ReadString()
		if err := in.Err(); err != nil {
			return nil, ioError("read", err)
		}
		t, err := r.loader.Load(name)
		if err != nil {
			return nil, err
		}
		r.op.readNames = append(r.op.readNames, t)
		return t, nil
	case tagNameRef:
		idx := in.ReadVarUint()
		if err := in.Err(); err != nil {
			return nil, ioError("read", err)
		}
		if idx >= uint64(len(r.op.readNames)) {
			return nil, newError("read", "", fmt.Errorf("%w: type name reference %d", ErrUnknownType, idx))
		}
		return r.op.readNames[idx], nil
	case tagPointer, tagSlice, tagArray:
		var n uint64
		if tag == tagArray {
			n = in.ReadVarUint()
		}
		elem, err := r.ReadType(in)
		if err != nil {
			return nil, err
		}
		if elem == nil {
			return nil, newError("read", "", fmt.Errorf("%w: composite type without element", ErrUnknownType))
		}
		switch tag {
		case tagPointer:
			return reflect.PointerTo(elem), nil
		case tagSlice:
			return reflect.SliceOf(elem), nil
		}
		if n > 1<<31 {
			return nil, newError("read", "", fmt.Errorf("%w: array length %d", ErrUnsupportedType, n))
		}
		return reflect.ArrayOf(int(n), elem), nil
	case tagMap:
		key, err := r.ReadType(in)
		if err != nil {
			return nil, err
		}
		elem, err := r.ReadType(in)
		if err != nil {
			return nil, err
		}
		if key == nil || elem == nil || !key.Comparable() {
			return nil, newError("read", "", fmt.Errorf("%w: invalid map type", ErrUnknownType))
		}
		return reflect.MapOf(key, elem), nil
	}
	if tag < tagIDBase || tag-tagIDBase >= uint64(len(r.byID)) {
		return nil, newError("read", "", fmt.Errorf("%w: type id %d", ErrUnknownType, tag))
	}
	return r.byID[tag-tagIDBase].Type, nil
}

// ============================================================================
// Operation lifecycle
// ============================================================================

func (r *Registry) begin(kind opKind) {
	r.refs.reset()
	clear(r.op.writeNames)
	r.op.readNames = r.op.readNames[:0]
	r.op.depth = 0
	r.op.kind = kind
}

func (r *Registry) end() {
	r.refs.reset()
	clear(r.op.writeNames)
	clear(r.op.readNames)
	r.op.readNames = r.op.readNames[:0]
	r.op.depth = 0
	r.op.kind = opIdle
}

// Reset clears the per-operation state. Top-level operations do this
// themselves; Reset is for callers driving the serializer operations
// directly.
func (r *Registry) Reset() {
	r.end()
}
