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
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type metaOrder struct {
	ID       int64
	Customer string
	Lines    []*metaLine
	Primary  *metaLine
	Tags     []string
	Extra    any
	note     string
	Total    float64 `graph:",fixed"`
	scratch  []byte  `graph:",transient"`
}

type metaLine struct {
	SKU   string
	Qty   int32
	Order *metaOrder
}

func sampleOrder() *metaOrder {
	o := &metaOrder{ID: 42, Customer: "acme", Tags: []string{"rush", "gift"}, note: "fragile", Total: 19.5}
	a := &metaLine{SKU: "A-1", Qty: 2, Order: o}
	b := &metaLine{SKU: "B-2", Qty: 1, Order: o}
	o.Lines = []*metaLine{a, b}
	o.Primary = a
	o.Extra = point{X: 1, Name: "extra"}
	return o
}

// prepared returns a registry that has already encoded an order, so it
// holds synthesized serializers with cached fields for every type involved.
func prepared(t *testing.T, opts ...Option) (*Registry, []byte) {
	r := New(opts...)
	_, err := r.Register(TypeOf[*metaLine]())
	require.NoError(t, err)
	data, err := r.Encode(sampleOrder())
	require.NoError(t, err)
	return r, data
}

func TestMetaRoundTripEncodesIdentically(t *testing.T) {
	r, expected := prepared(t, WithStructHash(true))
	meta, err := NewMetaRegistry()
	require.NoError(t, err)

	data, err := meta.Encode(r)
	require.NoError(t, err)
	decoded, err := Unmarshal[*Registry](meta, data)
	require.NoError(t, err)
	require.NotSame(t, r, decoded)
	require.Equal(t, r.Config(), decoded.Config())

	actual, err := decoded.Encode(sampleOrder())
	require.NoError(t, err)
	require.Equal(t, expected, actual)

	order, err := Unmarshal[*metaOrder](decoded, expected)
	require.NoError(t, err)
	require.Equal(t, "acme", order.Customer)
	require.Equal(t, "fragile", order.note)
	require.Same(t, order.Primary, order.Lines[0])
	require.Same(t, order, order.Lines[1].Order)
	require.Equal(t, point{X: 1, Name: "extra"}, order.Extra)
}

func TestMetaCopyEncodesIdentically(t *testing.T) {
	r, expected := prepared(t)
	meta, err := NewMetaRegistry()
	require.NoError(t, err)

	c, err := CopyOf(meta, r)
	require.NoError(t, err)
	require.NotSame(t, r, c)

	actual, err := c.Encode(sampleOrder())
	require.NoError(t, err)
	require.Equal(t, expected, actual)

	// the copy owns its serializers
	orig, err := r.Serializer(TypeOf[metaOrder]())
	require.NoError(t, err)
	copied, err := c.Serializer(TypeOf[metaOrder]())
	require.NoError(t, err)
	require.NotSame(t, orig, copied)
	require.Equal(t, orig.(*FieldSerializer).Hash(), copied.(*FieldSerializer).Hash())

	// and a registration made on the copy does not leak back
	_, err = c.Register(TypeOf[leaf]())
	require.NoError(t, err)
	reg, err := r.Registration(TypeOf[leaf]())
	require.NoError(t, err)
	require.Equal(t, -1, reg.ID)
}

func TestMetaRestoresCachedFields(t *testing.T) {
	r, _ := prepared(t)
	meta, err := NewMetaRegistry()
	require.NoError(t, err)
	data, err := meta.Encode(r)
	require.NoError(t, err)
	decoded, err := Unmarshal[*Registry](meta, data)
	require.NoError(t, err)

	orig, err := r.Serializer(TypeOf[metaOrder]())
	require.NoError(t, err)
	restored, err := decoded.Serializer(TypeOf[metaOrder]())
	require.NoError(t, err)
	of := orig.(*FieldSerializer)
	rf := restored.(*FieldSerializer)
	require.Equal(t, of.StructType(), rf.StructType())
	require.Len(t, rf.Fields(), len(of.Fields()))
	for i, f := range rf.Fields() {
		o := of.Fields()[i]
		require.Equal(t, o.Name(), f.Name())
		require.Equal(t, o.Offset(), f.Offset())
		require.Equal(t, o.Index(), f.Index())
		require.Equal(t, o.ValueType(), f.ValueType())
		require.Equal(t, o.Nullable(), f.Nullable())
		require.Equal(t, o.VarInt(), f.VarInt())
		require.Equal(t, o.Transient(), f.Transient())
		require.Equal(t, reflect.TypeOf(o.Serializer()), reflect.TypeOf(f.Serializer()))
		require.Equal(t, o.Handle(), f.Handle())
	}

	// self references inside the serializer graph survive
	lines, ok := rf.Field("Lines")
	require.True(t, ok)
	require.IsType(t, &SliceSerializer{}, lines.Serializer())
	primary, ok := rf.Field("Primary")
	require.True(t, ok)
	lineSer, err := decoded.Serializer(TypeOf[*metaLine]())
	require.NoError(t, err)
	require.Same(t, lineSer, primary.Serializer())
	orderField, ok := lineSer.(*FieldSerializer).Field("Order")
	require.True(t, ok)
	require.Same(t, restored, orderField.Serializer())
}

func TestMetaSharesPooledStrategy(t *testing.T) {
	r := New()
	meta, err := NewMetaRegistry()
	require.NoError(t, err)

	data, err := meta.Encode(r)
	require.NoError(t, err)
	decoded, err := Unmarshal[*Registry](meta, data)
	require.NoError(t, err)
	require.Same(t, r.Strategy(), decoded.Strategy())

	c, err := CopyOf(meta, r)
	require.NoError(t, err)
	require.Same(t, r.Strategy(), c.Strategy())

	// a meta registry with its own pool hands out that pool's instance
	pool := NewStrategyPool(16)
	isolated, err := NewMetaRegistry(WithStrategyPool(pool))
	require.NoError(t, err)
	other, err := Unmarshal[*Registry](isolated, data)
	require.NoError(t, err)
	require.NotSame(t, r.Strategy(), other.Strategy())
	require.Same(t, pool.Caching(&DefaultStrategy{}), other.Strategy())
	require.Same(t, pool, other.StrategyPool())
	require.IsType(t, &DefaultStrategy{}, other.Strategy().(*CachingStrategy).Wrapped())
}

func TestMetaRestoresTransients(t *testing.T) {
	r, _ := prepared(t)
	meta, err := NewMetaRegistry()
	require.NoError(t, err)
	c, err := CopyOf(meta, r)
	require.NoError(t, err)
	require.Same(t, meta.TypeLoader(), c.TypeLoader())
	require.Same(t, meta.Accessors(), c.Accessors())
	require.Same(t, meta.Logger(), c.Logger())
	require.NotNil(t, c.refs)
	require.NotSame(t, r.refs, c.refs)
}

func TestMetaPlainStrategy(t *testing.T) {
	// pools hold one strategy per kind, so the configured fallback needs
	// pools of its own on both sides
	r := New(WithStrategyPool(NewStrategyPool(8)), WithStrategy(&DefaultStrategy{Fallback: &BypassStrategy{}}))
	meta, err := NewMetaRegistry(WithStrategyPool(NewStrategyPool(8)))
	require.NoError(t, err)
	data, err := meta.Encode(r)
	require.NoError(t, err)
	decoded, err := Unmarshal[*Registry](meta, data)
	require.NoError(t, err)
	wrapped, ok := decoded.Strategy().(*CachingStrategy).Wrapped().(*DefaultStrategy)
	require.True(t, ok)
	require.IsType(t, &BypassStrategy{}, wrapped.Fallback)
}

func TestMetaDefaultBindings(t *testing.T) {
	r := New()
	require.NoError(t, r.AddDefaultSerializer(TypeOf[labeled](), Shared(&labelSerializer{})))
	in := badge{Name: "gold"}
	expected, err := r.Encode(in)
	require.NoError(t, err)

	meta, err := NewMetaRegistry()
	require.NoError(t, err)
	data, err := meta.Encode(r)
	require.NoError(t, err)
	decoded, err := Unmarshal[*Registry](meta, data)
	require.NoError(t, err)

	actual, err := decoded.Encode(in)
	require.NoError(t, err)
	require.Equal(t, expected, actual)

	// types first seen after the round trip still find the binding
	s, err := decoded.Serializer(TypeOf[fancyBadge]())
	require.NoError(t, err)
	require.IsType(t, &labelSerializer{}, s)
}

func TestHandleErrorsNameTypeAndMember(t *testing.T) {
	r := New()

	_, err := r.Accessors().Field(TypeOf[point](), "Z")
	require.ErrorIs(t, err, ErrUnknownMember)
	var ce *CodecError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, typeName(TypeOf[point]()), ce.Type)
	require.Equal(t, "Z", ce.Member)
	require.Contains(t, err.Error(), "point")

	meta, err := NewMetaRegistry()
	require.NoError(t, err)

	data, err := meta.Encode(&FieldHandle{declaring: TypeOf[point](), name: "Missing"})
	require.NoError(t, err)
	_, err = meta.Decode(data)
	require.ErrorIs(t, err, ErrUnknownMember)
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "Missing", ce.Member)
	require.Equal(t, typeName(TypeOf[point]()), ce.Type)

	data, err = meta.Encode(&ConstructorHandle{declaring: TypeOf[point](), params: []reflect.Type{TypeOf[int]()}})
	require.NoError(t, err)
	_, err = meta.Decode(data)
	require.ErrorIs(t, err, ErrUnknownMember)
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "(int)", ce.Member)
}

func TestFieldHandleRoundTrip(t *testing.T) {
	meta, err := NewMetaRegistry()
	require.NoError(t, err)
	h, err := meta.Accessors().Field(TypeOf[*point](), "Name")
	require.NoError(t, err)
	require.Equal(t, TypeOf[point](), h.DeclaringType())

	data, err := meta.Encode(h)
	require.NoError(t, err)
	decoded, err := Unmarshal[*FieldHandle](meta, data)
	require.NoError(t, err)
	require.Same(t, h, decoded)
	require.Equal(t, "Name", decoded.StructField().Name)

	c, err := CopyOf(meta, h)
	require.NoError(t, err)
	require.Same(t, h, c)
}

func TestMetaRegistryEncodesItself(t *testing.T) {
	meta, err := NewMetaRegistry()
	require.NoError(t, err)

	data, err := meta.Encode(meta)
	require.NoError(t, err)
	decoded, err := Unmarshal[*Registry](meta, data)
	require.NoError(t, err)
	require.NotSame(t, meta, decoded)
	require.Equal(t, meta.Config(), decoded.Config())

	r, expected := prepared(t)
	persisted, err := decoded.Encode(r)
	require.NoError(t, err)
	restored, err := Unmarshal[*Registry](decoded, persisted)
	require.NoError(t, err)
	actual, err := restored.Encode(sampleOrder())
	require.NoError(t, err)
	require.Equal(t, expected, actual)

	c, err := CopyOf(meta, meta)
	require.NoError(t, err)
	require.NotSame(t, meta, c)
	again, err := c.Encode(r)
	require.NoError(t, err)
	_, err = Unmarshal[*Registry](c, again)
	require.NoError(t, err)
}

type registryHolder struct {
	Name  string
	Reg   *Registry
	Again *Registry
}

func TestNestedRegistry(t *testing.T) {
	r, expected := prepared(t)
	plain := New()
	require.IsType(t, &NestedRegistrySerializer{}, mustSerializer(t, plain, registryPtrType))

	t.Run("Decode", func(t *testing.T) {
		data, err := plain.Encode(&registryHolder{Name: "ops", Reg: r, Again: r})
		require.NoError(t, err)
		h, err := Unmarshal[*registryHolder](plain, data)
		require.NoError(t, err)
		require.Equal(t, "ops", h.Name)
		require.NotSame(t, r, h.Reg)
		require.Same(t, h.Reg, h.Again)
		require.Same(t, plain.Accessors(), h.Reg.Accessors())

		actual, err := h.Reg.Encode(sampleOrder())
		require.NoError(t, err)
		require.Equal(t, expected, actual)
	})

	t.Run("Copy", func(t *testing.T) {
		h, err := CopyOf(plain, &registryHolder{Name: "ops", Reg: r, Again: r})
		require.NoError(t, err)
		require.NotSame(t, r, h.Reg)
		require.Same(t, h.Reg, h.Again)

		actual, err := h.Reg.Encode(sampleOrder())
		require.NoError(t, err)
		require.Equal(t, expected, actual)
	})

	t.Run("Nil", func(t *testing.T) {
		data, err := plain.Encode(&registryHolder{Name: "empty"})
		require.NoError(t, err)
		h, err := Unmarshal[*registryHolder](plain, data)
		require.NoError(t, err)
		require.Nil(t, h.Reg)
	})
}

func mustSerializer(t *testing.T, r *Registry, typ reflect.Type) Serializer {
	s, err := r.Serializer(typ)
	require.NoError(t, err)
	return s
}
