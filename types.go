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

var (
	anyType               = reflect.TypeOf((*any)(nil)).Elem()
	bytesType             = reflect.TypeOf([]byte(nil))
	emptyStructType       = reflect.TypeOf(struct{}{})
	typeInterfaceType     = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	rtypeType             = reflect.TypeOf(reflect.TypeOf(0))
	fieldHandleType       = reflect.TypeOf((*FieldHandle)(nil))
	constructorHandleType = reflect.TypeOf((*ConstructorHandle)(nil))
	serializerType        = reflect.TypeOf((*Serializer)(nil)).Elem()
	strategyType          = reflect.TypeOf((*InstantiatorStrategy)(nil)).Elem()
)

// primitiveTypes are registered in this order by every registry, which
// fixes their ids.
var primitiveTypes = []reflect.Type{
	reflect.TypeOf(false),
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint32(0)),
	reflect.TypeOf(uint64(0)),
	reflect.TypeOf(uintptr(0)),
	reflect.TypeOf(float32(0)),
	reflect.TypeOf(float64(0)),
	reflect.TypeOf(""),
}

// builtinLoaderTypes are loadable by name in every TypeLoader, so that a
// registry written by one process can be read by another.
func builtinLoaderTypes() []reflect.Type {
	return []reflect.Type{
		emptyStructType,
		typeInterfaceType,
		serializerType,
		strategyType,
		reflect.TypeOf(reflect.Kind(0)),
		reflect.TypeOf(Config{}),
		reflect.TypeOf(Flags{}),
		reflect.TypeOf(Registry{}),
		reflect.TypeOf(Registration{}),
		reflect.TypeOf(defaultBinding{}),
		reflect.TypeOf(sharedFactory{}),
		reflect.TypeOf(FieldSerializerFactory{}),
		reflect.TypeOf(FieldHandle{}),
		reflect.TypeOf(ConstructorHandle{}),
		reflect.TypeOf(CachedField{}),
		reflect.TypeOf(FieldSerializer{}),
		reflect.TypeOf(PrimitiveSerializer{}),
		reflect.TypeOf(StringSerializer{}),
		reflect.TypeOf(BytesSerializer{}),
		reflect.TypeOf(InterfaceSerializer{}),
		reflect.TypeOf(TypeSerializer{}),
		reflect.TypeOf(PointerSerializer{}),
		reflect.TypeOf(SliceSerializer{}),
		reflect.TypeOf(ArraySerializer{}),
		reflect.TypeOf(MapSerializer{}),
		reflect.TypeOf(SetSerializer{}),
		reflect.TypeOf(FieldHandleSerializer{}),
		reflect.TypeOf(ConstructorHandleSerializer{}),
		reflect.TypeOf(CachedFieldSerializer{}),
		reflect.TypeOf(RegistrySerializer{}),
		reflect.TypeOf(SerializerOfSerializers{}),
		reflect.TypeOf(StrategySerializer{}),
		reflect.TypeOf(bypassInstantiator{}),
		reflect.TypeOf(constructorInstantiator{}),
		reflect.TypeOf(ConstructorStrategy{}),
		reflect.TypeOf(BypassStrategy{}),
		reflect.TypeOf(DefaultStrategy{}),
		reflect.TypeOf(CachingStrategy{}),
	}
}
