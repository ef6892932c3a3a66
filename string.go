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

// StringSerializer writes strings as a varuint length and UTF-8 bytes.
type StringSerializer struct {
	Flags
}

func newStringSerializer() *StringSerializer {
	s := &StringSerializer{}
	s.SetImmutable(true)
	s.SetStateless(true)
	return s
}

func (s *StringSerializer) Write(_ *Registry, out Writer, value reflect.Value) error {
	out.WriteString(value.String())
	return nil
}

func (s *StringSerializer) Read(_ *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	v.SetString(in.ReadString())
	return v, nil
}

func (s *StringSerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	return original, nil
}

// BytesSerializer writes []byte as a varuint length and the raw bytes.
type BytesSerializer struct {
	Flags
}

func newBytesSerializer() *BytesSerializer {
	s := &BytesSerializer{}
	s.SetStateless(true)
	return s
}

func (s *BytesSerializer) Write(_ *Registry, out Writer, value reflect.Value) error {
	b := value.Bytes()
	out.WriteVarUint(uint64(len(b)))
	out.WriteRawBytes(b)
	return nil
}

func (s *BytesSerializer) Read(_ *Registry, in Reader, t reflect.Type) (reflect.Value, error) {
	n, err := readLength(in)
	if err != nil {
		return reflect.Value{}, err
	}
	b := in.ReadRawBytes(n)
	v := reflect.New(t).Elem()
	v.SetBytes(b)
	return v, nil
}

func (s *BytesSerializer) Copy(_ *Registry, original reflect.Value) (reflect.Value, error) {
	b := make([]byte, original.Len())
	copy(b, original.Bytes())
	v := reflect.New(original.Type()).Elem()
	v.SetBytes(b)
	return v, nil
}
