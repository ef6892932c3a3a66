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
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Writer is the byte-level sink the codec writes to. Implementations keep
// the first error they hit and ignore subsequent writes; Err reports it.
type Writer interface {
	WriteInt8(v int8)
	WriteBool(v bool)
	WriteVarInt(v int64)
	WriteVarUint(v uint64)
	WriteFixedInt32(v int32)
	WriteFixedInt64(v int64)
	WriteFloat32(v float32)
	WriteFloat64(v float64)
	WriteString(v string)
	WriteRawBytes(v []byte)
	Flush() error
	Close() error
	Err() error
}

// Reader is the byte-level source the codec reads from. Like Writer, errors
// are sticky: after the first failure every read returns a zero value.
type Reader interface {
	ReadInt8() int8
	ReadBool() bool
	ReadVarInt() int64
	ReadVarUint() uint64
	ReadFixedInt32() int32
	ReadFixedInt64() int64
	ReadFloat32() float32
	ReadFloat64() float64
	ReadString() string
	ReadRawBytes(n int) []byte
	Err() error
}

var errVarintOverflow = errors.New("varint overflows 64 bits")

// ByteBuffer is an in-memory Writer and Reader.
type ByteBuffer struct {
	data        []byte
	writerIndex int
	readerIndex int
	err         error
}

// NewByteBuffer wraps data for reading. Writes append after the existing data.
func NewByteBuffer(data []byte) *ByteBuffer {
	return &ByteBuffer{data: data, writerIndex: len(data)}
}

func (b *ByteBuffer) grow(n int) {
	need := b.writerIndex + n
	if need <= len(b.data) {
		return
	}
	if need <= cap(b.data) {
		b.data = b.data[:need]
		return
	}
	newCap := 2*cap(b.data) + n
	if newCap < 64 {
		newCap = 64
	}
	grown := make([]byte, need, newCap)
	copy(grown, b.data[:b.writerIndex])
	b.data = grown
}

func (b *ByteBuffer) WriteInt8(v int8) {
	b.WriteByte_(byte(v))
}

func (b *ByteBuffer) WriteByte_(v byte) {
	b.grow(1)
	b.data[b.writerIndex] = v
	b.writerIndex++
}

func (b *ByteBuffer) WriteBool(v bool) {
	if v {
		b.WriteByte_(1)
	} else {
		b.WriteByte_(0)
	}
}

// WriteVarUint writes v as an unsigned LEB128 varint.
func (b *ByteBuffer) WriteVarUint(v uint64) {
	b.grow(binary.MaxVarintLen64)
	n := binary.PutUvarint(b.data[b.writerIndex:], v)
	b.writerIndex += n
	b.data = b.data[:b.writerIndex]
}

// WriteVarInt writes v zig-zag encoded, so small negative values stay short.
func (b *ByteBuffer) WriteVarInt(v int64) {
	b.WriteVarUint(uint64((v << 1) ^ (v >> 63)))
}

func (b *ByteBuffer) WriteFixedInt32(v int32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.data[b.writerIndex:], uint32(v))
	b.writerIndex += 4
}

func (b *ByteBuffer) WriteFixedInt64(v int64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.data[b.writerIndex:], uint64(v))
	b.writerIndex += 8
}

func (b *ByteBuffer) WriteFloat32(v float32) {
	b.WriteFixedInt32(int32(math.Float32bits(v)))
}

func (b *ByteBuffer) WriteFloat64(v float64) {
	b.WriteFixedInt64(int64(math.Float64bits(v)))
}

func (b *ByteBuffer) WriteString(v string) {
	b.WriteVarUint(uint64(len(v)))
	b.grow(len(v))
	copy(b.data[b.writerIndex:], v)
	b.writerIndex += len(v)
}

func (b *ByteBuffer) WriteRawBytes(v []byte) {
	b.grow(len(v))
	copy(b.data[b.writerIndex:], v)
	b.writerIndex += len(v)
}

func (b *ByteBuffer) Flush() error { return b.err }
func (b *ByteBuffer) Close() error { return b.err }
func (b *ByteBuffer) Err() error   { return b.err }

func (b *ByteBuffer) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *ByteBuffer) remaining() int {
	return b.writerIndex - b.readerIndex
}

func (b *ByteBuffer) take(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || b.remaining() < n {
		b.fail(io.ErrUnexpectedEOF)
		return nil
	}
	s := b.data[b.readerIndex : b.readerIndex+n]
	b.readerIndex += n
	return s
}

func (b *ByteBuffer) ReadByte_() byte {
	s := b.take(1)
	if s == nil {
		return 0
	}
	return s[0]
}

func (b *ByteBuffer) ReadInt8() int8 {
	return int8(b.ReadByte_())
}

func (b *ByteBuffer) ReadBool() bool {
	return b.ReadByte_() != 0
}

func (b *ByteBuffer) ReadVarUint() uint64 {
	if b.err != nil {
		return 0
	}
	v, n := binary.Uvarint(b.data[b.readerIndex:b.writerIndex])
	switch {
	case n == 0:
		b.fail(io.ErrUnexpectedEOF)
		return 0
	case n < 0:
		b.fail(errVarintOverflow)
		return 0
	}
	b.readerIndex += n
	return v
}

func (b *ByteBuffer) ReadVarInt() int64 {
	u := b.ReadVarUint()
	return int64(u>>1) ^ -int64(u&1)
}

func (b *ByteBuffer) ReadFixedInt32() int32 {
	s := b.take(4)
	if s == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(s))
}

func (b *ByteBuffer) ReadFixedInt64() int64 {
	s := b.take(8)
	if s == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(s))
}

func (b *ByteBuffer) ReadFloat32() float32 {
	return math.Float32frombits(uint32(b.ReadFixedInt32()))
}

func (b *ByteBuffer) ReadFloat64() float64 {
	return math.Float64frombits(uint64(b.ReadFixedInt64()))
}

func (b *ByteBuffer) ReadString() string {
	n := b.ReadVarUint()
	if n > uint64(b.remaining()) {
		b.fail(io.ErrUnexpectedEOF)
		return ""
	}
	return string(b.take(int(n)))
}

// ReadRawBytes returns a copy of the next n bytes.
func (b *ByteBuffer) ReadRawBytes(n int) []byte {
	s := b.take(n)
	if s == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, s)
	return out
}

// Bytes returns a copy of the written, unread region.
func (b *ByteBuffer) Bytes() []byte {
	out := make([]byte, b.remaining())
	copy(out, b.data[b.readerIndex:b.writerIndex])
	return out
}

func (b *ByteBuffer) WriterIndex() int { return b.writerIndex }
func (b *ByteBuffer) ReaderIndex() int { return b.readerIndex }

// Reset empties the buffer and clears the error, keeping capacity.
func (b *ByteBuffer) Reset() {
	b.data = b.data[:0]
	b.writerIndex = 0
	b.readerIndex = 0
	b.err = nil
}
