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
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarint(t *testing.T) {
	for i := 1; i <= 32; i++ {
		buf := NewByteBuffer(nil)
		for j := 0; j < i; j++ {
			buf.WriteByte_(1) // make address unaligned.
			buf.ReadByte_()
		}
		checkVarUint(t, buf, 1, 1)
		checkVarUint(t, buf, 1<<6, 1)
		checkVarUint(t, buf, 1<<7, 2)
		checkVarUint(t, buf, 1<<13, 2)
		checkVarUint(t, buf, 1<<14, 3)
		checkVarUint(t, buf, 1<<20, 3)
		checkVarUint(t, buf, 1<<21, 4)
		checkVarUint(t, buf, 1<<27, 4)
		checkVarUint(t, buf, 1<<28, 5)
		checkVarUint(t, buf, math.MaxInt32, 5)
		checkVarUint(t, buf, math.MaxUint64, 10)
		checkVarInt(t, buf, -1, 1)
		checkVarInt(t, buf, -1<<6, 1)
		checkVarInt(t, buf, -1<<7, 2)
		checkVarInt(t, buf, -1<<13, 2)
		checkVarInt(t, buf, -1<<14, 3)
		checkVarInt(t, buf, -1<<20, 3)
		checkVarInt(t, buf, math.MinInt8, 2)
		checkVarInt(t, buf, math.MinInt16, 3)
		checkVarInt(t, buf, math.MinInt32, 5)
		checkVarInt(t, buf, math.MinInt64, 10)
	}
}

func checkVarUint(t *testing.T, buf *ByteBuffer, value uint64, bytesWritten int) {
	require.Equal(t, buf.WriterIndex(), buf.ReaderIndex())
	before := buf.WriterIndex()
	buf.WriteVarUint(value)
	require.Equal(t, bytesWritten, buf.WriterIndex()-before)
	require.Equal(t, value, buf.ReadVarUint())
	require.Equal(t, buf.ReaderIndex(), buf.WriterIndex())
	require.NoError(t, buf.Err())
}

func checkVarInt(t *testing.T, buf *ByteBuffer, value int64, bytesWritten int) {
	require.Equal(t, buf.WriterIndex(), buf.ReaderIndex())
	before := buf.WriterIndex()
	buf.WriteVarInt(value)
	require.Equal(t, bytesWritten, buf.WriterIndex()-before)
	require.Equal(t, value, buf.ReadVarInt())
	require.Equal(t, buf.ReaderIndex(), buf.WriterIndex())
	require.NoError(t, buf.Err())
}

func TestByteBufferFixedWidth(t *testing.T) {
	buf := NewByteBuffer(nil)
	buf.WriteFixedInt32(-7)
	buf.WriteFixedInt64(math.MaxInt64)
	buf.WriteFloat32(3.5)
	buf.WriteFloat64(-2.25)
	buf.WriteBool(true)
	buf.WriteInt8(-128)
	buf.WriteString("héllo")
	buf.WriteRawBytes([]byte{1, 2, 3})
	require.Equal(t, 4+8+4+8+1+1+1+6+3, buf.WriterIndex())

	require.Equal(t, int32(-7), buf.ReadFixedInt32())
	require.Equal(t, int64(math.MaxInt64), buf.ReadFixedInt64())
	require.Equal(t, float32(3.5), buf.ReadFloat32())
	require.Equal(t, -2.25, buf.ReadFloat64())
	require.True(t, buf.ReadBool())
	require.Equal(t, int8(-128), buf.ReadInt8())
	require.Equal(t, "héllo", buf.ReadString())
	require.Equal(t, []byte{1, 2, 3}, buf.ReadRawBytes(3))
	require.NoError(t, buf.Err())
}

func TestByteBufferStickyError(t *testing.T) {
	buf := NewByteBuffer([]byte{0x05})
	require.Equal(t, "", buf.ReadString())
	require.ErrorIs(t, buf.Err(), io.ErrUnexpectedEOF)
	require.Equal(t, int32(0), buf.ReadFixedInt32())
	require.ErrorIs(t, buf.Err(), io.ErrUnexpectedEOF)

	buf = NewByteBuffer(bytes.Repeat([]byte{0xff}, 11))
	require.Equal(t, uint64(0), buf.ReadVarUint())
	require.Error(t, buf.Err())

	buf.Reset()
	require.NoError(t, buf.Err())
	require.Equal(t, 0, buf.WriterIndex())
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestStreamRoundTrip(t *testing.T) {
	var sink bytes.Buffer
	w := NewStreamWriter(&sink)
	w.WriteVarInt(-300)
	w.WriteVarUint(1 << 40)
	w.WriteFixedInt32(17)
	w.WriteFixedInt64(-17)
	w.WriteFloat64(1.5)
	w.WriteString("stream")
	w.WriteBool(false)
	require.NoError(t, w.Flush())

	// the stream encoding is byte for byte the buffer encoding
	buf := NewByteBuffer(nil)
	buf.WriteVarInt(-300)
	buf.WriteVarUint(1 << 40)
	buf.WriteFixedInt32(17)
	buf.WriteFixedInt64(-17)
	buf.WriteFloat64(1.5)
	buf.WriteString("stream")
	buf.WriteBool(false)
	require.Equal(t, buf.Bytes(), sink.Bytes())

	r := NewStreamReader(bytes.NewReader(sink.Bytes()))
	require.Equal(t, int64(-300), r.ReadVarInt())
	require.Equal(t, uint64(1<<40), r.ReadVarUint())
	require.Equal(t, int32(17), r.ReadFixedInt32())
	require.Equal(t, int64(-17), r.ReadFixedInt64())
	require.Equal(t, 1.5, r.ReadFloat64())
	require.Equal(t, "stream", r.ReadString())
	require.False(t, r.ReadBool())
	require.NoError(t, r.Err())

	r.ReadInt8()
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestStreamWriterStickyError(t *testing.T) {
	boom := errors.New("boom")
	w := NewStreamWriter(failingWriter{err: boom})
	w.WriteRawBytes(make([]byte, 8192))
	w.WriteString("ignored")
	require.ErrorIs(t, w.Flush(), boom)
	require.ErrorIs(t, w.Err(), boom)
}
