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
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// StreamWriter is a buffered Writer over an io.Writer.
type StreamWriter struct {
	w       *bufio.Writer
	dst     io.Writer
	err     error
	scratch [binary.MaxVarintLen64]byte
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriter(w), dst: w}
}

func (s *StreamWriter) write(p []byte) {
	if s.err != nil {
		return
	}
	if _, err := s.w.Write(p); err != nil {
		s.err = err
	}
}

func (s *StreamWriter) WriteInt8(v int8) {
	s.scratch[0] = byte(v)
	s.write(s.scratch[:1])
}

func (s *StreamWriter) WriteBool(v bool) {
	if v {
		s.WriteInt8(1)
	} else {
		s.WriteInt8(0)
	}
}

func (s *StreamWriter) WriteVarUint(v uint64) {
	n := binary.PutUvarint(s.scratch[:], v)
	s.write(s.scratch[:n])
}

func (s *StreamWriter) WriteVarInt(v int64) {
	s.WriteVarUint(uint64((v << 1) ^ (v >> 63)))
}

func (s *StreamWriter) WriteFixedInt32(v int32) {
	binary.LittleEndian.PutUint32(s.scratch[:4], uint32(v))
	s.write(s.scratch[:4])
}

func (s *StreamWriter) WriteFixedInt64(v int64) {
	binary.LittleEndian.PutUint64(s.scratch[:8], uint64(v))
	s.write(s.scratch[:8])
}

func (s *StreamWriter) WriteFloat32(v float32) {
	s.WriteFixedInt32(int32(math.Float32bits(v)))
}

func (s *StreamWriter) WriteFloat64(v float64) {
	s.WriteFixedInt64(int64(math.Float64bits(v)))
}

func (s *StreamWriter) WriteString(v string) {
	s.WriteVarUint(uint64(len(v)))
	if s.err == nil {
		if _, err := s.w.WriteString(v); err != nil {
			s.err = err
		}
	}
}

func (s *StreamWriter) WriteRawBytes(v []byte) {
	s.write(v)
}

func (s *StreamWriter) Flush() error {
	if s.err != nil {
		return s.err
	}
	s.err = s.w.Flush()
	return s.err
}

// Close flushes and closes the destination if it is an io.Closer.
func (s *StreamWriter) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if c, ok := s.dst.(io.Closer); ok {
		s.err = c.Close()
	}
	return s.err
}

func (s *StreamWriter) Err() error { return s.err }

// StreamReader is a buffered Reader over an io.Reader.
type StreamReader struct {
	r       *bufio.Reader
	err     error
	scratch [8]byte
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r)}
}

func (s *StreamReader) fill(p []byte) bool {
	if s.err != nil {
		return false
	}
	if _, err := io.ReadFull(s.r, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		s.err = err
		return false
	}
	return true
}

func (s *StreamReader) ReadInt8() int8 {
	if !s.fill(s.scratch[:1]) {
		return 0
	}
	return int8(s.scratch[0])
}

func (s *StreamReader) ReadBool() bool {
	return s.ReadInt8() != 0
}

func (s *StreamReader) ReadVarUint() uint64 {
	if s.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(s.r)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		s.err = err
		return 0
	}
	return v
}

func (s *StreamReader) ReadVarInt() int64 {
	u := s.ReadVarUint()
	return int64(u>>1) ^ -int64(u&1)
}

func (s *StreamReader) ReadFixedInt32() int32 {
	if !s.fill(s.scratch[:4]) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(s.scratch[:4]))
}

func (s *StreamReader) ReadFixedInt64() int64 {
	if !s.fill(s.scratch[:8]) {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(s.scratch[:8]))
}

func (s *StreamReader) ReadFloat32() float32 {
	return math.Float32frombits(uint32(s.ReadFixedInt32()))
}

func (s *StreamReader) ReadFloat64() float64 {
	return math.Float64frombits(uint64(s.ReadFixedInt64()))
}

func (s *StreamReader) ReadString() string {
	return string(s.ReadRawBytes(int(s.ReadVarUint())))
}

func (s *StreamReader) ReadRawBytes(n int) []byte {
	if s.err != nil {
		return nil
	}
	if n < 0 {
		s.err = errVarintOverflow
		return nil
	}
	// Grow in bounded steps so a corrupt length cannot force a huge allocation.
	const step = 1 << 16
	out := make([]byte, 0, min(n, step))
	for len(out) < n {
		chunk := min(n-len(out), step)
		start := len(out)
		out = append(out, make([]byte, chunk)...)
		if !s.fill(out[start:]) {
			return nil
		}
	}
	return out
}

func (s *StreamReader) Err() error { return s.err }
