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

// Package snapshot persists registries as compressed, checksummed frames:
//
//	magic "GCSN" | version | blake3-256(payload) | varuint len | payload
//
// where payload is the zstd-compressed encoding of the registry made by a
// meta registry.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/chaokunyang/graphcodec"
)

const (
	magic   = "GCSN"
	version = 1

	// maxPayload bounds the compressed payload a frame may declare.
	maxPayload = 1 << 30
)

// ErrCorrupt indicates a frame with a bad magic, version or digest.
var ErrCorrupt = errors.New("snapshot: corrupt frame")

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Write encodes r with meta and writes one frame to w.
func Write(w io.Writer, meta, r *graphcodec.Registry) error {
	data, err := meta.Encode(r)
	if err != nil {
		return err
	}
	payload := zstdEncoder.EncodeAll(data, nil)
	digest := blake3.Sum256(payload)

	var header bytes.Buffer
	header.WriteString(magic)
	header.WriteByte(version)
	header.Write(digest[:])
	header.Write(binary.AppendUvarint(nil, uint64(len(payload))))
	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("snapshot: writing header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("snapshot: writing payload: %w", err)
	}
	return nil
}

// Read reads one frame from rd and decodes the registry in it with meta.
// Readers that are not io.ByteReaders are buffered and may be read past
// the end of the frame.
// The decoded registry takes its type loader, strategy pool, accessor cache
// and logger from meta.
func Read(rd io.Reader, meta *graphcodec.Registry) (*graphcodec.Registry, error) {
	br, ok := rd.(byteReader)
	if !ok {
		br = bufio.NewReader(rd)
	}
	var fixed [len(magic) + 1 + 32]byte
	if _, err := io.ReadFull(br, fixed[:]); err != nil {
		return nil, fmt.Errorf("snapshot: reading header: %w", err)
	}
	if string(fixed[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, fixed[:len(magic)])
	}
	if v := fixed[len(magic)]; v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	var digest [32]byte
	copy(digest[:], fixed[len(magic)+1:])
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading length: %w", err)
	}
	if n > maxPayload {
		return nil, fmt.Errorf("%w: payload length %d", ErrCorrupt, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, fmt.Errorf("snapshot: reading payload: %w", err)
	}
	if blake3.Sum256(payload) != digest {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	data, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decompress: %w", ErrCorrupt, err)
	}
	return graphcodec.Unmarshal[*graphcodec.Registry](meta, data)
}
