// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package block

import (
	"fmt"
)

// Block is a fixed-capacity byte buffer holding one upload chunk.
type Block interface {
	// Reuse resets the block for reuse. The capacity is retained.
	Reuse()

	// Deallocate releases the memory held by the block. The block must not be
	// used afterwards.
	Deallocate() error

	// Size provides the number of bytes written to the block so far.
	Size() int64

	// Cap provides the total number of bytes the block can hold.
	Cap() int64

	// Write appends the given data to the block. It fails without writing
	// anything if the data does not fit in the remaining capacity.
	Write(bytes []byte) (int, error)

	// Bytes returns the written portion of the block. The slice aliases the
	// block's memory and is only valid until the next Reuse or Deallocate.
	Bytes() []byte
}

// memoryBlock is a Block backed by a heap allocated slice.
type memoryBlock struct {
	buffer []byte
	size   int64
}

func (m *memoryBlock) Reuse() {
	m.size = 0
}

func (m *memoryBlock) Deallocate() error {
	if m.buffer == nil {
		return fmt.Errorf("invalid buffer")
	}
	m.buffer = nil
	m.size = 0
	return nil
}

func (m *memoryBlock) Size() int64 {
	return m.size
}

func (m *memoryBlock) Cap() int64 {
	return int64(len(m.buffer))
}

func (m *memoryBlock) Write(bytes []byte) (int, error) {
	if m.size+int64(len(bytes)) > int64(len(m.buffer)) {
		return 0, fmt.Errorf("received data more than capacity of the block")
	}

	n := copy(m.buffer[m.size:], bytes)
	m.size += int64(n)
	return n, nil
}

func (m *memoryBlock) Bytes() []byte {
	return m.buffer[:m.size]
}

// createBlock creates a new block of the given capacity.
func createBlock(blockSize int64) (Block, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %d", blockSize)
	}
	return &memoryBlock{buffer: make([]byte, blockSize)}, nil
}
