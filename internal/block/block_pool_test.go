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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/semaphore"
)

const invalidConfigError string = "invalid configuration provided for blockPool, blocksize: %d, maxBlocks: %d"

type BlockPoolTest struct {
	suite.Suite
}

func TestBlockPoolTestSuite(t *testing.T) {
	suite.Run(t, new(BlockPoolTest))
}

func (t *BlockPoolTest) TestInitBlockPool() {
	bp, err := NewBlockPool(1024, 10, semaphore.NewWeighted(10))

	require.Nil(t.T(), err)
	require.NotNil(t.T(), bp)
	assert.Equal(t.T(), int64(1024), bp.BlockSize())
	assert.Equal(t.T(), int64(10), bp.maxBlocks)
	assert.Equal(t.T(), int64(0), bp.totalBlocks)
}

func (t *BlockPoolTest) TestInitBlockPoolWithInvalidConfig() {
	tests := []struct {
		name      string
		blockSize int64
		maxBlocks int64
	}{
		{"zero_block_size", 0, 10},
		{"negative_block_size", -1, 10},
		{"zero_max_blocks", 10, 0},
		{"negative_max_blocks", 10, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func() {
			_, err := NewBlockPool(tc.blockSize, tc.maxBlocks, semaphore.NewWeighted(10))

			require.NotNil(t.T(), err)
			assert.Equal(t.T(), fmt.Errorf(invalidConfigError, tc.blockSize, tc.maxBlocks), err)
		})
	}
}

func (t *BlockPoolTest) TestInitBlockPoolWhenGlobalLimitIsExhausted() {
	sem := semaphore.NewWeighted(1)
	_, err := NewBlockPool(1024, 10, sem)
	require.Nil(t.T(), err)

	_, err = NewBlockPool(1024, 10, sem)

	assert.Equal(t.T(), CantAllocateAnyBlockError, err)
}

func (t *BlockPoolTest) TestGetAllocatesReservedBlock() {
	bp, err := NewBlockPool(1024, 10, semaphore.NewWeighted(1))
	require.Nil(t.T(), err)

	b, err := bp.Get()

	require.Nil(t.T(), err)
	assert.Equal(t.T(), int64(1024), b.Cap())
	assert.Equal(t.T(), int64(0), b.Size())
	assert.Equal(t.T(), int64(1), bp.totalBlocks)
}

func (t *BlockPoolTest) TestGetReusesReleasedBlock() {
	bp, err := NewBlockPool(1024, 10, semaphore.NewWeighted(1))
	require.Nil(t.T(), err)
	b, err := bp.Get()
	require.Nil(t.T(), err)
	_, err = b.Write([]byte("abcd"))
	require.Nil(t.T(), err)
	bp.Release(b)
	require.Equal(t.T(), 1, bp.TotalFreeBlocks())

	b2, err := bp.Get()

	require.Nil(t.T(), err)
	assert.Same(t.T(), b, b2)
	assert.Equal(t.T(), int64(0), b2.Size())
	assert.Equal(t.T(), int64(1), bp.totalBlocks)
	assert.Equal(t.T(), 0, bp.TotalFreeBlocks())
}

func (t *BlockPoolTest) TestGetWhenMaxBlocksReached() {
	bp, err := NewBlockPool(1024, 1, semaphore.NewWeighted(10))
	require.Nil(t.T(), err)
	_, err = bp.Get()
	require.Nil(t.T(), err)

	_, err = bp.Get()

	assert.Equal(t.T(), CantAllocateAnyBlockError, err)
}

func (t *BlockPoolTest) TestGetWhenGlobalLimitReached() {
	bp, err := NewBlockPool(1024, 10, semaphore.NewWeighted(1))
	require.Nil(t.T(), err)
	_, err = bp.Get()
	require.Nil(t.T(), err)

	_, err = bp.Get()

	assert.Equal(t.T(), CantAllocateAnyBlockError, err)
}

func (t *BlockPoolTest) TestDeallocateOnlyBlockKeepsReservation() {
	sem := semaphore.NewWeighted(1)
	bp, err := NewBlockPool(1024, 10, sem)
	require.Nil(t.T(), err)
	b, err := bp.Get()
	require.Nil(t.T(), err)

	err = bp.Deallocate(b)

	require.Nil(t.T(), err)
	assert.Equal(t.T(), int64(0), bp.totalBlocks)
	// The reserved unit is still held by the pool.
	assert.False(t.T(), sem.TryAcquire(1))
	// A fresh block can still be allocated.
	b2, err := bp.Get()
	require.Nil(t.T(), err)
	assert.NotSame(t.T(), b, b2)
}

func (t *BlockPoolTest) TestDeallocateReleasesSemaphore() {
	sem := semaphore.NewWeighted(2)
	bp, err := NewBlockPool(1024, 10, sem)
	require.Nil(t.T(), err)
	b1, err := bp.Get()
	require.Nil(t.T(), err)
	_, err = bp.Get()
	require.Nil(t.T(), err)
	require.False(t.T(), sem.TryAcquire(1))

	err = bp.Deallocate(b1)

	require.Nil(t.T(), err)
	assert.Equal(t.T(), int64(1), bp.totalBlocks)
	assert.True(t.T(), sem.TryAcquire(1))
}

func (t *BlockPoolTest) TestClearFreeBlockChannel() {
	sem := semaphore.NewWeighted(3)
	bp, err := NewBlockPool(1024, 3, sem)
	require.Nil(t.T(), err)
	var blocks []Block
	for i := 0; i < 3; i++ {
		b, err := bp.Get()
		require.Nil(t.T(), err)
		blocks = append(blocks, b)
	}
	for _, b := range blocks {
		bp.Release(b)
	}

	err = bp.ClearFreeBlockChannel(true)

	require.Nil(t.T(), err)
	assert.Equal(t.T(), 0, bp.TotalFreeBlocks())
	assert.Equal(t.T(), int64(0), bp.totalBlocks)
	// All the semaphore units are returned.
	assert.True(t.T(), sem.TryAcquire(3))
}

func (t *BlockPoolTest) TestClearFreeBlockChannelWithoutReleasingLastBlock() {
	sem := semaphore.NewWeighted(2)
	bp, err := NewBlockPool(1024, 2, sem)
	require.Nil(t.T(), err)
	b, err := bp.Get()
	require.Nil(t.T(), err)
	bp.Release(b)

	err = bp.ClearFreeBlockChannel(false)

	require.Nil(t.T(), err)
	assert.True(t.T(), sem.TryAcquire(1))
	assert.False(t.T(), sem.TryAcquire(1))
}
