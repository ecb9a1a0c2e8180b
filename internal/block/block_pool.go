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
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

var CantAllocateAnyBlockError error = errors.New("cant allocate any upload block as global max blocks limit is reached")

// BlockPool hands out blocks of a fixed size to a single upload. The number
// of blocks alive across all pools sharing globalMaxBlocksSem is bounded by
// the semaphore's weight.
//
// BlockPool is not safe for concurrent use.
type BlockPool struct {
	// Channel holding free blocks.
	freeBlocksCh chan Block

	// Size of each block this pool holds.
	blockSize int64

	// Max number of blocks this blockPool can create.
	maxBlocks int64

	// Total number of blocks created so far and not yet deallocated.
	totalBlocks int64

	// Semaphore used to limit the total number of blocks created across
	// different uploads.
	globalMaxBlocksSem *semaphore.Weighted
}

// NewBlockPool creates a pool and reserves one unit of globalMaxBlocksSem so
// that the first block can always be allocated.
func NewBlockPool(blockSize int64, maxBlocks int64, globalMaxBlocksSem *semaphore.Weighted) (bp *BlockPool, err error) {
	if blockSize <= 0 || maxBlocks <= 0 {
		err = fmt.Errorf("invalid configuration provided for blockPool, blocksize: %d, maxBlocks: %d", blockSize, maxBlocks)
		return
	}

	bp = &BlockPool{
		freeBlocksCh:       make(chan Block, maxBlocks),
		blockSize:          blockSize,
		maxBlocks:          maxBlocks,
		totalBlocks:        0,
		globalMaxBlocksSem: globalMaxBlocksSem,
	}
	semAcquired := bp.globalMaxBlocksSem.TryAcquire(1)
	if !semAcquired {
		return nil, CantAllocateAnyBlockError
	}

	return bp, nil
}

// Get returns a free block if one is available, otherwise allocates a new
// one. It returns CantAllocateAnyBlockError when neither is possible.
func (bp *BlockPool) Get() (Block, error) {
	select {
	case b := <-bp.freeBlocksCh:
		// Reset the block for reuse.
		b.Reuse()
		return b, nil

	default:
		if bp.canAllocateBlock() {
			b, err := createBlock(bp.blockSize)
			if err != nil {
				return nil, err
			}

			bp.totalBlocks++
			return b, nil
		}
		return nil, CantAllocateAnyBlockError
	}
}

func (bp *BlockPool) canAllocateBlock() bool {
	// If max blocks limit is reached, then no more blocks can be allocated.
	if bp.totalBlocks >= bp.maxBlocks {
		return false
	}

	// Always allow allocation if this is the first block for the upload since
	// it has been reserved at the time of block pool creation.
	if bp.totalBlocks == 0 {
		return true
	}

	// Otherwise, check if we can acquire a semaphore.
	return bp.globalMaxBlocksSem.TryAcquire(1)
}

// Release puts the block back to the free list for a later Get.
func (bp *BlockPool) Release(b Block) {
	select {
	case bp.freeBlocksCh <- b:
	default:
		panic("Block pool's free blocks channel is full, this should never happen")
	}
}

// Deallocate frees a block obtained from Get instead of recycling it. The
// semaphore unit backing it is returned unless it is the reserved one.
func (bp *BlockPool) Deallocate(b Block) error {
	if err := b.Deallocate(); err != nil {
		return fmt.Errorf("block.Deallocate: %w", err)
	}
	bp.totalBlocks--
	if bp.totalBlocks != 0 {
		bp.globalMaxBlocksSem.Release(1)
	}
	return nil
}

func (bp *BlockPool) BlockSize() int64 {
	return bp.blockSize
}

// ClearFreeBlockChannel deallocates all the free blocks. The reserved
// semaphore unit is released iff releaseLastBlock is true, after which the
// pool must not be used.
func (bp *BlockPool) ClearFreeBlockChannel(releaseLastBlock bool) error {
	for {
		select {
		case b := <-bp.freeBlocksCh:
			err := b.Deallocate()
			if err != nil {
				return fmt.Errorf("block.Deallocate: %w", err)
			}
			bp.totalBlocks--
			if bp.totalBlocks != 0 {
				bp.globalMaxBlocksSem.Release(1)
			}
		default:
			// We are here, it means there are no more blocks in the free blocks channel.
			// Release semaphore for last block iff releaseLastBlock is true.
			if releaseLastBlock {
				bp.globalMaxBlocksSem.Release(1)
			}
			return nil
		}
	}
}

func (bp *BlockPool) TotalFreeBlocks() int {
	return len(bp.freeBlocksCh)
}
