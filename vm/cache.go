package vm

import (
	"fmt"
	"math/bits"
)

// MSIState is the coherence state of a cache block. There is a single cache,
// so Shared is simply the clean valid state as opposed to Modified (dirty).
type MSIState int

const (
	Invalid MSIState = iota
	Shared
	Modified
)

func (s MSIState) String() string {
	switch s {
	case Shared:
		return "shared"
	case Modified:
		return "modified"
	default:
		return "invalid"
	}
}

// AccessOrigin says who initiated a cache write: the CPU's store path, or
// the cache itself while filling a line from backing memory.
type AccessOrigin int

const (
	OriginCPU AccessOrigin = iota
	OriginMem
)

// Block is one word of cached data together with its tag and MSI state.
type Block struct {
	Tag   uint32
	Data  uint32
	State MSIState
}

// Cache is a set-associative write-back, write-allocate data cache layered
// over a flat backing memory. Addresses are word addresses and decompose as
// [tag | set index | word offset] from the MSB. Each set carries a single
// LRU index naming the victim way for the next fill; it toggles on every
// install into a way.
type Cache struct {
	Size      int // bytes
	BlockSize int // bytes per line
	Ways      int

	NumSets      int
	WordsPerLine int
	OffsetBits   int
	SetBits      int
	TagBits      int

	blocks  [][][]Block // [set][way][offset]
	lru     []int
	backing *Memory

	// Access counters, reported by the statistics sink.
	Hits       uint64
	Misses     uint64
	Fills      uint64
	Writebacks uint64
}

// NewCache builds a cache of size bytes with blockSize-byte lines and the
// given associativity over backing. Size, line size, ways, words per line
// and set count must all be positive powers of two, and the associativity
// cannot exceed the block count.
func NewCache(size, blockSize, ways int, backing *Memory) (*Cache, error) {
	if !isPow2(size) || !isPow2(blockSize) || !isPow2(ways) {
		return nil, fmt.Errorf("invalid cache geometry: size %d, block size %d and ways %d must be positive powers of two", size, blockSize, ways)
	}
	wordsPerLine := blockSize / 4
	if !isPow2(wordsPerLine) {
		return nil, fmt.Errorf("invalid cache geometry: block size %d bytes is not a positive power-of-two word count", blockSize)
	}
	numBlocks := size / blockSize
	if ways > numBlocks {
		return nil, fmt.Errorf("invalid cache geometry: %d ways exceeds %d blocks", ways, numBlocks)
	}
	numSets := numBlocks / ways
	if !isPow2(numSets) {
		return nil, fmt.Errorf("invalid cache geometry: set count %d is not a positive power of two", numSets)
	}

	c := &Cache{
		Size:         size,
		BlockSize:    blockSize,
		Ways:         ways,
		NumSets:      numSets,
		WordsPerLine: wordsPerLine,
		OffsetBits:   bits.TrailingZeros(uint(wordsPerLine)),
		SetBits:      bits.TrailingZeros(uint(numSets)),
		backing:      backing,
		blocks:       make([][][]Block, numSets),
		lru:          make([]int, numSets),
	}
	c.TagBits = WordBits - c.SetBits - c.OffsetBits
	for s := range c.blocks {
		c.blocks[s] = make([][]Block, ways)
		for w := range c.blocks[s] {
			c.blocks[s][w] = make([]Block, wordsPerLine)
		}
	}
	return c, nil
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// decompose splits a word address into tag, set index and word offset.
func (c *Cache) decompose(address uint32) (tag, set, offset uint32) {
	offset = address & (uint32(c.WordsPerLine) - 1)
	set = (address >> uint(c.OffsetBits)) & (uint32(c.NumSets) - 1)
	tag = address >> uint(c.OffsetBits+c.SetBits)
	return
}

// compose rebuilds the word address of a block from its tag, set and offset.
func (c *Cache) compose(tag, set, offset uint32) uint32 {
	return tag<<uint(c.OffsetBits+c.SetBits) | set<<uint(c.OffsetBits) | offset
}

// probe returns the way holding address, or -1 on miss. A match requires tag
// equality and a valid (shared or modified) state.
func (c *Cache) probe(tag, set, offset uint32) int {
	for w := 0; w < c.Ways; w++ {
		b := &c.blocks[set][w][offset]
		if b.Tag == tag && b.State != Invalid {
			return w
		}
	}
	return -1
}

// Read returns the word at address, filling the line from backing memory on
// a miss. The returned flag reports whether the access hit.
func (c *Cache) Read(address uint32) (uint32, bool, error) {
	if int(address) >= c.backing.Size() {
		return 0, false, fmt.Errorf("memory access violation: word address %d is outside memory of %d words", address, c.backing.Size())
	}
	tag, set, offset := c.decompose(address)
	if w := c.probe(tag, set, offset); w >= 0 {
		c.Hits++
		return c.blocks[set][w][offset].Data, true, nil
	}
	c.Misses++
	w, err := c.fill(tag, set)
	if err != nil {
		return 0, false, err
	}
	return c.blocks[set][w][offset].Data, false, nil
}

// Write stores value at address. A CPU store that hits overwrites the block
// and leaves it modified; one that misses allocates the line first. A write
// of origin mem is a line-fill word and installs clean.
func (c *Cache) Write(address uint32, value uint32, origin AccessOrigin) (bool, error) {
	if int(address) >= c.backing.Size() {
		return false, fmt.Errorf("memory access violation: word address %d is outside memory of %d words", address, c.backing.Size())
	}
	tag, set, offset := c.decompose(address)

	if origin == OriginMem {
		w := c.probe(tag, set, offset)
		if w < 0 {
			w = c.lru[set]
			c.lru[set] = (w + 1) % c.Ways
		}
		b := &c.blocks[set][w][offset]
		if b.State == Modified && b.Tag != tag {
			if err := c.backing.WriteWord(c.compose(b.Tag, set, offset), b.Data); err != nil {
				return false, err
			}
			c.Writebacks++
		}
		b.Tag = tag
		b.Data = value
		b.State = Shared
		return false, nil
	}

	if w := c.probe(tag, set, offset); w >= 0 {
		c.Hits++
		b := &c.blocks[set][w][offset]
		b.Data = value
		b.State = Modified
		c.lru[set] = (w + 1) % c.Ways
		return true, nil
	}

	c.Misses++
	w, err := c.fill(tag, set)
	if err != nil {
		return false, err
	}
	b := &c.blocks[set][w][offset]
	b.Data = value
	b.State = Modified
	c.lru[set] = (w + 1) % c.Ways
	return false, nil
}

// State reports the MSI state of the block holding address, or invalid when
// the tag matches in neither way.
func (c *Cache) State(address uint32) MSIState {
	tag, set, offset := c.decompose(address)
	if w := c.probe(tag, set, offset); w >= 0 {
		return c.blocks[set][w][offset].State
	}
	return Invalid
}

// fill evicts the victim way of set and loads the line for tag from backing
// memory, leaving every installed block shared. Modified blocks in the
// victim way are written back to their tagged addresses first. Returns the
// way the line landed in.
func (c *Cache) fill(tag, set uint32) (int, error) {
	victim := c.lru[set]
	for o := 0; o < c.WordsPerLine; o++ {
		b := &c.blocks[set][victim][o]
		if b.State == Modified {
			addr := c.compose(b.Tag, set, uint32(o))
			if err := c.backing.WriteWord(addr, b.Data); err != nil {
				return 0, err
			}
			c.Writebacks++
		}
	}
	for o := 0; o < c.WordsPerLine; o++ {
		addr := c.compose(tag, set, uint32(o))
		v, err := c.backing.ReadWord(addr)
		if err != nil {
			return 0, err
		}
		c.blocks[set][victim][o] = Block{Tag: tag, Data: v, State: Shared}
	}
	c.Fills++
	c.lru[set] = (victim + 1) % c.Ways
	return victim, nil
}

// Set returns the blocks of one set, outermost by way, for inspection by
// the debugger views.
func (c *Cache) Set(set int) [][]Block {
	return c.blocks[set]
}
