package terrain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"terraincontrol.ai/internal/gen/material"
)

type ChunkKey struct {
	CX int
	CZ int
}

// Chunk is a 16 x Height x 16 column of blocks packed as id<<4 | data.
type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint16

	dirty bool
	hash  [32]byte
}

func NewChunk(cx, cz, height int) *Chunk {
	return &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: height,
		Blocks: make([]uint16, 16*16*height),
	}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*16 + y*256
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

func Pack(id, data int) uint16 {
	return uint16(id)<<4 | uint16(data&0xF)
}

func Unpack(b uint16) (id, data int) {
	return int(b >> 4), int(b & 0xF)
}

// BaseGen fills a freshly allocated chunk before any population runs.
type BaseGen interface {
	GenerateChunk(ch *Chunk)
}

// ChunkStore is an in-memory World. Chunks are generated by Gen on first
// access. All methods are safe for concurrent use.
type ChunkStore struct {
	Gen       BaseGen
	Materials *material.Table

	mu     sync.Mutex
	height int
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen BaseGen, mats *material.Table, height int) *ChunkStore {
	if mats == nil {
		mats = material.Default()
	}
	if height <= 0 || height > WorldHeight {
		height = WorldHeight
	}
	return &ChunkStore{
		Gen:       gen,
		Materials: mats,
		height:    height,
		Chunks:    map[ChunkKey]*Chunk{},
	}
}

func (s *ChunkStore) Height() int {
	return s.height
}

func (s *ChunkStore) getLocked(x, y, z int) uint16 {
	if y < 0 || y >= s.height {
		return 0
	}
	ch := s.chunkLocked(floorDiv(x, 16), floorDiv(z, 16))
	return ch.Get(mod(x, 16), y, mod(z, 16))
}

// Block returns the packed block at a position. Out-of-range y reads as air.
func (s *ChunkStore) Block(x, y, z int) (id, data int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Unpack(s.getLocked(x, y, z))
}

func (s *ChunkStore) BlockID(x, y, z int) int {
	id, _ := s.Block(x, y, z)
	return id
}

func (s *ChunkStore) IsEmpty(x, y, z int) bool {
	return s.BlockID(x, y, z) == 0
}

func (s *ChunkStore) IsLiquid(x, y, z int) bool {
	return s.Materials.IsLiquid(s.BlockID(x, y, z))
}

func (s *ChunkStore) HighestSolidY(x, z int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := s.height - 1; y >= 0; y-- {
		if s.getLocked(x, y, z)>>4 != 0 {
			return y + 1
		}
	}
	return 0
}

// SetBlock ignores writes outside the world's vertical range.
func (s *ChunkStore) SetBlock(x, y, z, id, data int) {
	if y < 0 || y >= s.height {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.chunkLocked(floorDiv(x, 16), floorDiv(z, 16))
	ch.Set(mod(x, 16), y, mod(z, 16), Pack(id, data))
}

// GetOrGenChunk returns the chunk, generating its base terrain if needed.
func (s *ChunkStore) GetOrGenChunk(cx, cz int) *Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkLocked(cx, cz)
}

func (s *ChunkStore) chunkLocked(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := NewChunk(cx, cz, s.height)
	if s.Gen != nil {
		s.Gen.GenerateChunk(ch)
	}
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}

// ChunkBlocks copies a chunk's packed blocks, generating it if needed.
func (s *ChunkStore) ChunkBlocks(cx, cz int) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint16(nil), s.chunkLocked(cx, cz).Blocks...)
}

// PutChunk installs previously saved blocks, replacing any loaded chunk.
// The base generator is not consulted.
func (s *ChunkStore) PutChunk(cx, cz int, blocks []uint16) error {
	if len(blocks) != 16*16*s.height {
		return fmt.Errorf("chunk %d,%d: %d blocks, want %d", cx, cz, len(blocks), 16*16*s.height)
	}
	ch := NewChunk(cx, cz, s.height)
	copy(ch.Blocks, blocks)
	ch.dirty = true
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Chunks[ChunkKey{CX: cx, CZ: cz}] = ch
	return nil
}

// Heightmap returns HighestSolidY for every column of a chunk, indexed
// x + z*16.
func (s *ChunkStore) Heightmap(cx, cz int) []int {
	out := make([]int, 256)
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			out[x+z*16] = s.HighestSolidY(cx*16+x, cz*16+z)
		}
	}
	return out
}

// ChunkDigest hashes the current contents of a chunk.
func (s *ChunkStore) ChunkDigest(cx, cz int) [32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkLocked(cx, cz).Digest()
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}
