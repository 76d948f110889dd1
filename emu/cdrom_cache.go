package emu

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/user-none/empsx/disc"
)

// DefaultSectorCacheSize is the number of raw sectors kept in memory.
const DefaultSectorCacheSize = 64

// sectorCache is a bounded LRU of raw sectors keyed by LBA. A nil cache
// reads straight through.
type sectorCache struct {
	lru *lru.Cache[int, []byte]
}

func newSectorCache(size int) (*sectorCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[int, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("sector cache: %w", err)
	}
	return &sectorCache{lru: c}, nil
}

// read returns the raw sector at lba, loading it from d on a miss.
func (c *sectorCache) read(d disc.Disc, lba int) ([]byte, error) {
	if c != nil {
		if buf, ok := c.lru.Get(lba); ok {
			return buf, nil
		}
	}
	buf := make([]byte, disc.RawSectorSize)
	if err := d.ReadSector(lba, buf); err != nil {
		return nil, err
	}
	if c != nil {
		c.lru.Add(lba, buf)
	}
	return buf, nil
}

func (c *sectorCache) purge() {
	if c != nil {
		c.lru.Purge()
	}
}

func (c *sectorCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
