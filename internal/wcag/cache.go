package wcag

// Cache memoizes relative luminance keyed by the packed 24-bit RGB value.
//
// A Cache is scoped to a single analysis task: it is created by the task,
// passed by reference into Search and dropped with the task's result.
// It is not safe for concurrent use.
type Cache struct {
	entries map[uint32]float64
	hits    int
	misses  int
}

// NewCache creates an empty luminance cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint32]float64, 1024)}
}

// PackRGB packs an 8-bit RGB triple into the cache key r<<16 | g<<8 | b.
func PackRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Luminance returns the relative luminance of (r, g, b), computing it on
// first use. A nil Cache computes without memoizing.
func (c *Cache) Luminance(r, g, b uint8) float64 {
	if c == nil {
		return RelativeLuminance(r, g, b)
	}
	key := PackRGB(r, g, b)
	if l, ok := c.entries[key]; ok {
		c.hits++
		return l
	}
	c.misses++
	l := RelativeLuminance(r, g, b)
	c.entries[key] = l
	return l
}

// Len returns the number of distinct colors cached.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	return c.hits, c.misses
}
