package wcag

import "testing"

func TestCacheMemoizes(t *testing.T) {
	c := NewCache()
	a := c.Luminance(10, 20, 30)
	b := c.Luminance(10, 20, 30)
	if a != b {
		t.Fatalf("cached value changed: %v != %v", a, b)
	}
	if want := RelativeLuminance(10, 20, 30); a != want {
		t.Errorf("Luminance = %v, want %v", a, want)
	}
	c.Luminance(30, 20, 10)

	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Stats() = (%d, %d), want (1, 2)", hits, misses)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if got, want := c.Luminance(1, 2, 3), RelativeLuminance(1, 2, 3); got != want {
		t.Errorf("nil cache Luminance = %v, want %v", got, want)
	}
	if c.Len() != 0 {
		t.Error("nil cache Len should be 0")
	}
}

func TestPackRGB(t *testing.T) {
	if got := PackRGB(0x12, 0x34, 0x56); got != 0x123456 {
		t.Errorf("PackRGB = %#x, want 0x123456", got)
	}
}
