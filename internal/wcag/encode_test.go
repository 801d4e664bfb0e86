package wcag

import "testing"

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		radius int
		want   [4]uint8
	}{
		{0, [4]uint8{0, 0, 0, 128}},
		{1, [4]uint8{255, 255, 255, 255}},
		{2, [4]uint8{170, 170, 170, 255}},
		{3, [4]uint8{85, 85, 85, 255}},
		{4, [4]uint8{0, 0, 0, 128}},
	}
	for _, tt := range tests {
		var px [4]uint8
		Encode(px[:], tt.radius)
		if px != tt.want {
			t.Errorf("Encode(%d) = %v, want %v", tt.radius, px, tt.want)
		}
		wantRadius := tt.radius
		if wantRadius > MaxRadius {
			wantRadius = 0
		}
		if got := Decode(px[0], px[1], px[2], px[3]); got != wantRadius {
			t.Errorf("Decode(Encode(%d)) = %d", tt.radius, got)
		}
	}
}

func TestDecodeRejectsForeignPixels(t *testing.T) {
	for _, px := range [][4]uint8{
		{255, 255, 255, 128}, // right gray, wrong alpha
		{255, 0, 0, 255},     // not gray
		{100, 100, 100, 255}, // unknown tier
		{0, 0, 0, 0},
	} {
		if got := Decode(px[0], px[1], px[2], px[3]); got != 0 {
			t.Errorf("Decode(%v) = %d, want 0", px, got)
		}
	}
}
