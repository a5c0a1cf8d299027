package pix

import "testing"

func TestNewBuffer(t *testing.T) {
	b := New(4, 2, 3)
	if got := len(b.Pix); got != 24 {
		t.Errorf("New(4,2,3) allocated %d bytes, want 24", got)
	}
	if !b.Valid() {
		t.Error("freshly allocated buffer should be valid")
	}
}

func TestBufferValid(t *testing.T) {
	b := New(4, 2, 1)
	b.Pix = b.Pix[:len(b.Pix)-1]
	if b.Valid() {
		t.Error("truncated buffer should be invalid")
	}

	b = New(2, 2, 1)
	b.Channels = 2
	if b.Valid() {
		t.Error("2-channel buffer should be invalid")
	}
}

func TestBufferOffset(t *testing.T) {
	b := New(5, 3, 3)
	if got := b.Offset(2, 1); got != (1*5+2)*3 {
		t.Errorf("Offset(2,1) = %d, want %d", got, (1*5+2)*3)
	}
}

func TestNewBufferPanicsOnBadShape(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New with zero width should panic")
		}
	}()
	New(0, 2, 1)
}
